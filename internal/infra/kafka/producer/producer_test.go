package producer

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/wb-go/wbf/retry"

	"github.com/aliskhannn/image-reconciler/internal/model"
)

type mockClient struct {
	mock.Mock
}

func (m *mockClient) SendWithRetry(ctx context.Context, strategy retry.Strategy, key, value []byte) error {
	return m.Called(ctx, strategy, key, value).Error(0)
}

func (m *mockClient) Close() error {
	return m.Called().Error(0)
}

func TestPublish(t *testing.T) {
	c := new(mockClient)
	strategy := retry.Strategy{Attempts: 3}
	p := &Producer{client: c, strategy: strategy}

	job := model.Job{ID: uuid.New(), Status: model.StatusCompleted, Result: model.NewResult()}
	job.Result.CopiedImages = append(job.Result.CopiedImages, "a.jpg")

	var sent []byte
	c.On("SendWithRetry", mock.Anything, strategy, []byte(job.ID.String()), mock.Anything).
		Run(func(args mock.Arguments) { sent = args.Get(3).([]byte) }).
		Return(nil).Once()

	require.NoError(t, p.Publish(context.Background(), job))

	var got model.Job
	require.NoError(t, json.Unmarshal(sent, &got))
	assert.Equal(t, job.ID, got.ID)
	assert.Equal(t, []string{"a.jpg"}, got.Result.CopiedImages)
	c.AssertExpectations(t)
}

func TestPublishError(t *testing.T) {
	c := new(mockClient)
	p := &Producer{client: c}

	boom := errors.New("broker unavailable")
	c.On("SendWithRetry", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(boom)
	c.On("Close").Return(nil)

	err := p.Publish(context.Background(), model.Job{ID: uuid.New()})
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, p.Close())
}
