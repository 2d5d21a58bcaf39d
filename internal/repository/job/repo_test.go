package job

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aliskhannn/image-reconciler/internal/model"
)

// fakeRow copies fixed values into Scan destinations in column order.
type fakeRow struct {
	values []any
	err    error
}

func (f fakeRow) Scan(dest ...any) error {
	if f.err != nil {
		return f.err
	}

	for i, d := range dest {
		switch p := d.(type) {
		case *uuid.UUID:
			*p = f.values[i].(uuid.UUID)
		case *string:
			*p = f.values[i].(string)
		case *[]byte:
			*p = f.values[i].([]byte)
		case *time.Time:
			*p = f.values[i].(time.Time)
		}
	}

	return nil
}

func TestScanJob(t *testing.T) {
	id := uuid.New()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	job, err := scanJob(fakeRow{values: []any{
		id, "t.csv", "/src", "./images", model.StatusCompleted, "",
		[]byte(`{"copied_images":["a.jpg"],"not_found_images":["b.jpg"]}`),
		now, now.Add(time.Second),
	}})
	require.NoError(t, err)

	assert.Equal(t, id, job.ID)
	assert.Equal(t, "t.csv", job.TableName)
	assert.Equal(t, []string{"a.jpg"}, job.Result.CopiedImages)
	assert.Equal(t, []string{"b.jpg"}, job.Result.NotFoundImages)
	assert.NotNil(t, job.Result.SkippedRows)
	assert.Equal(t, now.Add(time.Second), job.FinishedAt)
}

func TestScanJobErrors(t *testing.T) {
	boom := errors.New("scan failed")
	_, err := scanJob(fakeRow{err: boom})
	assert.ErrorIs(t, err, boom)

	_, err = scanJob(fakeRow{values: []any{
		uuid.New(), "t.csv", "/src", "./images", model.StatusFailed, "x",
		[]byte(`not json`), time.Now(), time.Now(),
	}})
	assert.Error(t, err)
}
