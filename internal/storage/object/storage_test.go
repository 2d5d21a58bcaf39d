package object

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestObjectName(t *testing.T) {
	assert.Equal(t, "images/a.jpg", ObjectName("images", "a.jpg"))
	assert.Equal(t, "a.jpg", ObjectName("", "a.jpg"))
	assert.Equal(t, "x/y/a.jpg", ObjectName("x/y/", "a.jpg"))
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "image/jpeg", contentType("a.jpg"))
	assert.Equal(t, "image/png", contentType("a.PNG"))
	assert.Equal(t, "application/octet-stream", contentType("a"))
}
