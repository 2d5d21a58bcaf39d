package respond

import (
	"net/http"

	"github.com/wb-go/wbf/ginext"
)

// Error represents a standard structure for error responses.
// Err carries the underlying error text when there is one.
type Error struct {
	Message string `json:"message"`
	Err     string `json:"error,omitempty"`
}

// JPEG writes encoded JPEG bytes as the HTTP response.
func JPEG(c *ginext.Context, status int, data []byte) {
	c.Data(status, "image/jpeg", data)
}

// JSON sends a JSON response with the specified HTTP status code and data.
// It uses the Gin context to encode the data into JSON format.
func JSON(c *ginext.Context, status int, data interface{}) {
	c.JSON(status, data)
}

// OK sends a 200 OK JSON response.
func OK(c *ginext.Context, data interface{}) {
	JSON(c, http.StatusOK, data)
}

// Fail sends an error JSON response with the specified HTTP status code.
// err may be nil when the message says it all.
func Fail(c *ginext.Context, status int, message string, err error) {
	body := Error{Message: message}
	if err != nil {
		body.Err = err.Error()
	}

	JSON(c, status, body)
}
