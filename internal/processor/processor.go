package processor

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/disintegration/imaging"
)

// Thumbnail bounds, in pixels.
const (
	DefaultSize = 160
	MaxSize     = 1024
)

// ErrInvalidSize is returned for thumbnail dimensions outside (0, MaxSize].
var ErrInvalidSize = errors.New("invalid thumbnail size")

// fileStorage defines where source images are read from.
type fileStorage interface {
	Open(filename string) (*os.File, error)
}

// Processor renders previews of images held in the target directory.
type Processor struct {
	fileStorage fileStorage
}

// New creates a new Processor reading from the given storage.
func New(fs fileStorage) *Processor {
	return &Processor{fileStorage: fs}
}

// Thumbnail loads the named image and returns a JPEG thumbnail cropped to
// exactly width x height.
func (p *Processor) Thumbnail(filename string, width, height int) ([]byte, error) {
	if width <= 0 || height <= 0 || width > MaxSize || height > MaxSize {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}

	// Load the original image.
	src, err := p.fileStorage.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to load image: %w", err)
	}
	defer src.Close()

	// Decode into an image object, honoring EXIF orientation.
	img, err := imaging.Decode(src, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	thumb := imaging.Thumbnail(img, width, height, imaging.Lanczos)

	buf := bytes.NewBuffer(nil)
	if err := imaging.Encode(buf, thumb, imaging.JPEG); err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail: %w", err)
	}

	return buf.Bytes(), nil
}
