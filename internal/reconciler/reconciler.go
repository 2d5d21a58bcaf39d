// Package reconciler copies the images referenced by a table from a source
// directory into the target directory and reports what was found.
package reconciler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"

	"github.com/wb-go/wbf/zlog"

	"github.com/aliskhannn/image-reconciler/internal/model"
	"github.com/aliskhannn/image-reconciler/internal/storage/file"
)

// ErrStream marks a failure to read the table itself, as opposed to a problem
// with a single row.
var ErrStream = errors.New("failed to read table")

// Reason recorded for rows whose image cell holds no usable filename.
const reasonEmptyPath = "empty image path"

// RowReader yields table records until io.EOF.
type RowReader interface {
	Next() (model.Record, error)
}

// fileStorage defines the target directory the images are copied into.
type fileStorage interface {
	Copy(srcPath, filename string) (string, error)
	Dir() string
}

// mirror optionally replicates every copied image to a secondary store.
type mirror interface {
	Mirror(ctx context.Context, name, path string) error
}

// Reconciler runs reconciliation jobs against a single target directory.
// Jobs are serialized so that two uploads never write the same file at once.
type Reconciler struct {
	target fileStorage
	mirror mirror
	mu     sync.Mutex
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithMirror replicates copied images through m.
func WithMirror(m mirror) Option {
	return func(r *Reconciler) {
		r.mirror = m
	}
}

// New creates a Reconciler that copies images into target.
func New(target fileStorage, opts ...Option) *Reconciler {
	r := &Reconciler{target: target}
	for _, opt := range opts {
		opt(r)
	}

	return r
}

// TargetDir returns the directory images are copied into.
func (r *Reconciler) TargetDir() string {
	return r.target.Dir()
}

// Reconcile consumes rows until the table is exhausted, copying every image
// found in sourceDir into the target directory.
//
// Per-row failures never abort the job: the row is recorded in SkippedRows.
// If the table cannot be read, the partial result accumulated so far is
// returned together with an error wrapping ErrStream.
func (r *Reconciler) Reconcile(ctx context.Context, rows RowReader, sourceDir string) (model.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	res := model.NewResult()

	for n := 1; ; n++ {
		if err := ctx.Err(); err != nil {
			return res, fmt.Errorf("%w: %w", ErrStream, err)
		}

		rec, err := rows.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			zlog.Logger.Err(err).Int("row", n).Msg("failed to read table")
			return res, fmt.Errorf("%w: %w", ErrStream, err)
		}

		r.processRow(ctx, &res, n, rec[model.ImageColumn], sourceDir)
	}

	zlog.Logger.Info().
		Int("copied", len(res.CopiedImages)).
		Int("not_found", len(res.NotFoundImages)).
		Int("skipped", len(res.SkippedRows)).
		Str("source", sourceDir).
		Str("target", r.target.Dir()).
		Msg("reconciliation finished")

	return res, nil
}

// processRow classifies a single row and appends it to exactly one list of res.
func (r *Reconciler) processRow(ctx context.Context, res *model.Result, n int, value, sourceDir string) {
	name := ImageName(value)
	if name == "" {
		zlog.Logger.Warn().Int("row", n).Str("value", value).Msg("skipping row without image path")
		res.SkippedRows = append(res.SkippedRows, model.SkippedRow{Row: n, Value: value, Reason: reasonEmptyPath})
		return
	}

	srcPath := filepath.Join(sourceDir, name)

	if _, err := file.Stat(srcPath); err != nil {
		zlog.Logger.Info().Str("image", name).Msg("file not found")
		res.NotFoundImages = append(res.NotFoundImages, name)
		return
	}

	dst, err := r.target.Copy(srcPath, name)
	if err != nil {
		zlog.Logger.Err(err).Int("row", n).Str("image", name).Msg("failed to copy image")
		res.SkippedRows = append(res.SkippedRows, model.SkippedRow{Row: n, Value: value, Reason: err.Error()})
		return
	}

	zlog.Logger.Info().Str("image", name).Str("target", dst).Msg("copied image")
	res.CopiedImages = append(res.CopiedImages, name)

	if r.mirror != nil {
		if err := r.mirror.Mirror(ctx, name, dst); err != nil {
			zlog.Logger.Err(err).Str("image", name).Msg("failed to mirror image")
		}
	}
}

// ImageName returns the final path component of a table cell.
// Both slash and backslash separate components, so paths exported on Windows
// resolve to the same basename. Returns "" when no usable name remains.
func ImageName(value string) string {
	v := strings.TrimSpace(value)
	if i := strings.LastIndexAny(v, `/\`); i >= 0 {
		v = v[i+1:]
	}

	switch v {
	case "", ".", "..":
		return ""
	}

	return v
}
