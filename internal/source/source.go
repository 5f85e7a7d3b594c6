// Package source opens the roster an audit reads from. A location is either a
// local file path or an s3://bucket/key object reference.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/specialistvlad/orgaudit/internal/ctxlog"
)

// ErrNotFound is returned when the roster location does not exist.
var ErrNotFound = errors.New("roster not found")

// Source is a readable roster location.
type Source interface {
	// Open returns a reader over the raw roster bytes. The caller closes it.
	Open(ctx context.Context) (io.ReadCloser, error)
	// Location returns the location string the source was built from.
	Location() string
}

// Resolve picks the Source implementation for location.
func Resolve(ctx context.Context, location string, s3Cfg S3Config) (Source, error) {
	logger := ctxlog.FromContext(ctx)
	if bucket, key, ok := parseS3URL(location); ok {
		logger.Debug("Resolved S3 roster source.", "bucket", bucket, "key", key)
		return NewS3(ctx, bucket, key, s3Cfg)
	}
	if strings.HasPrefix(location, s3Scheme) {
		return nil, fmt.Errorf("invalid S3 location %q: expected s3://bucket/key", location)
	}
	logger.Debug("Resolved file roster source.", "path", location)
	return NewFile(location), nil
}

// File reads a roster from the local file system.
type File struct {
	path string
}

// NewFile creates a File source for path.
func NewFile(path string) *File {
	return &File{path: path}
}

// Location returns the file path.
func (f *File) Location() string {
	return f.path
}

// Open opens the file for reading.
func (f *File) Open(ctx context.Context) (io.ReadCloser, error) {
	info, err := os.Stat(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: file does not exist: %s", ErrNotFound, f.path)
		}
		return nil, fmt.Errorf("error accessing path %s: %w", f.path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("path %s is a directory, expected a roster file", f.path)
	}

	file, err := os.Open(f.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open roster %s: %w", f.path, err)
	}
	ctxlog.FromContext(ctx).Debug("Roster file opened.", "path", f.path, "bytes", info.Size())
	return file, nil
}
