package video

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// ContainerExtensions lists output extensions routed to the container backend.
var ContainerExtensions = []string{".mp4", ".m4v", ".avi", ".mov", ".mkv"}

// IsContainerPath reports whether path names a video container file.
func IsContainerPath(path string) bool {
	return slices.Contains(ContainerExtensions, strings.ToLower(filepath.Ext(path)))
}

// Router sends directories to the still-image sequence backend and files
// to a container backend.
type Router struct {
	Container Backend
	Sequence  SequenceOptions
}

// NewRouter returns a router using container for video files.
func NewRouter(container Backend) *Router {
	return &Router{Container: container, Sequence: DefaultSequenceOptions()}
}

// Open opens path as a sequence when it is a directory and through the
// container backend otherwise.
func (r *Router) Open(path string) (Source, error) {
	if err := CheckExists(path); err != nil {
		return nil, err
	}
	fi, err := os.Stat(path)
	if err != nil {
		return nil, newError(ErrOpen, "open", path, err)
	}
	if fi.IsDir() {
		return OpenSequence(path)
	}
	if r.Container == nil {
		return nil, newError(ErrOpen, "open", path, errors.New("no container backend configured"))
	}
	return r.Container.Open(path)
}

// Create writes container files for known video extensions and still-image
// sequences for everything else.
func (r *Router) Create(path string, meta Metadata) (Sink, error) {
	if !IsContainerPath(path) {
		return CreateSequence(path, meta, r.Sequence)
	}
	if r.Container == nil {
		return nil, newError(ErrOpen, "create", path, errors.New("no container backend configured"))
	}
	return r.Container.Create(path, meta)
}
