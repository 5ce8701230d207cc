package video

import (
	"errors"
	"fmt"
	"os"
)

// Error kinds. Match them with errors.Is.
var (
	// ErrNotFound means the input path does not exist.
	ErrNotFound = errors.New("not found")
	// ErrOpen means a decoder or encoder could not be initialised.
	ErrOpen = errors.New("open failed")
	// ErrRead means a frame could not be decoded mid-stream.
	ErrRead = errors.New("read failed")
	// ErrWrite means a sink rejected a frame.
	ErrWrite = errors.New("write failed")
)

// Error describes a failed video operation.
type Error struct {
	Kind error
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("video %s %s: %v", e.Op, e.Path, e.Kind)
	}
	return fmt.Sprintf("video %s %s: %v: %v", e.Op, e.Path, e.Kind, e.Err)
}

// Unwrap exposes both the kind and the underlying cause.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newError(kind error, op, path string, err error) *Error {
	return &Error{Kind: kind, Op: op, Path: path, Err: err}
}

// CheckExists returns an ErrNotFound error when path does not exist.
func CheckExists(path string) error {
	if path == "" {
		return newError(ErrNotFound, "open", path, errors.New("empty path"))
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return newError(ErrNotFound, "open", path, nil)
		}
		return newError(ErrOpen, "open", path, err)
	}
	return nil
}

// OpenError wraps err as an ErrOpen failure. Backends outside this
// package use it to report decoder and encoder setup problems.
func OpenError(op, path string, err error) error {
	return newError(ErrOpen, op, path, err)
}

// ReadError wraps err as an ErrRead failure.
func ReadError(path string, err error) error {
	return newError(ErrRead, "read", path, err)
}

// WriteError wraps err as an ErrWrite failure.
func WriteError(path string, err error) error {
	return newError(ErrWrite, "write", path, err)
}
