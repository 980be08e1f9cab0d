package source

import (
	"errors"
	"fmt"
)

// ErrNoSource is returned by ResolveExisting when none of the three
// source fields of an entity is populated.
var ErrNoSource = errors.New("media entity has no source field populated")

type (
	// InvalidSourceError indicates a creation request with zero or more
	// than one source field set, or a request whose filename could not
	// be determined.
	InvalidSourceError struct {
		Reason string
	}

	// SourceFetchError indicates a failure fetching a remote URL source.
	SourceFetchError struct {
		URL string
		Err error
	}

	// SourceReadError indicates a failure reading a local path source.
	SourceReadError struct {
		Path string
		Err  error
	}
)

func (e *InvalidSourceError) Error() string {
	return fmt.Sprintf("invalid media source: %s", e.Reason)
}

func (e *SourceFetchError) Error() string {
	return fmt.Sprintf("failed to fetch source url '%s': %v", e.URL, e.Err)
}

func (e *SourceFetchError) Unwrap() error { return e.Err }

func (e *SourceReadError) Error() string {
	return fmt.Sprintf("failed to read source path '%s': %v", e.Path, e.Err)
}

func (e *SourceReadError) Unwrap() error { return e.Err }
