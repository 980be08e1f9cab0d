package media

import "fmt"

type (
	// ConfigError indicates a missing or invalid piece of configuration
	// (storage pattern, path prefix, strategy, rendition parameters).
	// Operations raising it fail before any side effect occurs.
	ConfigError struct {
		Reason string
	}

	// StorageWriteError indicates a failure to write bytes to a
	// computed destination path.
	StorageWriteError struct {
		Path string
		Err  error
	}
)

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s", e.Reason)
}

func (e *StorageWriteError) Error() string {
	return fmt.Sprintf("failed to write '%s': %v", e.Path, e.Err)
}

func (e *StorageWriteError) Unwrap() error { return e.Err }
