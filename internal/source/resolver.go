package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"

	"mediakit/internal/media"
	"mediakit/pkg/logger"
)

var log = logger.Get("Source")

type (
	// Resolved is the normalised output of create-input resolution:
	// the source bytes and the (slugified) name they should be stored
	// under.
	Resolved struct {
		Body     []byte
		Filename string
	}

	// Resolver normalises the source of a media creation request down
	// to raw bytes, and reads back the source bytes of existing
	// entities from whichever field holds them.
	Resolver struct {
		client *http.Client
	}
)

// NewResolver constructs a resolver using the provided HTTP client for
// URL-sourced media. A nil client falls back to a default with a 30s
// timeout.
func NewResolver(client *http.Client) *Resolver {
	if client == nil {
		client = &http.Client{Timeout: time.Second * 30}
	}

	return &Resolver{client: client}
}

// ResolveCreateInput validates that exactly one source field is set on
// the request, fetches/reads the source bytes, and derives a filename
// when the request does not carry one. The returned filename is
// slugified.
func (resolver *Resolver) ResolveCreateInput(ctx context.Context, req media.CreateRequest) (*Resolved, error) {
	populated := 0
	if len(req.File) > 0 {
		populated++
	}
	if req.FileURL != "" {
		populated++
	}
	if req.FilePath != "" {
		populated++
	}

	if populated == 0 {
		return nil, &InvalidSourceError{Reason: "no 'file', 'file_url' nor 'file_path' field set"}
	}
	if populated > 1 {
		return nil, &InvalidSourceError{Reason: "too many source file fields set"}
	}

	var body []byte
	filename := req.Filename

	switch {
	case req.FileURL != "":
		fetched, err := resolver.fetch(ctx, req.FileURL)
		if err != nil {
			return nil, err
		}

		body = fetched
		if filename == "" {
			filename = filenameFromURL(req.FileURL)
		}
	case req.FilePath != "":
		read, err := os.ReadFile(req.FilePath)
		if err != nil {
			return nil, &SourceReadError{Path: req.FilePath, Err: err}
		}

		body = read
		if filename == "" {
			filename = filepath.Base(req.FilePath)
		}
	default:
		body = req.File
	}

	if filename == "" || filename == "." || filename == "/" {
		return nil, &InvalidSourceError{Reason: "no 'filename' set and none could be derived"}
	}

	return &Resolved{Body: body, Filename: Slugify(filename, false)}, nil
}

// ResolveExisting returns the source bytes of an existing entity, read
// from whichever of {file, file_path, file_url} is populated (in that
// precedence order). ErrNoSource is returned when no source field is
// populated at all.
func (resolver *Resolver) ResolveExisting(ctx context.Context, m *media.Media) ([]byte, error) {
	switch m.SourceField() {
	case media.FileField:
		return m.File, nil
	case media.FilePathField:
		body, err := os.ReadFile(m.FilePath)
		if err != nil {
			return nil, &SourceReadError{Path: m.FilePath, Err: err}
		}

		return body, nil
	case media.FileURLField:
		return resolver.fetch(ctx, m.FileURL)
	default:
		log.Warnf("No source file set on %s\n", m)
		return nil, ErrNoSource
	}
}

func (resolver *Resolver) fetch(ctx context.Context, sourceURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return nil, &SourceFetchError{URL: sourceURL, Err: err}
	}

	resp, err := resolver.client.Do(req)
	if err != nil {
		return nil, &SourceFetchError{URL: sourceURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &SourceFetchError{URL: sourceURL, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &SourceFetchError{URL: sourceURL, Err: err}
	}

	return body, nil
}

func filenameFromURL(sourceURL string) string {
	parsed, err := url.Parse(sourceURL)
	if err != nil {
		return ""
	}

	return path.Base(parsed.Path)
}
