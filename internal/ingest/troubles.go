package ingest

import (
	"errors"
	"fmt"

	"mediakit/internal/media"
	"mediakit/internal/source"
)

type (
	TroubleType int

	// Trouble wraps the error an ingestion failed with, classified so
	// the caller knows which resolutions can clear it.
	Trouble struct {
		error
		tType TroubleType
	}

	ResolutionType  int
	RetryResolution struct{}
	AbortResolution struct{}
)

const (
	SourceFailure TroubleType = iota
	ConfigFailure
	GenericFailure

	Retry ResolutionType = iota
	Abort
)

var (
	ErrNoTrouble              = errors.New("ingestion has no trouble")
	ErrIngestNotFound         = errors.New("no ingest task could be found")
	ErrResolutionIncompatible = errors.New("provided resolution method is not valid for ingestion trouble")
)

var allowedResolutionTypes = map[TroubleType][]ResolutionType{
	SourceFailure:  {Abort, Retry},
	ConfigFailure:  {Abort, Retry},
	GenericFailure: {Abort, Retry},
}

func newTrouble(err error) Trouble {
	var (
		invalidSource *source.InvalidSourceError
		sourceRead    *source.SourceReadError
		sourceFetch   *source.SourceFetchError
		config        *media.ConfigError
	)

	switch {
	case errors.As(err, &invalidSource), errors.As(err, &sourceRead), errors.As(err, &sourceFetch):
		return Trouble{error: err, tType: SourceFailure}
	case errors.As(err, &config):
		return Trouble{error: err, tType: ConfigFailure}
	}

	return Trouble{error: err, tType: GenericFailure}
}

func (t *Trouble) Type() TroubleType { return t.tType }

func (t *Trouble) AllowedResolutionTypes() []ResolutionType {
	if allowed, ok := allowedResolutionTypes[t.tType]; ok {
		return allowed
	}

	return []ResolutionType{}
}

func (t *Trouble) isResolutionTypeAllowed(resType ResolutionType) bool {
	for _, v := range t.AllowedResolutionTypes() {
		if v == resType {
			return true
		}
	}

	return false
}

func (t *Trouble) GenerateResolution(resolutionMethod ResolutionType) (interface{}, error) {
	if !t.isResolutionTypeAllowed(resolutionMethod) {
		return nil, ErrResolutionIncompatible
	}

	switch resolutionMethod {
	case Abort:
		return &AbortResolution{}, nil
	case Retry:
		return &RetryResolution{}, nil
	default:
		return nil, ErrResolutionIncompatible
	}
}

func (t TroubleType) String() string {
	switch t {
	case SourceFailure:
		return fmt.Sprintf("SOURCE_FAILURE[%d]", t)
	case ConfigFailure:
		return fmt.Sprintf("CONFIG_FAILURE[%d]", t)
	case GenericFailure:
		return fmt.Sprintf("GENERIC_FAILURE[%d]", t)
	default:
		return fmt.Sprintf("UNKNOWN[%d]", t)
	}
}
