package metadata

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"mediakit/internal/database"
	"mediakit/internal/media"
	"mediakit/pkg/logger"
)

var log = logger.Get("Metadata")

type (
	// MetadataWriteError indicates the codec service failed to
	// re-serialise metadata into the source bytes.
	MetadataWriteError struct {
		Err error
	}

	// TagPersistenceError indicates a failure while looking up or
	// creating the tags an entity's multi-value field maps to.
	TagPersistenceError struct {
		Err error
	}

	tagStore interface {
		SaveTags(db database.Queryable, mediaType media.Type, names []string) ([]*media.Tag, error)
		ReplaceMediaTagAssociations(db database.Queryable, mediaID uuid.UUID, tags []*media.Tag) error
	}

	// Synchronizer round-trips domain metadata between entities and
	// their source bytes: extraction on read, re-serialisation (plus
	// tag vocabulary upkeep) on every update.
	Synchronizer struct {
		codec    Codec
		registry *media.Registry
		store    tagStore
	}
)

func (e *MetadataWriteError) Error() string {
	return fmt.Sprintf("failed to write metadata to source: %v", e.Err)
}

func (e *MetadataWriteError) Unwrap() error { return e.Err }

func (e *TagPersistenceError) Error() string {
	return fmt.Sprintf("failed to persist media tags: %v", e.Err)
}

func (e *TagPersistenceError) Unwrap() error { return e.Err }

func NewSynchronizer(codec Codec, registry *media.Registry, store tagStore) *Synchronizer {
	return &Synchronizer{codec: codec, registry: registry, store: store}
}

// Extract reads the domain metadata of the source bytes provided,
// restricted to the allow-list of fields the registry declares for the
// media type. The multi-value field (if the type declares one) is
// flattened into a normalised token list.
func (sync *Synchronizer) Extract(ctx context.Context, source []byte, mediaType media.Type) (media.Metadata, error) {
	def, ok := sync.registry.Get(mediaType)
	if !ok {
		return nil, &media.ConfigError{Reason: fmt.Sprintf("unknown media type '%s'", mediaType)}
	}

	raw, err := sync.codec.ReadTags(ctx, source, def.WantedFields)
	if err != nil {
		return nil, fmt.Errorf("failed to read tags from source: %w", err)
	}

	meta := make(media.Metadata)
	for _, field := range def.WantedFields {
		value, present := raw[field]
		if !present || value == nil {
			continue
		}

		if field == def.MultiValueField {
			meta[field] = FlattenTokens(value)
			continue
		}

		meta[field] = value
	}

	return meta, nil
}

// Apply re-serialises the entity's in-memory metadata into the source
// bytes provided and returns the tagged copy. For the multi-value
// field, the entity's tag associations are first replaced with
// looked-up-or-created tags scoped to the entity's media type; the
// value written back to the source is the final list of tag names.
//
// Tag persistence runs against the queryable provided, which the
// caller is expected to scope to a transaction so that a codec failure
// never leaves tags referencing a field value that was not actually
// written. Applying the same metadata twice yields the same tag set
// and the same serialised bytes.
func (sync *Synchronizer) Apply(ctx context.Context, db database.Queryable, m *media.Media, source []byte) ([]byte, error) {
	if len(m.Meta) == 0 {
		return source, nil
	}

	def, ok := sync.registry.Get(m.Type)
	if !ok {
		return nil, &media.ConfigError{Reason: fmt.Sprintf("unknown media type '%s'", m.Type)}
	}

	toWrite := make(map[string]any, len(m.Meta))
	for field, value := range m.Meta {
		if field != def.MultiValueField {
			toWrite[field] = value
		}
	}

	if def.MultiValueField != "" {
		if value, present := m.Meta[def.MultiValueField]; present {
			names, err := sync.syncTags(db, m, FlattenTokens(value))
			if err != nil {
				return nil, err
			}

			m.Meta[def.MultiValueField] = names
			toWrite[def.MultiValueField] = names
		}
	}

	tagged, err := sync.codec.WriteTags(ctx, source, toWrite)
	if err != nil {
		return nil, &MetadataWriteError{Err: err}
	}

	return tagged, nil
}

// syncTags clears the entity's tag associations and replaces them with
// tags matching the tokens provided, creating any that do not exist
// yet. The returned names preserve token order.
func (sync *Synchronizer) syncTags(db database.Queryable, m *media.Media, tokens []string) ([]string, error) {
	tags, err := sync.store.SaveTags(db, m.Type, tokens)
	if err != nil {
		return nil, &TagPersistenceError{Err: err}
	}

	if err := sync.store.ReplaceMediaTagAssociations(db, m.ID, tags); err != nil {
		return nil, &TagPersistenceError{Err: err}
	}

	byName := make(map[string]*media.Tag, len(tags))
	for _, tag := range tags {
		byName[tag.Name] = tag
	}

	names := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if tag, ok := byName[token]; ok {
			names = append(names, tag.Name)
		}
	}

	return names, nil
}

// FlattenTokens normalises whatever raw representation a codec returns
// for a multi-value field (a delimited string, or a list of delimited
// strings) into a flat list of trimmed, lower-cased tokens. Empty
// tokens are discarded; order is preserved and duplicates are kept.
func FlattenTokens(value any) []string {
	tokens := make([]string, 0)

	appendSplit := func(raw string) {
		for _, part := range strings.Split(raw, ",") {
			token := strings.ToLower(strings.TrimSpace(part))
			if token != "" {
				tokens = append(tokens, token)
			}
		}
	}

	switch v := value.(type) {
	case string:
		appendSplit(v)
	case []string:
		for _, item := range v {
			appendSplit(item)
		}
	case []any:
		for _, item := range v {
			if raw, ok := item.(string); ok {
				appendSplit(raw)
			} else {
				log.Warnf("Discarding non-string multi-value token %v (%T)\n", item, item)
			}
		}
	default:
		log.Warnf("Cannot flatten multi-value field of type %T\n", value)
	}

	return tokens
}
