package metadata_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"mediakit/internal/database"
	"mediakit/internal/media"
	"mediakit/internal/metadata"
)

var (
	ctx         = context.Background()
	errExpected = errors.New("test: expected error")
)

// fakeCodec stores tags as a JSON document so extract/apply round-trips
// behave like a real tagging tool without shelling out.
type fakeCodec struct {
	readErr  error
	writeErr error
}

func (codec *fakeCodec) ReadTags(_ context.Context, source []byte, fields []string) (map[string]any, error) {
	if codec.readErr != nil {
		return nil, codec.readErr
	}

	stored := map[string]any{}
	if len(source) > 0 {
		if err := json.Unmarshal(source, &stored); err != nil {
			return nil, err
		}
	}

	tags := make(map[string]any, len(fields))
	for _, field := range fields {
		if value, ok := stored[field]; ok {
			tags[field] = value
		}
	}

	return tags, nil
}

func (codec *fakeCodec) WriteTags(_ context.Context, source []byte, tags map[string]any) ([]byte, error) {
	if codec.writeErr != nil {
		return nil, codec.writeErr
	}

	stored := map[string]any{}
	if len(source) > 0 {
		if err := json.Unmarshal(source, &stored); err != nil {
			return nil, err
		}
	}
	for field, value := range tags {
		stored[field] = value
	}

	return json.Marshal(stored)
}

type fakeTagStore struct {
	saveErr      error
	replaceErr   error
	tags         map[string]*media.Tag
	associations map[uuid.UUID][]*media.Tag
}

func newFakeTagStore() *fakeTagStore {
	return &fakeTagStore{
		tags:         make(map[string]*media.Tag),
		associations: make(map[uuid.UUID][]*media.Tag),
	}
}

func (store *fakeTagStore) SaveTags(_ database.Queryable, mediaType media.Type, names []string) ([]*media.Tag, error) {
	if store.saveErr != nil {
		return nil, store.saveErr
	}

	results := make([]*media.Tag, 0, len(names))
	seen := map[string]bool{}
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true

		key := name + "/" + string(mediaType)
		if _, ok := store.tags[key]; !ok {
			store.tags[key] = &media.Tag{ID: uuid.New(), Name: name, MediaType: mediaType}
		}

		results = append(results, store.tags[key])
	}

	return results, nil
}

func (store *fakeTagStore) ReplaceMediaTagAssociations(_ database.Queryable, mediaID uuid.UUID, tags []*media.Tag) error {
	if store.replaceErr != nil {
		return store.replaceErr
	}

	store.associations[mediaID] = tags
	return nil
}

func sourceWithTags(t *testing.T, tags map[string]any) []byte {
	encoded, err := json.Marshal(tags)
	assert.Nil(t, err)
	return encoded
}

func Test_Extract_RestrictsToWantedFields(t *testing.T) {
	t.Parallel()

	sync := metadata.NewSynchronizer(&fakeCodec{}, media.DefaultRegistry(), newFakeTagStore())
	src := sourceWithTags(t, map[string]any{
		"title":       "Sunrise",
		"description": "A sunrise",
		"iso":         800,
	})

	meta, err := sync.Extract(ctx, src, media.ImageType)
	assert.Nil(t, err)
	assert.Equal(t, media.Metadata{"title": "Sunrise", "description": "A sunrise"}, meta)
}

func Test_Extract_FlattensMultiValueField(t *testing.T) {
	t.Parallel()

	sync := metadata.NewSynchronizer(&fakeCodec{}, media.DefaultRegistry(), newFakeTagStore())
	src := sourceWithTags(t, map[string]any{
		"title":  "Track",
		"genres": " Rock, Hard ROCK , ,blues",
	})

	meta, err := sync.Extract(ctx, src, media.AudioType)
	assert.Nil(t, err)
	assert.Equal(t, []string{"rock", "hard rock", "blues"}, meta["genres"])
}

func Test_Extract_UnknownMediaTypeRejected(t *testing.T) {
	t.Parallel()

	sync := metadata.NewSynchronizer(&fakeCodec{}, media.DefaultRegistry(), newFakeTagStore())
	_, err := sync.Extract(ctx, []byte("{}"), media.Type("document"))

	configErr := &media.ConfigError{}
	assert.True(t, errors.As(err, &configErr))
}

func Test_Apply_WritesTagsAndSynchronisesTagStore(t *testing.T) {
	t.Parallel()

	codec := &fakeCodec{}
	store := newFakeTagStore()
	sync := metadata.NewSynchronizer(codec, media.DefaultRegistry(), store)

	m := &media.Media{
		ID:   uuid.New(),
		Type: media.AudioType,
		Meta: media.Metadata{"title": "Track", "genres": []string{"Rock", "Blues"}},
	}

	tagged, err := sync.Apply(ctx, nil, m, []byte("{}"))
	assert.Nil(t, err)

	// Tags are normalised, persisted and associatted with the entity
	assert.Equal(t, []string{"rock", "blues"}, m.Meta["genres"])
	assert.Len(t, store.associations[m.ID], 2)

	// Written bytes round-trip back to the same metadata
	extracted, err := sync.Extract(ctx, tagged, media.AudioType)
	assert.Nil(t, err)
	assert.Equal(t, "Track", extracted["title"])
	assert.Equal(t, []string{"rock", "blues"}, extracted["genres"])
}

func Test_Apply_IsIdempotent(t *testing.T) {
	t.Parallel()

	store := newFakeTagStore()
	sync := metadata.NewSynchronizer(&fakeCodec{}, media.DefaultRegistry(), store)

	m := &media.Media{
		ID:   uuid.New(),
		Type: media.AudioType,
		Meta: media.Metadata{"title": "Track", "genres": "rock,blues"},
	}

	first, err := sync.Apply(ctx, nil, m, []byte("{}"))
	assert.Nil(t, err)
	firstTags := store.associations[m.ID]

	second, err := sync.Apply(ctx, nil, m, first)
	assert.Nil(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, firstTags, store.associations[m.ID])
}

func Test_Apply_EmptyMetaIsNoop(t *testing.T) {
	t.Parallel()

	codec := &fakeCodec{writeErr: errExpected}
	sync := metadata.NewSynchronizer(codec, media.DefaultRegistry(), newFakeTagStore())

	m := &media.Media{ID: uuid.New(), Type: media.ImageType}
	tagged, err := sync.Apply(ctx, nil, m, []byte("untouched"))
	assert.Nil(t, err)
	assert.Equal(t, []byte("untouched"), tagged)
}

func Test_Apply_CodecFailureSurfacesAsMetadataWriteError(t *testing.T) {
	t.Parallel()

	sync := metadata.NewSynchronizer(&fakeCodec{writeErr: errExpected}, media.DefaultRegistry(), newFakeTagStore())
	m := &media.Media{ID: uuid.New(), Type: media.ImageType, Meta: media.Metadata{"title": "x"}}

	_, err := sync.Apply(ctx, nil, m, []byte("{}"))

	writeErr := &metadata.MetadataWriteError{}
	assert.True(t, errors.As(err, &writeErr))
	assert.ErrorIs(t, err, errExpected)
}

func Test_Apply_TagFailureSurfacesAsTagPersistenceError(t *testing.T) {
	t.Parallel()

	store := newFakeTagStore()
	store.saveErr = errExpected
	sync := metadata.NewSynchronizer(&fakeCodec{}, media.DefaultRegistry(), store)

	m := &media.Media{ID: uuid.New(), Type: media.AudioType, Meta: media.Metadata{"genres": "rock"}}
	_, err := sync.Apply(ctx, nil, m, []byte("{}"))

	tagErr := &metadata.TagPersistenceError{}
	assert.True(t, errors.As(err, &tagErr))
	assert.ErrorIs(t, err, errExpected)
}

func Test_FlattenTokens_HandlesRawRepresentations(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    any
		expected []string
	}{
		{"delimited string", "Rock, Blues", []string{"rock", "blues"}},
		{"list of strings", []string{"Rock", "Jazz,Funk"}, []string{"rock", "jazz", "funk"}},
		{"list of any", []any{"POP", "rock"}, []string{"pop", "rock"}},
		{"empty tokens discarded", " , ,rock,", []string{"rock"}},
		{"duplicates kept in order", "rock,ROCK , blues", []string{"rock", "rock", "blues"}},
		{"unsupported type", 42, []string{}},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, test.expected, metadata.FlattenTokens(test.input))
		})
	}
}
