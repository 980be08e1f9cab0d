package library

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"mediakit/internal/database"
	"mediakit/internal/event"
	"mediakit/internal/media"
	"mediakit/internal/source"
	"mediakit/pkg/logger"
	typedsync "mediakit/pkg/sync"
)

var log = logger.Get("Library")

type (
	// Config controls where newly created entities are placed: the
	// storage strategy, and (for disk storage) the destination pattern
	// and path prefix the placer expands.
	Config struct {
		Strategy media.StorageStrategy `yaml:"storage_strategy" env:"MEDIA_STORAGE_STRATEGY" env-default:"database"`
		Pattern  string                `yaml:"destination_pattern" env:"MEDIA_DESTINATION_PATTERN"`
		Prefix   string                `yaml:"path_prefix" env:"MEDIA_PATH_PREFIX"`
	}

	resolver interface {
		ResolveCreateInput(ctx context.Context, req media.CreateRequest) (*source.Resolved, error)
		ResolveExisting(ctx context.Context, m *media.Media) ([]byte, error)
	}

	placer interface {
		Place(strategy media.StorageStrategy, pattern string, prefix string, body []byte, filename string, now time.Time) (*source.Placement, error)
	}

	synchronizer interface {
		Apply(ctx context.Context, db database.Queryable, m *media.Media, source []byte) ([]byte, error)
		Extract(ctx context.Context, source []byte, mediaType media.Type) (media.Metadata, error)
	}

	pipeline interface {
		Process(ctx context.Context, m *media.Media, source []byte, now time.Time) (media.Properties, error)
	}

	dataStore interface {
		SaveMedia(db database.Queryable, m *media.Media) error
		GetMedia(db database.Queryable, mediaID uuid.UUID) (*media.Media, error)
		ListMedia(db database.Queryable, filter media.Filter) ([]*media.Media, error)
		DeleteMedia(db database.Queryable, mediaID uuid.UUID) error
		GetAllMediaSourcePaths(db database.Queryable) ([]string, error)
		GetTagsForMedia(db database.Queryable, mediaID uuid.UUID) ([]*media.Tag, error)
	}

	// Service owns the lifecycle of media entities: creation from a
	// resolved source, metadata updates, rendition processing and
	// workflow state transitions. Writes to the same entity are
	// serialized via a per-entity lock.
	Service struct {
		db       database.Manager
		eventBus event.EventCoordinator
		registry *media.Registry
		store    dataStore

		resolver     resolver
		placer       placer
		synchronizer synchronizer
		pipeline     pipeline

		config Config

		entityLocks typedsync.TypedSyncMap[uuid.UUID, *sync.Mutex]
	}
)

func New(
	config Config,
	db database.Manager,
	eventBus event.EventCoordinator,
	registry *media.Registry,
	store dataStore,
	resolver resolver,
	placer placer,
	synchronizer synchronizer,
	pipeline pipeline,
) *Service {
	return &Service{
		db:           db,
		eventBus:     eventBus,
		registry:     registry,
		store:        store,
		resolver:     resolver,
		placer:       placer,
		synchronizer: synchronizer,
		pipeline:     pipeline,
		config:       config,
	}
}

// CreateMedia resolves the source of the creation request provided,
// places the resulting bytes according to the configured storage
// strategy, and persists the new entity in the draft state. If the
// request carries initial metadata, it is synchronized to the source
// bytes and tag store inside the same transaction.
//
// Validation and placement failures abort the creation before any
// record is persisted.
func (service *Service) CreateMedia(ctx context.Context, req media.CreateRequest) (*media.Media, error) {
	if !service.registry.Known(req.Type) {
		return nil, &media.ConfigError{Reason: fmt.Sprintf("unknown media type '%s'", req.Type)}
	}

	resolved, err := service.resolver.ResolveCreateInput(ctx, req)
	if err != nil {
		return nil, err
	}

	placement, err := service.placer.Place(service.config.Strategy, service.config.Pattern, service.config.Prefix, resolved.Body, resolved.Filename, time.Now())
	if err != nil {
		return nil, err
	}

	m := &media.Media{
		ID:       uuid.New(),
		Type:     req.Type,
		State:    media.DraftState,
		Filename: placement.Filename,
		Filesize: int64(len(resolved.Body)),
		Meta:     req.Meta,
	}

	switch placement.Strategy {
	case media.DatabaseStorage:
		m.File = resolved.Body
	case media.DiskStorage:
		m.FilePath = placement.DiskPath
	}

	if err := service.db.WrapTx(func(tx *sqlx.Tx) error {
		if len(m.Meta) > 0 {
			if err := service.applyMeta(ctx, tx, m, resolved.Body); err != nil {
				return err
			}
		}

		return service.store.SaveMedia(tx, m)
	}); err != nil {
		return nil, err
	}

	log.Infof("Created %s\n", m)
	service.eventBus.Dispatch(event.NewMediaEvent, m.ID)

	return m, nil
}

// CreateMediaFromPath creates a disk-sourced entity for the file at the
// path provided, deriving the media type from the file's extension.
// Used by the filesystem ingestion service.
func (service *Service) CreateMediaFromPath(ctx context.Context, path string) (*media.Media, error) {
	mediaType, ok := service.registry.TypeForFilename(path)
	if !ok {
		return nil, &source.InvalidSourceError{Reason: fmt.Sprintf("no known media type matches file '%s'", path)}
	}

	return service.CreateMedia(ctx, media.CreateRequest{Type: mediaType, FilePath: path})
}

func (service *Service) GetMedia(_ context.Context, mediaID uuid.UUID) (*media.Media, error) {
	return service.store.GetMedia(service.db.GetSqlxDb(), mediaID)
}

func (service *Service) ListMedia(_ context.Context, filter media.Filter) ([]*media.Media, error) {
	return service.store.ListMedia(service.db.GetSqlxDb(), filter)
}

func (service *Service) GetMediaTags(_ context.Context, mediaID uuid.UUID) ([]*media.Tag, error) {
	return service.store.GetTagsForMedia(service.db.GetSqlxDb(), mediaID)
}

// GetKnownSourcePaths returns the file paths of all disk-sourced
// entities, used by the ingestion service to avoid importing the same
// file twice.
func (service *Service) GetKnownSourcePaths() []string {
	paths, err := service.store.GetAllMediaSourcePaths(service.db.GetSqlxDb())
	if err != nil {
		log.Errorf("Failed to fetch known media source paths: %v\n", err)
		return []string{}
	}

	return paths
}

func (service *Service) DeleteMedia(_ context.Context, mediaID uuid.UUID) error {
	if err := service.store.DeleteMedia(service.db.GetSqlxDb(), mediaID); err != nil {
		return err
	}

	service.eventBus.Dispatch(event.DeleteMediaEvent, mediaID)
	return nil
}

// UpdateMediaMeta replaces the entity's metadata and synchronizes the
// new values to the source bytes and the tag store as a unit. The tag
// synchronization and the entity update share a transaction, so a
// failure while re-serializing metadata leaves both the tags and the
// record untouched.
func (service *Service) UpdateMediaMeta(ctx context.Context, mediaID uuid.UUID, meta media.Metadata) (*media.Media, error) {
	unlock := service.lockEntity(mediaID)
	defer unlock()

	var updated *media.Media
	if err := service.db.WrapTx(func(tx *sqlx.Tx) error {
		m, err := service.store.GetMedia(tx, mediaID)
		if err != nil {
			return err
		}

		m.Meta = meta
		if len(meta) > 0 {
			body, err := service.resolver.ResolveExisting(ctx, m)
			if err != nil && !errors.Is(err, source.ErrNoSource) {
				return err
			}

			if err == nil {
				if err := service.applyMeta(ctx, tx, m, body); err != nil {
					return err
				}
			}
		}

		if err := service.store.SaveMedia(tx, m); err != nil {
			return err
		}

		updated = m
		return nil
	}); err != nil {
		return nil, err
	}

	service.eventBus.Dispatch(event.MediaUpdateEvent, mediaID)
	return updated, nil
}

// ProcessMedia generates the configured renditions of an image entity,
// replacing its properties wholesale with the computed plan and
// advancing a draft entity to published. Entities of other media types
// (and entities with no processing configured) are left untouched.
func (service *Service) ProcessMedia(ctx context.Context, mediaID uuid.UUID) (*media.Media, error) {
	unlock := service.lockEntity(mediaID)
	defer unlock()

	m, err := service.store.GetMedia(service.db.GetSqlxDb(), mediaID)
	if err != nil {
		return nil, err
	}

	if m.Type != media.ImageType {
		log.Warnf("Refusing to generate renditions for %s: not an image\n", m)
		return m, nil
	}

	body, err := service.resolver.ResolveExisting(ctx, m)
	if err != nil {
		return nil, err
	}

	properties, err := service.pipeline.Process(ctx, m, body, time.Now())
	if err != nil {
		return nil, err
	}

	if properties == nil {
		return m, nil
	}

	m.Properties = properties
	if m.State == media.DraftState {
		if err := m.Transition(media.PublishedState); err != nil {
			return nil, err
		}
	}

	if err := service.db.WrapTx(func(tx *sqlx.Tx) error {
		return service.store.SaveMedia(tx, m)
	}); err != nil {
		return nil, err
	}

	service.eventBus.Dispatch(event.MediaProcessedEvent, mediaID)
	return m, nil
}

// TransitionMedia moves the entity to the workflow state provided,
// rejecting transitions absent from the allowed-edge table.
func (service *Service) TransitionMedia(_ context.Context, mediaID uuid.UUID, next media.State) (*media.Media, error) {
	unlock := service.lockEntity(mediaID)
	defer unlock()

	m, err := service.store.GetMedia(service.db.GetSqlxDb(), mediaID)
	if err != nil {
		return nil, err
	}

	if err := m.Transition(next); err != nil {
		return nil, err
	}

	if err := service.db.WrapTx(func(tx *sqlx.Tx) error {
		return service.store.SaveMedia(tx, m)
	}); err != nil {
		return nil, err
	}

	service.eventBus.Dispatch(event.MediaUpdateEvent, mediaID)
	return m, nil
}

// applyMeta synchronizes the entity's in-memory metadata to the tag
// store (via the transaction provided) and re-serializes it into the
// source bytes, writing the tagged bytes back to wherever the entity's
// source lives. URL-sourced entities cannot have their remote source
// rewritten; their tags are still synchronized.
func (service *Service) applyMeta(ctx context.Context, tx *sqlx.Tx, m *media.Media, body []byte) error {
	tagged, err := service.synchronizer.Apply(ctx, tx, m, body)
	if err != nil {
		return err
	}

	switch m.SourceField() {
	case media.FileField:
		m.File = tagged
		m.Filesize = int64(len(tagged))
	case media.FilePathField:
		if err := os.WriteFile(m.FilePath, tagged, 0o644); err != nil {
			return &media.StorageWriteError{Path: m.FilePath, Err: err}
		}
		m.Filesize = int64(len(tagged))
	case media.FileURLField:
		log.Warnf("Cannot write metadata back to remote source of %s, tags synchronized only\n", m)
	}

	return nil
}

// lockEntity acquires the write lock of the entity provided, creating
// it on first use. The returned function releases the lock.
func (service *Service) lockEntity(mediaID uuid.UUID) func() {
	lock, _ := service.entityLocks.LoadOrStore(mediaID, &sync.Mutex{})
	lock.Lock()

	return lock.Unlock
}
