package internal

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/google/uuid"

	"mediakit/internal/database"
	"mediakit/internal/event"
	"mediakit/internal/ingest"
	"mediakit/internal/library"
	"mediakit/internal/media"
	"mediakit/internal/metadata"
	"mediakit/internal/processor"
	"mediakit/internal/source"
	"mediakit/pkg/logger"
)

var log = logger.Get("Core")

type (
	RunnableService interface {
		Run(context.Context) error
	}

	IngestService interface {
		RunnableService
		RemoveIngest(uuid.UUID) error
		GetIngest(uuid.UUID) *ingest.IngestItem
		GetAllIngests() []*ingest.IngestItem
		ResolveTroubledIngest(uuid.UUID, ingest.ResolutionType) error
	}
)

// Mediakit represents the top-level object for the server, and is
// responsible for initialising the stores, services and event
// handling wiring they share.
type Mediakit struct {
	eventBus event.EventCoordinator
	config   MediakitConfig

	db             database.Manager
	libraryService *library.Service
	ingestService  IngestService
}

func New(config MediakitConfig) (*Mediakit, error) {
	log.Emit(logger.DEBUG, "Bootstrapping mediakit services using config: %#v\n", config)

	kit := &Mediakit{
		eventBus: event.New(),
		config:   config,
		db:       database.New(),
	}

	registry := media.DefaultRegistry()
	store := media.NewStore()
	codec := metadata.NewExifToolCodec(config.ExifToolPath)

	kit.libraryService = library.New(
		config.Library,
		kit.db,
		kit.eventBus,
		registry,
		store,
		source.NewResolver(http.DefaultClient),
		source.NewPlacer(),
		metadata.NewSynchronizer(codec, registry, store),
		processor.New(config.Processor, codec),
	)

	ingestService, err := ingest.New(config.Ingest, kit.libraryService, kit.eventBus)
	if err != nil {
		return nil, fmt.Errorf("failed to construct ingestion service: %w", err)
	}
	kit.ingestService = ingestService

	if config.ProcessOnCreate {
		kit.eventBus.RegisterAsyncHandlerFunction(event.NewMediaEvent, kit.handleNewMedia)
	}

	return kit, nil
}

// Library exposes the media lifecycle service for callers embedding
// mediakit in a larger program.
func (kit *Mediakit) Library() *library.Service { return kit.libraryService }

// Ingests exposes the filesystem ingestion service.
func (kit *Mediakit) Ingests() IngestService { return kit.ingestService }

// Run will start mediakit by bringing up the database connection and
// the service instances.
//
// This function will not return until mediakit is stopped.
// To stop mediakit, the provided context must be cancelled. Errors from
// which a service cannot recover will also cause mediakit to stop.
func (kit *Mediakit) Run(parent context.Context) error {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	crashHandler := func(label string, err error) {
		log.Emit(logger.FATAL, "Service crash (%s)! %s\n", label, err.Error())
		cancel()
	}

	log.Emit(logger.NEW, "Connecting to database...\n")
	if err := kit.db.Connect(kit.config.Database); err != nil {
		return err
	}

	wg := &sync.WaitGroup{}
	kit.spawnAsyncService(ctx, wg, kit.ingestService, "ingest-service", crashHandler)
	log.Emit(logger.SUCCESS, "mediakit services spawned!\n")

	wg.Wait()
	return nil
}

// handleNewMedia generates the configured renditions for newly created
// entities. Failures are advisory; the entity stays in draft and can be
// re-processed explicitly.
func (kit *Mediakit) handleNewMedia(_ event.Event, payload event.Payload) {
	mediaID, ok := payload.(uuid.UUID)
	if !ok {
		return
	}

	if _, err := kit.libraryService.ProcessMedia(context.Background(), mediaID); err != nil {
		log.Warnf("Automatic processing of newly created media %s failed: %v\n", mediaID, err)
	}
}

// spawnAsyncService will run the provided function/service as it's own
// go-routine, ensuring that the mediakit service waitgroup is updated correctly
func (kit *Mediakit) spawnAsyncService(context context.Context, wg *sync.WaitGroup, service RunnableService, serviceLabel string, crashHandler func(string, error)) {
	log.Emit(logger.NEW, "Spawning %s\n", serviceLabel)
	wg.Add(1)

	go func(wg *sync.WaitGroup, label string, crash func(string, error)) {
		defer func() {
			if r := recover(); r != nil {
				crash(label, fmt.Errorf("panic %v", r))
			}
		}()

		defer wg.Done()
		if err := service.Run(context); err != nil {
			crash(label, err)
		}
	}(wg, serviceLabel, crashHandler)
}
