//go:build wireinject
// +build wireinject

package di

import (
	"fsd/internal"
	"fsd/internal/controllers"
	"fsd/internal/providers"
	"fsd/internal/services"
	"fsd/internal/storage"
	"fsd/internal/structures"

	wire "github.com/google/wire"
)

func InitApp(cfg *structures.CliFlags) (*internal.App, error) {

	wire.Build(
		providers.NewConfigProvider,
		providers.NewLogProvider,
		providers.NewMetricsProvider,
		providers.NewInstrumentedCacheProvider,

		storage.NewZstdCompressor,
		storage.NewFileManager,
		wire.Bind(new(services.StateStoreInterface), new(*storage.FileManager)),

		services.NewBroadcaster,
		wire.Bind(new(services.PublisherInterface), new(*services.Broadcaster)),
		wire.Bind(new(services.BroadcasterInterface), new(*services.Broadcaster)),
		services.NewStatusFetcher,
		services.NewNotifier,
		services.NewSyncService,

		storage.NewScheduler,
		storage.NewStateWatcher,
		controllers.NewApiController,
		controllers.NewHealthController,
		controllers.NewPushController,
		internal.InitRoutes,
		internal.NewHandler,
		internal.NewApp,
	)

	return nil, nil
}
