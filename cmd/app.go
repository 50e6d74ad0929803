/*
Copyright © 2025 tieubaoca
*/
package cmd

import (
	"context"
	"fmt"

	"github.com/tieubaoca/docflow/config"
	"github.com/tieubaoca/docflow/database"
	"github.com/tieubaoca/docflow/service"
)

// app bundles every wired component behind the subcommands. All three
// subcommands share the same construction path so a config change
// behaves identically everywhere.
type app struct {
	cfg        *config.Config
	store      database.Store
	index      *database.QdrantStore
	stages     *service.Stages
	loaders    *service.LoaderRegistry
	tracking   *service.TrackingStore
	ingest     *service.IngestService
	controller *service.PipelineController
}

func buildApp(ctx context.Context) (*app, error) {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	model, err := service.LookupEmbeddingModel(cfg.ModelKey)
	if err != nil {
		return nil, err
	}

	store, err := database.NewSQLiteStore(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open metadata store: %w", err)
	}

	index, err := database.NewQdrantStore(cfg.Qdrant)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to connect to vector index: %w", err)
	}

	embedder, err := service.NewEmbeddingService(ctx, cfg.Embedding)
	if err != nil {
		index.Close()
		store.Close()
		return nil, fmt.Errorf("failed to init embedding service: %w", err)
	}

	stages := service.NewStages(cfg.WatchDir)
	loaders := service.NewLoaderRegistry()
	extractor := service.NewImageExtractor()
	tracking := service.NewTrackingStore()

	ingest := service.NewIngestService(store, index, embedder, loaders, extractor, model, cfg.ImagesDir)

	watcher := service.NewWatcherService(
		stages,
		service.NewMover(),
		service.NewStabilityDetector(),
		ingest,
		loaders,
		store,
		tracking,
	)

	controller := service.NewPipelineController(stages, watcher, ingest, cfg.Qdrant.BaseCollection)

	return &app{
		cfg:        cfg,
		store:      store,
		index:      index,
		stages:     stages,
		loaders:    loaders,
		tracking:   tracking,
		ingest:     ingest,
		controller: controller,
	}, nil
}

func (a *app) Close() {
	a.index.Close()
	a.store.Close()
}
