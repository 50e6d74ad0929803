package service

import (
	"context"
	"fmt"
	"log"

	"github.com/tieubaoca/docflow/database"
	"github.com/tieubaoca/docflow/types"
)

// BuildCollectionName derives the versioned collection name for a model:
// {base}_{modelKey}_v{version}. Pure and deterministic, so a version bump
// always lands in a fresh collection.
func BuildCollectionName(base string, model types.EmbeddingModel) string {
	return fmt.Sprintf("%s_%s_v%d", base, model.Key, model.Version)
}

// EnsureCollection resolves the collection name for (base, model) and
// guarantees a usable collection: created if absent, validated if present.
// A dimension mismatch against an existing collection means the config
// points two embedding spaces at one collection; that is
// types.ErrCollectionMismatch and the whole ingestion run must stop.
func EnsureCollection(ctx context.Context, index database.VectorIndex, base string, model types.EmbeddingModel) (string, error) {
	name := BuildCollectionName(base, model)

	names, err := index.ListCollections(ctx)
	if err != nil {
		return "", fmt.Errorf("listing collections: %w", err)
	}

	exists := false
	for _, n := range names {
		if n == name {
			exists = true
			break
		}
	}

	if !exists {
		if err := index.CreateCollection(ctx, name, model.Dimension, model.Distance); err != nil {
			return "", fmt.Errorf("creating collection %s: %w", name, err)
		}
		log.Printf("[COLLECTION] created: %s (dim=%d)", name, model.Dimension)
		return name, nil
	}

	dim, err := index.CollectionDimension(ctx, name)
	if err != nil {
		return "", fmt.Errorf("fetching collection %s config: %w", name, err)
	}
	if dim != model.Dimension {
		return "", fmt.Errorf("%w: collection %s has dim=%d, model %s declares dim=%d",
			types.ErrCollectionMismatch, name, dim, model.Key, model.Dimension)
	}

	log.Printf("[COLLECTION] validated: %s", name)
	return name, nil
}
