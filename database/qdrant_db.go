package database

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/qdrant/go-client/qdrant"

	"github.com/tieubaoca/docflow/config"
	"github.com/tieubaoca/docflow/types"
)

var _ VectorIndex = (*QdrantStore)(nil)

// QdrantStore talks to Qdrant over its gRPC API. Point identifiers are
// always Chunk ids, so upserts are idempotent and deletion is exact-match.
type QdrantStore struct {
	client  *qdrant.Client
	timeout time.Duration
}

func NewQdrantStore(cfg config.QdrantConfig) (*QdrantStore, error) {
	host, port := splitAddr(cfg.Addr)

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to qdrant: %w", err)
	}

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &QdrantStore{client: client, timeout: timeout}, nil
}

// splitAddr parses "host:port", falling back to the gRPC defaults when
// either half is missing or malformed.
func splitAddr(addr string) (string, int) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return "localhost", 6334
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return host, 6334
	}
	return host, port
}

func (s *QdrantStore) Close() error {
	return s.client.Close()
}

func (s *QdrantStore) ListCollections(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	names, err := s.client.ListCollections(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing collections: %w", err)
	}
	return names, nil
}

func (s *QdrantStore) CreateCollection(ctx context.Context, name string, dimension int, distance string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	err := s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: name,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(dimension),
			Distance: distanceOf(distance),
		}),
	})
	if err != nil {
		return fmt.Errorf("creating collection %s: %w", name, err)
	}
	return nil
}

func distanceOf(distance string) qdrant.Distance {
	switch distance {
	case "Euclid":
		return qdrant.Distance_Euclid
	case "Dot":
		return qdrant.Distance_Dot
	default:
		return qdrant.Distance_Cosine
	}
}

func (s *QdrantStore) CollectionDimension(ctx context.Context, name string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	info, err := s.client.GetCollectionInfo(ctx, name)
	if err != nil {
		return 0, fmt.Errorf("inspecting collection %s: %w", name, err)
	}
	params := info.GetConfig().GetParams().GetVectorsConfig().GetParams()
	if params == nil {
		return 0, fmt.Errorf("collection %s has no vector params", name)
	}
	return int(params.GetSize()), nil
}

func (s *QdrantStore) UpsertPoint(ctx context.Context, collection string, point types.VectorPoint) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collection,
		Wait:           qdrant.PtrOf(true),
		Points: []*qdrant.PointStruct{
			{
				Id:      qdrant.NewIDNum(uint64(point.ID)),
				Vectors: qdrant.NewVectors(point.Vector...),
				Payload: qdrant.NewValueMap(payloadMap(point.Payload)),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("upserting point %d into %s: %w", point.ID, collection, err)
	}
	return nil
}

func (s *QdrantStore) GetPoint(ctx context.Context, collection string, id int64) (*types.VectorPoint, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	points, err := s.client.Get(ctx, &qdrant.GetPoints{
		CollectionName: collection,
		Ids:            []*qdrant.PointId{qdrant.NewIDNum(uint64(id))},
		WithPayload:    qdrant.NewWithPayload(true),
		WithVectors:    qdrant.NewWithVectors(true),
	})
	if err != nil {
		return nil, fmt.Errorf("fetching point %d from %s: %w", id, collection, err)
	}
	if len(points) == 0 {
		return nil, types.ErrNotFound
	}

	retrieved := points[0]
	point := &types.VectorPoint{
		ID:      int64(retrieved.GetId().GetNum()),
		Vector:  retrieved.GetVectors().GetVector().GetData(),
		Payload: payloadFrom(retrieved.GetPayload()),
	}
	return point, nil
}

func (s *QdrantStore) DeletePoints(ctx context.Context, collection string, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	pointIDs := make([]*qdrant.PointId, 0, len(ids))
	for _, id := range ids {
		pointIDs = append(pointIDs, qdrant.NewIDNum(uint64(id)))
	}
	_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: collection,
		Wait:           qdrant.PtrOf(true),
		Points:         qdrant.NewPointsSelector(pointIDs...),
	})
	if err != nil {
		return fmt.Errorf("deleting %d points from %s: %w", len(ids), collection, err)
	}
	return nil
}

// payloadMap flattens a VectorPayload for qdrant.NewValueMap. The key
// names are part of the index contract: a re-index pass must reproduce
// the same shape existing collections were written with.
func payloadMap(p types.VectorPayload) map[string]any {
	return map[string]any{
		"content": p.Content,
		"metadata": map[string]any{
			"content_id":  p.Metadata.ContentID,
			"doc_id":      p.Metadata.DocID,
			"page_no":     int64(p.Metadata.PageNo),
			"chunk_no":    int64(p.Metadata.ChunkNo),
			"model_key":   p.Metadata.ModelKey,
			"folder_name": p.Metadata.FolderName,
			"title":       p.Metadata.Title,
			"file_type":   p.Metadata.FileType,
			"source":      p.Metadata.Source,
		},
	}
}

func payloadFrom(values map[string]*qdrant.Value) types.VectorPayload {
	payload := types.VectorPayload{
		Content: values["content"].GetStringValue(),
	}
	meta := values["metadata"].GetStructValue().GetFields()
	if meta == nil {
		return payload
	}
	payload.Metadata = types.VectorMetadata{
		ContentID:  meta["content_id"].GetIntegerValue(),
		DocID:      meta["doc_id"].GetIntegerValue(),
		PageNo:     int(meta["page_no"].GetIntegerValue()),
		ChunkNo:    int(meta["chunk_no"].GetIntegerValue()),
		ModelKey:   meta["model_key"].GetStringValue(),
		FolderName: meta["folder_name"].GetStringValue(),
		Title:      meta["title"].GetStringValue(),
		FileType:   meta["file_type"].GetStringValue(),
		Source:     meta["source"].GetStringValue(),
	}
	return payload
}
