package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strconv"
	"time"

	"github.com/tieubaoca/docflow/database"
	"github.com/tieubaoca/docflow/metrics"
	"github.com/tieubaoca/docflow/types"
	"github.com/tieubaoca/docflow/utils"
)

// MaxEmbedTextLen bounds the text sent to embedding providers and stored
// in vector payloads.
const MaxEmbedTextLen = 1500

// IngestService turns one stability-confirmed file into a Document with
// its Chunks, Images and vector points. The metadata store is the source
// of truth; the vector index trails it (a Chunk may lack a point after a
// transient embed failure, never the reverse).
type IngestService struct {
	store     database.Store
	index     database.VectorIndex
	embedder  Embedder
	loaders   *LoaderRegistry
	extractor *ImageExtractor

	model     types.EmbeddingModel
	imagesDir string

	chunkSize    int
	chunkOverlap int
	maxChunks    int

	// collection is resolved once per service lifetime by EnsureCollection,
	// never per file.
	collection string
}

func NewIngestService(
	store database.Store,
	index database.VectorIndex,
	embedder Embedder,
	loaders *LoaderRegistry,
	extractor *ImageExtractor,
	model types.EmbeddingModel,
	imagesDir string,
) *IngestService {
	return &IngestService{
		store:        store,
		index:        index,
		embedder:     embedder,
		loaders:      loaders,
		extractor:    extractor,
		model:        model,
		imagesDir:    imagesDir,
		chunkSize:    DefaultChunkSize,
		chunkOverlap: DefaultChunkOverlap,
		maxChunks:    DefaultMaxChunks,
	}
}

// EnsureCollection resolves and validates the target collection. Must be
// called before the first IngestFile; a types.ErrCollectionMismatch here
// is a systemic misconfiguration and the pipeline must not start.
func (s *IngestService) EnsureCollection(ctx context.Context, baseCollection string) error {
	name, err := EnsureCollection(ctx, s.index, baseCollection, s.model)
	if err != nil {
		return err
	}
	s.collection = name
	return nil
}

// Collection returns the resolved collection name, empty before
// EnsureCollection succeeds.
func (s *IngestService) Collection() string {
	return s.collection
}

// Model returns the active embedding model.
func (s *IngestService) Model() types.EmbeddingModel {
	return s.model
}

// IngestFile ingests the file at filePath (already moved into the
// processing stage). On duplicate content it returns the existing
// Document's id together with types.ErrDuplicate so the caller can route
// the file to the duplicated stage. Any other error means the file
// belongs in the error stage.
func (s *IngestService) IngestFile(ctx context.Context, filePath, source, folderName string) (int64, error) {
	ext := utils.FileExt(filePath)
	loader, err := s.loaders.Get(ext)
	if err != nil {
		return 0, err
	}

	if s.collection == "" {
		return 0, errors.New("ingest: collection not resolved, call EnsureCollection first")
	}

	fileHash, err := utils.FileSHA1(filePath)
	if err != nil {
		return 0, err
	}

	// Pre-check. Racy under concurrent ingests of identical content; the
	// store's unique constraint is the authoritative guard below.
	existing, err := s.store.GetDocumentByHash(ctx, fileHash)
	if err != nil && !errors.Is(err, types.ErrNotFound) {
		return 0, fmt.Errorf("dedup lookup: %w", err)
	}
	if existing != nil {
		return existing.ID, types.ErrDuplicate
	}

	// Parse before committing the document row so a parse failure leaves
	// no orphan metadata behind.
	units, err := loader.Load(filePath)
	if err != nil {
		return 0, fmt.Errorf("loading %s: %w", filePath, err)
	}

	doc := &types.Document{
		Title:      filepath.Base(filePath),
		FileType:   ext,
		Source:     source,
		FileHash:   fileHash,
		FilePath:   filePath,
		FolderName: folderName,
		CreatedAt:  time.Now(),
	}
	docID, err := s.store.InsertDocument(ctx, doc)
	if errors.Is(err, types.ErrDuplicate) {
		// Lost the race: resolve the winner and report a duplicate.
		winner, lookupErr := s.store.GetDocumentByHash(ctx, fileHash)
		if lookupErr != nil {
			return 0, fmt.Errorf("duplicate detected but winner lookup failed: %w", lookupErr)
		}
		return winner.ID, types.ErrDuplicate
	}
	if err != nil {
		return 0, err
	}

	s.extractImages(ctx, docID, filePath)

	for _, unit := range units {
		if err := s.ingestUnit(ctx, doc, docID, unit); err != nil {
			return 0, err
		}
	}

	return docID, nil
}

// ingestUnit chunks one loader unit and persists+indexes each chunk in
// order. Chunk rows commit individually; a chunk's embed/upsert failure
// is logged and skipped so one provider outage cannot stall ingestion.
func (s *IngestService) ingestUnit(ctx context.Context, doc *types.Document, docID int64, unit types.Unit) error {
	chunkNo := 0
	for _, raw := range ChunkText(unit.Text, s.chunkSize, s.chunkOverlap, s.maxChunks) {
		text := NormalizeForEmbedding(raw)
		if text == "" {
			continue
		}
		chunkNo++

		chunk := &types.Chunk{
			DocID:   docID,
			PageNo:  unit.No,
			ChunkNo: chunkNo,
			Content: text,
		}
		chunkID, err := s.store.InsertChunk(ctx, chunk)
		if err != nil {
			return fmt.Errorf("inserting chunk (page=%d, chunk=%d): %w", unit.No, chunkNo, err)
		}
		metrics.ChunksStored.Inc()

		if err := s.indexChunk(ctx, doc, chunk, chunkID); err != nil {
			// Non-fatal: row exists, point doesn't. A re-index pass
			// recovers it later.
			metrics.EmbedFailures.Inc()
			log.Printf("[VECTOR FAIL] content_id=%d doc_id=%d | %v", chunkID, docID, err)
		}
	}
	return nil
}

// indexChunk embeds the chunk text and upserts it with the chunk id as
// the point id.
func (s *IngestService) indexChunk(ctx context.Context, doc *types.Document, chunk *types.Chunk, chunkID int64) error {
	text := TruncateForEmbedding(chunk.Content, MaxEmbedTextLen)

	start := time.Now()
	vector, err := s.embedder.Embed(ctx, text, s.model)
	if err != nil {
		return fmt.Errorf("embedding: %w", err)
	}

	point := types.VectorPoint{
		ID:     chunkID,
		Vector: vector,
		Payload: types.VectorPayload{
			Content: text,
			Metadata: types.VectorMetadata{
				ContentID:  chunkID,
				DocID:      doc.ID,
				PageNo:     chunk.PageNo,
				ChunkNo:    chunk.ChunkNo,
				ModelKey:   s.model.Key,
				FolderName: doc.FolderName,
				Title:      doc.Title,
				FileType:   doc.FileType,
				Source:     doc.Source,
			},
		},
	}
	if err := s.index.UpsertPoint(ctx, s.collection, point); err != nil {
		return fmt.Errorf("vector upsert: %w", err)
	}

	metrics.ChunksIndexed.Inc()
	metrics.EmbedDuration.Observe(time.Since(start).Seconds())
	return nil
}

// extractImages is best-effort: image problems never abort text ingestion.
func (s *IngestService) extractImages(ctx context.Context, docID int64, filePath string) {
	if s.extractor == nil {
		return
	}
	outDir := filepath.Join(s.imagesDir, strconv.FormatInt(docID, 10))
	images, err := s.extractor.Extract(filePath, outDir)
	if err != nil {
		log.Printf("[IMAGE WARN] doc_id=%d extraction failed: %v", docID, err)
	}
	for i := range images {
		images[i].DocID = docID
		if _, err := s.store.InsertImage(ctx, &images[i]); err != nil {
			log.Printf("[IMAGE WARN] doc_id=%d insert failed: %v", docID, err)
		}
	}
}

// DeleteDocument removes a Document with its chunks, vector points and
// image files, the triple-delete the management API relies on.
func (s *IngestService) DeleteDocument(ctx context.Context, docID int64) error {
	chunkIDs, err := s.store.ListChunkIDsByDocument(ctx, docID)
	if err != nil {
		return err
	}

	if err := s.store.DeleteDocument(ctx, docID); err != nil {
		return err
	}

	if s.collection != "" && len(chunkIDs) > 0 {
		if err := s.index.DeletePoints(ctx, s.collection, chunkIDs); err != nil {
			log.Printf("[VECTOR WARN] doc_id=%d point deletion failed: %v", docID, err)
		}
	}

	imageDir := filepath.Join(s.imagesDir, strconv.FormatInt(docID, 10))
	if err := removeDirIfExists(imageDir); err != nil {
		log.Printf("[IMAGE WARN] doc_id=%d image dir removal failed: %v", docID, err)
	}
	return nil
}
