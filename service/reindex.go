package service

import (
	"context"
	"log"

	"github.com/tieubaoca/docflow/types"
)

// RebuildVectors re-embeds and re-upserts every stored chunk into the
// active collection, in (page_no, chunk_no) order per document. It is
// the recovery path for chunks whose vector write failed at ingest time:
// upserting by chunk id overwrites existing points and fills the gaps.
func (s *IngestService) RebuildVectors(ctx context.Context) types.RebuildResult {
	result := types.RebuildResult{
		ModelKey:       s.model.Key,
		CollectionName: s.collection,
	}

	docs, err := s.store.ListDocuments(ctx)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	result.TotalDocuments = len(docs)

	log.Printf("[REINDEX] rebuilding %d documents into %s", len(docs), s.collection)

	for i := range docs {
		doc := &docs[i]
		chunks, err := s.store.ListChunksByDocument(ctx, doc.ID)
		if err != nil {
			log.Printf("[REINDEX] listing chunks failed: doc_id=%d | %v", doc.ID, err)
			continue
		}

		for j := range chunks {
			chunk := &chunks[j]
			result.TotalChunks++
			if err := s.indexChunk(ctx, doc, chunk, chunk.ID); err != nil {
				result.FailedChunks++
				log.Printf("[REINDEX] content_id=%d doc_id=%d | %v", chunk.ID, doc.ID, err)
				continue
			}
			result.SuccessChunks++
		}
	}

	result.Success = result.FailedChunks == 0
	log.Printf("[REINDEX] done: chunks=%d ok=%d failed=%d", result.TotalChunks, result.SuccessChunks, result.FailedChunks)
	return result
}
