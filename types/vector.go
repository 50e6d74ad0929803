package types

// VectorMetadata is the metadata half of a vector payload. Field names are
// part of the index contract: existing collections were written with these
// keys and a re-index pass must produce the same shape.
type VectorMetadata struct {
	ContentID  int64  `json:"content_id"`
	DocID      int64  `json:"doc_id"`
	PageNo     int    `json:"page_no"`
	ChunkNo    int    `json:"chunk_no"`
	ModelKey   string `json:"model_key"`
	FolderName string `json:"folder_name"`
	Title      string `json:"title"`
	FileType   string `json:"file_type"`
	Source     string `json:"source"`
}

// VectorPayload is stored alongside each vector point.
type VectorPayload struct {
	Content  string         `json:"content"`
	Metadata VectorMetadata `json:"metadata"`
}

// VectorPoint is one entry in a vector collection. ID is always a Chunk ID.
type VectorPoint struct {
	ID      int64         `json:"id"`
	Vector  []float32     `json:"vector"`
	Payload VectorPayload `json:"payload"`
}

// Embedding engines supported by the model registry.
const (
	EngineOpenAI = "openai"
	EngineOllama = "ollama"
	EngineGemini = "gemini"
)

// EmbeddingModel describes one embedding model generation. Version bumps
// produce a new collection instead of mutating an existing one.
type EmbeddingModel struct {
	Key       string
	ModelName string
	Dimension int
	Distance  string
	Version   int
	Engine    string
}
