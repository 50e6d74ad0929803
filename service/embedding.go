package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/sashabaranov/go-openai"
	"google.golang.org/api/option"

	"github.com/tieubaoca/docflow/config"
	"github.com/tieubaoca/docflow/types"
)

// EmbeddingModels is the registry of known embedding model generations.
// Bumping a Version produces a new vector collection; never mutate an
// existing entry's dimension in place.
var EmbeddingModels = map[string]types.EmbeddingModel{
	"openai_large": {
		Key:       "openai_large",
		ModelName: "text-embedding-3-large",
		Dimension: 3072,
		Distance:  "Cosine",
		Version:   1,
		Engine:    types.EngineOpenAI,
	},
	"openai_small": {
		Key:       "openai_small",
		ModelName: "text-embedding-3-small",
		Dimension: 1536,
		Distance:  "Cosine",
		Version:   1,
		Engine:    types.EngineOpenAI,
	},
	"nomic": {
		Key:       "nomic",
		ModelName: "nomic-embed-text",
		Dimension: 768,
		Distance:  "Cosine",
		Version:   1,
		Engine:    types.EngineOllama,
	},
	"bge_m3": {
		Key:       "bge_m3",
		ModelName: "bge-m3",
		Dimension: 1024,
		Distance:  "Cosine",
		Version:   1,
		Engine:    types.EngineOllama,
	},
	"gemini": {
		Key:       "gemini",
		ModelName: "text-embedding-004",
		Dimension: 768,
		Distance:  "Cosine",
		Version:   1,
		Engine:    types.EngineGemini,
	},
}

// LookupEmbeddingModel resolves a model key from the registry.
func LookupEmbeddingModel(key string) (types.EmbeddingModel, error) {
	model, ok := EmbeddingModels[key]
	if !ok {
		return types.EmbeddingModel{}, fmt.Errorf("unknown model key: %s", key)
	}
	return model, nil
}

// Embedder turns text into a vector for one embedding model.
type Embedder interface {
	Embed(ctx context.Context, text string, model types.EmbeddingModel) ([]float32, error)
}

// EmbeddingService dispatches to the engine named by the model config:
// OpenAI, Ollama or Gemini. Clients are built once at construction, not
// lazily.
type EmbeddingService struct {
	openaiClient *openai.Client
	geminiClient *genai.Client
	ollamaURL    string
	httpClient   *http.Client
}

func NewEmbeddingService(ctx context.Context, cfg config.EmbeddingConfig) (*EmbeddingService, error) {
	s := &EmbeddingService{
		ollamaURL:  cfg.OllamaURL,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}

	if cfg.OpenAIAPIKey != "" {
		openaiCfg := openai.DefaultConfig(cfg.OpenAIAPIKey)
		if cfg.OpenAIBaseURL != "" {
			openaiCfg.BaseURL = cfg.OpenAIBaseURL
		}
		s.openaiClient = openai.NewClientWithConfig(openaiCfg)
	}

	if cfg.GeminiAPIKey != "" {
		client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiAPIKey))
		if err != nil {
			return nil, fmt.Errorf("creating gemini client: %w", err)
		}
		s.geminiClient = client
	}

	return s, nil
}

func (s *EmbeddingService) Close() error {
	if s.geminiClient != nil {
		return s.geminiClient.Close()
	}
	return nil
}

func (s *EmbeddingService) Embed(ctx context.Context, text string, model types.EmbeddingModel) ([]float32, error) {
	var vector []float32
	var err error

	switch model.Engine {
	case types.EngineOpenAI:
		vector, err = s.embedOpenAI(ctx, text, model.ModelName)
	case types.EngineOllama:
		vector, err = s.embedOllama(ctx, text, model.ModelName)
	case types.EngineGemini:
		vector, err = s.embedGemini(ctx, text, model.ModelName)
	default:
		return nil, fmt.Errorf("unsupported embedding engine: %s", model.Engine)
	}
	if err != nil {
		return nil, err
	}

	if len(vector) != model.Dimension {
		return nil, fmt.Errorf("embedding size mismatch (got=%d, expected=%d)", len(vector), model.Dimension)
	}
	return vector, nil
}

func (s *EmbeddingService) embedOpenAI(ctx context.Context, text, modelName string) ([]float32, error) {
	if s.openaiClient == nil {
		return nil, errors.New("openai client not configured: missing OPENAI_API_KEY")
	}
	resp, err := s.openaiClient.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input: []string{text},
		Model: openai.EmbeddingModel(modelName),
	})
	if err != nil {
		return nil, fmt.Errorf("openai embedding: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, errors.New("openai embedding: empty response")
	}
	return resp.Data[0].Embedding, nil
}

func (s *EmbeddingService) embedOllama(ctx context.Context, text, modelName string) ([]float32, error) {
	payload, err := json.Marshal(map[string]string{
		"model":  modelName,
		"prompt": text,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.ollamaURL+"/api/embeddings", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama embedding: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama error %d: %s", resp.StatusCode, string(body))
	}

	var out struct {
		Embedding []float32 `json:"embedding"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("ollama response decode: %w", err)
	}
	return out.Embedding, nil
}

func (s *EmbeddingService) embedGemini(ctx context.Context, text, modelName string) ([]float32, error) {
	if s.geminiClient == nil {
		return nil, errors.New("gemini client not configured: missing GEMINI_API_KEY")
	}
	em := s.geminiClient.EmbeddingModel(modelName)
	em.TaskType = genai.TaskTypeRetrievalDocument

	res, err := em.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, fmt.Errorf("gemini embedding: %w", err)
	}
	if res.Embedding == nil {
		return nil, errors.New("gemini embedding: empty response")
	}
	return res.Embedding.Values, nil
}
