package config

import (
	"fmt"

	"github.com/spf13/viper"
)

type Config struct {
	Port          string          `mapstructure:"port"`
	WatchDir      string          `mapstructure:"watch_dir"`
	ImagesDir     string          `mapstructure:"images_dir"`
	DataDir       string          `mapstructure:"data_dir"`
	ModelKey      string          `mapstructure:"model_key"`
	Qdrant        QdrantConfig    `mapstructure:"qdrant"`
	Embedding     EmbeddingConfig `mapstructure:"embedding"`
	MaxUploadSize int64           `mapstructure:"max_upload_size"`
}

type QdrantConfig struct {
	// Addr is the gRPC endpoint as host:port (Qdrant's gRPC port,
	// 6334 by default, not the 6333 REST port).
	Addr           string `mapstructure:"addr"`
	APIKey         string `mapstructure:"QDRANT_API_KEY"`
	BaseCollection string `mapstructure:"base_collection"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

type EmbeddingConfig struct {
	OpenAIAPIKey  string `mapstructure:"OPENAI_API_KEY"`
	OpenAIBaseURL string `mapstructure:"openai_base_url"`
	GeminiAPIKey  string `mapstructure:"GEMINI_API_KEY"`
	OllamaURL     string `mapstructure:"ollama_url"`
}

func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	// Defaults keep the pipeline runnable with an empty config file.
	v.SetDefault("port", "8080")
	v.SetDefault("watch_dir", "watch_dir")
	v.SetDefault("images_dir", "images")
	v.SetDefault("data_dir", "data")
	v.SetDefault("model_key", "openai_large")
	v.SetDefault("qdrant.addr", "localhost:6334")
	v.SetDefault("qdrant.base_collection", "documents")
	v.SetDefault("qdrant.timeout_seconds", 30)
	v.SetDefault("embedding.ollama_url", "http://localhost:11434")
	v.SetDefault("max_upload_size", 50<<20)

	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Secrets come from the environment, not the yaml file.
	v.BindEnv("embedding.OPENAI_API_KEY", "OPENAI_API_KEY")
	v.BindEnv("embedding.GEMINI_API_KEY", "GEMINI_API_KEY")
	v.BindEnv("qdrant.QDRANT_API_KEY", "QDRANT_API_KEY")

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &config, nil
}
