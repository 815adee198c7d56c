package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// PineconeConfig holds configuration for the vector store and the embedding
// inference API (both served by the same provider).
type PineconeConfig struct {
	BaseURL           string `yaml:"base_url"`
	APIKeyEnv         string `yaml:"api_key_env"`
	EmbedModel        string `yaml:"embed_model"`
	BatchSize         int    `yaml:"batch_size"`
	Dimension         int    `yaml:"dimension"`
	Metric            string `yaml:"metric"`
	Cloud             string `yaml:"cloud"`
	Region            string `yaml:"region"`
	TimeoutSecs       int    `yaml:"timeout_secs"`
	PollIntervalSecs  int    `yaml:"poll_interval_secs"`
	ReadyTimeoutSecs  int    `yaml:"ready_timeout_secs"`
	SettleTimeoutSecs int    `yaml:"settle_timeout_secs"`
}

// GeminiConfig holds configuration for the text generation model.
type GeminiConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// ChunkerConfig configures how extracted text is split into chunks.
type ChunkerConfig struct {
	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`
}

// RetrieverConfig configures query-time retrieval.
type RetrieverConfig struct {
	TopK int `yaml:"top_k"`
}

// CacheConfig locates the single-slot index pointer file.
type CacheConfig struct {
	Path string `yaml:"path"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Pinecone  PineconeConfig  `yaml:"pinecone"`
	Gemini    GeminiConfig    `yaml:"gemini"`
	Chunker   ChunkerConfig   `yaml:"chunker"`
	Retriever RetrieverConfig `yaml:"retriever"`
	Cache     CacheConfig     `yaml:"cache"`
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := defaultConfig()
			return cfg, nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyConfigDefaults(&cfg)
	return &cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/docsum/config.yaml.
// If neither exists, it writes defaults to ~/.config/docsum/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "docsum", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{}
	applyConfigDefaults(cfg)
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Pinecone.BaseURL == "" {
		cfg.Pinecone.BaseURL = "https://api.pinecone.io"
	}
	if cfg.Pinecone.APIKeyEnv == "" {
		cfg.Pinecone.APIKeyEnv = "PINECONE_API_KEY"
	}
	if cfg.Pinecone.EmbedModel == "" {
		cfg.Pinecone.EmbedModel = "multilingual-e5-large"
	}
	if cfg.Pinecone.BatchSize == 0 {
		cfg.Pinecone.BatchSize = 96
	}
	if cfg.Pinecone.Dimension == 0 {
		cfg.Pinecone.Dimension = 1024
	}
	if cfg.Pinecone.Metric == "" {
		cfg.Pinecone.Metric = "cosine"
	}
	if cfg.Pinecone.Cloud == "" {
		cfg.Pinecone.Cloud = "aws"
	}
	if cfg.Pinecone.Region == "" {
		cfg.Pinecone.Region = "us-east-1"
	}
	if cfg.Pinecone.TimeoutSecs == 0 {
		cfg.Pinecone.TimeoutSecs = 30
	}
	if cfg.Pinecone.PollIntervalSecs == 0 {
		cfg.Pinecone.PollIntervalSecs = 5
	}
	if cfg.Pinecone.ReadyTimeoutSecs == 0 {
		cfg.Pinecone.ReadyTimeoutSecs = 300
	}
	if cfg.Pinecone.SettleTimeoutSecs == 0 {
		cfg.Pinecone.SettleTimeoutSecs = 60
	}
	if cfg.Gemini.BaseURL == "" {
		cfg.Gemini.BaseURL = "https://generativelanguage.googleapis.com"
	}
	if cfg.Gemini.APIKeyEnv == "" {
		cfg.Gemini.APIKeyEnv = "GEMINI_API_KEY"
	}
	if cfg.Gemini.Model == "" {
		cfg.Gemini.Model = "gemini-1.5-flash"
	}
	if cfg.Gemini.TimeoutSecs == 0 {
		cfg.Gemini.TimeoutSecs = 120
	}
	if cfg.Chunker.ChunkSize == 0 {
		cfg.Chunker.ChunkSize = 500
	}
	if cfg.Chunker.ChunkOverlap == 0 {
		cfg.Chunker.ChunkOverlap = 100
	}
	if cfg.Retriever.TopK == 0 {
		cfg.Retriever.TopK = 10
	}
	if cfg.Cache.Path == "" {
		cfg.Cache.Path = "index_cache.json"
	}
}
