// Package config loads and validates equiprank configuration.
//
// Precedence, lowest to highest:
//  1. Built-in defaults
//  2. YAML config file (equiprank.yaml)
//  3. EQUIPRANK_* environment variables
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	rerrors "github.com/equiprank/equiprank/internal/errors"
)

// ConfigFileName is the default config file name looked up in the working directory.
const ConfigFileName = "equiprank.yaml"

// Config is the complete equiprank configuration.
type Config struct {
	Version    int              `yaml:"version" json:"version"`
	Paths      PathsConfig      `yaml:"paths" json:"paths"`
	Search     SearchConfig     `yaml:"search" json:"search"`
	Embeddings EmbeddingsConfig `yaml:"embeddings" json:"embeddings"`
	Reranker   RerankerConfig   `yaml:"reranker" json:"reranker"`
	Cache      CacheConfig      `yaml:"cache" json:"cache"`
	Logging    LoggingConfig    `yaml:"logging" json:"logging"`
}

// PathsConfig locates the corpus and optional side artifacts.
type PathsConfig struct {
	// Corpus is the JSON document collection path.
	Corpus string `yaml:"corpus" json:"corpus"`
	// Abbreviations is the compiled abbreviation artifact path (optional).
	Abbreviations string `yaml:"abbreviations" json:"abbreviations"`
	// Snapshot is the default index snapshot path.
	Snapshot string `yaml:"snapshot" json:"snapshot"`
}

// SearchConfig tunes the ranking pipeline.
type SearchConfig struct {
	// BM25K1 is the BM25 term-frequency saturation constant.
	BM25K1 float64 `yaml:"bm25_k1" json:"bm25_k1"`
	// BM25B is the BM25 document-length normalization constant.
	BM25B float64 `yaml:"bm25_b" json:"bm25_b"`

	// Combination weights. Non-negative; they need not sum to 1.0, so
	// combined stays monotonic in each sub-score. Defaults are tuned for
	// the cleaning-equipment corpus, not a contract.
	LexicalWeight  float64 `yaml:"lexical_weight" json:"lexical_weight"`
	SemanticWeight float64 `yaml:"semantic_weight" json:"semantic_weight"`
	RerankerWeight float64 `yaml:"reranker_weight" json:"reranker_weight"`
	DomainWeight   float64 `yaml:"domain_weight" json:"domain_weight"`

	// TopK is the default result count.
	TopK int `yaml:"top_k" json:"top_k"`
	// MaxTopK bounds per-request top_k.
	MaxTopK int `yaml:"max_top_k" json:"max_top_k"`
	// MaxBatchQueries bounds SearchBatch query count.
	MaxBatchQueries int `yaml:"max_batch_queries" json:"max_batch_queries"`

	// MaxPerSubtype caps candidates per subtype key during diversification.
	MaxPerSubtype int `yaml:"max_per_subtype" json:"max_per_subtype"`
	// MinCategoryCoverage is the category coverage floor in the top-K.
	MinCategoryCoverage int `yaml:"min_category_coverage" json:"min_category_coverage"`

	// MaxVariants bounds the rewrite variant list (primary included).
	MaxVariants int `yaml:"max_variants" json:"max_variants"`
	// MaxExpansions bounds expand-map variants per query.
	MaxExpansions int `yaml:"max_expansions" json:"max_expansions"`

	// Timeout is the per-query budget before lexical-only fallback.
	Timeout Duration `yaml:"timeout" json:"timeout"`

	// RelatedCount is how many related suggestions each result carries.
	RelatedCount int `yaml:"related_count" json:"related_count"`
}

// EmbeddingsConfig configures the embedding provider.
type EmbeddingsConfig struct {
	// Provider selects the embedder: "hf", "openai", "static", "mock".
	Provider string `yaml:"provider" json:"provider"`
	// Endpoint is the remote inference URL (hf provider).
	Endpoint string `yaml:"endpoint" json:"endpoint"`
	// Model is the embedding model identifier.
	Model string `yaml:"model" json:"model"`
	// APIKey authenticates remote providers. Usually set via env.
	APIKey string `yaml:"api_key" json:"api_key"`
	// Dimensions is the expected vector dimension (0 = detect).
	Dimensions int `yaml:"dimensions" json:"dimensions"`
	// BatchSize is the chunk size for batch embedding calls.
	BatchSize int `yaml:"batch_size" json:"batch_size"`
	// Timeout is the per-call timeout.
	Timeout Duration `yaml:"timeout" json:"timeout"`
	// CacheSize is the query-embedding LRU size (0 disables the wrapper).
	CacheSize int `yaml:"cache_size" json:"cache_size"`
}

// RerankerConfig configures the cross-encoder provider.
type RerankerConfig struct {
	// Provider selects the cross-encoder: "remote", "noop", "mock".
	Provider string `yaml:"provider" json:"provider"`
	// Endpoint is the remote reranker URL.
	Endpoint string `yaml:"endpoint" json:"endpoint"`
	// Model is the reranker model identifier.
	Model string `yaml:"model" json:"model"`
	// Timeout is the per-call timeout.
	Timeout Duration `yaml:"timeout" json:"timeout"`
	// PoolSize is how many candidates are sent for cross-encoding.
	PoolSize int `yaml:"pool_size" json:"pool_size"`
}

// CacheConfig configures the search result cache.
type CacheConfig struct {
	// Size is the maximum number of cached queries.
	Size int `yaml:"size" json:"size"`
	// TTL is the absolute per-entry lifetime.
	TTL Duration `yaml:"ttl" json:"ttl"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	Level    string `yaml:"level" json:"level"`
	FilePath string `yaml:"file_path" json:"file_path"`
}

// NewConfig returns a Config populated with defaults.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Paths: PathsConfig{
			Corpus:        "corpus.json",
			Abbreviations: "abbreviations.json",
			Snapshot:      "index.snapshot.json",
		},
		Search: SearchConfig{
			BM25K1:              1.4,
			BM25B:               0.75,
			LexicalWeight:       0.30,
			SemanticWeight:      0.35,
			RerankerWeight:      0.25,
			DomainWeight:        0.10,
			TopK:                10,
			MaxTopK:             50,
			MaxBatchQueries:     20,
			MaxPerSubtype:       2,
			MinCategoryCoverage: 3,
			MaxVariants:         10,
			MaxExpansions:       8,
			Timeout:             Duration(5 * time.Second),
			RelatedCount:        3,
		},
		Embeddings: EmbeddingsConfig{
			Provider:  "static",
			Model:     "static-256",
			BatchSize: 32,
			Timeout:   Duration(30 * time.Second),
			CacheSize: 1000,
		},
		Reranker: RerankerConfig{
			Provider: "noop",
			Timeout:  Duration(30 * time.Second),
			PoolSize: 50,
		},
		Cache: CacheConfig{
			Size: 512,
			TTL:  Duration(10 * time.Minute),
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from path (empty = ConfigFileName in the working
// directory), merging file values over defaults and env overrides over both.
// A missing file is not an error; defaults apply.
func Load(path string) (*Config, error) {
	cfg := NewConfig()

	if path == "" {
		path = ConfigFileName
	}
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// Defaults only.
	case err != nil:
		return nil, rerrors.New(rerrors.ErrCodeConfigInvalid, fmt.Sprintf("read config %s: %v", path, err), err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, rerrors.New(rerrors.ErrCodeConfigInvalid, fmt.Sprintf("parse config %s: %v", path, err), err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides applies EQUIPRANK_* environment variables.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("EQUIPRANK_CORPUS"); v != "" {
		c.Paths.Corpus = v
	}
	if v := os.Getenv("EQUIPRANK_ABBREV"); v != "" {
		c.Paths.Abbreviations = v
	}
	if v := os.Getenv("EQUIPRANK_SNAPSHOT"); v != "" {
		c.Paths.Snapshot = v
	}
	if v := os.Getenv("EQUIPRANK_EMBED_PROVIDER"); v != "" {
		c.Embeddings.Provider = v
	}
	if v := os.Getenv("EQUIPRANK_EMBED_ENDPOINT"); v != "" {
		c.Embeddings.Endpoint = v
	}
	if v := os.Getenv("EQUIPRANK_EMBED_MODEL"); v != "" {
		c.Embeddings.Model = v
	}
	if v := os.Getenv("EQUIPRANK_EMBED_API_KEY"); v != "" {
		c.Embeddings.APIKey = v
	}
	if v := os.Getenv("EQUIPRANK_RERANKER_PROVIDER"); v != "" {
		c.Reranker.Provider = v
	}
	if v := os.Getenv("EQUIPRANK_RERANKER_ENDPOINT"); v != "" {
		c.Reranker.Endpoint = v
	}
	if v := os.Getenv("EQUIPRANK_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("EQUIPRANK_LEXICAL_WEIGHT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Search.LexicalWeight = f
		}
	}
	if v := os.Getenv("EQUIPRANK_SEMANTIC_WEIGHT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Search.SemanticWeight = f
		}
	}
	if v := os.Getenv("EQUIPRANK_RERANKER_WEIGHT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Search.RerankerWeight = f
		}
	}
	if v := os.Getenv("EQUIPRANK_DOMAIN_WEIGHT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Search.DomainWeight = f
		}
	}
}

// Validate checks invariants the pipeline relies on.
func (c *Config) Validate() error {
	s := c.Search
	if s.LexicalWeight < 0 || s.SemanticWeight < 0 || s.RerankerWeight < 0 || s.DomainWeight < 0 {
		return rerrors.New(rerrors.ErrCodeConfigInvalid, "combination weights must be non-negative", nil)
	}
	if s.LexicalWeight+s.SemanticWeight+s.RerankerWeight+s.DomainWeight == 0 {
		return rerrors.New(rerrors.ErrCodeConfigInvalid, "at least one combination weight must be positive", nil)
	}
	if s.BM25K1 <= 0 {
		return rerrors.New(rerrors.ErrCodeConfigInvalid, "bm25_k1 must be positive", nil)
	}
	if s.BM25B < 0 || s.BM25B > 1 {
		return rerrors.New(rerrors.ErrCodeConfigInvalid, "bm25_b must be in [0,1]", nil)
	}
	if s.TopK <= 0 || s.MaxTopK < s.TopK {
		return rerrors.New(rerrors.ErrCodeConfigInvalid, "top_k must be positive and <= max_top_k", nil)
	}
	if s.MaxVariants < 1 {
		return rerrors.New(rerrors.ErrCodeConfigInvalid, "max_variants must leave room for the primary variant", nil)
	}
	if c.Cache.Size < 0 || c.Cache.TTL < 0 {
		return rerrors.New(rerrors.ErrCodeConfigInvalid, "cache size and ttl must be non-negative", nil)
	}
	return nil
}

// WriteYAML writes the configuration to path.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return rerrors.Wrap(rerrors.ErrCodeInternal, err)
	}
	return os.WriteFile(path, data, 0o644)
}
