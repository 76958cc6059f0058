package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/OFFIS-RIT/papergraph/internal/util"
	"github.com/OFFIS-RIT/papergraph/pkg/ai"
	"github.com/OFFIS-RIT/papergraph/pkg/logger"
)

// ErrMissingSetting is wrapped by Validate for every absent or invalid
// required setting.
var ErrMissingSetting = errors.New("missing required setting")

var DefaultFallbackModels = []string{"llama3.1", "llama3", "mistral", "gemma:2b"}

type Neo4j struct {
	URI         string
	Username    string
	Password    string
	SettleDelay time.Duration
}

type AI struct {
	Adapter        string
	URL            string
	Model          string
	Key            string
	FallbackModels []string
	ParallelReq    int
	Temperature    float64
}

type Chunking struct {
	Size         int
	Overlap      int
	TokenEncoder string
}

type Extraction struct {
	Parallel   int
	MaxRetries int
}

type Storage struct {
	Backend   string
	UploadDir string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
}

type Server struct {
	Port   string
	APIKey string
}

// Config is the process configuration read once at startup.
type Config struct {
	Neo4j      Neo4j
	AI         AI
	Chunking   Chunking
	Extraction Extraction
	Storage    Storage
	Server     Server

	ExtractedDir    string
	GraphConfigFile string
	DefaultDatabase string
	QueryMode       string

	Debug     bool
	LogFormat string
}

// Load reads the configuration from the environment. Call util.LoadEnv
// first to pick up a .env file.
func Load() Config {
	return Config{
		Neo4j: Neo4j{
			URI:         util.GetEnvString("NEO4J_URI", "bolt://localhost:7687"),
			Username:    util.GetEnvString("NEO4J_USERNAME", "neo4j"),
			Password:    util.GetEnvString("NEO4J_PASSWORD", "graphrag"),
			SettleDelay: time.Duration(util.GetEnvNumeric("NEO4J_SETTLE_DELAY_MS", 2000)) * time.Millisecond,
		},
		AI: AI{
			Adapter:        util.GetEnvString("AI_ADAPTER", "ollama"),
			URL:            util.GetEnvFirst("http://localhost:11434", "AI_CHAT_URL", "OLLAMA_BASE_URL"),
			Model:          util.GetEnvFirst("llama3.1:latest", "AI_CHAT_MODEL", "OLLAMA_MODEL"),
			Key:            util.GetEnv("AI_CHAT_KEY"),
			FallbackModels: util.GetEnvList("AI_FALLBACK_MODELS", DefaultFallbackModels),
			ParallelReq:    int(util.GetEnvNumeric("AI_PARALLEL_REQ", 1)),
			Temperature:    util.GetEnvNumeric("AI_TEMPERATURE", 0),
		},
		Chunking: Chunking{
			Size:         int(util.GetEnvNumeric("CHUNK_SIZE", 10000)),
			Overlap:      int(util.GetEnvNumeric("CHUNK_OVERLAP", 1000)),
			TokenEncoder: util.GetEnv("CHUNK_TOKEN_ENCODER"),
		},
		Extraction: Extraction{
			Parallel:   int(util.GetEnvNumeric("EXTRACT_PARALLEL", 1)),
			MaxRetries: int(util.GetEnvNumeric("EXTRACT_MAX_RETRIES", 1)),
		},
		Storage: Storage{
			Backend:   util.GetEnvString("STORAGE_BACKEND", "local"),
			UploadDir: util.GetEnvString("UPLOAD_DIR", "uploads"),
			Region:    util.GetEnv("AWS_REGION"),
			Endpoint:  util.GetEnv("AWS_ENDPOINT"),
			AccessKey: util.GetEnv("AWS_ACCESS_KEY"),
			SecretKey: util.GetEnv("AWS_SECRET_KEY"),
			Bucket:    util.GetEnv("AWS_BUCKET"),
		},
		Server: Server{
			Port:   util.GetEnvString("PORT", "8080"),
			APIKey: util.GetEnv("API_KEY"),
		},
		ExtractedDir:    util.GetEnvString("EXTRACTED_DIR", "extracted_content"),
		GraphConfigFile: util.GetEnvString("GRAPH_CONFIG_FILE", "graph_configs.json"),
		DefaultDatabase: util.GetEnvString("DEFAULT_DATABASE", "research_db"),
		QueryMode:       util.GetEnv("QUERY_MODE"),
		Debug:           util.GetEnvBool("DEBUG", false),
		LogFormat:       util.GetEnvString("LOG_FORMAT", "text"),
	}
}

func missing(name string) error {
	return fmt.Errorf("%w: %s", ErrMissingSetting, name)
}

// Validate reports every configuration error at once.
func (c Config) Validate() error {
	var errs []error
	if c.Neo4j.URI == "" {
		errs = append(errs, missing("NEO4J_URI"))
	}
	if c.Neo4j.Username == "" {
		errs = append(errs, missing("NEO4J_USERNAME"))
	}
	if c.Neo4j.Password == "" {
		errs = append(errs, missing("NEO4J_PASSWORD"))
	}
	if c.AI.URL == "" && c.AI.Adapter == "ollama" {
		errs = append(errs, missing("AI_CHAT_URL"))
	}
	if c.AI.Model == "" {
		errs = append(errs, missing("AI_CHAT_MODEL"))
	}
	switch c.AI.Adapter {
	case "ollama", "openai":
	default:
		errs = append(errs, fmt.Errorf("%w: AI_ADAPTER must be ollama or openai, got %q", ErrMissingSetting, c.AI.Adapter))
	}
	if c.Chunking.Size <= 0 {
		errs = append(errs, fmt.Errorf("%w: CHUNK_SIZE must be positive", ErrMissingSetting))
	}
	if c.Chunking.Overlap < 0 || c.Chunking.Overlap >= c.Chunking.Size {
		errs = append(errs, fmt.Errorf("%w: CHUNK_OVERLAP must be in [0, CHUNK_SIZE)", ErrMissingSetting))
	}
	switch c.QueryMode {
	case "", "cypher", "fallback":
	default:
		errs = append(errs, fmt.Errorf("%w: QUERY_MODE must be cypher or fallback, got %q", ErrMissingSetting, c.QueryMode))
	}
	if c.Storage.Backend == "s3" && c.Storage.Bucket == "" {
		errs = append(errs, missing("AWS_BUCKET"))
	}
	return errors.Join(errs...)
}

// Resolved is the configuration with the model actually used. It is decided
// once at startup and passed to every component that needs the model.
type Resolved struct {
	Config
	Model string
}

// Resolve picks the model to use from the models the server offers. When
// the list cannot be fetched the configured model is kept.
func Resolve(ctx context.Context, cfg Config, lister ai.ModelLister) (Resolved, error) {
	available, err := lister.ListModels(ctx)
	if err != nil {
		logger.Warn("Could not list models, keeping configured model", "model", cfg.AI.Model, "err", err)
		return Resolved{Config: cfg, Model: cfg.AI.Model}, nil
	}

	model, err := ai.ResolveModel(cfg.AI.Model, available, cfg.AI.FallbackModels)
	if err != nil {
		return Resolved{}, err
	}
	if !ai.SameModel(model, cfg.AI.Model) {
		logger.Warn("Configured model not available, using fallback", "configured", cfg.AI.Model, "model", model)
	}
	logger.Info("Using model", "model", model, "available", strings.Join(available, ", "))
	return Resolved{Config: cfg, Model: model}, nil
}
