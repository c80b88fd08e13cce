package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/alaris-labs/papergraph/internal/util"
	"github.com/alaris-labs/papergraph/pkg/ai"
	oai "github.com/alaris-labs/papergraph/pkg/ai/ollama"
	gai "github.com/alaris-labs/papergraph/pkg/ai/openai"
	"github.com/alaris-labs/papergraph/pkg/extract"
	s3loader "github.com/alaris-labs/papergraph/pkg/loader/s3"
)

type AIConfig struct {
	// Adapter selects the backend, "openai" or "ollama".
	Adapter       string
	ChatURL       string
	ChatKey       string
	ExtractModel  string
	DescribeModel string
	ParallelReq   int
	Timeout       time.Duration
	MaxRetries    int
	Structured    bool
}

type ExtractConfig struct {
	MaxConceptChars int
	MaxAuthorTokens int
}

type S3Config struct {
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
}

type RabbitMQConfig struct {
	User     string
	Password string
	Host     string
	Port     string
}

type AuthConfig struct {
	URL          string
	MasterAPIKey string
}

type Config struct {
	Debug          bool
	LogJSON        bool
	Port           string
	DatabaseURL    string
	MigrationsPath string
	// AutoMigrate applies the migrations when the server starts.
	AutoMigrate bool
	Parallel    int

	AI       AIConfig
	Extract  ExtractConfig
	S3       S3Config
	RabbitMQ RabbitMQConfig
	Auth     AuthConfig
}

// Load reads the configuration from the environment. Call util.LoadEnv
// first to pick up a .env file.
func Load() Config {
	return Config{
		Debug:          util.GetEnvBool("DEBUG", false),
		LogJSON:        util.GetEnvBool("LOG_JSON", false),
		Port:           util.GetEnvString("PORT", "8080"),
		DatabaseURL:    util.GetEnv("DATABASE_URL"),
		MigrationsPath: util.GetEnv("MIGRATIONS_PATH"),
		AutoMigrate:    util.GetEnvBool("AUTO_MIGRATE", false),
		Parallel:       util.GetEnvInt("INGEST_PARALLEL", 2),
		AI: AIConfig{
			Adapter:       util.GetEnvString("AI_ADAPTER", "openai"),
			ChatURL:       util.GetEnv("AI_CHAT_URL"),
			ChatKey:       util.GetEnv("AI_CHAT_KEY"),
			ExtractModel:  util.GetEnv("AI_CHAT_EXTRACT_MODEL"),
			DescribeModel: util.GetEnv("AI_CHAT_DESCRIBE_MODEL"),
			ParallelReq:   util.GetEnvInt("AI_PARALLEL_REQ", 1),
			Timeout:       util.GetEnvDuration("AI_TIMEOUT_SECONDS", 60*time.Second),
			MaxRetries:    util.GetEnvInt("AI_MAX_RETRIES", 3),
			Structured:    util.GetEnvBool("AI_STRUCTURED_OUTPUT", false),
		},
		Extract: ExtractConfig{
			MaxConceptChars: util.GetEnvInt("EXTRACT_MAX_CHARS", 60000),
			MaxAuthorTokens: util.GetEnvInt("EXTRACT_AUTHOR_TOKENS", 1500),
		},
		S3: S3Config{
			Region:    util.GetEnvString("AWS_REGION", "us-east-1"),
			Endpoint:  util.GetEnv("AWS_ENDPOINT"),
			AccessKey: util.GetEnv("AWS_ACCESS_KEY"),
			SecretKey: util.GetEnv("AWS_SECRET_KEY"),
			Bucket:    util.GetEnv("AWS_BUCKET"),
		},
		RabbitMQ: RabbitMQConfig{
			User:     util.GetEnvString("RABBITMQ_USER", "guest"),
			Password: util.GetEnvString("RABBITMQ_PASSWORD", "guest"),
			Host:     util.GetEnvString("RABBITMQ_HOST", "localhost"),
			Port:     util.GetEnvString("RABBITMQ_PORT", "5672"),
		},
		Auth: AuthConfig{
			URL:          util.GetEnv("AUTH_URL"),
			MasterAPIKey: util.GetEnv("MASTER_API_KEY"),
		},
	}
}

var ErrMissingDatabaseURL = errors.New("DATABASE_URL is not set")

// RequireDatabase reports an error when no database is configured.
func (c Config) RequireDatabase() error {
	if c.DatabaseURL == "" {
		return ErrMissingDatabaseURL
	}
	return nil
}

// URL builds the AMQP connection url.
func (c RabbitMQConfig) URL() string {
	u := url.URL{
		Scheme: "amqp",
		User:   url.UserPassword(c.User, c.Password),
		Host:   c.Host + ":" + c.Port,
		Path:   "/",
	}
	return u.String()
}

// Enabled reports whether any form of request authentication is configured.
func (c AuthConfig) Enabled() bool {
	return c.URL != "" || c.MasterAPIKey != ""
}

func (c S3Config) LoaderParams() s3loader.NewFileLoaderParams {
	return s3loader.NewFileLoaderParams{
		Bucket:    c.Bucket,
		Endpoint:  c.Endpoint,
		Region:    c.Region,
		AccessKey: c.AccessKey,
		SecretKey: c.SecretKey,
	}
}

// ExtractParams maps the configuration onto extractor parameters.
func (c Config) ExtractParams() extract.Params {
	return extract.Params{
		Timeout:         c.AI.Timeout,
		MaxRetries:      c.AI.MaxRetries,
		Backoff:         time.Second,
		MaxConceptChars: c.Extract.MaxConceptChars,
		MaxAuthorTokens: c.Extract.MaxAuthorTokens,
		Structured:      c.AI.Structured,
	}
}

// NewAIClient creates the model client selected by Adapter.
func (c AIConfig) NewAIClient() (ai.GraphAIClient, error) {
	switch c.Adapter {
	case "ollama":
		client, err := oai.NewGraphOllamaClient(oai.NewGraphOllamaClientParams{
			DescribeModel:         c.DescribeModel,
			ExtractModel:          c.ExtractModel,
			BaseURL:               c.ChatURL,
			ApiKey:                c.ChatKey,
			MaxConcurrentRequests: int64(c.ParallelReq),
		})
		if err != nil {
			return nil, fmt.Errorf("could not create Ollama client: %w", err)
		}
		return client, nil
	case "openai", "":
		return gai.NewGraphOpenAIClient(gai.NewGraphOpenAIClientParams{
			DescribeModel: c.DescribeModel,
			ExtractModel:  c.ExtractModel,
			ChatURL:       c.ChatURL,
			ChatKey:       c.ChatKey,
		}), nil
	default:
		return nil, fmt.Errorf("unknown AI_ADAPTER %q", c.Adapter)
	}
}
