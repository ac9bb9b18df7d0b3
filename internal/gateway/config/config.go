package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string
	Env  string

	LLM      LLMConfig
	Artifact ArtifactConfig
	Run      RunConfig

	// DatabaseURL selects the Postgres artifact store when S3 is not configured.
	DatabaseURL string
	// TranscriptDBPath selects the SQLite transcript store; empty keeps
	// transcripts in memory.
	TranscriptDBPath string
	// ArtifactDir selects the on-disk artifact store when neither S3 nor
	// Postgres is configured.
	ArtifactDir string
}

type LLMConfig struct {
	Provider      string
	Model         string
	GeminiAPIKey  string
	OpenAIAPIKey  string
	OpenAIBaseURL string
}

type ArtifactConfig struct {
	Enabled   bool
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// CanUseS3 reports whether the S3 settings are complete.
func (c ArtifactConfig) CanUseS3() bool {
	return c.Enabled &&
		strings.TrimSpace(c.Endpoint) != "" &&
		strings.TrimSpace(c.AccessKey) != "" &&
		strings.TrimSpace(c.SecretKey) != "" &&
		strings.TrimSpace(c.Bucket) != ""
}

type RunConfig struct {
	MaxRuns int
	TTL     time.Duration
}

func Load() (*Config, error) {
	return LoadArgs(os.Args[1:])
}

// LoadArgs reads .env, then flags from args, then environment overrides.
func LoadArgs(args []string) (*Config, error) {
	_ = godotenv.Load()

	fs := flag.NewFlagSet("gateway", flag.ContinueOnError)
	port := fs.String("port", ":8081", "server port")
	provider := fs.String("provider", "", "LLM provider (gemini|openai|fake)")
	model := fs.String("model", "", "LLM model name")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if envPort := os.Getenv("PORT"); envPort != "" {
		if strings.HasPrefix(envPort, ":") {
			*port = envPort
		} else {
			*port = ":" + envPort
		}
	}

	env := strings.TrimSpace(os.Getenv("APP_ENV"))
	if env == "" {
		env = "local"
	}

	runCfg, err := loadRunConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Port: *port,
		Env:  env,
		LLM: LLMConfig{
			Provider:      strings.ToLower(firstNonEmpty(*provider, strings.TrimSpace(os.Getenv("LLM_PROVIDER")), defaultProvider())),
			Model:         firstNonEmpty(*model, strings.TrimSpace(os.Getenv("LLM_MODEL"))),
			GeminiAPIKey:  firstNonEmpty(strings.TrimSpace(os.Getenv("GEMINI_API_KEY")), strings.TrimSpace(os.Getenv("API_KEY"))),
			OpenAIAPIKey:  strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
			OpenAIBaseURL: strings.TrimSpace(os.Getenv("OPENAI_BASE_URL")),
		},
		Artifact:         loadArtifactConfig(env),
		Run:              runCfg,
		DatabaseURL:      strings.TrimSpace(os.Getenv("DATABASE_URL")),
		TranscriptDBPath: strings.TrimSpace(os.Getenv("TRANSCRIPT_DB_PATH")),
		ArtifactDir:      strings.TrimSpace(os.Getenv("ARTIFACT_DIR")),
	}, nil
}

// defaultProvider picks gemini when a key is present and the offline fake
// otherwise.
func defaultProvider() string {
	if firstNonEmpty(os.Getenv("GEMINI_API_KEY"), os.Getenv("API_KEY")) != "" {
		return "gemini"
	}
	return "fake"
}

func loadRunConfig() (RunConfig, error) {
	var rc RunConfig
	if raw := strings.TrimSpace(os.Getenv("RUN_MAX")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return rc, fmt.Errorf("invalid RUN_MAX %q", raw)
		}
		rc.MaxRuns = n
	}
	if raw := strings.TrimSpace(os.Getenv("RUN_TTL")); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			return rc, fmt.Errorf("invalid RUN_TTL %q", raw)
		}
		rc.TTL = d
	}
	return rc, nil
}

func loadArtifactConfig(env string) ArtifactConfig {
	endpoint := resolveArtifactEndpoint(env)
	return ArtifactConfig{
		Enabled:   endpoint != "",
		Endpoint:  endpoint,
		Region:    firstNonEmpty(strings.TrimSpace(os.Getenv("ARTIFACT_S3_REGION")), "us-east-1"),
		AccessKey: firstNonEmpty(strings.TrimSpace(os.Getenv("ARTIFACT_S3_ACCESS_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_USER"))),
		SecretKey: firstNonEmpty(strings.TrimSpace(os.Getenv("ARTIFACT_S3_SECRET_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_PASSWORD"))),
		Bucket:    firstNonEmpty(strings.TrimSpace(os.Getenv("ARTIFACT_S3_BUCKET")), "sitegen-artifacts"),
		UseSSL:    resolveArtifactUseSSL(env),
	}
}

func resolveArtifactEndpoint(env string) string {
	if strings.EqualFold(strings.TrimSpace(env), "local") {
		return strings.TrimSpace(os.Getenv("ARTIFACT_MINIO_ENDPOINT"))
	}
	return strings.TrimSpace(os.Getenv("ARTIFACT_S3_ENDPOINT"))
}

func resolveArtifactUseSSL(env string) bool {
	if strings.EqualFold(strings.TrimSpace(env), "local") {
		return false
	}
	raw := strings.TrimSpace(os.Getenv("ARTIFACT_S3_USE_SSL"))
	if raw == "" {
		return true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return true
	}
	return v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
