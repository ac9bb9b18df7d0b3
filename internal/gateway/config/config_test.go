package config

import (
	"testing"
	"time"

	"sitegen/internal/tester"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{
		"PORT", "APP_ENV", "LLM_PROVIDER", "LLM_MODEL", "GEMINI_API_KEY", "API_KEY",
		"OPENAI_API_KEY", "OPENAI_BASE_URL", "RUN_MAX", "RUN_TTL", "DATABASE_URL",
		"TRANSCRIPT_DB_PATH", "ARTIFACT_DIR", "ARTIFACT_MINIO_ENDPOINT", "ARTIFACT_S3_ENDPOINT",
		"ARTIFACT_S3_ACCESS_KEY", "ARTIFACT_S3_SECRET_KEY", "MINIO_ROOT_USER", "MINIO_ROOT_PASSWORD",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadArgs_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := LoadArgs(nil)
	tester.NoErr(t, err)
	tester.Eq(t, cfg.Port, ":8081")
	tester.Eq(t, cfg.Env, "local")
	tester.Eq(t, cfg.LLM.Provider, "fake")
	tester.False(t, cfg.Artifact.CanUseS3())
	tester.Eq(t, cfg.Run, RunConfig{})
}

func TestLoadArgs_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("GEMINI_API_KEY", "k")
	t.Setenv("RUN_MAX", "4")
	t.Setenv("RUN_TTL", "90s")
	t.Setenv("ARTIFACT_MINIO_ENDPOINT", "minio:9000")
	t.Setenv("MINIO_ROOT_USER", "u")
	t.Setenv("MINIO_ROOT_PASSWORD", "p")

	cfg, err := LoadArgs([]string{"-model", "gemini-2.5-pro"})
	tester.NoErr(t, err)
	tester.Eq(t, cfg.Port, ":9000")
	tester.Eq(t, cfg.LLM.Provider, "gemini")
	tester.Eq(t, cfg.LLM.Model, "gemini-2.5-pro")
	tester.Eq(t, cfg.Run.MaxRuns, 4)
	tester.Eq(t, cfg.Run.TTL, 90*time.Second)
	tester.True(t, cfg.Artifact.CanUseS3())
	tester.False(t, cfg.Artifact.UseSSL)
}

func TestLoadArgs_Invalid(t *testing.T) {
	clearEnv(t)
	t.Setenv("RUN_TTL", "soon")
	_, err := LoadArgs(nil)
	tester.True(t, err != nil)
}
