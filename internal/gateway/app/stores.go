package app

import (
	"database/sql"
	"fmt"
	"log"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"

	artifactcache "sitegen/internal/cache/artifact"
	"sitegen/internal/gateway/config"
	artifactrepo "sitegen/internal/gateway/repository/artifact"
	"sitegen/internal/gateway/repository/transcript"
)

type gatewayStores struct {
	artifact   artifactrepo.Store
	transcript transcript.Store
	closers    []func() error
}

func (s *gatewayStores) Close() error {
	var first error
	for _, c := range s.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func initStores(cfg *config.Config) (*gatewayStores, error) {
	stores := &gatewayStores{}

	origin, err := chooseArtifactOrigin(cfg, stores)
	if err != nil {
		_ = stores.Close()
		return nil, err
	}
	stores.artifact = artifactcache.NewCachedStore(origin, artifactcache.DefaultCacheConfig())

	if path := strings.TrimSpace(cfg.TranscriptDBPath); path != "" {
		sq, err := transcript.NewSQLiteStore(path)
		if err != nil {
			_ = stores.Close()
			return nil, fmt.Errorf("failed to open transcript db: %w", err)
		}
		stores.closers = append(stores.closers, sq.Close)
		stores.transcript = sq
		log.Printf("transcript store: sqlite path=%s", path)
	} else {
		stores.transcript = transcript.NewMemoryStore()
		log.Printf("transcript store: in-memory")
	}
	return stores, nil
}

// chooseArtifactOrigin prefers S3, then Postgres, then a local directory,
// then memory.
func chooseArtifactOrigin(cfg *config.Config, stores *gatewayStores) (artifactrepo.Store, error) {
	if cfg.Artifact.CanUseS3() {
		s3Cfg := artifactrepo.S3Config{
			Endpoint:  cfg.Artifact.Endpoint,
			Region:    cfg.Artifact.Region,
			AccessKey: cfg.Artifact.AccessKey,
			SecretKey: cfg.Artifact.SecretKey,
			Bucket:    cfg.Artifact.Bucket,
			UseSSL:    cfg.Artifact.UseSSL,
		}
		s3Store, err := artifactrepo.NewS3Store(s3Cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize artifact s3 store: %w", err)
		}
		log.Printf("artifact store: s3 bucket=%s endpoint=%s", s3Cfg.Bucket, s3Cfg.Endpoint)
		return s3Store, nil
	}
	if cfg.Artifact.Enabled {
		log.Printf("artifact store: s3 config incomplete, falling back")
	}

	if dsn := strings.TrimSpace(cfg.DatabaseURL); dsn != "" {
		db, err := sql.Open("pgx", dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to open db: %w", err)
		}
		stores.closers = append(stores.closers, db.Close)
		log.Printf("artifact store: postgres")
		return artifactrepo.NewPostgresStore(db), nil
	}

	if dir := strings.TrimSpace(cfg.ArtifactDir); dir != "" {
		log.Printf("artifact store: disk root=%s", dir)
		return artifactrepo.NewDiskStore(dir), nil
	}

	log.Printf("artifact store: in-memory")
	return artifactrepo.NewMemoryStore(), nil
}
