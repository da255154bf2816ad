package app

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"safewatch/internal/gateway/config"
	"safewatch/internal/ratelimit"
	artifactrepo "safewatch/internal/repository/artifact"
	incidentrepo "safewatch/internal/repository/incident"
	"safewatch/internal/repository/report"
	"safewatch/internal/repository/sqldb"
)

type gatewayStores struct {
	incidents incidentrepo.Store
	reports   report.Store
	artifact  artifactrepo.Store
	rateLimit ratelimit.Store
	closers   []func() error
}

func initStores(ctx context.Context, cfg *config.Config) (*gatewayStores, error) {
	stores := &gatewayStores{}
	if dsn := strings.TrimSpace(cfg.DatabaseURL); dsn != "" {
		if err := initSQLStores(ctx, dsn, stores); err != nil {
			return nil, err
		}
	} else {
		log.Printf("incident store: in-memory (DATABASE_URL not set)")
		stores.incidents = incidentrepo.NewMemoryStore()
		stores.reports = report.NewMemoryStore()
	}

	artifactStore, err := chooseArtifactStore(cfg)
	if err != nil {
		stores.close()
		return nil, err
	}
	stores.artifact = artifactStore

	rl, err := chooseRateLimitStore(ctx, cfg, stores)
	if err != nil {
		stores.close()
		return nil, err
	}
	stores.rateLimit = rl
	return stores, nil
}

func initSQLStores(ctx context.Context, dsn string, stores *gatewayStores) error {
	if err := ensureSQLiteDir(dsn); err != nil {
		return err
	}
	db, err := sqldb.Open(ctx, dsn)
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	log.Printf("incident store: %s", db.Dialect)
	stores.incidents = incidentrepo.NewSQLStore(db)
	stores.reports = report.NewSQLStore(db)
	stores.closers = append(stores.closers, db.Close)
	return nil
}

// ensureSQLiteDir creates the parent directory of a file-backed SQLite DSN.
func ensureSQLiteDir(dsn string) error {
	if !strings.HasPrefix(dsn, "sqlite:") {
		return nil
	}
	path := strings.TrimPrefix(strings.TrimPrefix(dsn, "sqlite:"), "//")
	if path == "" || strings.HasPrefix(path, ":memory:") || strings.HasPrefix(path, "file:") {
		return nil
	}
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create sqlite dir: %w", err)
	}
	return nil
}

func chooseArtifactStore(cfg *config.Config) (artifactrepo.Store, error) {
	if cfg.Artifact.CanUseS3() {
		s3Cfg := artifactrepo.S3Config{
			Endpoint:  cfg.Artifact.Endpoint,
			Region:    cfg.Artifact.Region,
			AccessKey: cfg.Artifact.AccessKey,
			SecretKey: cfg.Artifact.SecretKey,
			Bucket:    cfg.Artifact.Bucket,
			Prefix:    cfg.Artifact.Prefix,
			UseSSL:    cfg.Artifact.UseSSL,
		}
		s3Store, err := artifactrepo.NewS3Store(s3Cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize artifact s3 store: %w", err)
		}
		log.Printf("artifact store: s3 bucket=%s endpoint=%s", s3Cfg.Bucket, s3Cfg.Endpoint)
		return s3Store, nil
	}
	if dir := strings.TrimSpace(cfg.Artifact.Dir); dir != "" {
		if cfg.Artifact.Enabled {
			log.Printf("artifact store: using directory fallback (s3 config incomplete)")
		}
		fs, err := artifactrepo.NewFileStore(dir)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize artifact dir store: %w", err)
		}
		log.Printf("artifact store: dir=%s", dir)
		return fs, nil
	}
	log.Printf("artifact store: in-memory")
	return artifactrepo.NewMemoryStore(), nil
}

func chooseRateLimitStore(ctx context.Context, cfg *config.Config, stores *gatewayStores) (ratelimit.Store, error) {
	if url := strings.TrimSpace(cfg.RedisURL); url != "" {
		rs, err := ratelimit.NewRedisStoreFromURL(ctx, url)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize redis rate limit store: %w", err)
		}
		log.Printf("rate limit store: redis")
		stores.closers = append(stores.closers, rs.Close)
		return rs, nil
	}
	return ratelimit.NewMemoryStore(0), nil
}

func (s *gatewayStores) close() error {
	var first error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	s.closers = nil
	return first
}
