package config

import "path/filepath"

// applyLocalDefaults fills what a developer machine lacks: a SQLite file instead
// of Postgres and a directory for artifacts when MinIO credentials are absent.
func applyLocalDefaults(cfg *Config) {
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = "sqlite:" + filepath.Join("tmp", "safewatch.db")
	}
	if cfg.Artifact.Dir == "" {
		cfg.Artifact.Dir = filepath.Join("tmp", "artifacts")
	}
}
