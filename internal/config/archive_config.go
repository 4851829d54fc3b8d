package config

import "os"

// ArchiveConfig points at an S3-compatible bucket (AWS S3, Cloudflare R2,
// MinIO) where raw bank exports and their reconciliation results are kept.
type ArchiveConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	Bucket    string `mapstructure:"bucket"`
	Prefix    string `mapstructure:"prefix"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
}

func (a *ArchiveConfig) applyEnv() {
	if endpoint := os.Getenv("ARCHIVE_ENDPOINT"); endpoint != "" {
		a.Endpoint = endpoint
	}
	if bucket := os.Getenv("ARCHIVE_BUCKET"); bucket != "" {
		a.Bucket = bucket
	}
	if key := os.Getenv("ARCHIVE_ACCESS_KEY"); key != "" {
		a.AccessKey = key
	}
	if secret := os.Getenv("ARCHIVE_SECRET_KEY"); secret != "" {
		a.SecretKey = secret
	}
}

// Usable reports whether enough is configured to open a client.
func (a ArchiveConfig) Usable() bool {
	return a.Enabled && a.Bucket != "" && a.AccessKey != "" && a.SecretKey != ""
}
