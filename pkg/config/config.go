// Package config reads application settings from the environment, after
// loading an optional .env file.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Env     string
	Tenant  string
	Catalog CatalogConfig
	Assets  AssetsConfig
	Project ProjectConfig
	Room    RoomConfig
}

// CatalogConfig selects the catalog source: Postgres when DSN is set, the
// YAML file otherwise.
type CatalogConfig struct {
	DSN  string
	Path string
}

// AssetsConfig selects where part models come from: the S3 bucket when
// Endpoint is set, Dir otherwise.
type AssetsConfig struct {
	Dir       string
	CacheSize int
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type ProjectConfig struct {
	DBPath string
}

type RoomConfig struct {
	Width  float64
	Height float64
	Depth  float64
}

// UseS3 reports whether models are fetched from object storage.
func (a AssetsConfig) UseS3() bool {
	return a.Endpoint != ""
}

// UsePostgres reports whether the catalog is read from the database.
func (c CatalogConfig) UsePostgres() bool {
	return c.DSN != ""
}

// Load reads .env files (missing files are ignored) and then the
// environment. With no arguments it looks for .env in the working
// directory. Values already in the environment win over the files.
func Load(files ...string) (*Config, error) {
	_ = godotenv.Load(files...)

	env := firstNonEmpty(getenv("LUXFRAME_ENV"), "local")
	dataDir := firstNonEmpty(getenv("LUXFRAME_DATA_DIR"), defaultDataDir())

	return &Config{
		Env:    env,
		Tenant: firstNonEmpty(getenv("LUXFRAME_TENANT"), "default"),
		Catalog: CatalogConfig{
			DSN:  getenv("LUXFRAME_CATALOG_DSN"),
			Path: firstNonEmpty(getenv("LUXFRAME_CATALOG_PATH"), filepath.Join(dataDir, "catalog.yaml")),
		},
		Assets: loadAssetsConfig(env, dataDir),
		Project: ProjectConfig{
			DBPath: firstNonEmpty(getenv("LUXFRAME_PROJECT_DB"), filepath.Join(dataDir, "projects.db")),
		},
		Room: RoomConfig{
			Width:  parseFloat(getenv("LUXFRAME_ROOM_WIDTH"), 3),
			Height: parseFloat(getenv("LUXFRAME_ROOM_HEIGHT"), 3),
			Depth:  parseFloat(getenv("LUXFRAME_ROOM_DEPTH"), 3),
		},
	}, nil
}

func loadAssetsConfig(env, dataDir string) AssetsConfig {
	return AssetsConfig{
		Dir:       firstNonEmpty(getenv("LUXFRAME_ASSET_DIR"), filepath.Join(dataDir, "models")),
		CacheSize: parseInt(getenv("LUXFRAME_ASSET_CACHE_SIZE"), 256),
		Endpoint:  getenv("LUXFRAME_S3_ENDPOINT"),
		Region:    firstNonEmpty(getenv("LUXFRAME_S3_REGION"), "us-east-1"),
		AccessKey: firstNonEmpty(getenv("LUXFRAME_S3_ACCESS_KEY"), getenv("MINIO_ROOT_USER")),
		SecretKey: firstNonEmpty(getenv("LUXFRAME_S3_SECRET_KEY"), getenv("MINIO_ROOT_PASSWORD")),
		Bucket:    firstNonEmpty(getenv("LUXFRAME_S3_BUCKET"), "luxframe-models"),
		UseSSL:    resolveUseSSL(env),
	}
}

func resolveUseSSL(env string) bool {
	if strings.EqualFold(env, "local") {
		return false
	}
	return parseBool(getenv("LUXFRAME_S3_USE_SSL"), true)
}

func defaultDataDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "data"
	}
	return filepath.Join(dir, "luxframe")
}

func getenv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func parseFloat(raw string, fallback float64) float64 {
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func parseInt(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func parseBool(raw string, fallback bool) bool {
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
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
