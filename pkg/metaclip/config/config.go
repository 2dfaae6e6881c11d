package config

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tendant/metaclip/pkg/metaclip"
	"github.com/tendant/metaclip/pkg/metaclip/hub"
	memoryrepo "github.com/tendant/metaclip/pkg/metaclip/repo/memory"
	"github.com/tendant/metaclip/pkg/metaclip/repo/postgres"
	sqliterepo "github.com/tendant/metaclip/pkg/metaclip/repo/sqlite"
	fsstorage "github.com/tendant/metaclip/pkg/metaclip/storage/fs"
	memorystorage "github.com/tendant/metaclip/pkg/metaclip/storage/memory"
	s3storage "github.com/tendant/metaclip/pkg/metaclip/storage/s3"
)

// Option applies configuration to a ServerConfig instance.
type Option func(*ServerConfig) error

// Load constructs a ServerConfig by applying the supplied options on top of
// library defaults.
func Load(opts ...Option) (*ServerConfig, error) {
	cfg := defaults()

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func defaults() ServerConfig {
	return ServerConfig{
		Port:        "8080",
		Environment: "development",

		DatabaseType: "sqlite",
		DatabasePath: "./data/catalog.db",

		StorageType: "fs",
		StorageDir:  "./data/files",
	}
}

// ServerConfig represents server configuration for the metaclip service
type ServerConfig struct {
	Port        string
	Environment string // development, production, testing

	// Catalog configuration
	DatabaseType string // "memory", "sqlite", "postgres"
	DatabasePath string // SQLite file path
	DatabaseURL  string // Postgres connection string

	// Blob storage configuration
	StorageType string // "memory", "fs", "s3"
	StorageDir  string // filesystem base directory
	S3          S3Config

	// TLS (optional). Certificate issuance is external; the server only
	// consumes existing files.
	TLSCertFile string
	TLSKeyFile  string
}

// S3Config carries S3 blob backend settings.
type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}

	switch c.DatabaseType {
	case "memory":
	case "sqlite":
		if c.DatabasePath == "" {
			return errors.New("database path is required when using sqlite")
		}
	case "postgres":
		if c.DatabaseURL == "" {
			return errors.New("database_url is required when using postgres")
		}
	default:
		return errors.New("database_type must be 'memory', 'sqlite' or 'postgres'")
	}

	switch c.StorageType {
	case "memory":
	case "fs":
		if c.StorageDir == "" {
			return errors.New("storage dir is required when using fs")
		}
	case "s3":
		if c.S3.Bucket == "" {
			return errors.New("s3 bucket is required when using s3")
		}
	default:
		return errors.New("storage_type must be 'memory', 'fs' or 's3'")
	}

	if (c.TLSCertFile == "") != (c.TLSKeyFile == "") {
		return errors.New("tls cert and key files must be set together")
	}

	return nil
}

// Runtime bundles the wired service graph for one server process.
type Runtime struct {
	Service metaclip.Service
	Files   *metaclip.FileServer
	Hub     *hub.Hub

	closers []io.Closer
}

// Close drains the hub and releases catalog resources.
func (r *Runtime) Close() error {
	r.Hub.Drain()
	var firstErr error
	for _, c := range r.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Build creates the runtime service graph from the configuration.
func (c *ServerConfig) Build() (*Runtime, error) {
	catalog, closer, err := c.buildCatalog()
	if err != nil {
		return nil, fmt.Errorf("failed to build catalog: %w", err)
	}

	blobs, err := c.buildBlobStore()
	if err != nil {
		if closer != nil {
			_ = closer.Close()
		}
		return nil, fmt.Errorf("failed to build blob store: %w", err)
	}

	h := hub.New()

	svc, err := metaclip.New(
		metaclip.WithCatalog(catalog),
		metaclip.WithBlobStore(blobs),
		metaclip.WithEventSink(h),
	)
	if err != nil {
		if closer != nil {
			_ = closer.Close()
		}
		return nil, err
	}

	rt := &Runtime{
		Service: svc,
		Files:   metaclip.NewFileServer(catalog, blobs),
		Hub:     h,
	}
	if closer != nil {
		rt.closers = append(rt.closers, closer)
	}
	return rt, nil
}

// buildCatalog creates a Catalog based on the configuration
func (c *ServerConfig) buildCatalog() (metaclip.Catalog, io.Closer, error) {
	switch c.DatabaseType {
	case "memory":
		return memoryrepo.New(), nil, nil
	case "sqlite":
		repo, err := sqliterepo.Open(c.DatabasePath)
		if err != nil {
			return nil, nil, err
		}
		return repo, repo, nil
	case "postgres":
		pool, err := pgxpool.New(context.Background(), c.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create pgx pool: %w", err)
		}
		repo := postgres.NewWithPool(pool)
		if err := repo.Migrate(context.Background()); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return repo, poolCloser{pool}, nil
	default:
		return nil, nil, fmt.Errorf("unsupported database type: %s", c.DatabaseType)
	}
}

// buildBlobStore creates a BlobStore based on the configuration
func (c *ServerConfig) buildBlobStore() (metaclip.BlobStore, error) {
	switch c.StorageType {
	case "memory":
		return memorystorage.New(), nil
	case "fs":
		return fsstorage.New(fsstorage.Config{BaseDir: c.StorageDir})
	case "s3":
		return s3storage.New(s3storage.Config{
			Region:          c.S3.Region,
			Bucket:          c.S3.Bucket,
			AccessKeyID:     c.S3.AccessKeyID,
			SecretAccessKey: c.S3.SecretAccessKey,
			Endpoint:        c.S3.Endpoint,
			UsePathStyle:    c.S3.UsePathStyle,
		})
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", c.StorageType)
	}
}

// poolCloser adapts pgxpool's Close() to io.Closer.
type poolCloser struct {
	pool *pgxpool.Pool
}

func (p poolCloser) Close() error {
	p.pool.Close()
	return nil
}
