package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Chain RPC
	ChainRPCURL        string
	ChainAPIKey        string
	AuditSigningKey    string
	CheckpointCacheTTL time.Duration

	// Supabase
	SupabaseURL            string
	SupabasePublishableKey string
	SupabaseJWTSecret      string
	SupabaseStorageBucket  string

	// Jobs
	JobMaxAttempts    int
	WorkerConcurrency int
	WorkerPollEvery   time.Duration

	// Database
	DatabaseURL string

	// Server
	Port        string
	Environment string
	BaseURL     string
}

func Load() (*Config, error) {
	cfg := &Config{
		ChainRPCURL:        getEnv("CHAIN_RPC_URL", "https://api.devnet.solana.com"),
		ChainAPIKey:        getEnv("CHAIN_API_KEY", ""),
		AuditSigningKey:    getEnv("AUDIT_SIGNING_KEY", ""),
		CheckpointCacheTTL: getEnvDuration("CHECKPOINT_CACHE_TTL", 30*time.Second),

		SupabaseURL:            getEnv("SUPABASE_URL", ""),
		SupabasePublishableKey: getEnv("SUPABASE_PUBLISHABLE_KEY", ""),
		SupabaseJWTSecret:      getEnv("SUPABASE_JWT_SECRET", ""),
		SupabaseStorageBucket:  getEnv("SUPABASE_STORAGE_BUCKET", "nft-metadata"),

		JobMaxAttempts:    getEnvInt("JOB_MAX_ATTEMPTS", 2),
		WorkerConcurrency: getEnvInt("WORKER_CONCURRENCY", 4),
		WorkerPollEvery:   getEnvDuration("WORKER_POLL_EVERY", time.Second),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		BaseURL:     getEnv("BASE_URL", "http://localhost:8080"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.ChainRPCURL == "" {
		return fmt.Errorf("CHAIN_RPC_URL is required")
	}
	if c.SupabaseURL == "" {
		return fmt.Errorf("SUPABASE_URL is required")
	}
	if c.SupabasePublishableKey == "" {
		return fmt.Errorf("SUPABASE_PUBLISHABLE_KEY is required")
	}
	if c.SupabaseJWTSecret == "" {
		return fmt.Errorf("SUPABASE_JWT_SECRET is required")
	}
	if c.JobMaxAttempts < 1 {
		return fmt.Errorf("JOB_MAX_ATTEMPTS must be at least 1")
	}
	if c.WorkerConcurrency < 1 {
		return fmt.Errorf("WORKER_CONCURRENCY must be at least 1")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
