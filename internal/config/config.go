package config

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"
)

// Config holds application level configuration loaded from environment and flags.
type Config struct {
	RunAddress          string
	DatabaseURI         string
	RedisAddress        string
	TokenSecret         string
	RiderPollInterval   time.Duration
	ConsolePollInterval time.Duration
	SignalRetention     time.Duration
	SignalTolerance     float64
	SweepInterval       time.Duration
	ShutdownTimeout     time.Duration
}

const (
	defaultRunAddress          = ":8080"
	defaultRedisAddress        = "localhost:6379"
	defaultTokenSecret         = "change-me-in-production"
	defaultRiderPollInterval   = 5 * time.Second
	defaultConsolePollInterval = 15 * time.Second
	defaultSignalRetention     = 72 * time.Hour
	defaultSignalTolerance     = 0.01
	defaultSweepInterval       = 10 * time.Minute
	defaultShutdownTimeout     = 10 * time.Second
)

// Load parses configuration from flags and environment variables.
func Load() (*Config, error) {
	return load(os.Args[1:], os.LookupEnv)
}

type envLookup func(string) (string, bool)

func load(args []string, lookup envLookup) (*Config, error) {
	cfg := &Config{
		RunAddress:          getString(lookup, "RUN_ADDRESS", defaultRunAddress),
		DatabaseURI:         getString(lookup, "DATABASE_URI", ""),
		RedisAddress:        getString(lookup, "REDIS_ADDRESS", defaultRedisAddress),
		TokenSecret:         getString(lookup, "TOKEN_SECRET", defaultTokenSecret),
		RiderPollInterval:   getDuration(lookup, "RIDER_POLL_INTERVAL", defaultRiderPollInterval),
		ConsolePollInterval: getDuration(lookup, "CONSOLE_POLL_INTERVAL", defaultConsolePollInterval),
		SignalRetention:     getDuration(lookup, "SIGNAL_RETENTION", defaultSignalRetention),
		SignalTolerance:     getFloat(lookup, "SIGNAL_TOLERANCE", defaultSignalTolerance),
		SweepInterval:       getDuration(lookup, "SWEEP_INTERVAL", defaultSweepInterval),
		ShutdownTimeout:     getDuration(lookup, "SHUTDOWN_TIMEOUT", defaultShutdownTimeout),
	}

	fs := flag.NewFlagSet("dispatchd", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		riderPollStr       = cfg.RiderPollInterval.String()
		consolePollStr     = cfg.ConsolePollInterval.String()
		retentionStr       = cfg.SignalRetention.String()
		sweepStr           = cfg.SweepInterval.String()
		shutdownTimeoutStr = cfg.ShutdownTimeout.String()
	)

	fs.StringVar(&cfg.RunAddress, "a", cfg.RunAddress, "HTTP server listen address")
	fs.StringVar(&cfg.DatabaseURI, "d", cfg.DatabaseURI, "PostgreSQL DSN")
	fs.StringVar(&cfg.RedisAddress, "redis", cfg.RedisAddress, "Redis address for live positions")
	fs.StringVar(&cfg.TokenSecret, "token-secret", cfg.TokenSecret, "Secret for signing device tokens")
	fs.StringVar(&riderPollStr, "rider-poll", riderPollStr, "Interval between rider backlog polls")
	fs.StringVar(&consolePollStr, "console-poll", consolePollStr, "Interval between dispatcher console polls")
	fs.StringVar(&retentionStr, "signal-retention", retentionStr, "How long payment signals are kept")
	fs.Float64Var(&cfg.SignalTolerance, "signal-tolerance", cfg.SignalTolerance, "Amount tolerance when matching payment signals")
	fs.StringVar(&sweepStr, "sweep-interval", sweepStr, "Interval between signal retention sweeps")
	fs.StringVar(&shutdownTimeoutStr, "shutdown-timeout", shutdownTimeoutStr, "Graceful shutdown timeout")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	var err error

	if cfg.RiderPollInterval, err = time.ParseDuration(riderPollStr); err != nil {
		return nil, fmt.Errorf("invalid rider poll interval: %w", err)
	}

	if cfg.ConsolePollInterval, err = time.ParseDuration(consolePollStr); err != nil {
		return nil, fmt.Errorf("invalid console poll interval: %w", err)
	}

	if cfg.SignalRetention, err = time.ParseDuration(retentionStr); err != nil {
		return nil, fmt.Errorf("invalid signal retention: %w", err)
	}

	if cfg.SweepInterval, err = time.ParseDuration(sweepStr); err != nil {
		return nil, fmt.Errorf("invalid sweep interval: %w", err)
	}

	if cfg.ShutdownTimeout, err = time.ParseDuration(shutdownTimeoutStr); err != nil {
		return nil, fmt.Errorf("invalid shutdown timeout: %w", err)
	}

	if secretFile, ok := lookup("TOKEN_SECRET_FILE"); ok && secretFile != "" {
		content, err := os.ReadFile(secretFile)
		if err != nil {
			return nil, fmt.Errorf("read token secret file: %w", err)
		}
		cfg.TokenSecret = string(content)
	}

	if cfg.RiderPollInterval <= 0 {
		cfg.RiderPollInterval = defaultRiderPollInterval
	}

	if cfg.ConsolePollInterval <= 0 {
		cfg.ConsolePollInterval = defaultConsolePollInterval
	}

	if cfg.SignalRetention <= 0 {
		cfg.SignalRetention = defaultSignalRetention
	}

	if cfg.SignalTolerance < 0 {
		cfg.SignalTolerance = defaultSignalTolerance
	}

	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = defaultSweepInterval
	}

	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}

	if cfg.DatabaseURI == "" {
		return nil, fmt.Errorf("database URI must be provided")
	}

	return cfg, nil
}

func getString(lookup envLookup, key, def string) string {
	if v, ok := lookup(key); ok && v != "" {
		return v
	}
	return def
}

func getFloat(lookup envLookup, key string, def float64) float64 {
	if v, ok := lookup(key); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getDuration(lookup envLookup, key string, def time.Duration) time.Duration {
	if v, ok := lookup(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
