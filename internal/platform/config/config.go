// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (catalog client, worker) via constructors.
  - Zero Hidden State: No global variables are used to store config.

This ensures the application is Twelve-Factor compliant by storing config in the env.
*/
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// # Configuration Schema

// Config holds all runtime configuration for the query compiler worker,
// read from variables carrying the DWH_QUERY_COMPILER_ prefix.
type Config struct {
	// Broker
	MQConnectionString string `env:"DWH_QUERY_COMPILER_MQ_CONNECTION_STRING,required"`
	RequestQueue       string `env:"DWH_QUERY_COMPILER_REQUEST_QUEUE" envDefault:"request_queue"`
	QueryQueue         string `env:"DWH_QUERY_COMPILER_QUERY_QUEUE" envDefault:"query_queue"`

	// External collaborators
	DataCatalogURL string `env:"DWH_QUERY_COMPILER_DATA_CATALOG_URL,required"`
	IAMURL         string `env:"DWH_QUERY_COMPILER_IAM_URL,required"`

	// HTTP client tuning
	Retries         int      `env:"DWH_QUERY_COMPILER_RETRIES" envDefault:"5"`
	TimeoutSeconds  int      `env:"DWH_QUERY_COMPILER_TIMEOUT" envDefault:"10"`
	RetryStatusList []int    `env:"DWH_QUERY_COMPILER_RETRY_STATUS_LIST" envDefault:"429,500,502,503,504" envSeparator:","`
	RetryMethodList []string `env:"DWH_QUERY_COMPILER_RETRY_METHOD_LIST" envDefault:"GET" envSeparator:","`

	// DSL enumerations
	PGAggregationFunctions []string `env:"DWH_QUERY_COMPILER_PG_AGGREGATION_FUNCTIONS" envDefault:"count,avg,sum,min,max" envSeparator:","`
	OperatorFunctions      []string `env:"DWH_QUERY_COMPILER_OPERATOR_FUNCTIONS" envDefault:"<,<=,=,>,>=,like,in,between,is null" envSeparator:","`

	// Logging
	Debug   bool   `env:"DWH_QUERY_COMPILER_DEBUG" envDefault:"false"`
	LogDir  string `env:"DWH_QUERY_COMPILER_LOG_DIR" envDefault:"logs"`
	LogName string `env:"DWH_QUERY_COMPILER_LOG_NAME" envDefault:"query_compiler.log"`

	// Ambient infrastructure not named by the original settings module, but
	// required by this rewrite's expanded stack (SPEC_FULL.md section 6).
	RedisURL                 string `env:"DWH_QUERY_COMPILER_REDIS_URL"`
	ServiceJWTPrivateKeyPath string `env:"DWH_QUERY_COMPILER_SERVICE_JWT_PRIVATE_KEY_PATH"`
	ServiceJWTPublicKeyPath  string `env:"DWH_QUERY_COMPILER_SERVICE_JWT_PUBLIC_KEY_PATH"`
	HealthPort               string `env:"DWH_QUERY_COMPILER_HEALTH_PORT" envDefault:"8080"`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	return cfg, nil
}

// CatalogCacheEnabled reports whether a Redis L2 catalog cache should be
// wired in. Operators that don't set DWH_QUERY_COMPILER_REDIS_URL run with
// an in-process catalog only — every worker process resolves independently.
func (c *Config) CatalogCacheEnabled() bool {
	return c.RedisURL != ""
}

// ServiceAuthEnabled reports whether outbound catalog/IAM requests should be
// signed with a service JWT.
func (c *Config) ServiceAuthEnabled() bool {
	return c.ServiceJWTPrivateKeyPath != "" && c.ServiceJWTPublicKeyPath != ""
}
