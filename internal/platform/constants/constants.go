// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package constants provides centralized, immutable values for the entire platform.

It defines default timeouts, rate limits, and cross-cutting keys that are shared
between different layers of the system.

Categories:

  - Server Timing: Read/Write/Idle timeouts for the HTTP server.
  - Outbound Rate Limiting: request rate and burst for the catalog/IAM clients.
  - Service Auth: the service JWT issuer and token TTL.
  - Envelope field names, HTTP header names, and Redis cache key prefixes.

Using this package ensures Magic Strings and Magic Numbers are eliminated
from the business logic.
*/
package constants

import "time"

// # Metadata

const (
	AppName    = "dwh-query-compiler"
	AppVersion = "0.1.0-dev"
)

// # Server Timing

const (
	// DefaultReadTimeout is the maximum duration for reading the entire request.
	DefaultReadTimeout = 5 * time.Second

	// DefaultWriteTimeout is the maximum duration before timing out writes of the response.
	DefaultWriteTimeout = 10 * time.Second

	// DefaultIdleTimeout is the maximum amount of time to wait for the next request.
	DefaultIdleTimeout = 120 * time.Second

	// DefaultReadHeaderTimeout is the amount of time allowed to read request headers.
	DefaultReadHeaderTimeout = 2 * time.Second

	// GlobalRequestTimeout is the deadline for the entire request lifecycle.
	GlobalRequestTimeout = 30 * time.Second

	// ShutdownTimeout is how long we wait for in-flight requests to complete during shutdown.
	ShutdownTimeout = 30 * time.Second
)

// # Outbound Rate Limiting
//
// These bound calls this worker makes *out* to the catalog and IAM
// services, the client-side counterpart of the teacher's per-IP inbound
// limiter.

const (
	// DefaultCatalogRateLimitRPS is the steady-state rate allowed against
	// the catalog and IAM HTTP clients.
	DefaultCatalogRateLimitRPS = 20.0

	// DefaultCatalogRateLimitBurst is the maximum burst allowed before the
	// limiter starts blocking callers.
	DefaultCatalogRateLimitBurst = 10
)

// # Service-to-Service Authentication

const (
	// ServiceAuthIssuer is the standard 'iss' claim in the JWTs this worker
	// mints when calling the catalog and IAM services.
	ServiceAuthIssuer = "dwh-query-compiler"

	// ServiceTokenTTL is how long an issued service token remains valid.
	ServiceTokenTTL = 2 * time.Minute
)

// # Envelope Field Identifiers

const (
	FieldGUID       = "guid"
	FieldRunGUID    = "run_guid"
	FieldIdentityID = "identity_id"
	FieldConnString = "conn_string"
	FieldQuery      = "query"
	FieldStatus     = "status"
	FieldError      = "error"

	StatusCompiled = "compiled"
	StatusError    = "error"
)

// # HTTP Headers

const (
	HeaderXRequestID    = "X-Request-ID"
	HeaderXRealIP       = "X-Real-IP"
	HeaderXForwardedFor = "X-Forwarded-For"
)

// # Redis Prefixes (Cache Taxonomy)

const (
	// RedisPrefixCatalogEntry namespaces the L2 catalog cache so multiple
	// worker processes can share resolved attribute metadata.
	RedisPrefixCatalogEntry = "query_compiler:catalog:"

	// CatalogCacheTTL bounds how long a cached catalog entry is trusted
	// before the resolver re-fetches it from the catalog service.
	CatalogCacheTTL = 30 * time.Minute
)
