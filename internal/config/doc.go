// Package config handles configuration loading for blackboard-gateway.
//
// # Overview
//
// Configuration is loaded from YAML files with environment variable expansion.
// The package provides validation and duration parsing.
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	auth:
//	  jwt_secret: "${BLACKBOARD_JWT_SECRET}"
//
// Syntax: ${VAR_NAME}
//
// # Duration Parsing
//
// Duration values use Go's time.ParseDuration syntax:
//
//	auth:
//	  token_ttl: "1h"
//
// Supported units: ns, us, ms, s, m, h
//
// # Configuration Sections
//
// Server settings:
//
//	server:
//	  http_addr: "0.0.0.0:8080"   # Dispatch API and provenance queries
//
// Databases:
//
//	database:
//	  provenance_path: "/var/lib/blackboard/provenance.db"
//	  shop_path: "/var/lib/blackboard/shop.db"
//
// Authentication:
//
//	auth:
//	  jwt_secret: "${BLACKBOARD_JWT_SECRET}"  # Required
//	  token_ttl: "1h"
//
// Logging:
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
//
// # Validation
//
// Load() validates:
//
//   - Server HTTP address presence
//   - Database paths presence
//   - JWT secret presence
//   - Duration format validity
//
// # Usage
//
// Load configuration:
//
//	cfg, err := config.Load("/etc/blackboard/gateway.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
