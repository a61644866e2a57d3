// Package config loads typed configuration from environment variables,
// optionally seeded from .env files.
//
// Load parses any struct with `env` tags through caarlos0/env and caches the
// result per type. Types with a Validate() error method on their pointer
// are validated after parsing. Tenancy holds the MT_* multi-tenancy
// settings shared by tenantd and tenantctl.
package config
