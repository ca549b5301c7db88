// Copyright (c) 2026 Portaria. All rights reserved.
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
  - DI-Friendly: Passed to core components (DB, Redis) via constructors.
  - Zero Hidden State: No global variables are used to store config.

This ensures the application is Twelve-Factor compliant by storing config in the env.
*/
package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

// # Configuration Schema

// Config holds all runtime configuration for the Portaria API server.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// PublicBaseURL is the externally reachable base URL, used to build
	// resource links (created authorizations, receipt downloads, short URLs).
	PublicBaseURL string `env:"PUBLIC_BASE_URL" envDefault:"http://localhost:8080"`

	// Relational Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required"`

	// MigrationPath is the filesystem path to the SQL migrations directory.
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`

	// Key-Value Cache (Redis) for the phone→unit lookup index.
	RedisURL string `env:"REDIS_URL,required"`

	// TimeZone is the IANA zone of the condominium's local calendar.
	// Status evaluation and recurrence windows use this zone.
	TimeZone string `env:"CONDO_TIMEZONE" envDefault:"America/Sao_Paulo"`

	// QRSigningSecret signs the QR payload embedded in created authorizations.
	QRSigningSecret string `env:"QR_SIGNING_SECRET,required"`

	// File storage roots for uploaded identification documents and receipts.
	DocumentDir string `env:"DOCUMENT_DIR" envDefault:"./data/documentos"`
	ReceiptDir  string `env:"RECEIPT_DIR"  envDefault:"./data/comprovantes"`

	// UnitDirectoryPath is the JSON file holding the condominium/unit registry.
	UnitDirectoryPath string `env:"UNIT_DIRECTORY_PATH" envDefault:"./data/condominios.json"`

	// FormBaseURL is the visitor self-registration form short links redirect to.
	FormBaseURL string `env:"FORM_BASE_URL" envDefault:"http://localhost:8080/cadastro"`

	// Messaging gateway (WhatsApp-style media API). Optional: when BaseURL is
	// empty, receipt notifications are skipped.
	MessagingBaseURL  string `env:"MESSAGING_BASE_URL"`
	MessagingInstance string `env:"MESSAGING_INSTANCE"`
	MessagingAPIKey   string `env:"MESSAGING_API_KEY"`

	// AMQP broker for lifecycle events. Optional: when empty, events are not published.
	AMQPURL string `env:"AMQP_URL"`

	// Cross-Origin Resource Sharing
	ExtraOrigins string `env:"EXTRA_ORIGINS"`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct.
func Load() (*Config, error) {

	// Initialize an empty config struct
	cfg := &Config{}

	// Use the 'env' package to map environment variables to struct fields.
	// This will fail if any field marked with 'required' is missing.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	return cfg, nil
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// AllowedOrigins returns the comma-separated EXTRA_ORIGINS entries as a slice.
func (c *Config) AllowedOrigins() []string {
	if c.ExtraOrigins == "" {
		return nil
	}

	var origins []string
	for _, origin := range strings.Split(c.ExtraOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}
