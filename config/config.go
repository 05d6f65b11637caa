// Package config loads the backend configuration from an optional YAML file
// with environment-variable overrides. Environment variables always win, so
// a deployment can run from env alone (no file) or from a file alone.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds every knob the backend reads at startup.
type Config struct {
	// Port is the HTTP listen port.
	Port string `yaml:"port"`
	// DBPath is the BoltDB file location.
	DBPath string `yaml:"db_path"`

	Gateway GatewayConfig `yaml:"gateway"`
}

// GatewayConfig configures the payment-gateway integration.
type GatewayConfig struct {
	// BaseURL is the gateway API root, e.g. "https://api.mercadopago.com".
	BaseURL string `yaml:"base_url"`

	// OAuthClientID and OAuthClientSecret are the platform-level OAuth
	// application credentials used for merchant account linking. They are
	// never tenant-specific.
	OAuthClientID     string `yaml:"oauth_client_id"`
	OAuthClientSecret string `yaml:"oauth_client_secret"`

	// OAuthRedirectURI must be byte-identical between the authorization URL
	// and the token exchange, or the gateway rejects the exchange.
	OAuthRedirectURI string `yaml:"oauth_redirect_uri"`

	// WebhookSecret is the shared secret for inbound notification signature
	// verification. When empty, webhooks are accepted unverified with a loud
	// warning (legacy mode for unconfigured deployments).
	WebhookSecret string `yaml:"webhook_secret"`

	// NotificationURL is the publicly reachable webhook endpoint handed to
	// the gateway on every payment creation. Optional.
	NotificationURL string `yaml:"notification_url"`
}

// Defaults applied when neither the file nor the environment sets a value.
const (
	defaultPort    = "8080"
	defaultDBPath  = "glowdesk.db"
	defaultBaseURL = "https://api.mercadopago.com"
)

// Load reads the YAML file at path (skipped when path is empty or the file
// does not exist) and then applies environment overrides and defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// No file is fine; env and defaults cover everything.
		case err != nil:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	overrideFromEnv(&cfg.Port, "PORT")
	overrideFromEnv(&cfg.DBPath, "DB_PATH")
	overrideFromEnv(&cfg.Gateway.BaseURL, "GATEWAY_BASE_URL")
	overrideFromEnv(&cfg.Gateway.OAuthClientID, "GATEWAY_OAUTH_CLIENT_ID")
	overrideFromEnv(&cfg.Gateway.OAuthClientSecret, "GATEWAY_OAUTH_CLIENT_SECRET")
	overrideFromEnv(&cfg.Gateway.OAuthRedirectURI, "GATEWAY_OAUTH_REDIRECT_URI")
	overrideFromEnv(&cfg.Gateway.WebhookSecret, "GATEWAY_WEBHOOK_SECRET")
	overrideFromEnv(&cfg.Gateway.NotificationURL, "GATEWAY_NOTIFICATION_URL")

	if cfg.Port == "" {
		cfg.Port = defaultPort
	}
	if cfg.DBPath == "" {
		cfg.DBPath = defaultDBPath
	}
	if cfg.Gateway.BaseURL == "" {
		cfg.Gateway.BaseURL = defaultBaseURL
	}

	return cfg, nil
}

func overrideFromEnv(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
