// Package config holds OPERATOR-LEVEL configuration for a middleware
// deployment: where the outbox database lives, which policy and service
// config files to load, broker bootstrap details, and the secret provider's
// source. It is sourced from env vars (MIDDLEWARE_* prefix) or a YAML
// config file, merged by viper, the same two-source pattern the teacher
// uses for its own operator config.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Viper keys. Each maps to an env var with the MIDDLEWARE_ prefix
// (e.g. "outbox_path" -> MIDDLEWARE_OUTBOX_PATH) and to a YAML field in
// the config file (e.g. outbox_path: "...").
const (
	KeyOutboxPath      = "outbox_path"
	KeyPolicyPath      = "policy_path"
	KeyServicesPath    = "services_path"
	KeySecretsSource   = "secrets_source" // "env" or a file path
	KeyOTELEndpoint    = "otel_endpoint"
	KeyHTTPPort        = "http_port"
	KeyRateLimitRPM    = "rate_limit_rpm"
	KeyBrokerBrokers   = "broker_bootstrap"
	KeySASLMechanism   = "sasl_mechanism"
	KeySASLUsername    = "sasl_username"
	KeySASLPassword    = "sasl_password"
	KeySecurityProto   = "security_protocol"
	KeySSLCALocation   = "ssl_ca_location"
)

// Defaults.
const (
	DefaultOutboxPath   = "outbox.db"
	DefaultPolicyPath   = "policy.yaml"
	DefaultServicesPath = "services.yaml"
	DefaultSecretsSrc   = "env"
	DefaultHTTPPort     = 8080
	DefaultRateLimitRPM = 600
)

// Config holds resolved operator-level configuration for a middleware
// process. Tenant- or request-scoped values (policy RBAC rules, service
// credentials) live in their own documents this config merely points at.
type Config struct {
	OutboxPath    string
	PolicyPath    string
	ServicesPath  string
	SecretsSource string // "env" or a path to a static YAML/JSON secrets file
	OTELEndpoint  string
	HTTPPort      int
	RateLimitRPM  int

	Broker BrokerConfig
}

// BrokerConfig mirrors the environment variables spec §6 names for the
// streaming broker. Brokers is empty when no bootstrap address is
// configured, signalling the publish_kafka tool to fall back to the
// outbox offset sequence.
type BrokerConfig struct {
	Brokers          []string
	SecurityProtocol string
	SASLMechanism    string
	SASLUsername     string
	SASLPassword     string
	SSLCALocation    string
}

// Configured reports whether a broker bootstrap address was supplied.
func (b BrokerConfig) Configured() bool {
	return len(b.Brokers) > 0
}

func init() {
	viper.SetEnvPrefix("MIDDLEWARE")
	viper.AutomaticEnv()
	viper.SetDefault(KeyOutboxPath, DefaultOutboxPath)
	viper.SetDefault(KeyPolicyPath, DefaultPolicyPath)
	viper.SetDefault(KeyServicesPath, DefaultServicesPath)
	viper.SetDefault(KeySecretsSource, DefaultSecretsSrc)
	viper.SetDefault(KeyHTTPPort, DefaultHTTPPort)
	viper.SetDefault(KeyRateLimitRPM, DefaultRateLimitRPM)
}

// Load reads configuration from Viper (env vars, optional config file, and
// defaults) and returns a validated Config. Broker bootstrap address falls
// back to the well-known OCI_STREAMING_BOOTSTRAP / KAFKA_BOOTSTRAP_SERVERS
// env vars per spec §6, outside the MIDDLEWARE_ prefix since those names
// are shared conventions with the broker ecosystem, not this middleware.
func Load() (*Config, error) {
	cfg := &Config{
		OutboxPath:    viper.GetString(KeyOutboxPath),
		PolicyPath:    viper.GetString(KeyPolicyPath),
		ServicesPath:  viper.GetString(KeyServicesPath),
		SecretsSource: viper.GetString(KeySecretsSource),
		OTELEndpoint:  firstNonEmpty(viper.GetString(KeyOTELEndpoint), os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")),
		HTTPPort:      viper.GetInt(KeyHTTPPort),
		RateLimitRPM:  viper.GetInt(KeyRateLimitRPM),
		Broker:        loadBrokerConfig(),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func loadBrokerConfig() BrokerConfig {
	bootstrap := firstNonEmpty(
		viper.GetString(KeyBrokerBrokers),
		os.Getenv("OCI_STREAMING_BOOTSTRAP"),
		os.Getenv("KAFKA_BOOTSTRAP_SERVERS"),
	)

	var brokers []string
	if bootstrap != "" {
		for _, b := range strings.Split(bootstrap, ",") {
			if b = strings.TrimSpace(b); b != "" {
				brokers = append(brokers, b)
			}
		}
	}

	username := firstNonEmpty(viper.GetString(KeySASLUsername), os.Getenv("SASL_USERNAME"))
	password := firstNonEmpty(viper.GetString(KeySASLPassword), os.Getenv("SASL_PASSWORD"))
	mechanism := firstNonEmpty(viper.GetString(KeySASLMechanism), os.Getenv("SASL_MECHANISM"))
	protocol := firstNonEmpty(viper.GetString(KeySecurityProto), os.Getenv("SECURITY_PROTOCOL"))
	if protocol == "" {
		if username != "" {
			protocol = "SASL_SSL"
		} else {
			protocol = "PLAINTEXT"
		}
	}
	caLocation := firstNonEmpty(viper.GetString(KeySSLCALocation), os.Getenv("SSL_CA_LOCATION"))

	return BrokerConfig{
		Brokers:          brokers,
		SecurityProtocol: protocol,
		SASLMechanism:    mechanism,
		SASLUsername:     username,
		SASLPassword:     password,
		SSLCALocation:    caLocation,
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// EnsureOutboxDir creates the parent directory of OutboxPath if needed.
func (c *Config) EnsureOutboxDir() error {
	dir := filepath.Dir(c.OutboxPath)
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func (c *Config) validate() error {
	if c.OutboxPath == "" {
		return fmt.Errorf("outbox_path must not be empty")
	}
	if c.PolicyPath == "" {
		return fmt.Errorf("policy_path must not be empty")
	}
	if c.ServicesPath == "" {
		return fmt.Errorf("services_path must not be empty")
	}
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("http_port must be between 1 and 65535 (got %d)", c.HTTPPort)
	}
	if c.RateLimitRPM <= 0 {
		return fmt.Errorf("rate_limit_rpm must be positive")
	}
	return nil
}
