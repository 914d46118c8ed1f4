package magentoapi

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// DefaultEndpointPath is the JSON-RPC endpoint of a Magento 1 store,
// relative to the instance URL
const DefaultEndpointPath = "/index.php/api/jsonrpc"

// Config holds settings for the Magento API client
type Config struct {
	// Timeout bounds a single HTTP round trip; zero disables it
	Timeout time.Duration `validate:"gte=0"`
	// MaxResponseBytes caps how much of a response body is read
	MaxResponseBytes int64 `validate:"gt=0"`
	// UserAgent is sent with every request
	UserAgent string `validate:"required"`
	// EndpointPath overrides DefaultEndpointPath
	EndpointPath string `validate:"omitempty,startswith=/"`
}

// DefaultConfig returns a configuration with defaults
func DefaultConfig() *Config {
	return &Config{
		Timeout:          30 * time.Second,
		MaxResponseBytes: 16 << 20,
		UserAgent:        "magento-connector",
		EndpointPath:     DefaultEndpointPath,
	}
}

// Validate validates the configuration and fills in the endpoint path
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("magentoapi: invalid config: %w", err)
	}
	if c.EndpointPath == "" {
		c.EndpointPath = DefaultEndpointPath
	}
	return nil
}
