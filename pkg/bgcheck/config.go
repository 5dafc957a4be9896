package bgcheck

// Config represents the configuration for the background check provider client
type Config struct {
	// ProviderName identifies the provider in stored payloads
	ProviderName string

	// BaseURL is the provider API base URL
	BaseURL string

	// APIKey authenticates outbound API calls
	APIKey string

	// WebhookSecret signs inbound result webhooks (HMAC-SHA256)
	WebhookSecret string
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.ProviderName == "" {
		return ErrInvalidRequest
	}
	if c.BaseURL == "" {
		return ErrInvalidRequest
	}
	if c.APIKey == "" {
		return ErrInvalidRequest
	}
	return nil
}
