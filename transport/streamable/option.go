package streamable

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Option configures a Connector.
type Option func(c *Connector)

// WithTimeout bounds the whole exchange: connect, headers and body.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Connector) {
		c.timeout = timeout
	}
}

// WithHeader adds an extra request header.
func WithHeader(key, value string) Option {
	return func(c *Connector) {
		c.headers.Add(key, value)
	}
}

// WithProtocolVersion overrides the MCP-Protocol-Version header.
func WithProtocolVersion(version string) Option {
	return func(c *Connector) {
		c.protocolVersion = version
	}
}

// WithBearerToken sends a static bearer token with every request.
func WithBearerToken(token string) Option {
	return func(c *Connector) {
		c.token = token
	}
}

// WithOAuth2Config uses client credentials described by a scy OAuth2 config URL,
// optionally encrypted with key.
func WithOAuth2Config(configURL, key string) Option {
	return func(c *Connector) {
		c.oauth2ConfigURL = configURL
		c.encryptionKey = key
	}
}

// WithHTTPClient sets the http client, skipping auth client construction.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Connector) {
		c.client = client
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Connector) {
		c.logger = logger
	}
}
