package streamable

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/viant/scy/auth/authorizer"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// newHTTPClient builds the client used for the exchange. A static token takes
// precedence over an OAuth2 client configuration.
func (c *Connector) newHTTPClient(ctx context.Context) (*http.Client, error) {
	switch {
	case c.token != "":
		c.inspectToken()
		source := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: c.token, TokenType: "Bearer"})
		return &http.Client{Transport: &oauth2.Transport{Source: source}}, nil
	case c.oauth2ConfigURL != "":
		anAuthorizer := authorizer.New()
		oauthCfg := &authorizer.OAuthConfig{ConfigURL: c.configLocation()}
		if err := anAuthorizer.EnsureConfig(ctx, oauthCfg); err != nil {
			return nil, fmt.Errorf("failed to load oauth2 config %q: %w", c.oauth2ConfigURL, err)
		}
		if oauthCfg.Config == nil {
			return nil, fmt.Errorf("oauth2 config %q: missing client config", c.oauth2ConfigURL)
		}
		credentials := &clientcredentials.Config{
			ClientID:     oauthCfg.Config.ClientID,
			ClientSecret: oauthCfg.Config.ClientSecret,
			TokenURL:     oauthCfg.Config.Endpoint.TokenURL,
			Scopes:       oauthCfg.Config.Scopes,
		}
		return credentials.Client(ctx), nil
	}
	return &http.Client{}, nil
}

// configLocation returns the scy resource location, with the encryption key appended when set.
func (c *Connector) configLocation() string {
	if c.encryptionKey == "" {
		return c.oauth2ConfigURL
	}
	return c.oauth2ConfigURL + "|" + c.encryptionKey
}

// inspectToken warns when a static token is a JWT that already expired; the
// token is still sent so the backend makes the final call.
func (c *Connector) inspectToken() {
	expiry, ok := tokenExpiry(c.token)
	if !ok {
		return
	}
	if now := c.now(); expiry.Before(now) {
		c.logger.Warn().Time("expired", expiry).Msg("bearer token has expired")
	}
}

func tokenExpiry(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	expiry, err := claims.GetExpirationTime()
	if err != nil || expiry == nil {
		return time.Time{}, false
	}
	return expiry.Time, true
}
