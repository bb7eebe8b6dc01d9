package streamable

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/mcpproxy/transport"
)

func TestConnector_OAuth2ClientCredentials(t *testing.T) {
	grants := make(chan string, 1)
	authorizations := make(chan string, 1)
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		grants <- r.PostForm.Get("grant_type")
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"access_token":"issued-token","token_type":"Bearer","expires_in":3600}`)
	})
	mux.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
		authorizations <- r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"jsonrpc":"2.0","id":1,"result":{}}`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	configPath := filepath.Join(t.TempDir(), "oauth.json")
	config := `{"ClientID":"proxy","ClientSecret":"secret","Endpoint":{"AuthURL":"` + server.URL + `/authorize","TokenURL":"` + server.URL + `/token"}}`
	require.NoError(t, os.WriteFile(configPath, []byte(config), 0o600))

	connector := New(server.URL+"/mcp", WithTimeout(5*time.Second), WithOAuth2Config(configPath, ""))
	response, err := connector.Send(context.Background(), newRequest())
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(response.Result))
	assert.Equal(t, "client_credentials", <-grants)
	assert.Equal(t, "Bearer issued-token", <-authorizations)
}

func TestConnector_OAuth2MissingConfig(t *testing.T) {
	called := make(chan struct{}, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called <- struct{}{}
	}))
	defer server.Close()

	connector := New(server.URL, WithOAuth2Config(filepath.Join(t.TempDir(), "absent.json"), ""))
	_, err := connector.Send(context.Background(), newRequest())
	assert.ErrorIs(t, err, transport.ConnectFailed)
	assert.Empty(t, called)
}

func TestConnector_ConfigLocation(t *testing.T) {
	var testCases = []struct {
		description string
		configURL   string
		key         string
		expect      string
	}{
		{description: "plain", configURL: "/etc/mcp/oauth.json", expect: "/etc/mcp/oauth.json"},
		{description: "encrypted", configURL: "s3://bucket/oauth.enc", key: "blowfish://default", expect: "s3://bucket/oauth.enc|blowfish://default"},
	}
	for _, testCase := range testCases {
		connector := New("http://localhost/mcp", WithOAuth2Config(testCase.configURL, testCase.key))
		assert.Equal(t, testCase.expect, connector.configLocation(), testCase.description)
	}
}
