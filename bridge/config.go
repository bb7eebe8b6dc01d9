package bridge

import (
	"fmt"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

type fileConfig struct {
	URL             string            `toml:"url"`
	Timeout         int               `toml:"timeout"`
	Headers         map[string]string `toml:"headers"`
	Token           string            `toml:"token"`
	OAuth2ConfigURL string            `toml:"oauth2_config"`
	EncryptionKey   string            `toml:"key"`
	Executable      string            `toml:"executable"`
	Arguments       []string          `toml:"arguments"`
	Env             []string          `toml:"env"`
	Dir             string            `toml:"dir"`
	Grace           int               `toml:"grace"`
	Pipe            string            `toml:"pipe"`
	Input           string            `toml:"input"`
	ProtocolVersion string            `toml:"protocol_version"`
	Verbose         bool              `toml:"verbose"`
}

// loadConfig overlays the TOML file at path onto options. Keys whose flag was
// given explicitly on the command line are left alone.
func loadConfig(path string, options *Options, explicit func(long string) bool) error {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return fmt.Errorf("%w: load config: %v", errUsage, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("%w: unknown config key %q in %s", errUsage, undecoded[0].String(), path)
	}
	take := func(key, long string) bool {
		return meta.IsDefined(key) && !explicit(long)
	}

	if take("url", "url") {
		options.URL = strings.TrimSpace(raw.URL)
	}
	if take("timeout", "timeout") {
		options.Timeout = raw.Timeout
	}
	if take("headers", "header") {
		options.Headers = headerLines(raw.Headers)
	}
	if take("token", "token") {
		options.Token = strings.TrimSpace(raw.Token)
	}
	if take("oauth2_config", "config") {
		options.OAuth2ConfigURL = strings.TrimSpace(raw.OAuth2ConfigURL)
	}
	if take("key", "key") {
		options.EncryptionKey = raw.EncryptionKey
	}
	if take("executable", "executable") {
		options.Executable = strings.TrimSpace(raw.Executable)
	}
	if take("arguments", "arg") {
		options.Arguments = raw.Arguments
	}
	if take("env", "env") {
		options.Env = raw.Env
	}
	if take("dir", "dir") {
		options.Dir = strings.TrimSpace(raw.Dir)
	}
	if take("grace", "grace") {
		options.Grace = raw.Grace
	}
	if take("pipe", "pipe") {
		options.Pipe = strings.TrimSpace(raw.Pipe)
	}
	if take("input", "input") {
		options.Input = strings.TrimSpace(raw.Input)
	}
	if take("protocol_version", "protocol-version") {
		options.ProtocolVersion = strings.TrimSpace(raw.ProtocolVersion)
	}
	if take("verbose", "verbose") {
		options.Verbose = raw.Verbose
	}
	return nil
}

func headerLines(headers map[string]string) []string {
	keys := make([]string, 0, len(headers))
	for key := range headers {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	lines := make([]string, 0, len(keys))
	for _, key := range keys {
		lines = append(lines, key+": "+headers[key])
	}
	return lines
}
