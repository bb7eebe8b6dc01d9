package bridge

// Options defines the mcp-proxy command line.
type Options struct {
	URL             string   `short:"u" long:"url" description:"remote mcp endpoint (streamable HTTP)"`
	Timeout         int      `short:"t" long:"timeout" description:"HTTP exchange timeout in seconds" default:"30"`
	Headers         []string `short:"H" long:"header" description:"extra HTTP header as 'Key: Value'"`
	Token           string   `long:"token" description:"bearer token"`
	OAuth2ConfigURL string   `short:"c" long:"config" description:"oauth2 client config URL"`
	EncryptionKey   string   `short:"k" long:"key" description:"encryption key for the oauth2 config"`

	Executable string   `short:"e" long:"executable" description:"mcp server executable (stdio)"`
	Arguments  []string `short:"a" long:"arg" description:"executable argument, repeatable"`
	Env        []string `long:"env" description:"extra child environment variable as KEY=VALUE"`
	Dir        string   `long:"dir" description:"child working directory"`
	Grace      int      `long:"grace" description:"seconds to wait for the child to exit after its input closes, 0 kills at once" default:"2"`

	Pipe string `short:"p" long:"pipe" description:"unix socket, FIFO or windows named pipe"`

	Input           string `short:"i" long:"input" description:"request location (path or URL), standard input when empty"`
	ProtocolVersion string `long:"protocol-version" description:"protocol version reported by initialize and sent to HTTP backends"`
	Verbose         bool   `short:"v" long:"verbose" description:"debug logging"`
	File            string `short:"f" long:"file" description:"TOML config file"`
}
