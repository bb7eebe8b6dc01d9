package mcpproxy

import (
	"encoding/json"
	"io"

	"github.com/viant/jsonrpc"
)

// Envelope is the run's output: the forwarded request and what came back.
type Envelope struct {
	Request  *jsonrpc.Request `json:"request"`
	Response *Response        `json:"response"`
}

// Write pretty prints the envelope with a two space indent.
func (e *Envelope) Write(w io.Writer) error {
	if !e.Response.valid() {
		return errEmptyResponse
	}
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	return encoder.Encode(e)
}
