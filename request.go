package mcpproxy

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/viant/jsonrpc"
	"github.com/viant/mcpproxy/internal/conv"
	"github.com/viant/mcpproxy/schema"
)

// DefaultRequestID is assigned to requests that arrive without an id.
const DefaultRequestID int64 = 1

type inputMessage struct {
	Jsonrpc string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

// ParseRequest parses one input document. Both the bare {method, params} form and
// a full JSON-RPC request are accepted: jsonrpc defaults to 2.0, params to {} and
// a missing or null id to DefaultRequestID. Notifications keep a nil id.
func ParseRequest(raw []byte) (*jsonrpc.Request, error) {
	decoder := json.NewDecoder(bytes.NewReader(raw))
	message := &inputMessage{}
	if err := decoder.Decode(message); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty input", ErrInputParse)
		}
		return nil, fmt.Errorf("%w: %v", ErrInputParse, err)
	}
	if _, err := decoder.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: unexpected data after request", ErrInputParse)
	}
	if message.Method == "" {
		return nil, fmt.Errorf("%w: method is required", ErrInputParse)
	}
	if message.Jsonrpc != "" && message.Jsonrpc != jsonrpc.Version {
		return nil, fmt.Errorf("%w: unsupported jsonrpc version %q", ErrInputParse, message.Jsonrpc)
	}
	id, err := conv.RequestID(message.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInputParse, err)
	}
	if id == nil && !schema.IsNotification(message.Method) {
		id = DefaultRequestID
	}
	params := bytes.TrimSpace(message.Params)
	if len(params) == 0 || bytes.Equal(params, []byte("null")) {
		params = []byte("{}")
	}
	return &jsonrpc.Request{
		Jsonrpc: jsonrpc.Version,
		Id:      id,
		Method:  message.Method,
		Params:  json.RawMessage(params),
	}, nil
}
