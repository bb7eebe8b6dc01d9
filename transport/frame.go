package transport

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/viant/jsonrpc"
	"github.com/viant/mcpproxy/internal/conv"
)

// MaxLineSize bounds a single newline delimited message.
const MaxLineSize = 10 * 1024 * 1024

var (
	// ErrNotResponse indicates a well formed JSON-RPC message that is not a response (request or notification).
	ErrNotResponse = errors.New("message is not a JSON-RPC response")
	// ErrLineTooLong indicates a message exceeding MaxLineSize.
	ErrLineTooLong = errors.New("message exceeds maximum line size")
)

type wireNotification struct {
	Jsonrpc string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// EncodeRequest marshals a request, defaulting the protocol version.
func EncodeRequest(request *jsonrpc.Request) ([]byte, error) {
	wire := *request
	if wire.Jsonrpc == "" {
		wire.Jsonrpc = jsonrpc.Version
	}
	return json.Marshal(&wire)
}

// EncodeNotification marshals a notification.
func EncodeNotification(notification *jsonrpc.Notification) ([]byte, error) {
	return json.Marshal(&wireNotification{Jsonrpc: jsonrpc.Version, Method: notification.Method, Params: notification.Params})
}

// WriteLine writes data followed by a newline in a single write.
func WriteLine(w io.Writer, data []byte) error {
	line := make([]byte, len(data)+1)
	copy(line, data)
	line[len(data)] = '\n'
	_, err := w.Write(line)
	return err
}

// ReadLine reads the next non blank newline delimited message. A final line
// without terminator is returned as is; io.EOF is returned only when no data was read.
func ReadLine(r *bufio.Reader) ([]byte, error) {
	var buffer []byte
	for {
		chunk, err := r.ReadSlice('\n')
		buffer = append(buffer, chunk...)
		if len(buffer) > MaxLineSize {
			return nil, ErrLineTooLong
		}
		switch {
		case err == nil:
			if line := bytes.TrimSpace(buffer); len(line) > 0 {
				return line, nil
			}
			buffer = buffer[:0]
			continue
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case errors.Is(err, io.EOF):
			if line := bytes.TrimSpace(buffer); len(line) > 0 {
				return line, nil
			}
			return nil, io.EOF
		default:
			return nil, err
		}
	}
}

// DecodeResponse parses a JSON-RPC response. A message carrying neither result
// nor error is rejected; when a backend sends both, error wins.
func DecodeResponse(data []byte) (*jsonrpc.Response, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	result, hasResult := fields["result"]
	rawError, hasError := fields["error"]
	if hasError && bytes.Equal(bytes.TrimSpace(rawError), []byte("null")) {
		hasError = false
	}
	if !hasResult && !hasError {
		if _, ok := fields["method"]; ok {
			return nil, ErrNotResponse
		}
		return nil, fmt.Errorf("missing result and error: %s", data)
	}
	id, err := conv.RequestID(fields["id"])
	if err != nil {
		return nil, err
	}
	response := &jsonrpc.Response{Jsonrpc: jsonrpc.Version, Id: id}
	if version, ok := fields["jsonrpc"]; ok {
		_ = json.Unmarshal(version, &response.Jsonrpc)
	}
	if hasError {
		rpcError := &jsonrpc.Error{}
		if err := json.Unmarshal(rawError, rpcError); err != nil {
			return nil, fmt.Errorf("invalid error object: %w", err)
		}
		response.Error = rpcError
		return response, nil
	}
	response.Result = result
	return response, nil
}
