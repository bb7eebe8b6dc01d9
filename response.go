package mcpproxy

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/viant/jsonrpc"
)

var errEmptyResponse = errors.New("response has neither result nor error")

// Response is a JSON-RPC response carrying exactly one of result or error.
// Values are only built by NewResultResponse, NewErrorResponse or FromRPC.
type Response struct {
	id     any
	result json.RawMessage
	err    *jsonrpc.Error
}

// NewResultResponse creates a success response; a nil result encodes as null.
func NewResultResponse(id any, result json.RawMessage) *Response {
	if len(bytes.TrimSpace(result)) == 0 {
		result = json.RawMessage("null")
	}
	return &Response{id: id, result: result}
}

// NewErrorResponse creates an error response.
func NewErrorResponse(id any, rpcError *jsonrpc.Error) *Response {
	return &Response{id: id, err: rpcError}
}

// FromRPC converts a decoded wire response; an error object wins over a result.
func FromRPC(response *jsonrpc.Response) *Response {
	if response.Error != nil {
		return NewErrorResponse(response.Id, response.Error)
	}
	return NewResultResponse(response.Id, response.Result)
}

// ID returns the response id.
func (r *Response) ID() any {
	return r.id
}

// Result returns the result and whether the response is a success.
func (r *Response) Result() (json.RawMessage, bool) {
	return r.result, r.err == nil && r.result != nil
}

// RPCError returns the error object of an error response.
func (r *Response) RPCError() *jsonrpc.Error {
	return r.err
}

// IsError reports whether the response carries an error object.
func (r *Response) IsError() bool {
	return r.err != nil
}

func (r *Response) valid() bool {
	return r != nil && (r.err != nil || r.result != nil)
}

type resultWire struct {
	Jsonrpc string          `json:"jsonrpc"`
	ID      any             `json:"id"`
	Result  json.RawMessage `json:"result"`
}

type errorWire struct {
	Jsonrpc string         `json:"jsonrpc"`
	ID      any            `json:"id"`
	Error   *jsonrpc.Error `json:"error"`
}

// MarshalJSON encodes the populated branch only, without HTML escaping.
func (r *Response) MarshalJSON() ([]byte, error) {
	if !r.valid() {
		return nil, errEmptyResponse
	}
	var value any = &resultWire{Jsonrpc: jsonrpc.Version, ID: r.id, Result: r.result}
	if r.err != nil {
		value = &errorWire{Jsonrpc: jsonrpc.Version, ID: r.id, Error: r.err}
	}
	buffer := &bytes.Buffer{}
	encoder := json.NewEncoder(buffer)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(value); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buffer.Bytes(), "\n"), nil
}
