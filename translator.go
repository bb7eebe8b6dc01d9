package mcpproxy

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/viant/jsonrpc"
	"github.com/viant/mcpproxy/internal/conv"
	"github.com/viant/mcpproxy/internal/unescape"
	"github.com/viant/mcpproxy/schema"
	"github.com/viant/mcpproxy/transport"
)

// State of a Translator.
type State int

const (
	// Unrouted means no request has reached the connector yet.
	Unrouted State = iota
	// Routed means the connector was used; the translator accepts no further requests.
	Routed
)

func (s State) String() string {
	if s == Routed {
		return "routed"
	}
	return "unrouted"
}

// localHandler answers a reserved method; a nil Response means no output.
type localHandler func(request *jsonrpc.Request) (*Response, error)

// Translator turns one raw request into an Envelope, answering the handshake
// locally and forwarding everything else through its connector.
type Translator struct {
	connector       transport.Connector
	logger          zerolog.Logger
	protocolVersion string
	handlers        map[string]localHandler
	state           State
}

// TranslatorOption configures a Translator.
type TranslatorOption func(t *Translator)

// WithProtocolVersion overrides the protocol version of the canned initialize result.
func WithProtocolVersion(version string) TranslatorOption {
	return func(t *Translator) {
		t.protocolVersion = version
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(logger zerolog.Logger) TranslatorOption {
	return func(t *Translator) {
		t.logger = logger
	}
}

// State returns the translator state.
func (t *Translator) State() State {
	return t.state
}

// Translate handles one raw request. A nil Envelope with a nil error means the
// request produced no output (acknowledgement or forwarded notification).
func (t *Translator) Translate(ctx context.Context, raw []byte) (*Envelope, error) {
	request, err := ParseRequest(raw)
	if err != nil {
		return nil, err
	}
	logger := t.logger.With().Str("method", request.Method).Logger()
	if id, ok := conv.AsInt(request.Id); ok {
		logger = logger.With().Int("id", id).Logger()
	}

	if schema.IsReserved(request.Method) {
		handler, ok := t.handlers[request.Method]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownLocalMethod, request.Method)
		}
		logger.Debug().Msg("answering locally")
		response, err := handler(request)
		if err != nil || response == nil {
			return nil, err
		}
		return &Envelope{Request: request, Response: response}, nil
	}

	if t.state == Routed {
		return nil, ErrAlreadyRouted
	}
	t.state = Routed
	return t.forward(ctx, logger, request)
}

// forward runs connect, send and close exactly once; close runs on every path.
func (t *Translator) forward(ctx context.Context, logger zerolog.Logger, request *jsonrpc.Request) (envelope *Envelope, err error) {
	if err = t.connector.Connect(ctx); err != nil {
		_ = t.connector.Close()
		return nil, err
	}
	defer func() {
		if closeErr := t.connector.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	if request.Id == nil {
		logger.Debug().Msg("forwarding notification")
		notification := &jsonrpc.Notification{Method: request.Method, Params: request.Params}
		return nil, t.connector.Notify(ctx, notification)
	}

	logger.Debug().Msg("forwarding request")
	rpcResponse, err := t.connector.Send(ctx, request)
	if err != nil {
		return nil, err
	}
	if rpcResponse.Error == nil {
		if rpcResponse.Result, err = unescape.DecodeContent(rpcResponse.Result); err != nil {
			return nil, transport.NewError(transport.MalformedResponse, "translator", "decode", err)
		}
	} else {
		logger.Debug().Int("code", int(rpcResponse.Error.Code)).Str("message", rpcResponse.Error.Message).Msg("backend returned error")
	}
	return &Envelope{Request: request, Response: FromRPC(rpcResponse)}, nil
}

func (t *Translator) initialize(request *jsonrpc.Request) (*Response, error) {
	result, err := json.Marshal(schema.NewInitializeResult(t.protocolVersion))
	if err != nil {
		return nil, err
	}
	return NewResultResponse(request.Id, result), nil
}

func (t *Translator) initialized(*jsonrpc.Request) (*Response, error) {
	return nil, nil
}

// NewTranslator creates an Unrouted translator over connector.
func NewTranslator(connector transport.Connector, options ...TranslatorOption) *Translator {
	ret := &Translator{
		connector: connector,
		logger:    zerolog.Nop(),
	}
	ret.handlers = map[string]localHandler{
		schema.MethodInitialize:              ret.initialize,
		schema.MethodNotificationInitialized: ret.initialized,
	}
	for _, option := range options {
		option(ret)
	}
	return ret
}
