package mcpproxy

import "errors"

var (
	// ErrInputParse indicates input that is not a usable JSON-RPC request.
	ErrInputParse = errors.New("input parse error")
	// ErrUnknownLocalMethod indicates a reserved method with no local handler.
	ErrUnknownLocalMethod = errors.New("unknown local method")
	// ErrAlreadyRouted indicates a second request on a translator that already used its connector.
	ErrAlreadyRouted = errors.New("translator already routed a request")
	// ErrInvalidTarget indicates a transport target that does not select exactly one backend.
	ErrInvalidTarget = errors.New("invalid transport target")
)
