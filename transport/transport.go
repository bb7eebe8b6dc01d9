package transport

import (
	"context"

	rpctransport "github.com/viant/jsonrpc/transport"
)

// Connector represents a single backend link.
//
// Send and Notify come from the jsonrpc transport contract; Connect and Close
// bound the lifetime of the underlying resource (HTTP client, child process,
// socket or pipe). A connector carries exactly one exchange per run and Close
// must be safe after a failed Connect or Send.
type Connector interface {
	rpctransport.Transport

	// Connect establishes the backend link
	Connect(ctx context.Context) error

	// Close releases every resource tied to the connector
	Close() error
}

// Names used in error reporting and logging
const (
	NameHTTP    = "http"
	NameStdio   = "stdio"
	NameChannel = "channel"
)
