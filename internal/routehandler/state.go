package routehandler

import (
	"github.com/nfrund/hashrouter/internal/pubsub"
)

// StateChange asks the routed component to write its state into the hash.
type StateChange struct {
	// Source names whatever changed, for components that only persist part
	// of their state.
	Source  string            `json:"source,omitempty"`
	Context map[string]string `json:"context,omitempty"`
}

// StateChanged carries StateChange requests. Messages addressed to another
// client are ignored.
var StateChanged = pubsub.NewEvent[StateChange]("routing.state.changed", "Routed component state changed and should be persisted to the hash")
