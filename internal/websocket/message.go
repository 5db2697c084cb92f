package websocket

import "encoding/json"

// Message types sent by the tab.
const (
	// TypeHello opens a session with the tab's location and capabilities.
	TypeHello = "hello"
	// TypeHashChange reports a native hashchange event.
	TypeHashChange = "hashchange"
)

// Message types sent to the tab.
const (
	TypePush    = "push"    // history.pushState
	TypeReplace = "replace" // history.replaceState
	TypeAssign  = "assign"  // location.hash = ...
	TypeTitle   = "title"   // document.title = ...
	TypeRoute   = "route"   // route changed
	TypeAlert   = "alert"   // alert raised for this tab
	TypeWelcome = "welcome" // session accepted
)

// Message is one frame of the tab protocol.
type Message struct {
	Type  string `json:"type"`
	Hash  string `json:"hash,omitempty"`
	Title string `json:"title,omitempty"`
	// History is set in hello when the tab supports pushState.
	History bool `json:"history,omitempty"`
	// ClientID is set in welcome.
	ClientID string          `json:"client_id,omitempty"`
	Payload  json.RawMessage `json:"payload,omitempty"`
}

// NewMessage creates a message, encoding payload when it is not nil.
func NewMessage(msgType string, payload any) (*Message, error) {
	msg := &Message{Type: msgType}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		msg.Payload = raw
	}
	return msg, nil
}

// NewHashMessage creates a push, replace or assign command.
func NewHashMessage(msgType, hash, title string) *Message {
	return &Message{Type: msgType, Hash: hash, Title: title}
}
