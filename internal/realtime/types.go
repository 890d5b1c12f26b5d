package realtime

import (
	"time"

	"github.com/wonny/fundlens/internal/contracts"
)

// MessageType identifies a websocket frame
type MessageType string

const (
	MessageQuotes MessageType = "quotes"
	MessageError  MessageType = "error"
)

// Message is the server → client websocket frame
// ⭐ SSOT: 실시간 스트림 메시지 구조
type Message struct {
	Type   MessageType                     `json:"type"`
	Quotes map[string]*contracts.FundQuote `json:"quotes,omitempty"`
	Error  string                          `json:"error,omitempty"`
	Time   time.Time                       `json:"time"`
}

// Action is a client → server subscription change
type Action string

const (
	ActionSubscribe   Action = "subscribe"
	ActionUnsubscribe Action = "unsubscribe"
)

// Command is the client → server websocket frame
type Command struct {
	Action Action   `json:"action"`
	Codes  []string `json:"codes"`
}
