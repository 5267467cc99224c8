package relay

import "encoding/json"

// Message is the frame exchanged with relay clients. Notifications from the
// editor core use their bus topic as Type.
type Message struct {
	Type     string          `json:"type"`
	ClientID string          `json:"clientId,omitempty"`
	Seq      int64           `json:"seq,omitempty"`
	Payload  json.RawMessage `json:"payload,omitempty"`
}

type WelcomePayload struct {
	ClientID string   `json:"clientId"`
	Document string   `json:"document"`
	Editor   string   `json:"editor,omitempty"`
	Topics   []string `json:"topics"`
}

// SubscribePayload replaces the client's topic filter. An empty list
// subscribes to every topic.
type SubscribePayload struct {
	Topics []string `json:"topics"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

const (
	TypeWelcome   = "welcome"
	TypeSubscribe = "subscribe"
	TypeError     = "error"
)
