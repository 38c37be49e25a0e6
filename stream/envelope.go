// Output envelope strategies.
//
// Every unit the client receives, including the very first and last events
// of a turn, passes through exactly one envelope call. Raw provider content
// never reaches the transport directly.

package stream

import "encoding/json"

// MessageType tags each envelope the client receives.
type MessageType string

const (
	TypeData              MessageType = "data"
	TypeError             MessageType = "error"
	TypeProgress          MessageType = "progress"
	TypeThreadUUID        MessageType = "thread_uuid"
	TypeLastUserMessageID MessageType = "last_user_message_id"
	TypeLastUserMessage   MessageType = "last_user_message"
	TypeLastAIMessage     MessageType = "last_ai_message"
	TypeLastAIMessageID   MessageType = "last_ai_message_id"
	TypeConversationTitle MessageType = "conversation_title"
	TypeStreamStart       MessageType = "stream_start"
	TypeStreamEnd         MessageType = "stream_end"
)

// Envelope renders one unit of output for the transport. Implementations
// are pure functions of (content, type): the same pair always renders to
// byte-identical output.
type Envelope interface {
	Format(content string, msgType MessageType) string
}

// StringEnvelope renders "{type}: {content}".
type StringEnvelope struct{}

// Format renders the bare-string wire form.
func (StringEnvelope) Format(content string, msgType MessageType) string {
	return string(msgType) + ": " + content
}

// ObjectEnvelope renders a stream-token prefixed JSON object. The token is a
// deployment-configured literal distinguishing protocol lines within an SSE
// body.
type ObjectEnvelope struct {
	Token string
}

type envelopePayload struct {
	Content string `json:"content"`
}

type envelopeObject struct {
	Type    MessageType     `json:"type"`
	Payload envelopePayload `json:"payload"`
}

// Format renders "{token}: {json}".
func (e ObjectEnvelope) Format(content string, msgType MessageType) string {
	body, _ := json.Marshal(envelopeObject{Type: msgType, Payload: envelopePayload{Content: content}})
	return e.Token + ": " + string(body)
}

var (
	_ Envelope = StringEnvelope{}
	_ Envelope = ObjectEnvelope{}
)
