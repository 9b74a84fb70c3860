// Package hub fans encoded overlay frames and status updates out to
// websocket subscribers using a channel-based broadcast loop.
package hub

import "github.com/gofiber/websocket/v2"

// MessageType indicates the websocket message format
type MessageType int

const (
	// JSONMessage is a JSON-encoded message, e.g. processor metrics
	JSONMessage MessageType = iota
	// BinaryMessage is raw binary data, e.g. a JPEG composite frame
	BinaryMessage
)

// wsType maps a MessageType to the websocket opcode.
func (t MessageType) wsType() int {
	if t == BinaryMessage {
		return websocket.BinaryMessage
	}
	return websocket.TextMessage
}

// Message represents a message to be broadcast to clients
type Message struct {
	Type MessageType
	Data []byte
}

// NewJSONMessage creates a JSON message from pre-encoded bytes
func NewJSONMessage(data []byte) Message {
	return Message{Type: JSONMessage, Data: data}
}

// NewBinaryMessage creates a binary message
func NewBinaryMessage(data []byte) Message {
	return Message{Type: BinaryMessage, Data: data}
}
