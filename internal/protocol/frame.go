package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Message is a parsed coordinator frame. Each frame on the wire is a JSON
// array of the form ["eventName", payload].
type Message struct {
	Event   string
	Payload json.RawMessage
}

// ParseFrame decodes raw bytes into a Message.
func ParseFrame(data []byte) (*Message, error) {
	var array []json.RawMessage
	if err := json.Unmarshal(data, &array); err != nil {
		return nil, fmt.Errorf("protocol: decode frame: %w", err)
	}

	if len(array) < 1 {
		return nil, errors.New("protocol: empty frame")
	}

	msg := &Message{}
	if err := json.Unmarshal(array[0], &msg.Event); err != nil {
		return nil, fmt.Errorf("protocol: read event name: %w", err)
	}
	if msg.Event == "" {
		return nil, errors.New("protocol: missing event name")
	}
	if len(array) > 1 {
		msg.Payload = array[1]
	}

	return msg, nil
}

// BuildFrame encodes an event and payload into wire bytes.
func BuildFrame(event string, payload interface{}) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("protocol: encode %s payload: %w", event, err)
	}
	frame := []interface{}{event, json.RawMessage(body)}
	return json.Marshal(frame)
}

// Decode convenience helper for handlers.
func Decode[T any](payload json.RawMessage) (T, error) {
	var target T
	if len(payload) == 0 {
		return target, nil
	}
	if err := json.Unmarshal(payload, &target); err != nil {
		var zero T
		return zero, err
	}
	return target, nil
}
