package meeting

import (
	"encoding/json"
	"errors"
	"fmt"
)

type MessageType string

const (
	MessageToggleVideo  MessageType = "toggle_video"
	MessageToggleAudio  MessageType = "toggle_audio"
	MessageZegoEvent    MessageType = "zego_event"
	MessageFrameLoaded  MessageType = "frame_loaded"
	MessageBeforeUnload MessageType = "before_unload"
	MessageConfirmLeave MessageType = "confirm_leave"
)

var (
	ErrUnknownMessage = errors.New("unknown message type")
	ErrInvalidMessage = errors.New("invalid message")
)

// Message is the envelope exchanged with the embedded video frame. Which
// fields are meaningful depends on Type.
type Message struct {
	Type    MessageType     `json:"type"`
	Enabled *bool           `json:"enabled,omitempty"`
	Event   json.RawMessage `json:"event,omitempty"`
	Prompt  string          `json:"prompt,omitempty"`
}

func ToggleMessage(kind MessageType, enabled bool) Message {
	return Message{Type: kind, Enabled: &enabled}
}

// DecodeMessage parses and validates an inbound frame payload.
func DecodeMessage(payload []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return Message{}, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}

	switch msg.Type {
	case MessageToggleVideo, MessageToggleAudio:
		if msg.Enabled == nil {
			return Message{}, fmt.Errorf("%w: %s requires enabled", ErrInvalidMessage, msg.Type)
		}
	case MessageZegoEvent:
		if len(msg.Event) == 0 {
			return Message{}, fmt.Errorf("%w: zego_event requires event", ErrInvalidMessage)
		}
	case MessageFrameLoaded, MessageBeforeUnload, MessageConfirmLeave:
	default:
		return Message{}, fmt.Errorf("%w: %q", ErrUnknownMessage, msg.Type)
	}
	return msg, nil
}

func EncodeMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}
