// Package coaching implements the live coaching channel: the typed message
// union exchanged over the recording WebSocket, the client-side connection
// state machine, the sequential text-coach display queue, and the server-side
// cue engine that streams guidance keyed to recording elapsed time.
package coaching

import (
	"encoding/json"
	"fmt"

	"github.com/forkreel/forkreel/internal/directorpack"
)

// Type discriminates coaching messages on the wire.
type Type string

const (
	TypeFeedback         Type = "feedback"
	TypeGraphicGuide     Type = "graphic_guide"
	TypeTextCoach        Type = "text_coach"
	TypeAdaptiveResponse Type = "adaptive_response"
	TypeSignalPromotion  Type = "signal_promotion"

	// TypeControl frames (start/stop) bound the session server-side. They
	// are outbound only and not part of the Message union.
	TypeControl Type = "control"
)

// Message is the closed union of inbound coaching messages. Decoding happens
// once at the socket boundary; downstream handlers switch on the concrete
// type instead of inspecting a string field.
type Message interface {
	MessageType() Type
	MessagePriority() directorpack.Priority
}

// GraphicGuide positions an on-screen overlay cue.
type GraphicGuide struct {
	Priority   directorpack.Priority `json:"priority"`
	Shape      string                `json:"shape"`
	Anchor     [2]float64            `json:"anchor"`
	Label      string                `json:"label,omitempty"`
	DurationMS int                   `json:"duration_ms,omitempty"`
}

func (GraphicGuide) MessageType() Type { return TypeGraphicGuide }
func (m GraphicGuide) MessagePriority() directorpack.Priority { return m.Priority }

// TextCoach is a coaching line shown in the text bubble. Messages queue and
// display sequentially; see TextCoachQueue.
type TextCoach struct {
	ID         string                `json:"id"`
	Priority   directorpack.Priority `json:"priority"`
	Text       string                `json:"text"`
	DurationMS int                   `json:"duration_ms,omitempty"`
}

func (TextCoach) MessageType() Type { return TypeTextCoach }
func (m TextCoach) MessagePriority() directorpack.Priority { return m.Priority }

// AdaptiveResponse answers a user feedback frame.
type AdaptiveResponse struct {
	Priority   directorpack.Priority `json:"priority"`
	Text       string                `json:"text"`
	ElapsedSec float64               `json:"elapsed_sec"`
}

func (AdaptiveResponse) MessageType() Type { return TypeAdaptiveResponse }
func (m AdaptiveResponse) MessagePriority() directorpack.Priority { return m.Priority }

// SignalPromotion announces that one of the pattern's signals was promoted
// for this run.
type SignalPromotion struct {
	Priority directorpack.Priority `json:"priority"`
	Signal   string                `json:"signal"`
	Note     string                `json:"note,omitempty"`
}

func (SignalPromotion) MessageType() Type { return TypeSignalPromotion }
func (m SignalPromotion) MessagePriority() directorpack.Priority { return m.Priority }

// Feedback is a user-initiated frame correlated to recording elapsed time.
// It travels both directions: clients send it, and the server may echo it to
// observers.
type Feedback struct {
	Priority   directorpack.Priority `json:"priority,omitempty"`
	ElapsedSec float64               `json:"elapsed_sec"`
	Text       string                `json:"text"`
}

func (Feedback) MessageType() Type { return TypeFeedback }
func (m Feedback) MessagePriority() directorpack.Priority { return m.Priority }

// ControlAction is the action of a control frame.
type ControlAction string

const (
	ControlStart ControlAction = "start"
	ControlStop  ControlAction = "stop"
)

type controlFrame struct {
	Type   Type          `json:"type"`
	Action ControlAction `json:"action"`
}

type envelope struct {
	Type Type `json:"type"`
}

// Decode parses one wire frame into its concrete message type. Unknown or
// missing discriminators are an error; the transport gives no cross-type
// ordering guarantee, so each frame stands alone.
func Decode(data []byte) (Message, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decoding coaching frame: %w", err)
	}

	var (
		msg Message
		err error
	)
	switch env.Type {
	case TypeFeedback:
		var m Feedback
		err = json.Unmarshal(data, &m)
		msg = m
	case TypeGraphicGuide:
		var m GraphicGuide
		err = json.Unmarshal(data, &m)
		msg = m
	case TypeTextCoach:
		var m TextCoach
		err = json.Unmarshal(data, &m)
		msg = m
	case TypeAdaptiveResponse:
		var m AdaptiveResponse
		err = json.Unmarshal(data, &m)
		msg = m
	case TypeSignalPromotion:
		var m SignalPromotion
		err = json.Unmarshal(data, &m)
		msg = m
	default:
		return nil, fmt.Errorf("unknown coaching message type %q", env.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("decoding %s frame: %w", env.Type, err)
	}
	return msg, nil
}

// Encode serializes a message with its type discriminator spliced in.
func Encode(m Message) ([]byte, error) {
	body, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encoding %s frame: %w", m.MessageType(), err)
	}
	var obj map[string]any
	if err := json.Unmarshal(body, &obj); err != nil {
		return nil, err
	}
	obj["type"] = m.MessageType()
	return json.Marshal(obj)
}
