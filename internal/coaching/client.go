package coaching

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"sync"
	"time"

	"nhooyr.io/websocket"
)

// ConnState is the client connection state.
type ConnState int

const (
	StateDisconnected ConnState = iota
	StateConnecting
	StateConnected
)

func (s ConnState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

var (
	// ErrNotConnected is returned when sending while disconnected. The UI
	// must surface a connection-state cue; feedback is never silently lost.
	ErrNotConnected = errors.New("coaching channel not connected")

	// ErrAlreadyConnected is returned for a second Connect.
	ErrAlreadyConnected = errors.New("coaching channel already connected")

	// ErrControlOrder is returned when start/stop frames would be sent out
	// of order or more than once. This is a caller bug, not a runtime state.
	ErrControlOrder = errors.New("control frames must be start then stop, once each")
)

// Handlers receives decoded inbound messages. Each message type updates its
// own piece of UI state; handlers are invoked independently and receiving one
// type must not clear state belonging to another. Nil handlers are skipped.
type Handlers struct {
	OnGraphicGuide     func(GraphicGuide)
	OnTextCoach        func(TextCoach)
	OnAdaptiveResponse func(AdaptiveResponse)
	OnSignalPromotion  func(SignalPromotion)
	OnFeedback         func(Feedback)
	OnDisconnect       func(error)
}

// Client is the recording surface's side of the live coaching channel.
//
// Lifecycle: Disconnected → Connect → Connected → Disconnect/error →
// Disconnected. Start must be called exactly once before recording begins
// and Stop exactly once after it ends, in that order.
type Client struct {
	url       string
	sessionID string
	logger    *slog.Logger
	handlers  Handlers

	mu        sync.Mutex
	state     ConnState
	conn      *websocket.Conn
	startSent bool
	stopSent  bool
}

// SessionID builds a channel session id of the form
// {platform}_{timestamp}_{random}.
func SessionID(platform string) string {
	return fmt.Sprintf("%s_%d_%06x", platform, time.Now().UnixMilli(), rand.Intn(1<<24))
}

// NewClient prepares a client for one recording attempt against the given
// ws:// or wss:// URL. The session id is generated from platform.
func NewClient(url, platform string, logger *slog.Logger, handlers Handlers) *Client {
	return &Client{
		url:       url,
		sessionID: SessionID(platform),
		logger:    logger,
		handlers:  handlers,
	}
}

// SessionID returns the channel session id sent with the handshake.
func (c *Client) SessionID() string { return c.sessionID }

// State returns the current connection state.
func (c *Client) State() ConnState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Connect dials the channel and starts the read loop. The read loop runs
// until the connection drops or Disconnect is called; either way the client
// ends up Disconnected and OnDisconnect fires once.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateDisconnected {
		c.mu.Unlock()
		return ErrAlreadyConnected
	}
	c.state = StateConnecting
	c.mu.Unlock()

	sep := "?"
	if strings.Contains(c.url, "?") {
		sep = "&"
	}
	conn, _, err := websocket.Dial(ctx, c.url+sep+"session="+c.sessionID, nil)
	if err != nil {
		c.mu.Lock()
		c.state = StateDisconnected
		c.mu.Unlock()
		return fmt.Errorf("dialing coaching channel: %w", err)
	}

	c.mu.Lock()
	c.state = StateConnected
	c.conn = conn
	c.mu.Unlock()

	go c.readLoop(ctx, conn)
	return nil
}

// Start sends the control frame that bounds the session start. Must be
// called exactly once, before recording begins.
func (c *Client) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateConnected {
		c.mu.Unlock()
		return ErrNotConnected
	}
	if c.startSent {
		c.mu.Unlock()
		return ErrControlOrder
	}
	c.startSent = true
	conn := c.conn
	c.mu.Unlock()

	return c.writeJSON(ctx, conn, controlFrame{Type: TypeControl, Action: ControlStart})
}

// Stop sends the control frame that bounds the session end. Requires a
// preceding Start; must be called exactly once.
func (c *Client) Stop(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateConnected {
		c.mu.Unlock()
		return ErrNotConnected
	}
	if !c.startSent || c.stopSent {
		c.mu.Unlock()
		return ErrControlOrder
	}
	c.stopSent = true
	conn := c.conn
	c.mu.Unlock()

	return c.writeJSON(ctx, conn, controlFrame{Type: TypeControl, Action: ControlStop})
}

// SendFeedback sends an elapsed-time-correlated feedback frame. While
// disconnected it returns ErrNotConnected so the UI can show a
// "not connected" indication instead of dropping the input silently.
func (c *Client) SendFeedback(ctx context.Context, elapsedSec float64, text string) error {
	c.mu.Lock()
	if c.state != StateConnected {
		c.mu.Unlock()
		return ErrNotConnected
	}
	conn := c.conn
	c.mu.Unlock()

	frame, err := Encode(Feedback{ElapsedSec: elapsedSec, Text: text})
	if err != nil {
		return err
	}
	return conn.Write(ctx, websocket.MessageText, frame)
}

// Disconnect closes the channel. Safe to call in any state.
func (c *Client) Disconnect() {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.state = StateDisconnected
	c.mu.Unlock()

	if conn != nil {
		conn.Close(websocket.StatusNormalClosure, "session ended")
	}
}

func (c *Client) readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			c.mu.Lock()
			wasConnected := c.state == StateConnected
			c.state = StateDisconnected
			c.conn = nil
			c.mu.Unlock()

			if wasConnected {
				c.logger.Debug("coaching channel closed", "error", err)
				if c.handlers.OnDisconnect != nil {
					c.handlers.OnDisconnect(err)
				}
			}
			return
		}

		msg, err := Decode(data)
		if err != nil {
			c.logger.Warn("dropping undecodable coaching frame", "error", err)
			continue
		}
		c.dispatch(msg)
	}
}

func (c *Client) dispatch(msg Message) {
	switch m := msg.(type) {
	case GraphicGuide:
		if c.handlers.OnGraphicGuide != nil {
			c.handlers.OnGraphicGuide(m)
		}
	case TextCoach:
		if c.handlers.OnTextCoach != nil {
			c.handlers.OnTextCoach(m)
		}
	case AdaptiveResponse:
		if c.handlers.OnAdaptiveResponse != nil {
			c.handlers.OnAdaptiveResponse(m)
		}
	case SignalPromotion:
		if c.handlers.OnSignalPromotion != nil {
			c.handlers.OnSignalPromotion(m)
		}
	case Feedback:
		if c.handlers.OnFeedback != nil {
			c.handlers.OnFeedback(m)
		}
	}
}

func (c *Client) writeJSON(ctx context.Context, conn *websocket.Conn, frame controlFrame) error {
	data, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	return conn.Write(ctx, websocket.MessageText, data)
}
