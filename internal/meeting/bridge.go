package meeting

import (
	"context"
	"errors"
	"fmt"
	"sync"

	websocket "github.com/gofiber/contrib/websocket"
	"go.uber.org/zap"
)

var ErrFrameBackpressure = errors.New("video frame is not keeping up")

// Conn is the subset of a websocket connection the bridge needs.
type Conn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Client is one frame connection. It implements FrameControl for the session
// it is mounted on.
type Client struct {
	mu         sync.Mutex
	closed     bool
	conn       Conn
	send       chan []byte
	dispatcher *Dispatcher
	logger     *zap.Logger
}

func NewClient(conn Conn, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		conn:       conn,
		send:       make(chan []byte, 32),
		dispatcher: NewDispatcher(),
		logger:     logger,
	}
}

func (c *Client) Dispatcher() *Dispatcher {
	return c.dispatcher
}

func (c *Client) Post(_ context.Context, msg Message) error {
	payload, err := EncodeMessage(msg)
	if err != nil {
		return fmt.Errorf("encode frame message: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrFrameDetached
	}
	select {
	case c.send <- payload:
		return nil
	default:
		return ErrFrameBackpressure
	}
}

// Serve mounts session on this client, pumps messages until the connection
// drops and then closes the session in registry.
func (c *Client) Serve(ctx context.Context, registry *Registry, session *Session) {
	gen := session.Mount(c.dispatcher, c)

	done := make(chan struct{})
	go func() {
		defer close(done)
		c.WritePump()
	}()

	c.ReadPump(ctx)

	registry.Close(session, gen)
	c.closeSend()
	<-done
}

func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *Client) ReadPump(ctx context.Context) {
	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		msg, err := DecodeMessage(payload)
		if err != nil {
			if !errors.Is(err, ErrUnknownMessage) {
				c.logger.Debug("drop frame message", zap.Error(err))
			}
			continue
		}

		name := EventMessage
		if msg.Type == MessageBeforeUnload {
			name = EventBeforeUnload
		}
		for _, reply := range c.dispatcher.Dispatch(ctx, Event{Name: name, Message: msg}) {
			if err := c.Post(ctx, reply); err != nil {
				c.logger.Warn("reply to frame", zap.Error(err))
			}
		}
	}
}

func (c *Client) WritePump() {
	defer func() {
		_ = c.conn.Close()
	}()

	for payload := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}
}
