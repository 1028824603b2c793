// Package realtime is the pub/sub side of the chat: a websocket carrying
// JSON event envelopes, with emissions keyed by room.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	writeWait       = 10 * time.Second
	pongWait        = 60 * time.Second
	pingInterval    = 30 * time.Second
	sendBufferSize  = 16
	eventBufferSize = 64
)

// Client is a connected realtime transport. Inbound events are delivered on
// Events() in arrival order; no reordering or deduplication happens here.
type Client struct {
	conn   *websocket.Conn
	send   chan envelope
	events chan Event
	closed atomic.Bool
}

// Dial connects to the transport endpoint and starts the read/write loops.
func Dial(ctx context.Context, url string) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial realtime transport: %w", err)
	}

	c := &Client{
		conn:   conn,
		send:   make(chan envelope, sendBufferSize),
		events: make(chan Event, eventBufferSize),
	}
	go c.readLoop()
	go c.writeLoop()

	log.Info().Str("url", url).Msg("realtime transport connected")
	return c, nil
}

// Events returns the inbound event stream. The channel is closed when the
// connection goes away.
func (c *Client) Events() <-chan Event {
	return c.events
}

// EmitJoin subscribes the session to a room's broadcasts.
func (c *Client) EmitJoin(p JoinPayload) error {
	return c.emit(eventJoin, p)
}

// EmitMessage publishes a chat message. There is no local echo; the sender
// sees its own message when the broadcast comes back.
func (c *Client) EmitMessage(p MessagePayload) error {
	return c.emit(eventMessage, p)
}

// EmitLeave asks the server to take the session out of the room. The answer
// arrives as a LeaveResponse event.
func (c *Client) EmitLeave(p LeavePayload) error {
	return c.emit(eventLeave, p)
}

func (c *Client) emit(event string, payload any) error {
	if c.closed.Load() {
		return fmt.Errorf("emit %s: transport closed", event)
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("emit %s: %w", event, err)
	}
	select {
	case c.send <- envelope{Event: event, Data: data}:
		return nil
	default:
		return fmt.Errorf("emit %s: send buffer full", event)
	}
}

func (c *Client) readLoop() {
	defer func() {
		c.Close()
		close(c.events)
	}()
	c.conn.SetReadLimit(1 << 20)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			log.Debug().Err(err).Msg("realtime read")
			return
		}
		ev, err := decodeEvent(payload)
		if err != nil {
			log.Warn().Err(err).Msg("drop malformed event")
			continue
		}
		if ev == nil {
			continue
		}
		select {
		case c.events <- ev:
		default:
			log.Warn().Msg("event buffer full, dropping oldest")
			select {
			case <-c.events:
			default:
			}
			c.events <- ev
		}
	}
}

func (c *Client) writeLoop() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.Close()
	}()
	for {
		select {
		case env := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(env); err != nil {
				log.Debug().Err(err).Str("event", env.Event).Msg("realtime write")
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Close tears down the connection. Safe to call more than once.
func (c *Client) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
	return c.conn.Close()
}
