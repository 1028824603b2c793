package realtime

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/damso-app/damso/internal/directory"
)

const (
	eventJoin          = "join"
	eventMessage       = "message"
	eventLeave         = "leave"
	eventStatus        = "status"
	eventLeaveResponse = "leave_response"
)

// envelope is the wire frame: an event name plus its JSON payload.
type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Event is an inbound transport event: StatusEvent, MessageEvent or
// LeaveResponse.
type Event interface {
	event()
}

// StatusEvent is a free-text presence notice for the active room.
type StatusEvent struct {
	Data string `json:"data"`
}

// MessageEvent is a broadcast chat message.
type MessageEvent struct {
	Sender    string `json:"sender_name"`
	Text      string `json:"text"`
	PeerName  string `json:"receive_user_name"`
	Timestamp string `json:"timestamp"`
	RoomID    string `json:"room_id"`
}

// At parses the broadcast timestamp; zero when absent or malformed.
func (e MessageEvent) At() time.Time {
	t, _ := directory.ParseTime(e.Timestamp)
	return t
}

// LeaveResponse acknowledges a leave emission.
type LeaveResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (StatusEvent) event()   {}
func (MessageEvent) event()  {}
func (LeaveResponse) event() {}

// JoinPayload announces the session as actively viewing a room.
type JoinPayload struct {
	CurrentUser string `json:"current_user"`
	RoomID      string `json:"room_id"`
}

// MessagePayload carries an outbound chat message.
type MessagePayload struct {
	Message     string `json:"message"`
	CurrentUser string `json:"current_user"`
	RoomID      string `json:"room_id"`
	PeerName    string `json:"receive_user_name"`
}

// LeavePayload asks the server to remove the session from a room.
type LeavePayload struct {
	CurrentUser string `json:"current_user"`
	RoomID      string `json:"room_id"`
	PeerName    string `json:"receive_user_name"`
}

func decodeEvent(payload []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}

	switch env.Event {
	case eventStatus:
		var ev StatusEvent
		if err := json.Unmarshal(env.Data, &ev); err != nil {
			return nil, fmt.Errorf("decode status: %w", err)
		}
		return ev, nil
	case eventMessage:
		var ev MessageEvent
		if err := json.Unmarshal(env.Data, &ev); err != nil {
			return nil, fmt.Errorf("decode message: %w", err)
		}
		return ev, nil
	case eventLeaveResponse:
		var ev LeaveResponse
		if err := json.Unmarshal(env.Data, &ev); err != nil {
			return nil, fmt.Errorf("decode leave_response: %w", err)
		}
		return ev, nil
	default:
		return nil, nil
	}
}
