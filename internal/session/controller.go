// Package session owns the active room's client state: the entry/leave
// state machine, the transcript of the active room and the ordering of the
// room list.
package session

import (
	"time"

	"github.com/damso-app/damso/internal/directory"
	"github.com/damso-app/damso/internal/models"
	"github.com/damso-app/damso/internal/realtime"
	"github.com/damso-app/damso/internal/transcript"
)

type State int

const (
	StateNoRoom State = iota
	StateEntering
	StateActive
	StateLeaving
)

func (s State) String() string {
	switch s {
	case StateNoRoom:
		return "no_room"
	case StateEntering:
		return "entering"
	case StateActive:
		return "active"
	case StateLeaving:
		return "leaving"
	default:
		return "unknown"
	}
}

// Target identifies the room a switch request aims at.
type Target struct {
	RoomID   string
	PeerID   string
	PeerName string
}

// Room list display times are normalized to KST, matching the service's
// home locale.
var displayZone = time.FixedZone("KST", 9*60*60)

// Controller is the chat session controller. All methods are meant to be
// called from a single event loop; the controller does no locking.
type Controller struct {
	state      State
	session    models.Session
	rooms      []models.Room
	log        *transcript.Log
	entryToken uint64
}

func New() *Controller {
	return &Controller{
		state: StateNoRoom,
		log:   transcript.NewLog(""),
	}
}

func (c *Controller) State() State            { return c.state }
func (c *Controller) Session() models.Session { return c.session }
func (c *Controller) Rooms() []models.Room    { return c.rooms }
func (c *Controller) Log() *transcript.Log    { return c.log }

func (c *Controller) SetRooms(rs []models.Room) { c.rooms = rs }

// Active reports whether a room is currently entered.
func (c *Controller) Active() bool {
	return c.state == StateActive && !c.session.Zero()
}

// BeginEntry starts a room switch: it issues a fresh entry token and flips
// to ENTERING. Re-entrant: a switch while still entering simply restarts
// the sequence for the new target, and the stale token makes the earlier
// in-flight response a no-op. The previously active session is returned so
// the caller can release presence for it.
func (c *Controller) BeginEntry(t Target) (token uint64, prev models.Session, hadPrev bool) {
	prev = c.session
	hadPrev = !prev.Zero() && prev.RoomID != t.RoomID
	c.entryToken++
	c.state = StateEntering
	return c.entryToken, prev, hadPrev
}

// ApplyEntry adopts a completed room-entry response. Responses carrying a
// stale token lost the race to a newer switch and are discarded; the
// returned join payload is only valid when applied is true.
func (c *Controller) ApplyEntry(token uint64, res *directory.EnterResult) (join realtime.JoinPayload, applied bool) {
	if token != c.entryToken {
		return realtime.JoinPayload{}, false
	}

	c.session = models.Session{
		CurrentUser: res.CurrentUser.Name,
		RoomID:      res.RoomID,
		PeerName:    res.PeerName,
	}
	c.state = StateActive
	c.log.Reset(c.session.CurrentUser)

	for _, m := range res.Messages {
		c.log.Append(m.Sender, m.Text, m.At())
	}

	return realtime.JoinPayload{
		CurrentUser: c.session.CurrentUser,
		RoomID:      c.session.RoomID,
	}, true
}

// FailEntry records a failed room entry. The previous session, if any,
// stays untouched; stale failures are ignored entirely.
func (c *Controller) FailEntry(token uint64) bool {
	if token != c.entryToken {
		return false
	}
	if c.session.Zero() {
		c.state = StateNoRoom
	} else {
		c.state = StateActive
	}
	return true
}

// ClearUnread drops the unread badge of a room after a successful reset.
func (c *Controller) ClearUnread(roomID string) {
	for i := range c.rooms {
		if c.rooms[i].RoomID == roomID {
			c.rooms[i].UnreadCount = 0
			c.rooms[i].HasUnread = false
			return
		}
	}
}

// HandleMessage processes a broadcast message: it appends to the transcript
// when the message is for the active room and reorders the room list so the
// message's room leads it. The scroll decision only matters when appended.
func (c *Controller) HandleMessage(ev realtime.MessageEvent) (scroll transcript.Scroll, appended bool) {
	if c.Active() && ev.RoomID == c.session.RoomID {
		scroll = c.log.Append(ev.Sender, ev.Text, ev.At())
		appended = true
	}

	for i := range c.rooms {
		if c.rooms[i].RoomID != ev.RoomID {
			continue
		}
		room := c.rooms[i]
		room.LatestMessage = ev.Text
		if at := ev.At(); !at.IsZero() {
			room.LatestTime = at.In(displayZone)
		}
		c.rooms = append(c.rooms[:i], c.rooms[i+1:]...)
		c.rooms = append([]models.Room{room}, c.rooms...)
		break
	}

	return scroll, appended
}

// HandleStatus appends a presence notice to the active transcript.
func (c *Controller) HandleStatus(ev realtime.StatusEvent) (transcript.Scroll, bool) {
	if !c.Active() {
		return transcript.ScrollNone, false
	}
	return c.log.AppendStatus(ev.Data), true
}

// SendPayload builds the message emission for the given input text. The
// transcript is not touched; the sender's copy arrives via broadcast.
func (c *Controller) SendPayload(text string) (realtime.MessagePayload, bool) {
	if !c.Active() || text == "" {
		return realtime.MessagePayload{}, false
	}
	return realtime.MessagePayload{
		Message:     text,
		CurrentUser: c.session.CurrentUser,
		RoomID:      c.session.RoomID,
		PeerName:    c.session.PeerName,
	}, true
}

// BeginLeave builds the leave emission and flips to LEAVING.
func (c *Controller) BeginLeave() (realtime.LeavePayload, bool) {
	if !c.Active() {
		return realtime.LeavePayload{}, false
	}
	c.state = StateLeaving
	return realtime.LeavePayload{
		CurrentUser: c.session.CurrentUser,
		RoomID:      c.session.RoomID,
		PeerName:    c.session.PeerName,
	}, true
}

// FinishLeave resolves the leave: success clears the session, failure
// restores the active state.
func (c *Controller) FinishLeave(ok bool) {
	if c.state != StateLeaving {
		return
	}
	if ok {
		left := c.session.RoomID
		c.session = models.Session{}
		c.state = StateNoRoom
		c.log.Reset("")
		c.removeRoom(left)
		return
	}
	c.state = StateActive
}

func (c *Controller) removeRoom(roomID string) {
	for i := range c.rooms {
		if c.rooms[i].RoomID == roomID {
			c.rooms = append(c.rooms[:i], c.rooms[i+1:]...)
			return
		}
	}
}
