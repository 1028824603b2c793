package models

import "time"

// Room is the client-side projection of a chat room the user belongs to,
// as shown in the room list.
type Room struct {
	RoomID        string
	PeerID        string
	PeerName      string
	LatestMessage string
	LatestTime    time.Time
	UnreadCount   int
	HasUnread     bool
}

// Message is a single unit of chat content. Immutable once received.
type Message struct {
	RoomID   string
	Sender   string
	PeerName string
	Text     string
	Time     time.Time
}

// Session is the single active chat context. At most one Session is live at
// a time; switching rooms replaces it atomically.
type Session struct {
	CurrentUser string
	RoomID      string
	PeerName    string
}

// Zero reports whether no session has been established.
func (s Session) Zero() bool {
	return s.RoomID == ""
}
