package session

import (
	"fmt"
	"net/url"
	"strings"
)

// ParseDeepLink resolves a room target from a chat deep link of the form
//
//	/chat/get_messages/<peer_id>?new_chat_room_id=<room_id>&receive_user_name=<name>
//
// as handed out by the directory after creating or reusing a room.
func ParseDeepLink(raw string) (Target, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Target{}, fmt.Errorf("parse deep link: %w", err)
	}

	var peerID string
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i, seg := range segments {
		if seg == "get_messages" && i+1 < len(segments) {
			peerID = segments[i+1]
			break
		}
	}
	if peerID == "" {
		return Target{}, fmt.Errorf("deep link %q: missing peer id", raw)
	}

	q := u.Query()
	t := Target{
		RoomID:   q.Get("new_chat_room_id"),
		PeerID:   peerID,
		PeerName: q.Get("receive_user_name"),
	}
	if t.RoomID == "" || t.PeerName == "" {
		return Target{}, fmt.Errorf("deep link %q: missing room id or peer name", raw)
	}
	return t, nil
}
