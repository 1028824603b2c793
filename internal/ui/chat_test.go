package ui

import (
	"errors"
	"testing"

	"github.com/damso-app/damso/internal/models"
	"github.com/damso-app/damso/internal/session"
)

func testApp() *App {
	return &App{Ctrl: session.New()}
}

// Responses from the room-entry sequence can arrive after the switch to the
// chat screen; they must still reach the shared controller so the room list
// is populated and the badge cleared when the user comes back.
func TestChatModelAppliesLateRoomList(t *testing.T) {
	app := testApp()
	m := NewChatModel(app)

	rooms := []models.Room{
		{RoomID: "r1", PeerName: "영희", LatestMessage: "안녕"},
		{RoomID: "r2", PeerName: "민수", LatestMessage: "내일 봐"},
	}
	updated, _ := m.Update(roomsFetchedMsg{rooms: rooms})
	if _, ok := updated.(ChatModel); !ok {
		t.Fatal("room list response must not change the current screen")
	}

	if got := len(app.Ctrl.Rooms()); got != 2 {
		t.Fatalf("controller holds %d rooms, want 2", got)
	}
}

func TestChatModelAppliesLateUnreadReset(t *testing.T) {
	app := testApp()
	app.Ctrl.SetRooms([]models.Room{{RoomID: "r1", PeerName: "영희", UnreadCount: 3, HasUnread: true}})
	m := NewChatModel(app)

	updated, _ := m.Update(unreadResetMsg{roomID: "r1"})
	if _, ok := updated.(ChatModel); !ok {
		t.Fatal("unread reset must not change the current screen")
	}

	room := app.Ctrl.Rooms()[0]
	if room.HasUnread || room.UnreadCount != 0 {
		t.Errorf("room = %+v, badge must be cleared", room)
	}
}

func TestChatModelKeepsBadgeOnFailedReset(t *testing.T) {
	app := testApp()
	app.Ctrl.SetRooms([]models.Room{{RoomID: "r1", PeerName: "영희", UnreadCount: 3, HasUnread: true}})
	m := NewChatModel(app)

	m.Update(unreadResetMsg{roomID: "r1", err: errors.New("boom")})

	if room := app.Ctrl.Rooms()[0]; !room.HasUnread || room.UnreadCount != 3 {
		t.Errorf("room = %+v, failed reset must leave the badge in place", room)
	}
}

func TestChatModelIgnoresFailedRoomList(t *testing.T) {
	app := testApp()
	app.Ctrl.SetRooms([]models.Room{{RoomID: "r1", PeerName: "영희"}})
	m := NewChatModel(app)

	m.Update(roomsFetchedMsg{err: errors.New("directory down")})

	if got := len(app.Ctrl.Rooms()); got != 1 {
		t.Errorf("controller holds %d rooms, failed fetch must not clear the list", got)
	}
}
