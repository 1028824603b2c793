package directory

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestEnterRoom(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/get_messages/u42" {
			t.Errorf("path = %q", r.URL.Path)
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body["room_id"] != "r1" || body["receive_user_name"] != "영희" {
			t.Errorf("body = %v", body)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"current_user":      map[string]string{"name": "철수"},
			"room_id":           "r1",
			"receive_user_name": "영희",
			"messages": []map[string]string{
				{"sender_name": "영희", "text": "안녕", "receive_user_name": "철수", "time": "2024-03-01T09:05:00"},
			},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	res, err := c.EnterRoom(context.Background(), "u42", "r1", "영희")
	if err != nil {
		t.Fatalf("EnterRoom: %v", err)
	}
	if res.CurrentUser.Name != "철수" || res.RoomID != "r1" || res.PeerName != "영희" {
		t.Errorf("result = %+v", res)
	}
	if len(res.Messages) != 1 || res.Messages[0].Text != "안녕" {
		t.Fatalf("messages = %+v", res.Messages)
	}
	if got := res.Messages[0].At(); got.Hour() != 9 || got.Minute() != 5 {
		t.Errorf("parsed time = %v", got)
	}
}

func TestEnterRoom_Refused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	if _, err := c.EnterRoom(context.Background(), "u42", "r1", "영희"); err == nil {
		t.Fatal("empty response must count as a refused entry")
	}
}

func TestResetUnread(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		status  int
		wantErr bool
	}{
		{"accepted", `{"success": true}`, http.StatusOK, false},
		{"refused", `{"success": false}`, http.StatusOK, true},
		{"server error", `boom`, http.StatusInternalServerError, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/chat/reset_unread_count" {
					t.Errorf("path = %q", r.URL.Path)
				}
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			err := NewClient(srv.URL).ResetUnread(context.Background(), "r1")
			if (err != nil) != tt.wantErr {
				t.Errorf("err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestReleasePresence(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/stay_join" {
			t.Errorf("path = %q", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"success": true}`))
	}))
	defer srv.Close()

	if err := NewClient(srv.URL).ReleasePresence(context.Background(), "철수", "r1"); err != nil {
		t.Fatalf("ReleasePresence: %v", err)
	}
	if got["current_user"] != "철수" || got["room_id"] != "r1" {
		t.Errorf("body = %v", got)
	}
}

func TestListRooms(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/rooms" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Write([]byte(`[
			{"room_id":"r2","receive_user_id":"u7","receiver_name":"민수","latest_message":"내일 봐","message_time":"2024-03-02","unread_count":3},
			{"room_id":"r1","receive_user_id":"u42","receiver_name":"영희","latest_message":"안녕","message_time":"2024-03-01","unread_count":0}
		]`))
	}))
	defer srv.Close()

	rooms, err := NewClient(srv.URL).ListRooms(context.Background())
	if err != nil {
		t.Fatalf("ListRooms: %v", err)
	}
	if len(rooms) != 2 {
		t.Fatalf("got %d rooms", len(rooms))
	}
	if rooms[0].RoomID != "r2" || !rooms[0].HasUnread || rooms[0].UnreadCount != 3 {
		t.Errorf("rooms[0] = %+v", rooms[0])
	}
	if rooms[1].HasUnread {
		t.Errorf("rooms[1] should have no unread badge")
	}
	if rooms[0].LatestTime.Day() != 2 {
		t.Errorf("rooms[0].LatestTime = %v", rooms[0].LatestTime)
	}
}

func TestParseTime(t *testing.T) {
	tests := []struct {
		in      string
		wantErr bool
	}{
		{"2024-03-01T09:05:00", false},
		{"2024-03-01T09:05:00.123456", false},
		{"2024-03-01T09:05:00+09:00", false},
		{"", true},
		{"yesterday", true},
	}
	for _, tt := range tests {
		got, err := ParseTime(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseTime(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if err == nil && (got.Hour() != 9 || got.Minute() != 5) {
			t.Errorf("ParseTime(%q) = %v", tt.in, got)
		}
	}
}

func TestParseTime_ZoneLessKeepsWallClock(t *testing.T) {
	got, err := ParseTime("2024-03-01T09:05:00")
	if err != nil {
		t.Fatal(err)
	}
	want := time.Date(2024, 3, 1, 9, 5, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}
