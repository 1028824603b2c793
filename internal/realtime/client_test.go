package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestDecodeEvent(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    Event
		wantErr bool
	}{
		{
			name:    "status",
			payload: `{"event":"status","data":{"data":"영희님이 나갔습니다."}}`,
			want:    StatusEvent{Data: "영희님이 나갔습니다."},
		},
		{
			name:    "message",
			payload: `{"event":"message","data":{"sender_name":"영희","text":"안녕","receive_user_name":"철수","timestamp":"2024-03-01T09:05:00","room_id":"r1"}}`,
			want:    MessageEvent{Sender: "영희", Text: "안녕", PeerName: "철수", Timestamp: "2024-03-01T09:05:00", RoomID: "r1"},
		},
		{
			name:    "leave_response failure",
			payload: `{"event":"leave_response","data":{"success":false,"message":"채팅방을 찾을 수 없습니다."}}`,
			want:    LeaveResponse{Success: false, Message: "채팅방을 찾을 수 없습니다."},
		},
		{
			name:    "unknown event skipped",
			payload: `{"event":"typing","data":{}}`,
			want:    nil,
		},
		{
			name:    "malformed envelope",
			payload: `{"event":`,
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeEvent([]byte(tt.payload))
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestMessageEventAt(t *testing.T) {
	ev := MessageEvent{Timestamp: "2024-03-01T09:05:00"}
	if got := ev.At(); got.Hour() != 9 || got.Minute() != 5 {
		t.Errorf("At() = %v", got)
	}
	if got := (MessageEvent{}).At(); !got.IsZero() {
		t.Errorf("missing timestamp must parse to zero, got %v", got)
	}
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestClientRoundTrip(t *testing.T) {
	upgrader := websocket.Upgrader{}
	received := make(chan envelope, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()

		// Expect the join, then broadcast a message back.
		var env envelope
		if err := conn.ReadJSON(&env); err != nil {
			t.Errorf("read join: %v", err)
			return
		}
		received <- env

		data, _ := json.Marshal(MessageEvent{Sender: "영희", Text: "안녕", RoomID: "r1"})
		if err := conn.WriteJSON(envelope{Event: eventMessage, Data: data}); err != nil {
			t.Errorf("write message: %v", err)
			return
		}

		// Hold the connection open until the client hangs up.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	c, err := Dial(context.Background(), wsURL(srv))
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer c.Close()

	if err := c.EmitJoin(JoinPayload{CurrentUser: "철수", RoomID: "r1"}); err != nil {
		t.Fatalf("EmitJoin: %v", err)
	}

	select {
	case env := <-received:
		if env.Event != eventJoin {
			t.Errorf("server saw event %q, want join", env.Event)
		}
		var p JoinPayload
		if err := json.Unmarshal(env.Data, &p); err != nil || p.RoomID != "r1" {
			t.Errorf("join payload = %s (err %v)", env.Data, err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("server never received the join emission")
	}

	select {
	case ev := <-c.Events():
		msg, ok := ev.(MessageEvent)
		if !ok {
			t.Fatalf("got event %#v, want MessageEvent", ev)
		}
		if msg.Sender != "영희" || msg.Text != "안녕" || msg.RoomID != "r1" {
			t.Errorf("message = %+v", msg)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("client never received the broadcast")
	}
}

func TestClientEventsClosedOnDisconnect(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conn.Close()
	}))
	defer srv.Close()

	c, err := Dial(context.Background(), wsURL(srv))
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer c.Close()

	select {
	case _, ok := <-c.Events():
		if ok {
			t.Fatal("expected closed events channel, got an event")
		}
	case <-time.After(3 * time.Second):
		t.Fatal("events channel never closed after disconnect")
	}
}

func TestEmitAfterClose(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	c, err := Dial(context.Background(), wsURL(srv))
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	c.Close()

	if err := c.EmitMessage(MessagePayload{Message: "안녕"}); err == nil {
		t.Fatal("emit on a closed transport must fail")
	}
}
