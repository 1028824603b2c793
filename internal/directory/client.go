// Package directory talks to the room directory service: room entry/exit,
// unread counters and the room list.
package directory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/damso-app/damso/internal/models"
)

const requestTimeout = 10 * time.Second

type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: requestTimeout},
	}
}

// EnterResult is the room-entry response: the adopted session identity plus
// the message history to replay.
type EnterResult struct {
	CurrentUser struct {
		Name string `json:"name"`
	} `json:"current_user"`
	RoomID   string           `json:"room_id"`
	PeerName string           `json:"receive_user_name"`
	Messages []HistoryMessage `json:"messages"`
}

type HistoryMessage struct {
	Sender   string `json:"sender_name"`
	Text     string `json:"text"`
	PeerName string `json:"receive_user_name"`
	Time     string `json:"time"`
}

// At parses the message time. A missing or malformed value yields the zero
// time, which the transcript treats as "now".
func (m HistoryMessage) At() time.Time {
	t, _ := ParseTime(m.Time)
	return t
}

// ParseTime accepts the timestamp shapes the directory emits: RFC 3339 and
// zone-less ISO 8601 with or without fractional seconds.
func ParseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	layouts := []string{
		time.RFC3339Nano,
		"2006-01-02T15:04:05.999999999",
		"2006-01-02T15:04:05",
	}
	var err error
	for _, layout := range layouts {
		var t time.Time
		if t, err = time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
}

// EnterRoom requests entry into the room shared with peerID. An empty room
// id in the response counts as a refused entry.
func (c *Client) EnterRoom(ctx context.Context, peerID, roomID, peerName string) (*EnterResult, error) {
	body := map[string]string{
		"room_id":           roomID,
		"receive_user_name": peerName,
	}

	var res EnterResult
	if err := c.post(ctx, "/chat/get_messages/"+peerID, body, &res); err != nil {
		return nil, err
	}
	if res.RoomID == "" {
		return nil, fmt.Errorf("enter room %s: refused by directory", roomID)
	}
	return &res, nil
}

type ackResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ResetUnread zeroes the caller's unread counter for the room.
func (c *Client) ResetUnread(ctx context.Context, roomID string) error {
	var res ackResponse
	if err := c.post(ctx, "/chat/reset_unread_count", map[string]string{"room_id": roomID}, &res); err != nil {
		return err
	}
	if !res.Success {
		return fmt.Errorf("reset unread for room %s: refused", roomID)
	}
	return nil
}

// ReleasePresence tells the directory this client is no longer viewing the
// room, so unread counting resumes server-side.
func (c *Client) ReleasePresence(ctx context.Context, currentUser, roomID string) error {
	body := map[string]string{
		"current_user": currentUser,
		"room_id":      roomID,
	}
	var res ackResponse
	if err := c.post(ctx, "/chat/stay_join", body, &res); err != nil {
		return err
	}
	if !res.Success {
		return fmt.Errorf("release presence for room %s: refused", roomID)
	}
	return nil
}

type roomEntry struct {
	RoomID        string `json:"room_id"`
	PeerID        string `json:"receive_user_id"`
	PeerName      string `json:"receiver_name"`
	LatestMessage string `json:"latest_message"`
	MessageTime   string `json:"message_time"`
	UnreadCount   int    `json:"unread_count"`
}

// ListRooms fetches the rooms the current user belongs to, newest activity
// first.
func (c *Client) ListRooms(ctx context.Context) ([]models.Room, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/chat/rooms", nil)
	if err != nil {
		return nil, fmt.Errorf("build room list request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("list rooms: unexpected status %s", resp.Status)
	}

	var entries []roomEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode room list: %w", err)
	}

	rooms := make([]models.Room, 0, len(entries))
	for _, e := range entries {
		room := models.Room{
			RoomID:        e.RoomID,
			PeerID:        e.PeerID,
			PeerName:      e.PeerName,
			LatestMessage: e.LatestMessage,
			UnreadCount:   e.UnreadCount,
			HasUnread:     e.UnreadCount > 0,
		}
		if t, err := time.Parse("2006-01-02", e.MessageTime); err == nil {
			room.LatestTime = t
		}
		rooms = append(rooms, room)
	}
	return rooms, nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("post %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("post %s: unexpected status %s", path, resp.Status)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode %s response: %w", path, err)
		}
	}
	return nil
}
