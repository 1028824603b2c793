// Package store is a local sqlite cache of chat history and room previews.
// Everything here is best-effort: the client stays usable when the cache is
// missing or broken.
package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/damso-app/damso/internal/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS messages (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	room_id TEXT NOT NULL,
	sender_name TEXT NOT NULL,
	receive_user_name TEXT NOT NULL,
	text TEXT NOT NULL,
	time TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_messages_room_time ON messages(room_id, time);

CREATE TABLE IF NOT EXISTS rooms (
	room_id TEXT PRIMARY KEY,
	peer_id TEXT NOT NULL DEFAULT '',
	peer_name TEXT NOT NULL DEFAULT '',
	latest_message TEXT NOT NULL DEFAULT '',
	latest_time TIMESTAMP,
	unread_count INTEGER NOT NULL DEFAULT 0
);
`

type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open history cache: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("prepare history cache schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// SaveMessage appends a received message and refreshes the room's preview.
func (s *Store) SaveMessage(m models.Message) error {
	at := m.Time
	if at.IsZero() {
		at = time.Now()
	}
	_, err := s.db.Exec(`
		INSERT INTO messages (room_id, sender_name, receive_user_name, text, time)
		VALUES (?, ?, ?, ?, ?)`,
		m.RoomID, m.Sender, m.PeerName, m.Text, at)
	if err != nil {
		return fmt.Errorf("save message: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO rooms (room_id, latest_message, latest_time)
		VALUES (?, ?, ?)
		ON CONFLICT(room_id) DO UPDATE SET
			latest_message = excluded.latest_message,
			latest_time = excluded.latest_time`,
		m.RoomID, m.Text, at)
	if err != nil {
		return fmt.Errorf("update room preview: %w", err)
	}
	return nil
}

// RecentMessages returns up to limit messages of a room, oldest first.
func (s *Store) RecentMessages(roomID string, limit int) ([]models.Message, error) {
	rows, err := s.db.Query(`
		SELECT room_id, sender_name, receive_user_name, text, time
		FROM (
			SELECT * FROM messages WHERE room_id = ? ORDER BY time DESC, id DESC LIMIT ?
		) ORDER BY time ASC, id ASC`,
		roomID, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent messages: %w", err)
	}
	defer rows.Close()

	var msgs []models.Message
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.RoomID, &m.Sender, &m.PeerName, &m.Text, &m.Time); err != nil {
			continue
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// UpsertRooms replaces the cached room projections with a fresh directory
// listing.
func (s *Store) UpsertRooms(rooms []models.Room) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin room upsert: %w", err)
	}
	defer tx.Rollback()

	for _, r := range rooms {
		_, err := tx.Exec(`
			INSERT INTO rooms (room_id, peer_id, peer_name, latest_message, latest_time, unread_count)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(room_id) DO UPDATE SET
				peer_id = excluded.peer_id,
				peer_name = excluded.peer_name,
				latest_message = excluded.latest_message,
				latest_time = excluded.latest_time,
				unread_count = excluded.unread_count`,
			r.RoomID, r.PeerID, r.PeerName, r.LatestMessage, r.LatestTime, r.UnreadCount)
		if err != nil {
			return fmt.Errorf("upsert room %s: %w", r.RoomID, err)
		}
	}
	return tx.Commit()
}

// RoomPreviews returns the cached room list, most recent activity first.
// Used when the directory is unreachable.
func (s *Store) RoomPreviews() ([]models.Room, error) {
	rows, err := s.db.Query(`
		SELECT room_id, peer_id, peer_name, latest_message, latest_time, unread_count
		FROM rooms
		ORDER BY latest_time DESC`)
	if err != nil {
		return nil, fmt.Errorf("query room previews: %w", err)
	}
	defer rows.Close()

	var rooms []models.Room
	for rows.Next() {
		var r models.Room
		var latest sql.NullTime
		if err := rows.Scan(&r.RoomID, &r.PeerID, &r.PeerName, &r.LatestMessage, &latest, &r.UnreadCount); err != nil {
			continue
		}
		if latest.Valid {
			r.LatestTime = latest.Time
		}
		r.HasUnread = r.UnreadCount > 0
		rooms = append(rooms, r)
	}
	return rooms, rows.Err()
}
