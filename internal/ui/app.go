package ui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"

	"github.com/damso-app/damso/internal/config"
	"github.com/damso-app/damso/internal/directory"
	"github.com/damso-app/damso/internal/models"
	"github.com/damso-app/damso/internal/realtime"
	"github.com/damso-app/damso/internal/session"
	"github.com/damso-app/damso/internal/store"
)

// App bundles the collaborators both screens share. Store may be nil when
// the local cache could not be opened.
type App struct {
	Cfg      config.Config
	Ctrl     *session.Controller
	Dir      *directory.Client
	RT       *realtime.Client
	Store    *store.Store
	DeepLink string
}

type realtimeEventMsg struct {
	ev realtime.Event
}

type transportClosedMsg struct{}

type roomsFetchedMsg struct {
	rooms     []models.Room
	fromCache bool
	err       error
}

type unreadResetMsg struct {
	roomID string
	err    error
}

type roomEnteredMsg struct {
	token uint64
	res   *directory.EnterResult
	err   error
}

// waitForEvent blocks on the transport's event stream and hands the next
// event to whichever screen is current. Re-armed after every delivery.
func waitForEvent(app *App) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-app.RT.Events()
		if !ok {
			return transportClosedMsg{}
		}
		return realtimeEventMsg{ev: ev}
	}
}

func fetchRoomsCmd(app *App) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		rooms, err := app.Dir.ListRooms(ctx)
		if err == nil {
			if app.Store != nil {
				if cacheErr := app.Store.UpsertRooms(rooms); cacheErr != nil {
					log.Warn().Err(cacheErr).Msg("cache room list")
				}
			}
			return roomsFetchedMsg{rooms: rooms}
		}

		log.Warn().Err(err).Msg("list rooms, falling back to cache")
		if app.Store != nil {
			if cached, cacheErr := app.Store.RoomPreviews(); cacheErr == nil && len(cached) > 0 {
				return roomsFetchedMsg{rooms: cached, fromCache: true}
			}
		}
		return roomsFetchedMsg{err: err}
	}
}

// enterRoomCmds runs the room-entry sequence: reset the unread counter,
// release presence for the previously active room (fire-and-forget) and
// issue the entry request itself. The completions of the first two are not
// awaited before entry is issued.
func enterRoomCmds(app *App, target session.Target) []tea.Cmd {
	token, prev, hadPrev := app.Ctrl.BeginEntry(target)

	cmds := []tea.Cmd{
		resetUnreadCmd(app, target.RoomID),
		enterRoomCmd(app, token, target),
	}
	if hadPrev {
		cmds = append(cmds, releasePresenceCmd(app, prev))
	}
	return cmds
}

func resetUnreadCmd(app *App, roomID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return unreadResetMsg{roomID: roomID, err: app.Dir.ResetUnread(ctx, roomID)}
	}
}

func releasePresenceCmd(app *App, prev models.Session) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.Dir.ReleasePresence(ctx, prev.CurrentUser, prev.RoomID); err != nil {
			log.Warn().Err(err).Str("room", prev.RoomID).Msg("release presence")
		}
		return nil
	}
}

func enterRoomCmd(app *App, token uint64, target session.Target) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		res, err := app.Dir.EnterRoom(ctx, target.PeerID, target.RoomID, target.PeerName)
		return roomEnteredMsg{token: token, res: res, err: err}
	}
}

// cacheMessage persists a broadcast message locally, best-effort.
func cacheMessage(app *App, ev realtime.MessageEvent) {
	if app.Store == nil {
		return
	}
	err := app.Store.SaveMessage(models.Message{
		RoomID:   ev.RoomID,
		Sender:   ev.Sender,
		PeerName: ev.PeerName,
		Text:     ev.Text,
		Time:     ev.At(),
	})
	if err != nil {
		log.Warn().Err(err).Str("room", ev.RoomID).Msg("cache message")
	}
}
