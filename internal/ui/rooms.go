package ui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog/log"

	"github.com/damso-app/damso/internal/models"
	"github.com/damso-app/damso/internal/realtime"
	"github.com/damso-app/damso/internal/session"
)

type roomItem struct {
	room models.Room
}

func (i roomItem) Title() string {
	title := i.room.PeerName
	if i.room.HasUnread {
		title = fmt.Sprintf("%s %s", title, badgeStyle.Render(fmt.Sprintf("%d", i.room.UnreadCount)))
	}
	return title
}

func (i roomItem) Description() string {
	preview := i.room.LatestMessage
	if preview == "" {
		preview = "대화가 없습니다."
	}
	if len([]rune(preview)) > 40 {
		preview = string([]rune(preview)[:37]) + "..."
	}
	return fmt.Sprintf("%s • %s", formatListDate(i.room.LatestTime), preview)
}

func (i roomItem) FilterValue() string {
	return i.room.PeerName
}

func formatListDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02")
}

// RoomsModel is the room list screen.
type RoomsModel struct {
	app          *App
	list         list.Model
	loading      bool
	fromCache    bool
	notice       string
	err          error
	spinner      spinner.Model
	windowWidth  int
	windowHeight int
}

func NewRoomsModel(app *App) RoomsModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinnerStyle

	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.
		Foreground(lipgloss.Color("5")).
		Bold(true)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.
		Foreground(lipgloss.Color("8"))

	l := list.New([]list.Item{}, delegate, 80, 20)
	l.Title = "채팅방"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.SetShowHelp(false)

	return RoomsModel{
		app:          app,
		list:         l,
		loading:      true,
		spinner:      s,
		windowWidth:  80,
		windowHeight: 30,
	}
}

// resumeRooms rebuilds the list screen when coming back from a chat view
// without re-running Init: the realtime event pump stays armed and the list
// is rebuilt from controller state.
func resumeRooms(app *App, width, height int) (RoomsModel, tea.Cmd) {
	m := NewRoomsModel(app)
	m.loading = false
	m.syncItems()
	if width > 0 {
		updated, cmd := m.Update(tea.WindowSizeMsg{Width: width, Height: height})
		return updated.(RoomsModel), cmd
	}
	return m, nil
}

func (m RoomsModel) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spinner.Tick, fetchRoomsCmd(m.app), waitForEvent(m.app)}
	if m.app.DeepLink != "" {
		link := m.app.DeepLink
		m.app.DeepLink = ""
		if target, err := session.ParseDeepLink(link); err != nil {
			log.Warn().Err(err).Str("link", link).Msg("bad deep link")
		} else {
			cmds = append(cmds, enterRoomCmds(m.app, target)...)
		}
	}
	return tea.Batch(cmds...)
}

func (m *RoomsModel) syncItems() {
	rooms := m.app.Ctrl.Rooms()
	items := make([]list.Item, len(rooms))
	for i, room := range rooms {
		items[i] = roomItem{room: room}
	}
	m.list.SetItems(items)
	m.list.Title = fmt.Sprintf("채팅방 %d개", len(rooms))
	if m.fromCache {
		m.list.Title += " (오프라인)"
	}
}

func (m RoomsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.windowWidth = msg.Width
		m.windowHeight = msg.Height
		m.list.SetWidth(msg.Width)
		m.list.SetHeight(msg.Height - 4)
		return m, nil

	case roomsFetchedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.fromCache = msg.fromCache
		m.app.Ctrl.SetRooms(msg.rooms)
		m.syncItems()
		return m, nil

	case unreadResetMsg:
		if msg.err != nil {
			// Non-fatal: the badge stays until the next successful reset.
			log.Warn().Err(msg.err).Str("room", msg.roomID).Msg("reset unread")
			return m, nil
		}
		m.app.Ctrl.ClearUnread(msg.roomID)
		m.syncItems()
		return m, nil

	case roomEnteredMsg:
		if msg.err != nil {
			if m.app.Ctrl.FailEntry(msg.token) {
				log.Error().Err(msg.err).Msg("enter room")
				m.notice = "채팅방 입장에 실패했습니다."
			}
			return m, nil
		}
		join, applied := m.app.Ctrl.ApplyEntry(msg.token, msg.res)
		if !applied {
			log.Debug().Uint64("token", msg.token).Msg("discard stale entry response")
			return m, nil
		}
		if err := m.app.RT.EmitJoin(join); err != nil {
			log.Error().Err(err).Msg("emit join")
		}
		chat := NewChatModel(m.app)
		if m.windowWidth > 0 {
			updated, cmd := chat.Update(tea.WindowSizeMsg{Width: m.windowWidth, Height: m.windowHeight})
			chat = updated.(ChatModel)
			return chat, tea.Batch(chat.Init(), cmd)
		}
		return chat, chat.Init()

	case realtimeEventMsg:
		if ev, ok := msg.ev.(realtime.MessageEvent); ok {
			m.app.Ctrl.HandleMessage(ev)
			cacheMessage(m.app, ev)
			m.syncItems()
		}
		return m, waitForEvent(m.app)

	case transportClosedMsg:
		m.notice = "실시간 연결이 끊어졌습니다."
		return m, nil

	case spinner.TickMsg:
		if m.loading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "q" || msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

		if msg.String() == "r" && !m.loading {
			m.loading = true
			m.notice = ""
			return m, tea.Batch(m.spinner.Tick, fetchRoomsCmd(m.app))
		}

		if msg.String() == "enter" && !m.loading {
			if item, ok := m.list.SelectedItem().(roomItem); ok {
				m.notice = ""
				target := session.Target{
					RoomID:   item.room.RoomID,
					PeerID:   item.room.PeerID,
					PeerName: item.room.PeerName,
				}
				return m, tea.Batch(enterRoomCmds(m.app, target)...)
			}
		}

		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m RoomsModel) View() string {
	if m.loading {
		return fmt.Sprintf("\n  %s 채팅방 목록을 불러오는 중...\n", m.spinner.View())
	}

	if m.err != nil {
		s := titleStyle.Render("채팅방") + "\n\n"
		s += errorStyle.Render(fmt.Sprintf("오류: %v", m.err)) + "\n\n"
		s += helpStyle.Render("r: 다시 시도 • q: 종료")
		return s
	}

	s := m.list.View() + "\n"
	if m.notice != "" {
		s += errorStyle.Render(m.notice) + "\n"
	}
	s += helpStyle.Render("↑↓/jk: 이동 • enter: 입장 • /: 검색 • r: 새로고침 • q: 종료")
	return s
}
