package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
	"github.com/rs/zerolog/log"

	"github.com/damso-app/damso/internal/realtime"
	"github.com/damso-app/damso/internal/transcript"
)

// ChatModel is the active room screen: the transcript pane plus the message
// input.
type ChatModel struct {
	app          *App
	viewport     viewport.Model
	input        textinput.Model
	notice       string
	windowWidth  int
	windowHeight int
}

func NewChatModel(app *App) ChatModel {
	vp := viewport.New(80, 20)

	ti := textinput.New()
	ti.Placeholder = "메시지를 입력하세요..."
	ti.CharLimit = 1000
	ti.Focus()

	m := ChatModel{
		app:          app,
		viewport:     vp,
		input:        ti,
		windowWidth:  80,
		windowHeight: 30,
	}
	m.renderTranscript()
	m.viewport.GotoBottom()
	return m
}

func (m ChatModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m ChatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.windowWidth = msg.Width
		m.windowHeight = msg.Height

		headerHeight := 3
		inputHeight := 3
		helpHeight := 2
		m.viewport.Width = msg.Width - 4
		m.viewport.Height = msg.Height - headerHeight - inputHeight - helpHeight
		m.input.Width = msg.Width - 6
		m.renderTranscript()
		return m, nil

	// Async responses from the entry sequence and list fetches can land
	// after the transition to this screen; they still belong to the shared
	// controller, not to whichever screen happens to be current.
	case roomsFetchedMsg:
		if msg.err != nil {
			log.Warn().Err(msg.err).Msg("list rooms")
			return m, nil
		}
		m.app.Ctrl.SetRooms(msg.rooms)
		return m, nil

	case unreadResetMsg:
		if msg.err != nil {
			// Non-fatal: the badge stays until the next successful reset.
			log.Warn().Err(msg.err).Str("room", msg.roomID).Msg("reset unread")
			return m, nil
		}
		m.app.Ctrl.ClearUnread(msg.roomID)
		return m, nil

	case realtimeEventMsg:
		switch ev := msg.ev.(type) {
		case realtime.MessageEvent:
			scroll, appended := m.app.Ctrl.HandleMessage(ev)
			cacheMessage(m.app, ev)
			if appended {
				dist := m.distanceFromBottom()
				m.renderTranscript()
				if transcript.ShouldScroll(scroll, dist) {
					m.viewport.GotoBottom()
				}
			}
			return m, waitForEvent(m.app)

		case realtime.StatusEvent:
			if _, ok := m.app.Ctrl.HandleStatus(ev); ok {
				m.renderTranscript()
				m.viewport.GotoBottom()
			}
			return m, waitForEvent(m.app)

		case realtime.LeaveResponse:
			if ev.Success {
				m.app.Ctrl.FinishLeave(true)
				rooms, cmd := resumeRooms(m.app, m.windowWidth, m.windowHeight)
				return rooms, tea.Batch(cmd, waitForEvent(m.app))
			}
			m.app.Ctrl.FinishLeave(false)
			if ev.Message != "" {
				m.notice = ev.Message
			} else {
				m.notice = "채팅방을 나가는데 실패했습니다."
			}
			return m, waitForEvent(m.app)
		}
		return m, waitForEvent(m.app)

	case transportClosedMsg:
		m.notice = "실시간 연결이 끊어졌습니다."
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "esc":
			// Back to the list; the session stays active.
			rooms, cmd := resumeRooms(m.app, m.windowWidth, m.windowHeight)
			return rooms, cmd

		case "enter":
			text := strings.TrimSpace(m.input.Value())
			m.input.Reset()
			payload, ok := m.app.Ctrl.SendPayload(text)
			if !ok {
				return m, nil
			}
			if err := m.app.RT.EmitMessage(payload); err != nil {
				log.Error().Err(err).Msg("emit message")
				m.notice = "메시지 전송에 실패했습니다."
			}
			return m, nil

		case "ctrl+q":
			payload, ok := m.app.Ctrl.BeginLeave()
			if !ok {
				return m, nil
			}
			if err := m.app.RT.EmitLeave(payload); err != nil {
				log.Error().Err(err).Msg("emit leave")
				m.app.Ctrl.FinishLeave(false)
				m.notice = "채팅방을 나가는데 실패했습니다."
			}
			return m, nil

		case "up", "down", "pgup", "pgdown":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd

		default:
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *ChatModel) distanceFromBottom() int {
	return m.viewport.TotalLineCount() - (m.viewport.YOffset + m.viewport.Height)
}

func (m *ChatModel) renderTranscript() {
	wrapWidth := m.viewport.Width
	if wrapWidth <= 0 {
		wrapWidth = 80
	}

	var content strings.Builder
	for i, e := range m.app.Ctrl.Log().Entries() {
		if i > 0 {
			content.WriteString("\n")
		}

		switch e.Kind {
		case transcript.KindDate:
			divider := dateDividerStyle.Render(fmt.Sprintf("─── %s ───", e.Label))
			content.WriteString(lipgloss.NewStyle().Align(lipgloss.Center).Width(wrapWidth).Render(divider) + "\n")

		case transcript.KindStatus:
			status := statusDividerStyle.Render(e.Label)
			content.WriteString(lipgloss.NewStyle().Align(lipgloss.Center).Width(wrapWidth).Render(status) + "\n")

		case transcript.KindMessage:
			wrapped := wordwrap.String(e.Text, wrapWidth-10)
			if e.Self {
				right := lipgloss.NewStyle().Align(lipgloss.Right).Width(wrapWidth)
				content.WriteString(right.Render(messageSelfStyle.Render(wrapped)) + "\n")
				if e.ShowTime {
					content.WriteString(right.Render(timeLabelStyle.Render(e.TimeLabel)) + "\n")
				}
			} else {
				content.WriteString(senderNameStyle.Render(e.Sender) + "\n")
				content.WriteString(messagePeerStyle.Render(wrapped) + "\n")
				if e.ShowTime {
					content.WriteString(timeLabelStyle.Render(e.TimeLabel) + "\n")
				}
			}
		}
	}

	m.viewport.SetContent(content.String())
}

func (m ChatModel) View() string {
	sess := m.app.Ctrl.Session()
	s := titleStyle.Render(fmt.Sprintf("💬 %s", sess.PeerName)) + "\n\n"

	if m.notice != "" {
		s += errorStyle.Render(m.notice) + "\n"
	}

	if m.app.Ctrl.Log().Len() == 0 {
		s += normalStyle.Render("  아직 메시지가 없습니다.") + "\n"
	} else {
		s += m.viewport.View() + "\n"
	}

	s += "\n" + inputLabelStyle.Render("메시지:") + "\n"
	s += m.input.View() + "\n"
	s += helpStyle.Render("enter: 전송 • ctrl+q: 나가기 • ↑↓: 스크롤 • esc: 목록으로 • ctrl+c: 종료")
	return s
}
