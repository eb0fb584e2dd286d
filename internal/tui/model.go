// Package tui provides the Bubble Tea chat screen of the terminal client.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/eva-wellness/eva/internal/model"
	"github.com/eva-wellness/eva/internal/service"
	"github.com/eva-wellness/eva/internal/store"
	"github.com/eva-wellness/eva/pkg/logger"
)

// eventMsg carries a chat event from the broker into the update loop.
type eventMsg model.ChatEvent

// sendDoneMsg reports the end of one send.
type sendDoneMsg struct {
	turn *service.Turn
	err  error
}

// Options configures the chat screen.
type Options struct {
	// ServerURL is shown in the status line.
	ServerURL string
	// Markdown renders assistant replies with glamour.
	Markdown bool
	Logger   *logger.Logger
}

// Model is the Bubble Tea model of the chat screen.
type Model struct {
	ctx    context.Context
	sess   *store.Session
	svc    *service.ChatService
	events <-chan model.ChatEvent
	opts   Options
	keys   KeyMap

	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model
	renderer *glamour.TermRenderer

	width  int
	height int
	ready  bool

	lastErr error
}

// New creates the chat screen for sess. Events published by svc for sess
// must reach events, which is usually a broker subscription.
func New(ctx context.Context, sess *store.Session, svc *service.ChatService, events <-chan model.ChatEvent, opts Options) Model {
	if opts.Logger == nil {
		opts.Logger = logger.NewNop()
	}

	input := textinput.New()
	input.Placeholder = "Type a message..."
	input.CharLimit = 4000
	input.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = typingStyle

	return Model{
		ctx:      ctx,
		sess:     sess,
		svc:      svc,
		events:   events,
		opts:     opts,
		keys:     DefaultKeyMap(),
		input:    input,
		spinner:  sp,
		viewport: viewport.New(80, 20),
	}
}

// Init starts the cursor blink, the spinner and the event listener.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick, waitForEvent(m.events))
}

func waitForEvent(events <-chan model.ChatEvent) tea.Cmd {
	if events == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return nil
		}
		return eventMsg(ev)
	}
}

// Update handles input and background messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit

		case key.Matches(msg, m.keys.Send):
			text := strings.TrimSpace(m.input.Value())
			if text == "" {
				return m, nil
			}
			m.input.Reset()
			m.lastErr = nil
			cmds = append(cmds, m.send(m.sess.ActiveChatID(), text))

		case key.Matches(msg, m.keys.NewChat):
			if _, err := m.svc.CreateChat(m.ctx, m.sess); err != nil {
				m.lastErr = err
			}

		case key.Matches(msg, m.keys.NextChat):
			m.cycle(1)

		case key.Matches(msg, m.keys.PrevChat):
			m.cycle(-1)

		default:
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			cmds = append(cmds, cmd)
		}

	case eventMsg:
		cmds = append(cmds, waitForEvent(m.events))

	case sendDoneMsg:
		if msg.err != nil {
			m.lastErr = msg.err
			m.opts.Logger.Warn("send failed", zap.Error(msg.err))
		} else if msg.turn.Failed {
			m.opts.Logger.Warn("reply fell back", zap.String("chat_id", msg.turn.ChatID))
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	default:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
	}

	m.refresh()
	return m, tea.Batch(cmds...)
}

// send runs one send off the update loop. The chat ID is captured now so
// the reply lands in this chat even if the user switches away.
func (m Model) send(chatID, text string) tea.Cmd {
	return func() tea.Msg {
		turn, err := m.svc.Send(m.ctx, m.sess, chatID, text)
		return sendDoneMsg{turn: turn, err: err}
	}
}

// cycle selects the chat step positions away from the active one.
func (m *Model) cycle(step int) {
	chats := m.sess.Chats()
	if len(chats) < 2 {
		return
	}

	active := m.sess.ActiveChatID()
	idx := 0
	for i, c := range chats {
		if c.ID == active {
			idx = i
			break
		}
	}
	next := (idx + step + len(chats)) % len(chats)

	if err := m.svc.SelectChat(m.ctx, m.sess, chats[next].ID); err != nil {
		m.lastErr = err
	}
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height

	// Title, input box and status line take five rows.
	vpWidth := width - sidebarWidth - 3
	vpHeight := height - 5
	if vpWidth < 20 {
		vpWidth = 20
	}
	if vpHeight < 3 {
		vpHeight = 3
	}
	m.viewport.Width = vpWidth
	m.viewport.Height = vpHeight
	m.input.Width = width - 6

	if m.opts.Markdown {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(vpWidth-2),
		)
		if err != nil {
			m.opts.Logger.Warn("markdown renderer unavailable", zap.Error(err))
			r = nil
		}
		m.renderer = r
	}
	m.ready = true
}

// refresh re-renders the active chat into the viewport.
func (m *Model) refresh() {
	m.viewport.SetContent(m.renderChat())
	m.viewport.GotoBottom()
}

func (m Model) renderChat() string {
	chat := m.sess.ActiveChat()

	var b strings.Builder
	if len(chat.Messages) == 0 {
		b.WriteString(typingStyle.Render("Say hello to Eva."))
		b.WriteString("\n")
	}
	for _, msg := range chat.Messages {
		switch msg.Sender {
		case model.SenderUser:
			b.WriteString(userLabelStyle.Render("You"))
			b.WriteString("\n")
			b.WriteString(msg.Text)
			b.WriteString("\n\n")
		default:
			b.WriteString(assistantLabelStyle.Render("Eva"))
			b.WriteString("\n")
			b.WriteString(m.renderMarkdown(msg.Text))
			b.WriteString("\n\n")
		}
	}

	if m.sess.State(chat.ID) == store.StateSending {
		b.WriteString(typingStyle.Render(m.spinner.View() + " Eva is typing..."))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderMarkdown(text string) string {
	if m.renderer == nil {
		return text
	}
	out, err := m.renderer.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimSpace(out)
}

func (m Model) renderSidebar() string {
	active := m.sess.ActiveChatID()

	var b strings.Builder
	b.WriteString(titleStyle.Render("Chats"))
	b.WriteString("\n")
	for _, c := range m.sess.Chats() {
		label := c.Title
		if m.sess.State(c.ID) == store.StateSending {
			label = m.spinner.View() + label
		}
		if c.ID == active {
			b.WriteString(activeChatStyle.Render("> " + label))
		} else {
			b.WriteString(chatStyle.Render("  " + label))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// View renders the chat screen.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	sidebar := sidebarStyle.Height(m.viewport.Height + 1).Render(m.renderSidebar())
	pane := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(m.sess.ActiveChat().Title),
		m.viewport.View(),
	)

	status := m.keys.helpLine()
	if m.opts.ServerURL != "" {
		status = fmt.Sprintf("%s  |  %s", m.opts.ServerURL, status)
	}
	if m.lastErr != nil {
		status = errorStyle.Render(errorText(m.lastErr))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.JoinHorizontal(lipgloss.Top, sidebar, pane),
		inputStyle.Render(m.input.View()),
		statusStyle.Render(status),
	)
}

func errorText(err error) string {
	switch {
	case errors.Is(err, model.ErrInvalidInput):
		return "Message is empty."
	case errors.Is(err, model.ErrNotFound):
		return "That chat no longer exists."
	default:
		return err.Error()
	}
}
