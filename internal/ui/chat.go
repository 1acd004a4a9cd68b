// Package ui is the interactive chat view: one riffsync session rendered
// with bubbletea. Terminal focus and blur map onto the engine's visibility
// signal, so polling pauses while the window is in the background.
package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/riffdeck/cli/internal/api"
	"github.com/riffdeck/cli/internal/logger"
	"github.com/riffdeck/cli/internal/riffsync"
	"github.com/riffdeck/cli/internal/store"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	pausedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	userStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Bold(true)
	agentStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

type (
	refreshMsg struct{}
	startedMsg struct{}
	sendDone   struct {
		text string
		err  error
	}
)

type Model struct {
	session *riffsync.Session
	focus   *riffsync.FocusSignal
	cache   *store.Store // nil when the local cache is unavailable
	appSlug string
	riffID  string

	viewport viewport.Model
	input    textarea.Model
	spin     spinner.Model

	width, height int
	ready         bool
	sendErr       error
	lastMirrored  int
}

func NewModel(session *riffsync.Session, focus *riffsync.FocusSignal, cache *store.Store, appSlug, riffID string) Model {
	input := textarea.New()
	input.Placeholder = "Say something..."
	input.SetHeight(2)
	input.CharLimit = 4000
	input.ShowLineNumbers = false
	input.Focus()

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	return Model{
		session: session,
		focus:   focus,
		cache:   cache,
		appSlug: appSlug,
		riffID:  riffID,
		input:   input,
		spin:    spin,
	}
}

// Run wires a session to a bubbletea program and blocks until the user
// quits. The session's OnChange must already be routed to the returned
// program via Notifier.
func Run(session *riffsync.Session, focus *riffsync.FocusSignal, cache *store.Store, appSlug, riffID string) error {
	m := NewModel(session, focus, cache, appSlug, riffID)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithReportFocus())
	notifier.p = p
	defer session.Close()
	_, err := p.Run()
	return err
}

// notifier forwards engine change notifications into the program's
// message loop. Set up before Run starts the program; Send on an
// un-started program is safe and queued.
var notifier programNotifier

type programNotifier struct {
	p *tea.Program
}

// Notify is the riffsync.Options.OnChange hook.
func Notify() {
	if notifier.p != nil {
		notifier.p.Send(refreshMsg{})
	}
}

func (m Model) Init() tea.Cmd {
	start := func() tea.Msg {
		m.session.Start(context.Background())
		return startedMsg{}
	}
	return tea.Batch(start, m.spin.Tick, textarea.Blink)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		vpHeight := msg.Height - m.input.Height() - 4
		if vpHeight < 1 {
			vpHeight = 1
		}
		if !m.ready {
			m.viewport = viewport.New(msg.Width, vpHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = vpHeight
		}
		m.input.SetWidth(msg.Width - 2)
		m.refresh()

	case tea.FocusMsg:
		m.focus.Set(true)

	case tea.BlurMsg:
		m.focus.Set(false)

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			text := m.input.Value()
			if strings.TrimSpace(text) == "" {
				return m, nil
			}
			m.input.Reset()
			m.sendErr = nil
			session := m.session
			cmds = append(cmds, func() tea.Msg {
				return sendDone{text: text, err: session.Send(context.Background(), text)}
			})
			// Skip the textarea update so enter does not leave a newline
			// in the freshly cleared input.
			return m, tea.Batch(cmds...)
		}

	case startedMsg, refreshMsg:
		m.refresh()

	case sendDone:
		if msg.err != nil {
			// Give the text back so the user can retry or edit.
			m.sendErr = msg.err
			m.input.SetValue(msg.text)
		}
		m.refresh()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		cmds = append(cmds, cmd)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// refresh re-renders the transcript from a fresh snapshot and mirrors it
// into the local cache when it grew.
func (m *Model) refresh() {
	if !m.ready {
		return
	}
	st := m.session.Snapshot()
	m.viewport.SetContent(renderTranscript(st.Messages, m.viewport.Width))
	m.viewport.GotoBottom()

	if m.cache != nil && st.Conversation != nil && len(st.Messages) != m.lastMirrored {
		m.lastMirrored = len(st.Messages)
		if err := m.cache.ReplaceTranscript(m.appSlug, m.riffID, st.Conversation.Name, st.Messages); err != nil {
			logger.Warn("mirror transcript", "riff", m.riffID, "error", err)
		}
	}
}

func (m Model) View() string {
	if !m.ready {
		return "loading..."
	}
	st := m.session.Snapshot()

	var b strings.Builder
	title := m.riffID
	if st.Conversation != nil && st.Conversation.Name != "" {
		title = st.Conversation.Name
	}
	b.WriteString(headerStyle.Render(fmt.Sprintf("%s / %s", m.appSlug, title)))
	if !st.Polling && !st.Loading {
		b.WriteString("  " + pausedStyle.Render("(paused)"))
	}
	b.WriteString("\n")

	b.WriteString(m.viewport.View())
	b.WriteString("\n")

	switch {
	case st.Loading:
		b.WriteString(m.spin.View() + " loading riff...\n")
	case st.Sending:
		b.WriteString(m.spin.View() + " sending...\n")
	case m.sendErr != nil:
		b.WriteString(errStyle.Render("send failed: "+m.sendErr.Error()) + "\n")
	case st.Err != nil:
		b.WriteString(errStyle.Render(st.Err.Error()) + "\n")
	default:
		b.WriteString("\n")
	}

	b.WriteString(m.input.View())
	b.WriteString("\n" + helpStyle.Render("enter: send • esc: quit"))
	return b.String()
}

func renderTranscript(msgs []api.Message, width int) string {
	if len(msgs) == 0 {
		return helpStyle.Render("no messages yet")
	}
	var b strings.Builder
	for i, msg := range msgs {
		if i > 0 {
			b.WriteString("\n")
		}
		label := agentStyle.Render("agent")
		if msg.Role == api.RoleUser {
			label = userStyle.Render("you")
		}
		ts := ""
		if !msg.Timestamp.IsZero() {
			ts = helpStyle.Render(" " + msg.Timestamp.Local().Format("15:04"))
		}
		b.WriteString(label + ts + "\n")
		b.WriteString(wrap(msg.Text(), width) + "\n")
	}
	return b.String()
}

func wrap(s string, width int) string {
	if width <= 0 {
		return s
	}
	return lipgloss.NewStyle().Width(width).Render(s)
}
