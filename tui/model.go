// Package tui is the terminal chat client.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"ragdesk/models"
	"ragdesk/services/booking"
)

// ChatPort is the TUI-facing subset of the chat service.
type ChatPort interface {
	HandleMessage(ctx context.Context, sessionID, message string, progress booking.ProgressReporter) (*models.ChatReply, error)
}

type progressMsg struct {
	fraction float64
	label    string
	ch       <-chan progressMsg
}

type replyMsg struct {
	reply *models.ChatReply
	err   error
}

type line struct {
	role string
	text string
}

// Model is the Bubble Tea model for the chat.
type Model struct {
	ctx       context.Context
	service   ChatPort
	sessionID string
	input     textinput.Model
	viewport  viewport.Model
	lines     []line
	step      string
	status    string
	fraction  float64
	busy      bool
	ready     bool
}

// New creates a chat model. An empty sessionID is assigned by the first reply.
func New(ctx context.Context, service ChatPort, sessionID string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask about your documents, or ask to book an appointment"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{ctx: ctx, service: service, sessionID: sessionID, input: ti, viewport: vp, status: "Ready. Ctrl+C to quit."}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key, window and service events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, bh := transcriptBoxStyle.GetFrameSize()
		_, ih := inputBoxStyle.GetFrameSize()
		reserved := 2 + 1 + ih + 1 // header + step, status, input box, spacer
		m.viewport.Width = max(20, msg.Width-2)
		m.viewport.Height = max(3, msg.Height-reserved-bh)
		m.refresh()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		if msg.Type == tea.KeyEnter {
			text := strings.TrimSpace(m.input.Value())
			if text == "" || m.busy {
				return m, nil
			}
			m.input.SetValue("")
			m.lines = append(m.lines, line{role: models.RoleUser, text: text})
			m.busy = true
			m.fraction = 0
			m.status = "Thinking..."
			m.refresh()
			ch := make(chan progressMsg, 8)
			return m, tea.Batch(m.send(text, ch), waitProgress(ch))
		}
	case progressMsg:
		m.fraction = msg.fraction
		m.status = msg.label
		return m, waitProgress(msg.ch)
	case replyMsg:
		m.busy = false
		m.fraction = 0
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
			return m, nil
		}
		m.apply(msg.reply)
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) apply(r *models.ChatReply) {
	m.sessionID = r.SessionID
	m.lines = append(m.lines, line{role: models.RoleAssistant, text: r.Response})
	m.step = r.Booking.Progress
	switch {
	case r.Booking.Complete && r.Booking.Receipt != nil:
		m.status = "Booked: " + r.Booking.Receipt.ReferenceID
	case len(r.Sources) > 0:
		m.status = fmt.Sprintf("Answered from %d passages", len(r.Sources))
	default:
		m.status = "Ready."
	}
	m.refresh()
}

// send runs one message through the service; progress goes to ch, which is closed afterwards.
func (m Model) send(text string, ch chan progressMsg) tea.Cmd {
	ctx, svc, sessionID := m.ctx, m.service, m.sessionID
	return func() tea.Msg {
		defer close(ch)
		progress := booking.ProgressFunc(func(fraction float64, label string) {
			select {
			case ch <- progressMsg{fraction: fraction, label: label, ch: ch}:
			default:
			}
		})
		reply, err := svc.HandleMessage(ctx, sessionID, text, progress)
		return replyMsg{reply: reply, err: err}
	}
}

func waitProgress(ch <-chan progressMsg) tea.Cmd {
	return func() tea.Msg {
		p, ok := <-ch
		if !ok {
			return nil
		}
		return p
	}
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
}

// View renders the transcript, booking step, input box and status line.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := headerStyle.Render("ragdesk")
	if m.sessionID != "" {
		header += " " + dimStyle.Render("session "+m.sessionID)
	}
	step := dimStyle.Render("No booking in progress")
	if m.step != "" {
		step = stepStyle.Render("📋 " + m.step)
	}
	status := statusStyle.Render(m.status)
	if m.busy && m.fraction > 0 {
		status = progressBar(m.fraction, 20) + " " + status
	}
	return header + "\n" + step + "\n" +
		transcriptBoxStyle.Render(m.viewport.View()) + "\n" +
		inputBoxStyle.Render(m.input.View()) + "\n" + status
}

func (m Model) renderTranscript() string {
	if len(m.lines) == 0 {
		return dimStyle.Render("No messages yet.")
	}
	width := m.viewport.Width
	if width <= 0 {
		width = 80
	}
	parts := make([]string, 0, len(m.lines))
	for _, l := range m.lines {
		if l.role == models.RoleUser {
			parts = append(parts, userStyle.Render("🧑 You: ")+lipgloss.NewStyle().Width(width-8).Render(l.text))
		} else {
			parts = append(parts, botStyle.Render("🤖 AI: ")+lipgloss.NewStyle().Width(width-8).Render(l.text))
		}
	}
	return strings.Join(parts, "\n\n")
}

func progressBar(fraction float64, width int) string {
	filled := int(fraction * float64(width))
	if filled > width {
		filled = width
	}
	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", width-filled) + "]"
}

var (
	headerStyle        = lipgloss.NewStyle().Bold(true)
	dimStyle           = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	stepStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("13")).Bold(true)
	statusStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	userStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	botStyle           = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	transcriptBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputBoxStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)
