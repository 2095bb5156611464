// Package ui renders a reader session in the terminal: the current page
// with the spoken word highlighted, a status bar, and playback key bindings.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/reflow/wordwrap"

	"github.com/voxpage/voxpage/reader"
)

const eventBuffer = 64

// Model is the bubbletea model wrapping one reader session.
type Model struct {
	session *reader.Session
	title   string
	events  chan tea.Msg

	width  int
	height int

	page      int
	state     reader.State
	highlight int
	lastErr   string
	spin      spinner.Model
}

// NewEvents returns the buffered channel that carries session events into
// the model. Create it first, wire it into the session config via
// Callbacks, then hand both to New.
func NewEvents() chan tea.Msg {
	return make(chan tea.Msg, eventBuffer)
}

// New builds a model over the session.
func New(session *reader.Session, title string, events chan tea.Msg) Model {
	return Model{
		session:   session,
		title:     title,
		events:    events,
		page:      session.CurrentPage(),
		state:     session.State(),
		highlight: -1,
		spin:      spinner.New(spinner.WithSpinner(spinner.Dot)),
	}
}

// Callbacks returns the session callbacks that feed this model. Pass them in
// the session config before wiring the model with New.
//
// Session callbacks fire on internal goroutines and must return fast, so
// they only enqueue; a full channel drops the event rather than blocking
// playback, and the next event restores the view.
func Callbacks(events chan<- tea.Msg) reader.Callbacks {
	push := func(msg tea.Msg) {
		select {
		case events <- msg:
		default:
		}
	}
	return reader.Callbacks{
		OnState: func(st reader.State) { push(StateChangedMsg{State: st}) },
		OnWord:  func(i int) { push(WordChangedMsg{Index: i}) },
		OnPage:  func(p int) { push(PageChangedMsg{Page: p}) },
		OnError: func(err error) { push(SessionErrorMsg{Err: err}) },
	}
}

// CurrentPage returns the page the reader was on, for saving progress.
func (m Model) CurrentPage() int {
	return m.page
}

func (m Model) Init() tea.Cmd {
	return waitForEvent(m.events)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case StateChangedMsg:
		m.state = msg.State
		if msg.State.Active() {
			m.lastErr = ""
		}
		if msg.State == reader.StateFetching {
			return m, tea.Batch(waitForEvent(m.events), m.spin.Tick)
		}
		return m, waitForEvent(m.events)

	case spinner.TickMsg:
		if m.state != reader.StateFetching {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case WordChangedMsg:
		m.highlight = msg.Index
		return m, waitForEvent(m.events)

	case PageChangedMsg:
		m.page = msg.Page
		m.highlight = -1
		return m, waitForEvent(m.events)

	case SessionErrorMsg:
		m.lastErr = msg.Err.Error()
		return m, waitForEvent(m.events)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.session.Close()
		return m, tea.Quit
	case " ":
		m.session.TogglePlay()
	case "right", "l":
		m.session.Navigate(1)
	case "left", "h":
		m.session.Navigate(-1)
	case "v":
		m.session.SetVoice(m.session.CurrentVoice().Next())
	case "a":
		m.session.ToggleAutoPlay()
	case "+", "=":
		m.session.SetVolume(m.session.Volume() + 0.1)
	case "-":
		m.session.SetVolume(m.session.Volume() - 0.1)
	}
	return m, nil
}

func (m Model) View() string {
	if m.width == 0 {
		return "\n  loading..."
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(m.title))
	b.WriteString("\n\n")
	b.WriteString(pageStyle.Render(m.renderPage()))
	b.WriteString("\n\n")
	b.WriteString(m.renderStatusBar())
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("space play/stop · ←/→ page · v voice · a autoplay · +/- volume · q quit"))
	return b.String()
}

// renderPage renders the current page's paragraphs, highlighting the spoken
// word. Word indices run continuously across paragraphs.
func (m Model) renderPage() string {
	page := m.session.Page(m.page)
	if page.Empty() {
		return helpStyle.Render("(this page has no text)")
	}

	wrapWidth := m.width - 6
	if wrapWidth < 20 {
		wrapWidth = 20
	}

	var (
		paras []string
		idx   int
	)
	for _, para := range page.Paragraphs {
		words := make([]string, len(para))
		for i, w := range para {
			if idx == m.highlight {
				words[i] = highlightStyle.Render(w)
			} else {
				words[i] = w
			}
			idx++
		}
		paras = append(paras, wordwrap.String(strings.Join(words, " "), wrapWidth))
	}
	return strings.Join(paras, "\n\n")
}

func (m Model) renderStatusBar() string {
	icon := stateIcon(m.state)
	if m.state == reader.StateFetching {
		icon = m.spin.View()
	}
	parts := []string{
		fmt.Sprintf("%s %s", icon, m.state),
		fmt.Sprintf("page %d/%d", m.page+1, m.session.PageCount()),
		fmt.Sprintf("voice %s", m.session.CurrentVoice()),
		fmt.Sprintf("autoplay %s", onOff(m.session.AutoPlay())),
		fmt.Sprintf("vol %d%%", int(m.session.Volume()*100)),
	}
	bar := statusBarStyle.Render(strings.Join(parts, "  │  "))

	if m.lastErr != "" {
		errText := truncate.StringWithTail(m.lastErr, uint(max(m.width/3, 20)), "…")
		bar = lipgloss.JoinHorizontal(lipgloss.Top, bar, statusErrStyle.Render("✗ "+errText))
	}
	return bar
}

func stateIcon(st reader.State) string {
	switch st {
	case reader.StatePlaying:
		return "▶"
	case reader.StateFetching:
		return "⟳"
	case reader.StateStopped:
		return "■"
	default:
		return "○"
	}
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}
