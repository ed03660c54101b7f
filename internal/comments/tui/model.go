// Package tui renders a discussion thread as an interactive terminal view:
// paginated comments, a reply composer and periodic refresh.
package tui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/bluniversal/comments/pkg/bsky"
)

const (
	initialVisible  = 3
	showMoreStep    = 5
	refreshInterval = 60 * time.Second

	replyCharLimit = 300
)

// Resolver maps a page to its discussion post URI.
type Resolver interface {
	Resolve(ctx context.Context, rawURL, title string) (string, error)
}

// Threads fetches threads and posts replies.
type Threads interface {
	Fetch(ctx context.Context, uri string) (*bsky.ThreadNode, error)
	Reply(ctx context.Context, text string, root, parent bsky.StrongRef) (string, error)
}

type resolvedMsg struct {
	uri string
	err error
}

type threadMsg struct {
	seq    int
	thread *bsky.ThreadNode
	err    error
}

type replyDoneMsg struct {
	err error
}

type tickMsg time.Time

// Model is the bubbletea model for the thread view.
type Model struct {
	resolver Resolver
	threads  Threads
	styles   Styles

	pageURL string
	title   string

	postURI string
	thread  *bsky.ThreadNode
	visible int

	// seq orders thread fetches; responses from superseded fetches are
	// discarded so a slow refresh never clobbers newer state.
	seq     int
	loading bool

	err    error
	status string

	composing bool
	input     textarea.Model

	viewport viewport.Model
	ready    bool
	width    int
	height   int
}

func New(resolver Resolver, threads Threads, pageURL, title string) Model {
	input := textarea.New()
	input.Placeholder = "Write a reply..."
	input.CharLimit = replyCharLimit
	input.SetHeight(4)
	input.ShowLineNumbers = false

	return Model{
		resolver: resolver,
		threads:  threads,
		styles:   DefaultStyles(),
		pageURL:  pageURL,
		title:    title,
		visible:  initialVisible,
		input:    input,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.resolveCmd(), tickCmd())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layoutViewport()
		m.refreshContent()
		return m, nil

	case resolvedMsg:
		if msg.err != nil {
			m.err = msg.err
			m.loading = false
			return m, nil
		}
		m.postURI = msg.uri
		return m, m.fetch()

	case threadMsg:
		if msg.seq != m.seq {
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.thread = msg.thread
		m.refreshContent()
		return m, nil

	case replyDoneMsg:
		if msg.err != nil {
			m.status = m.styles.Error.Render("reply failed: " + msg.err.Error())
			return m, nil
		}
		m.status = m.styles.Success.Render("reply posted")
		m.input.Reset()
		m.input.Blur()
		m.composing = false
		m.layoutViewport()
		return m, m.fetch()

	case tickMsg:
		var cmd tea.Cmd
		if m.postURI != "" && !m.composing && !m.loading {
			cmd = m.fetch()
		}
		return m, tea.Batch(cmd, tickCmd())

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.composing {
		switch msg.String() {
		case "esc":
			m.composing = false
			m.input.Blur()
			m.status = ""
			m.layoutViewport()
			return m, nil
		case "ctrl+s":
			text := strings.TrimSpace(m.input.Value())
			if text == "" {
				return m, nil
			}
			return m, m.replyCmd(text)
		case "ctrl+c":
			return m, tea.Quit
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "m":
		if m.hiddenTopLevel() > 0 {
			m.visible += showMoreStep
			m.refreshContent()
		}
		return m, nil
	case "r":
		if m.thread != nil {
			m.composing = true
			m.status = ""
			m.layoutViewport()
			return m, m.input.Focus()
		}
		return m, nil
	case "R":
		if m.postURI != "" {
			return m, m.fetch()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.styles.Header.Render(m.title))
	b.WriteString("\n")
	b.WriteString(m.styles.PageURL.Render(m.pageURL))
	b.WriteString("\n")
	b.WriteString(m.styles.Separator.Render(strings.Repeat("─", max(m.width, 20))))
	b.WriteString("\n")

	switch {
	case m.err != nil:
		b.WriteString(m.styles.Error.Render("error: " + m.err.Error()))
		b.WriteString("\n")
	case m.thread == nil:
		b.WriteString(m.styles.Muted.Render("Loading discussion..."))
		b.WriteString("\n")
	default:
		b.WriteString(m.viewport.View())
		b.WriteString("\n")
	}

	if m.composing {
		b.WriteString(m.input.View())
		b.WriteString("\n")
		b.WriteString(m.styles.Help.Render("ctrl+s send · esc cancel"))
	} else {
		b.WriteString(m.helpLine())
	}

	if m.status != "" {
		b.WriteString("\n")
		b.WriteString(m.status)
	}

	return b.String()
}

func (m Model) helpLine() string {
	parts := []string{"q quit", "r reply", "R refresh"}
	if m.hiddenTopLevel() > 0 {
		parts = append(parts, "m show more")
	}
	return m.styles.Help.Render(strings.Join(parts, " · "))
}

// hiddenTopLevel counts top-level replies beyond the visible window. The
// show-more control disappears once it reaches zero.
func (m Model) hiddenTopLevel() int {
	if m.thread == nil {
		return 0
	}
	hidden := len(m.thread.Replies) - m.visible
	if hidden < 0 {
		return 0
	}
	return hidden
}

func (m *Model) layoutViewport() {
	if m.width == 0 || m.height == 0 {
		return
	}
	chrome := 5 // header + url + separator + help + status
	if m.composing {
		chrome += m.input.Height() + 1
	}
	h := m.height - chrome
	if h < 3 {
		h = 3
	}
	if !m.ready {
		m.viewport = viewport.New(m.width, h)
		m.ready = true
		return
	}
	m.viewport.Width = m.width
	m.viewport.Height = h
}

func (m *Model) refreshContent() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(renderThread(m.thread, m.visible, m.width, m.styles))
}

// fetch starts a thread fetch under a new sequence number, superseding any
// fetch still in flight.
func (m *Model) fetch() tea.Cmd {
	m.seq++
	m.loading = true
	seq := m.seq
	uri := m.postURI
	threads := m.threads
	return func() tea.Msg {
		thread, err := threads.Fetch(context.Background(), uri)
		return threadMsg{seq: seq, thread: thread, err: err}
	}
}

func (m Model) resolveCmd() tea.Cmd {
	resolver := m.resolver
	pageURL, title := m.pageURL, m.title
	return func() tea.Msg {
		uri, err := resolver.Resolve(context.Background(), pageURL, title)
		return resolvedMsg{uri: uri, err: err}
	}
}

func (m Model) replyCmd(text string) tea.Cmd {
	threads := m.threads
	root := m.thread.Ref()
	return func() tea.Msg {
		_, err := threads.Reply(context.Background(), text, root, root)
		return replyDoneMsg{err: err}
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
