package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/retriva/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/retriva/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/retriva/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/retriva/internal/core/domain"
	"github.com/custodia-labs/retriva/internal/core/ports/driving"
)

// turn is one question/answer exchange in the transcript.
type turn struct {
	question string
	answer   *domain.GeneratedAnswer
	err      error
}

// Chat is the terminal chat application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type Chat struct {
	// ports provides access to core services via driving ports.
	ports *Ports

	// ctx is the context for cancellation.
	ctx context.Context

	// styles holds the TUI styles.
	styles *styles.Styles

	// keymap holds the keybindings.
	keymap *keymap.KeyMap

	// input is the message input field.
	input textinput.Model

	// turns is the conversation transcript.
	turns []turn

	// waiting is true while an answer is being generated.
	waiting bool

	// statusLine summarises provider and index health.
	statusLine string

	// scrollOffset is the first transcript line shown.
	scrollOffset int

	// width and height are terminal dimensions.
	width  int
	height int

	// ready indicates if the app has initialised.
	ready bool
}

// Ensure Chat implements tea.Model.
var _ tea.Model = (*Chat)(nil)

// NewChat creates a new chat application with the given ports.
func NewChat(ports *Ports) (*Chat, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating chat: %w", err)
	}

	ti := textinput.New()
	ti.Placeholder = "Ask a question..."
	ti.Focus()
	ti.CharLimit = 512
	ti.Width = 60

	return &Chat{
		ports:      ports,
		ctx:        context.Background(),
		styles:     styles.DefaultStyles(),
		keymap:     keymap.DefaultKeyMap(),
		input:      ti,
		statusLine: "retriva",
		width:      80,
		height:     24,
	}, nil
}

// WithContext sets the context used for question answering.
func (c *Chat) WithContext(ctx context.Context) *Chat {
	c.ctx = ctx
	return c
}

// Init initialises the chat application.
func (c *Chat) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, c.loadStatus())
}

// Update handles messages following the Elm architecture.
func (c *Chat) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		c.width = msg.Width
		c.height = msg.Height
		c.input.Width = max(20, msg.Width-6)
		c.ready = true
		c.scrollToBottom()
		return c, nil

	case tea.KeyMsg:
		return c.handleKeyMsg(msg)

	case messages.AnswerReceived:
		c.waiting = false
		if len(c.turns) > 0 {
			last := &c.turns[len(c.turns)-1]
			last.answer = msg.Answer
			last.err = msg.Err
		}
		c.scrollToBottom()
		return c, nil

	case messages.StatusLoaded:
		c.statusLine = formatStatus(msg.Status, msg.Err)
		return c, nil
	}

	var cmd tea.Cmd
	c.input, cmd = c.input.Update(msg)
	return c, cmd
}

// handleKeyMsg processes keyboard input.
func (c *Chat) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, c.keymap.Quit):
		return c, tea.Quit

	case key.Matches(msg, c.keymap.Clear):
		c.turns = nil
		c.scrollOffset = 0
		c.input.SetValue("")
		return c, nil

	case key.Matches(msg, c.keymap.ScrollUp):
		c.scrollOffset = max(0, c.scrollOffset-c.transcriptHeight()/2)
		return c, nil

	case key.Matches(msg, c.keymap.ScrollDown):
		c.scrollOffset = min(c.maxScroll(), c.scrollOffset+c.transcriptHeight()/2)
		return c, nil

	case key.Matches(msg, c.keymap.Send):
		if c.waiting {
			return c, nil
		}
		question := strings.TrimSpace(c.input.Value())
		if question == "" {
			return c, nil
		}
		c.turns = append(c.turns, turn{question: question})
		c.waiting = true
		c.input.SetValue("")
		c.scrollToBottom()
		return c, c.ask(question)
	}

	var cmd tea.Cmd
	c.input, cmd = c.input.Update(msg)
	return c, cmd
}

// ask returns a command that generates an answer for the question.
func (c *Chat) ask(question string) tea.Cmd {
	return func() tea.Msg {
		answer, err := c.ports.Query.Ask(c.ctx, driving.AskRequest{
			Text:     question,
			UseCache: true,
		})
		return messages.AnswerReceived{Answer: answer, Err: err}
	}
}

// loadStatus returns a command that fetches the system status.
func (c *Chat) loadStatus() tea.Cmd {
	if c.ports.Status == nil {
		return nil
	}
	return func() tea.Msg {
		status, err := c.ports.Status.Status(c.ctx)
		return messages.StatusLoaded{Status: status, Err: err}
	}
}

// View renders the chat application.
func (c *Chat) View() string {
	if !c.ready {
		return "Loading..."
	}

	var b strings.Builder

	b.WriteString(c.styles.Title.Render("Retriva Chat"))
	b.WriteString("\n")
	b.WriteString(c.styles.StatusBar.Render(c.statusLine))
	b.WriteString("\n\n")

	lines := c.transcriptLines()
	height := c.transcriptHeight()
	start := min(c.scrollOffset, c.maxScroll())
	end := min(len(lines), start+height)
	for i := start; i < end; i++ {
		b.WriteString(lines[i])
		b.WriteString("\n")
	}
	for i := end - start; i < height; i++ {
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(c.styles.InputField.Render(c.input.View()))
	b.WriteString("\n")
	b.WriteString(c.styles.Help.Render("enter send · ctrl+l clear · pgup/pgdn scroll · esc quit"))

	return b.String()
}

// transcriptLines renders the conversation as wrapped lines.
func (c *Chat) transcriptLines() []string {
	wrapWidth := max(20, c.width-4)
	wrap := lipgloss.NewStyle().Width(wrapWidth)

	var lines []string
	for i := range c.turns {
		t := &c.turns[i]
		lines = append(lines,
			strings.Split(wrap.Render(c.styles.UserLabel.Render("You: ")+t.question), "\n")...)

		switch {
		case t.err != nil:
			lines = append(lines,
				strings.Split(wrap.Render(c.styles.Error.Render("Error: "+t.err.Error())), "\n")...)
		case t.answer != nil:
			lines = append(lines,
				strings.Split(wrap.Render(c.styles.AssistantLabel.Render("Retriva: ")+t.answer.Text), "\n")...)
			if len(t.answer.Citations) > 0 {
				citation := "Sources: " + strings.Join(t.answer.Citations, ", ")
				lines = append(lines,
					strings.Split(wrap.Render(c.styles.Citation.Render(citation)), "\n")...)
			}
		default:
			lines = append(lines, c.styles.Muted.Render("Thinking..."))
		}
		lines = append(lines, "")
	}
	return lines
}

// transcriptHeight is the number of transcript lines that fit on screen.
func (c *Chat) transcriptHeight() int {
	// Title, status, input box, and help take the rest.
	return max(3, c.height-9)
}

// maxScroll is the largest useful scroll offset.
func (c *Chat) maxScroll() int {
	return max(0, len(c.transcriptLines())-c.transcriptHeight())
}

// scrollToBottom pins the view to the latest exchange.
func (c *Chat) scrollToBottom() {
	c.scrollOffset = c.maxScroll()
}

// formatStatus builds the status bar line from the system status.
func formatStatus(status *driving.SystemStatus, err error) string {
	if err != nil || status == nil {
		return "status unavailable"
	}

	embed := "embedding: not configured"
	if status.EmbeddingConfigured {
		embed = "embedding: " + status.EmbeddingModel
		if !status.EmbeddingReachable {
			embed += " (unreachable)"
		}
	}

	llm := "llm: not configured"
	if status.LLMConfigured {
		llm = "llm: " + status.LLMModel
		if !status.LLMReachable {
			llm += " (unreachable)"
		}
	}

	return fmt.Sprintf("%s · %s · %d docs, %d chunks (index v%d)",
		embed, llm, status.Documents, status.IndexEntries, status.IndexVersion)
}
