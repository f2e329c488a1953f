package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/retriva/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/retriva/internal/core/domain"
	"github.com/custodia-labs/retriva/internal/core/ports/driving"
)

type stubQueryService struct {
	answer  *domain.GeneratedAnswer
	err     error
	lastAsk driving.AskRequest
}

func (s *stubQueryService) Ask(_ context.Context, req driving.AskRequest) (*domain.GeneratedAnswer, error) {
	s.lastAsk = req
	return s.answer, s.err
}

func (s *stubQueryService) Search(_ context.Context, _ domain.Query) (*domain.RetrievalResult, error) {
	return &domain.RetrievalResult{}, nil
}

func (s *stubQueryService) Quiz(_ context.Context, _ string, _ int) (*domain.Quiz, error) {
	return nil, errors.New("not implemented")
}

type stubStatusService struct {
	status *driving.SystemStatus
	err    error
}

func (s *stubStatusService) Status(_ context.Context) (*driving.SystemStatus, error) {
	return s.status, s.err
}

func newTestChat(t *testing.T, query driving.QueryService) *Chat {
	t.Helper()
	chat, err := NewChat(&Ports{Query: query})
	require.NoError(t, err)

	model, _ := chat.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	return model.(*Chat)
}

func sendKeys(c *Chat, keys string) *Chat {
	for _, r := range keys {
		model, _ := c.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		c = model.(*Chat)
	}
	return c
}

func TestNewChat(t *testing.T) {
	t.Run("nil query service returns error", func(t *testing.T) {
		chat, err := NewChat(&Ports{})
		require.Error(t, err)
		assert.Nil(t, chat)
		assert.ErrorIs(t, err, ErrMissingQueryService)
	})

	t.Run("valid ports creates chat", func(t *testing.T) {
		chat, err := NewChat(&Ports{Query: &stubQueryService{}})
		require.NoError(t, err)
		assert.NotNil(t, chat)
	})
}

func TestChat_SendMessage(t *testing.T) {
	query := &stubQueryService{
		answer: &domain.GeneratedAnswer{
			Text:      "Light becomes sugar.",
			Citations: []string{"chunk-1"},
		},
	}
	chat := newTestChat(t, query)
	chat = sendKeys(chat, "what is photosynthesis")

	model, cmd := chat.Update(tea.KeyMsg{Type: tea.KeyEnter})
	chat = model.(*Chat)
	require.NotNil(t, cmd)
	assert.True(t, chat.waiting)
	require.Len(t, chat.turns, 1)
	assert.Equal(t, "what is photosynthesis", chat.turns[0].question)
	assert.Empty(t, chat.input.Value())

	// Run the command and feed the result back, as Bubbletea would.
	msg := cmd()
	answerMsg, ok := msg.(messages.AnswerReceived)
	require.True(t, ok)
	model, _ = chat.Update(answerMsg)
	chat = model.(*Chat)

	assert.False(t, chat.waiting)
	require.NotNil(t, chat.turns[0].answer)
	assert.Equal(t, "Light becomes sugar.", chat.turns[0].answer.Text)
	assert.Equal(t, "what is photosynthesis", query.lastAsk.Text)
	assert.True(t, query.lastAsk.UseCache)

	view := chat.View()
	assert.Contains(t, view, "Light becomes sugar.")
	assert.Contains(t, view, "chunk-1")
}

func TestChat_EmptyMessageIgnored(t *testing.T) {
	chat := newTestChat(t, &stubQueryService{})

	model, cmd := chat.Update(tea.KeyMsg{Type: tea.KeyEnter})
	chat = model.(*Chat)
	assert.Nil(t, cmd)
	assert.Empty(t, chat.turns)
	assert.False(t, chat.waiting)
}

func TestChat_AnswerErrorShownInTranscript(t *testing.T) {
	query := &stubQueryService{err: errors.New("llm unavailable")}
	chat := newTestChat(t, query)
	chat = sendKeys(chat, "hello")

	model, cmd := chat.Update(tea.KeyMsg{Type: tea.KeyEnter})
	chat = model.(*Chat)
	require.NotNil(t, cmd)

	model, _ = chat.Update(cmd().(messages.AnswerReceived))
	chat = model.(*Chat)

	assert.False(t, chat.waiting)
	require.Len(t, chat.turns, 1)
	require.Error(t, chat.turns[0].err)
	assert.Contains(t, chat.View(), "llm unavailable")
}

func TestChat_SendIgnoredWhileWaiting(t *testing.T) {
	chat := newTestChat(t, &stubQueryService{answer: &domain.GeneratedAnswer{}})
	chat = sendKeys(chat, "first")

	model, _ := chat.Update(tea.KeyMsg{Type: tea.KeyEnter})
	chat = model.(*Chat)
	require.True(t, chat.waiting)

	chat = sendKeys(chat, "second")
	model, cmd := chat.Update(tea.KeyMsg{Type: tea.KeyEnter})
	chat = model.(*Chat)
	assert.Nil(t, cmd)
	assert.Len(t, chat.turns, 1)
}

func TestChat_ClearResetsConversation(t *testing.T) {
	chat := newTestChat(t, &stubQueryService{answer: &domain.GeneratedAnswer{Text: "hi"}})
	chat = sendKeys(chat, "hello")
	model, cmd := chat.Update(tea.KeyMsg{Type: tea.KeyEnter})
	chat = model.(*Chat)
	model, _ = chat.Update(cmd().(messages.AnswerReceived))
	chat = model.(*Chat)
	require.Len(t, chat.turns, 1)

	model, _ = chat.Update(tea.KeyMsg{Type: tea.KeyCtrlL})
	chat = model.(*Chat)
	assert.Empty(t, chat.turns)
}

func TestChat_QuitKeys(t *testing.T) {
	for _, keyType := range []tea.KeyType{tea.KeyEsc, tea.KeyCtrlC} {
		chat := newTestChat(t, &stubQueryService{})
		_, cmd := chat.Update(tea.KeyMsg{Type: keyType})
		require.NotNil(t, cmd)
		assert.Equal(t, tea.Quit(), cmd())
	}
}

func TestChat_StatusLine(t *testing.T) {
	t.Run("loads status on init", func(t *testing.T) {
		status := &stubStatusService{
			status: &driving.SystemStatus{
				EmbeddingConfigured: true,
				EmbeddingReachable:  true,
				EmbeddingModel:      "nomic-embed-text",
				LLMConfigured:       true,
				LLMReachable:        true,
				LLMModel:            "llama3.2",
				IndexEntries:        10,
				IndexVersion:        3,
				Documents:           2,
			},
		}
		chat, err := NewChat(&Ports{Query: &stubQueryService{}, Status: status})
		require.NoError(t, err)

		cmds := chat.Init()
		require.NotNil(t, cmds)

		model, _ := chat.Update(messages.StatusLoaded{Status: status.status})
		chat = model.(*Chat)
		model, _ = chat.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
		chat = model.(*Chat)

		view := chat.View()
		assert.Contains(t, view, "nomic-embed-text")
		assert.Contains(t, view, "llama3.2")
		assert.Contains(t, view, "index v3")
	})

	t.Run("unreachable provider is flagged", func(t *testing.T) {
		line := formatStatus(&driving.SystemStatus{
			EmbeddingConfigured: true,
			EmbeddingModel:      "text-embedding-004",
			LLMConfigured:       true,
			LLMReachable:        true,
			LLMModel:            "gemini-2.0-flash",
		}, nil)
		assert.Contains(t, line, "text-embedding-004 (unreachable)")
		assert.NotContains(t, line, "gemini-2.0-flash (unreachable)")
	})

	t.Run("status error is non-fatal", func(t *testing.T) {
		assert.Equal(t, "status unavailable", formatStatus(nil, errors.New("boom")))
	})
}
