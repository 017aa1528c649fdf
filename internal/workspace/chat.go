package workspace

import (
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/lexi/internal/apperr"
	"github.com/lexi/internal/prompts"
	"github.com/lexi/pkg/models"
)

// Conversation is the in-memory transcript about one analysis result. It
// opens with the assistant greeting; every user turn is followed by exactly
// one assistant reply, an apology when the call failed.
type Conversation struct {
	analysis models.AnalysisResult
	messages []models.ChatMessage
	request  Request
}

// NewConversation starts a transcript grounded in analysis
func NewConversation(analysis models.AnalysisResult) *Conversation {
	return &Conversation{
		analysis: analysis,
		messages: []models.ChatMessage{{Role: models.RoleAssistant, Text: prompts.ChatGreeting}},
	}
}

// BeginTurn appends the user's message and returns the history that preceded it
func (c *Conversation) BeginTurn(text string) (history []models.ChatMessage, err error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperr.Validation("chat", "Please type a question.", apperr.ErrEmptyInput)
	}
	if err := c.request.Begin(); err != nil {
		return nil, err
	}
	history = c.Messages()
	c.messages = append(c.messages, models.ChatMessage{Role: models.RoleUser, Text: text})
	return history, nil
}

// CompleteTurn appends the assistant reply, or the apology when err is set
func (c *Conversation) CompleteTurn(reply string, err error) models.ChatMessage {
	c.request.Finish(err)
	msg := models.ChatMessage{Role: models.RoleAssistant, Text: reply}
	if err != nil {
		log.Warn().Err(err).Msg("Chat turn failed")
		msg.Text = prompts.ChatApology
	}
	c.messages = append(c.messages, msg)
	return msg
}

// Messages returns a copy of the transcript in order
func (c *Conversation) Messages() []models.ChatMessage {
	return append([]models.ChatMessage(nil), c.messages...)
}

func (c *Conversation) Analysis() models.AnalysisResult { return c.analysis }

func (c *Conversation) RequestState() RequestState { return c.request.State() }

// ChatView is the serializable transcript
type ChatView struct {
	Messages []models.ChatMessage `json:"messages"`
	Request  RequestState         `json:"request"`
	Error    string               `json:"error,omitempty"`
}

// View snapshots the conversation
func (c *Conversation) View() ChatView {
	v := ChatView{Messages: c.Messages(), Request: c.request.State()}
	if err := c.request.Err(); err != nil {
		v.Error = apperr.UserMessage(err)
	}
	return v
}
