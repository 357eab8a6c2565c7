package chat

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/lumenai/companion-api/internal/domain/billing"
	"github.com/lumenai/companion-api/internal/domain/wallet"
	"github.com/lumenai/companion-api/internal/pkg/aiprovider"
	"github.com/lumenai/companion-api/internal/pkg/errorhandler"
	"github.com/lumenai/companion-api/internal/pkg/logger"
)

const (
	maxMessageRunes = 2000
	contextTurns    = 20
)

// LLM produces the companion's reply.
type LLM interface {
	Chat(ctx context.Context, messages []aiprovider.Message) (string, error)
}

// Limiter throttles message sends per user.
type Limiter interface {
	Allow(ctx context.Context, userID uuid.UUID) bool
}

// Service handles chat business logic
type Service struct {
	repo    Repository
	llm     LLM
	biller  billing.Biller
	limiter Limiter
}

// NewService creates chat service
func NewService(repo Repository, llm LLM, biller billing.Biller, limiter Limiter) *Service {
	return &Service{repo: repo, llm: llm, biller: biller, limiter: limiter}
}

// SendMessage asks the agent for a reply and charges one coin once the reply
// exists. A user who cannot afford the message is stopped before the
// provider is called.
func (s *Service) SendMessage(ctx context.Context, userID uuid.UUID, agentID, content string) (*Exchange, error) {
	agent, ok := FindAgent(agentID)
	if !ok {
		return nil, ErrAgentNotFound
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyMessage
	}
	if utf8.RuneCountInString(content) > maxMessageRunes {
		return nil, ErrMessageTooLong
	}
	if s.limiter != nil && !s.limiter.Allow(ctx, userID) {
		return nil, ErrRateLimited
	}

	if err := s.biller.Preflight(ctx, userID.String(), billing.PriceMessage); err != nil {
		return nil, err
	}

	history, err := s.repo.ListRecent(ctx, userID, agent.ID, contextTurns, 0)
	if err != nil {
		return nil, err
	}

	reply, err := s.llm.Chat(ctx, buildPrompt(agent, history, content))
	if err != nil {
		errorhandler.LogExternalServiceError(ctx, "aiprovider", "chat", err)
		return nil, ErrProviderFailed
	}

	now := time.Now().UTC()
	userMsg := &Message{ID: uuid.New(), UserID: userID, AgentID: agent.ID, Role: RoleUser, Content: content, CreatedAt: now}
	botMsg := &Message{ID: uuid.New(), UserID: userID, AgentID: agent.ID, Role: RoleAssistant, Content: reply, CreatedAt: now.Add(time.Millisecond)}
	if err := s.repo.CreateMessages(ctx, userMsg, botMsg); err != nil {
		// The reply is still delivered and charged; only history is lost.
		logger.FromContext(ctx).Error().Err(err).
			Str("user_id", userID.String()).
			Str("agent_id", agent.ID).
			Msg("Failed to store chat messages")
	}

	charge := s.biller.ChargeAfterSuccess(ctx, userID.String(), billing.PriceMessage, wallet.ItemAIMessage, agent.ID)

	return &Exchange{UserMessage: userMsg, Reply: botMsg, Charge: charge}, nil
}

// History returns the conversation with an agent, newest first.
func (s *Service) History(ctx context.Context, userID uuid.UUID, agentID string, limit, offset int) ([]*Message, error) {
	if _, ok := FindAgent(agentID); !ok {
		return nil, ErrAgentNotFound
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListRecent(ctx, userID, agentID, limit, offset)
}

// Exchange is the outcome of one SendMessage.
type Exchange struct {
	UserMessage *Message
	Reply       *Message
	Charge      billing.Charge
}

// buildPrompt expects history newest first and emits it oldest first.
func buildPrompt(agent Agent, history []*Message, content string) []aiprovider.Message {
	msgs := make([]aiprovider.Message, 0, len(history)+2)
	msgs = append(msgs, aiprovider.Message{Role: "system", Content: agent.Persona})
	for i := len(history) - 1; i >= 0; i-- {
		msgs = append(msgs, aiprovider.Message{Role: string(history[i].Role), Content: history[i].Content})
	}
	return append(msgs, aiprovider.Message{Role: "user", Content: content})
}
