package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"orga/internal/chatbot"
	"orga/internal/domain"
	"orga/internal/metrics"
	"orga/internal/repository"
)

const upstreamErrorPrefix = "Failed to contact chatbot service: "

// ChatService persiste conversaciones y reenvia cada pregunta al chatbot externo.
type ChatService struct {
	logger        *zap.Logger
	tenants       repository.TenantRepository
	conversations repository.ConversationRepository
	messages      repository.MessageRepository
	usage         *UsageService
	bot           chatbot.Client
	tracer        trace.Tracer
	now           func() time.Time
}

func NewChatService(
	logger *zap.Logger,
	tenants repository.TenantRepository,
	conversations repository.ConversationRepository,
	messages repository.MessageRepository,
	usage *UsageService,
	bot chatbot.Client,
) *ChatService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatService{
		logger:        logger,
		tenants:       tenants,
		conversations: conversations,
		messages:      messages,
		usage:         usage,
		bot:           bot,
		tracer:        otel.Tracer("orga/chat"),
		now:           monotonicNow(),
	}
}

type AskInput struct {
	Message        string
	ConversationID string
}

type AskResult struct {
	Reply          string `json:"reply"`
	ConversationID string `json:"conversationId"`
}

// UpstreamError acompania a ErrUpstreamUnavailable con la conversacion afectada.
type UpstreamError struct {
	ConversationID string
	Message        string
	Err            error
}

func (e *UpstreamError) Error() string { return e.Message }

func (e *UpstreamError) Unwrap() []error { return []error{ErrUpstreamUnavailable, e.Err} }

type ConversationDetail struct {
	domain.Conversation
	Messages []domain.Message `json:"messages"`
}

// Ask agrega la pregunta a la conversacion, consulta al chatbot y guarda la respuesta.
// Si el chatbot falla, la conversacion igual queda con el mensaje del usuario y un
// mensaje BOT describiendo el error, y se devuelve un *UpstreamError.
func (s *ChatService) Ask(ctx context.Context, p domain.Principal, input AskInput) (AskResult, error) {
	ctx, span := s.tracer.Start(ctx, "chat.ask", trace.WithAttributes(
		attribute.String("tenant.id", p.TenantID),
		attribute.String("user.id", p.UserID),
	))
	defer span.End()

	question := strings.TrimSpace(input.Message)
	if question == "" {
		return AskResult{}, validationError("message is required")
	}

	if err := s.checkTenant(ctx, p); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return AskResult{}, err
	}

	conv, history, err := s.prepareConversation(ctx, p, input.ConversationID, question)
	if err != nil {
		return AskResult{}, err
	}
	span.SetAttributes(attribute.String("conversation.id", conv.ID), attribute.Int("history.len", len(history)))

	if err := s.appendMessage(ctx, conv.ID, question, domain.MessageRoleUser); err != nil {
		return AskResult{}, err
	}

	// Con el mensaje del usuario guardado, la respuesta (o el error) se persiste
	// aunque el cliente corte; el chatbot sigue acotado por los timeouts del cliente HTTP.
	ctx = context.WithoutCancel(ctx)

	start := time.Now()
	reply, botErr := s.callBot(ctx, question, history)
	metrics.ObserveChatbotCall(start, botErr)
	if botErr != nil {
		errMsg := upstreamErrorPrefix + botErr.Error()
		s.logger.Error("chatbot call failed", zap.String("conversation_id", conv.ID), zap.Error(botErr))
		span.RecordError(botErr)
		span.SetStatus(codes.Error, "chatbot unavailable")
		if err := s.appendMessage(ctx, conv.ID, errMsg, domain.MessageRoleBot); err != nil {
			return AskResult{}, err
		}
		return AskResult{ConversationID: conv.ID}, &UpstreamError{ConversationID: conv.ID, Message: errMsg, Err: botErr}
	}

	if err := s.appendMessage(ctx, conv.ID, reply, domain.MessageRoleBot); err != nil {
		return AskResult{}, err
	}
	return AskResult{Reply: reply, ConversationID: conv.ID}, nil
}

func (s *ChatService) checkTenant(ctx context.Context, p domain.Principal) error {
	tenant, err := s.tenants.GetByID(ctx, p.TenantID)
	if err != nil {
		return notFound(err, "tenant")
	}
	if !tenant.IsActive {
		return ErrTenantInactive
	}
	ok, err := s.usage.WithinLimits(ctx, tenant)
	if err != nil {
		return err
	}
	if !ok {
		metrics.UsageLimitRejectionsTotal.WithLabelValues("messages").Inc()
		return fmt.Errorf("%w: max %d messages per month", ErrMessageLimitReached, tenant.MaxMessagesPerMonth)
	}
	return nil
}

// prepareConversation carga (acotada al usuario) o crea la conversacion y arma el historial previo.
func (s *ChatService) prepareConversation(ctx context.Context, p domain.Principal, conversationID, question string) (domain.Conversation, []chatbot.HistoryEntry, error) {
	if conversationID == "" {
		now := s.now()
		conv := domain.Conversation{
			ID:        uuid.NewString(),
			UserID:    p.UserID,
			Title:     domain.TitleFromMessage(question),
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.conversations.Create(ctx, conv); err != nil {
			return domain.Conversation{}, nil, err
		}
		return conv, nil, nil
	}

	conv, err := s.conversations.GetForUser(ctx, conversationID, p.UserID)
	if err != nil {
		return domain.Conversation{}, nil, notFound(err, "conversation")
	}
	previous, err := s.messages.ListByConversation(ctx, conv.ID)
	if err != nil {
		return domain.Conversation{}, nil, err
	}
	if conv.Title == domain.NewConversationTitle && len(previous) == 0 {
		conv.Title = domain.TitleFromMessage(question)
		if err := s.conversations.UpdateTitle(ctx, conv.ID, conv.Title); err != nil {
			return domain.Conversation{}, nil, err
		}
	}
	history := make([]chatbot.HistoryEntry, 0, len(previous))
	for _, m := range previous {
		role := "assistant"
		if m.Role == domain.MessageRoleUser {
			role = "user"
		}
		history = append(history, chatbot.HistoryEntry{Role: role, Content: m.Content})
	}
	return conv, history, nil
}

func (s *ChatService) callBot(ctx context.Context, question string, history []chatbot.HistoryEntry) (string, error) {
	ctx, span := s.tracer.Start(ctx, "chatbot.ask")
	defer span.End()
	if s.bot == nil {
		return "", errors.New("chatbot client not configured")
	}
	reply, err := s.bot.Ask(ctx, question, history)
	if err != nil {
		span.RecordError(err)
	}
	return reply, err
}

func (s *ChatService) appendMessage(ctx context.Context, conversationID, content string, role domain.MessageRole) error {
	now := s.now()
	msg := domain.Message{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		Content:        content,
		Role:           role,
		CreatedAt:      now,
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return err
	}
	return s.conversations.Touch(ctx, conversationID, now)
}

func (s *ChatService) CreateConversation(ctx context.Context, p domain.Principal) (domain.Conversation, error) {
	now := s.now()
	conv := domain.Conversation{
		ID:        uuid.NewString(),
		UserID:    p.UserID,
		Title:     domain.NewConversationTitle,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.conversations.Create(ctx, conv); err != nil {
		return domain.Conversation{}, err
	}
	return conv, nil
}

func (s *ChatService) ListConversations(ctx context.Context, p domain.Principal) ([]domain.ConversationSummary, error) {
	return s.conversations.ListByUser(ctx, p.UserID)
}

func (s *ChatService) GetConversation(ctx context.Context, p domain.Principal, conversationID string) (ConversationDetail, error) {
	conv, err := s.conversations.GetForUser(ctx, conversationID, p.UserID)
	if err != nil {
		return ConversationDetail{}, notFound(err, "conversation")
	}
	msgs, err := s.messages.ListByConversation(ctx, conv.ID)
	if err != nil {
		return ConversationDetail{}, err
	}
	return ConversationDetail{Conversation: conv, Messages: msgs}, nil
}

func (s *ChatService) DeleteConversation(ctx context.Context, p domain.Principal, conversationID string) error {
	if err := s.conversations.DeleteForUser(ctx, conversationID, p.UserID); err != nil {
		return notFound(err, "conversation")
	}
	return nil
}

// monotonicNow garantiza instantes estrictamente crecientes para que el orden
// por created_at de los mensajes de una misma request sea estable.
func monotonicNow() func() time.Time {
	var last atomic.Int64
	return func() time.Time {
		for {
			now := time.Now().UTC().Truncate(time.Microsecond).UnixMicro()
			prev := last.Load()
			if now <= prev {
				now = prev + 1
			}
			if last.CompareAndSwap(prev, now) {
				return time.UnixMicro(now).UTC()
			}
		}
	}
}
