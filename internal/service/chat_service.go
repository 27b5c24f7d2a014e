package service

import (
	"context"
	"time"

	"github.com/pwasut/harnkan/internal/domain"
	"github.com/pwasut/harnkan/internal/infra/observability"
	"github.com/pwasut/harnkan/internal/port"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var chatTracer = otel.Tracer("service/chat")

// ChatService relays widget messages to the external agent, enriched
// with a compact summary of the user's bills so the agent can answer
// questions like "who still owes me money".
type ChatService struct {
	agent   port.AgentCaller
	stats   *StatsService
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewChatService creates the chat relay service.
func NewChatService(agent port.AgentCaller, stats *StatsService, metrics *observability.Metrics, logger *zap.Logger) *ChatService {
	return &ChatService{
		agent:   agent,
		stats:   stats,
		metrics: metrics,
		logger:  logger,
	}
}

// Send forwards a chat message with bill context and returns the reply.
func (s *ChatService) Send(ctx context.Context, req *domain.ChatRequest) (*domain.ChatResponse, error) {
	// Bail out early if the caller already cancelled.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ctx, span := chatTracer.Start(ctx, "ChatService.Send")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", req.UserID))

	start := time.Now()
	defer func() {
		s.metrics.RecordRequestDuration("chat", time.Since(start))
	}()

	if req.Message == "" {
		return nil, &domain.ErrValidation{Field: "message", Message: "must not be empty"}
	}

	conversationID := req.ConversationID
	if conversationID == "" {
		conversationID = uuid.New().String()
	}

	// Context building is best effort: the chat still works when the
	// rollup is unavailable, the agent just answers without numbers.
	billCtx := s.buildContext(ctx, req.UserID)

	agentResp, err := s.agent.Call(ctx, &domain.AgentRequest{
		UserID:         req.UserID,
		Message:        req.Message,
		ConversationID: conversationID,
		Context:        billCtx,
	})
	if err != nil {
		s.metrics.IncrStoreError("agent")
		return nil, err
	}

	if agentResp.ConversationID != "" {
		conversationID = agentResp.ConversationID
	}
	return &domain.ChatResponse{
		ConversationID: conversationID,
		Reply:          agentResp.Reply,
		LatencyMs:      time.Since(start).Milliseconds(),
	}, nil
}

// buildContext assembles the bill summary sent along with each message.
// The rollup and pending ledger come from the stats service, fetched
// concurrently; a failure in either drops the context instead of failing
// the chat.
func (s *ChatService) buildContext(ctx context.Context, userID string) *domain.BillContext {
	var (
		rollup  *domain.StatisticsRollup
		pending []domain.PendingParticipant
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r, err := s.stats.Rollup(gCtx, userID)
		if err != nil {
			return err
		}
		rollup = r
		return nil
	})
	g.Go(func() error {
		p, err := s.stats.PendingLedger(gCtx, userID)
		if err != nil {
			return err
		}
		pending = p
		return nil
	})
	if err := g.Wait(); err != nil {
		s.logger.Warn("chat context unavailable",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return nil
	}

	pendingBills := 0
	for _, p := range pending {
		pendingBills += p.PendingBills
	}

	return &domain.BillContext{
		BillCount:          rollup.BillCount,
		TotalAmount:        rollup.TotalAmount,
		PendingBills:       pendingBills,
		TotalPendingAmount: rollup.TotalPendingAmount,
		TopCategory:        rollup.MostFrequentCategory,
	}
}
