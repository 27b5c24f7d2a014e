package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/pwasut/harnkan/internal/domain"
	"github.com/pwasut/harnkan/internal/infra/observability"
	"github.com/pwasut/harnkan/internal/service"

	"go.uber.org/zap"
)

type mockAgentClient struct {
	response *domain.AgentResponse
	err      error
	lastReq  *domain.AgentRequest
}

func (m *mockAgentClient) Call(_ context.Context, req *domain.AgentRequest) (*domain.AgentResponse, error) {
	m.lastReq = req
	return m.response, m.err
}

func newChatService(agent *mockAgentClient, store *mockBillStore) *service.ChatService {
	return service.NewChatService(
		agent,
		newStatsService(store),
		observability.NewMetrics(),
		zap.NewNop(),
	)
}

func TestChatSend_Success(t *testing.T) {
	store := newMockBillStore(&domain.Bill{
		ID: "b1", UserID: "u1", Title: "Dinner", TotalAmount: 100,
		Category: "food", CreatedAt: time.Now(),
		SplitResults: []domain.SplitResult{
			{Amount: 100, Participant: domain.Participant{ID: "p1", Name: "A", Status: domain.StatusPending}},
		},
		Participants: []domain.Participant{{ID: "p1", Status: domain.StatusPending}},
	})
	agent := &mockAgentClient{response: &domain.AgentResponse{Reply: "A owes you 100 baht."}}
	svc := newChatService(agent, store)

	resp, err := svc.Send(context.Background(), &domain.ChatRequest{
		UserID:  "u1",
		Message: "who owes me money?",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if resp.Reply != "A owes you 100 baht." {
		t.Errorf("unexpected reply: %q", resp.Reply)
	}
	if resp.ConversationID == "" {
		t.Error("expected generated conversation id")
	}

	if agent.lastReq.Context == nil {
		t.Fatal("expected bill context attached to agent request")
	}
	if agent.lastReq.Context.BillCount != 1 || agent.lastReq.Context.TotalPendingAmount != 100 {
		t.Errorf("unexpected bill context: %+v", agent.lastReq.Context)
	}
}

func TestChatSend_EmptyMessage(t *testing.T) {
	svc := newChatService(&mockAgentClient{response: &domain.AgentResponse{}}, newMockBillStore())

	_, err := svc.Send(context.Background(), &domain.ChatRequest{UserID: "u1"})
	if _, ok := err.(*domain.ErrValidation); !ok {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestChatSend_AgentError(t *testing.T) {
	agent := &mockAgentClient{err: &domain.ErrExternalService{Service: "agent"}}
	svc := newChatService(agent, newMockBillStore())

	_, err := svc.Send(context.Background(), &domain.ChatRequest{UserID: "u1", Message: "hi"})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestChatSend_ContextFailureStillChats(t *testing.T) {
	store := newMockBillStore()
	store.err = &domain.ErrExternalService{Service: "firestore/bills"}
	agent := &mockAgentClient{response: &domain.AgentResponse{Reply: "hello"}}
	svc := newChatService(agent, store)

	resp, err := svc.Send(context.Background(), &domain.ChatRequest{UserID: "u1", Message: "hi"})
	if err != nil {
		t.Fatalf("expected chat to survive context failure, got %v", err)
	}
	if resp.Reply != "hello" {
		t.Errorf("unexpected reply: %q", resp.Reply)
	}
	if agent.lastReq.Context != nil {
		t.Error("expected nil context when rollup unavailable")
	}
}

func TestChatSend_KeepsConversationID(t *testing.T) {
	agent := &mockAgentClient{response: &domain.AgentResponse{Reply: "ok", ConversationID: "conv-7"}}
	svc := newChatService(agent, newMockBillStore())

	resp, err := svc.Send(context.Background(), &domain.ChatRequest{
		UserID:         "u1",
		Message:        "hi",
		ConversationID: "conv-7",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if resp.ConversationID != "conv-7" {
		t.Errorf("expected conversation id conv-7, got %s", resp.ConversationID)
	}
}
