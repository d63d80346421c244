package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"chiro-intake-api/internal/domain"
	"chiro-intake-api/internal/llm"
)

type mockBudget struct {
	allow    bool
	recorded int
}

func (m *mockBudget) CanSpend(_ time.Time) bool { return m.allow }
func (m *mockBudget) Record(_ time.Time)        { m.recorded++ }

func sampleInput() domain.UserAIInput {
	return domain.UserAIInput{
		MainComplaints: []string{"腰痛", "首こり"},
		BodyAreas:      []string{"広い範囲"},
		ContextFactors: []string{"日常生活の負荷"},
	}
}

func TestGenerateOverview_UsesLLMText(t *testing.T) {
	text := strings.Repeat("あ", 200)
	client := &llm.MockClient{Response: text}
	budget := &mockBudget{allow: true}
	svc := NewAITextService(zap.NewNop(), client, budget)

	got := svc.GenerateOverview(context.Background(), sampleInput())
	if got != text {
		t.Fatalf("expected llm text to be used")
	}
	if budget.recorded != 1 {
		t.Fatalf("expected 1 recorded call, got %d", budget.recorded)
	}
}

func TestGenerateOverview_ShortTextFallsBack(t *testing.T) {
	client := &llm.MockClient{Response: "短すぎる"}
	svc := NewAITextService(zap.NewNop(), client, &mockBudget{allow: true})

	got := svc.GenerateOverview(context.Background(), sampleInput())
	if !strings.Contains(got, "ご入力ありがとうございました") {
		t.Fatalf("expected fallback overview, got %q", got)
	}
	if !strings.Contains(got, "腰痛・首こり") {
		t.Fatalf("expected fallback to include complaints, got %q", got)
	}
}

func TestGenerateOverview_LLMErrorFallsBack(t *testing.T) {
	client := &llm.MockClient{Err: errors.New("llm down")}
	svc := NewAITextService(zap.NewNop(), client, &mockBudget{allow: true})

	got := svc.GenerateOverview(context.Background(), sampleInput())
	if !strings.Contains(got, "ご入力ありがとうございました") {
		t.Fatalf("expected fallback overview, got %q", got)
	}
}

func TestGenerateOverview_BudgetDeniedSkipsLLM(t *testing.T) {
	client := &llm.MockClient{Response: strings.Repeat("あ", 200)}
	budget := &mockBudget{allow: false}
	svc := NewAITextService(zap.NewNop(), client, budget)

	got := svc.GenerateOverview(context.Background(), sampleInput())
	if client.Calls != 0 {
		t.Fatalf("expected llm not to be called, got %d calls", client.Calls)
	}
	if budget.recorded != 0 {
		t.Fatalf("expected nothing recorded, got %d", budget.recorded)
	}
	if !strings.Contains(got, "ご入力ありがとうございました") {
		t.Fatalf("expected fallback overview, got %q", got)
	}
}

func TestGenerateLineDetail_UsesLLMText(t *testing.T) {
	text := strings.Repeat("い", 400)
	client := &llm.MockClient{Response: text}
	svc := NewAITextService(zap.NewNop(), client, &mockBudget{allow: true})

	got := svc.GenerateLineDetail(context.Background(), sampleInput())
	if got != text {
		t.Fatalf("expected llm text to be used")
	}
}

func TestGenerateLineDetail_ShortTextFallsBack(t *testing.T) {
	// 200 runas alcanzan para overview pero no para el detalle.
	client := &llm.MockClient{Response: strings.Repeat("い", 200)}
	svc := NewAITextService(zap.NewNop(), client, &mockBudget{allow: true})

	got := svc.GenerateLineDetail(context.Background(), sampleInput())
	if !strings.Contains(got, "※これは医療的な診断ではなく") {
		t.Fatalf("expected fallback detail with disclaimer, got %q", got)
	}
}

func TestGenerateLineDetail_NilClientFallsBack(t *testing.T) {
	svc := NewAITextService(zap.NewNop(), nil, &mockBudget{allow: true})

	got := svc.GenerateLineDetail(context.Background(), domain.UserAIInput{})
	if !strings.Contains(got, "お身体のつらさ") {
		t.Fatalf("expected generic fallback, got %q", got)
	}
}
