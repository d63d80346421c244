package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"chiro-intake-api/internal/domain"
	"chiro-intake-api/internal/llm"
)

// Costo estimado por llamada al LLM, en yenes.
const LLMCostPerCallYen = 5

// Umbrales mínimos en runas: por debajo, el texto generado no sirve
// como resumen y se usa el fallback por reglas.
const (
	minOverviewRunes   = 120
	minLineDetailRunes = 300
)

var errLLMBudgetExceeded = errors.New("llm budget exceeded")

// AITextService genera los textos de cara al usuario (resumen de
// pantalla y detalle para LINE) con fallback por reglas cuando el LLM
// no está disponible o devuelve algo inservible.
type AITextService struct {
	logger *zap.Logger
	client llm.Client
	budget MonthlyBudget
}

func NewAITextService(logger *zap.Logger, client llm.Client, budget MonthlyBudget) *AITextService {
	return &AITextService{
		logger: logger,
		client: client,
		budget: budget,
	}
}

const overviewSystemPrompt = `あなたは医療判断をしない文章整理アシスタントです。
入力データから「見えている傾向」を短くまとめます。
診断・原因断定・改善予測は禁止。
不安を煽る表現や専門用語は避けてください。`

const overviewUserPromptTemplate = `【入力データ（安全に整理済み）】
%INPUT%

【出力条件（必ず守る）】
・200〜320字程度（短め〜中程度）
・必ず次の4要素を含める
  1) この画面までで入力は完了
  2) 主なつらさ（症状名または部位傾向）に触れる
  3) 影響しそうな観点（睡眠/日常負担など）を「可能性」で示す（断定禁止）
  4) 詳細の整理はLINEで受け取れる（任意）
・「診断」「治る」「原因は」等の断定ワードは禁止`

const lineDetailSystemPrompt = `あなたは医療判断を行わない文章整理アシスタントです。
入力情報をもとに、状態の見方をやさしく整理します。
診断・原因断定・改善予測は禁止です。
不安を煽る表現や専門用語は避けてください。`

const lineDetailUserPromptTemplate = `【入力データ（安全に整理済み）】
%INPUT%

【出力条件（必ず守る）】
・400〜700字
・2〜4段落で構成
・概要で触れた症状や部位の傾向を、少し噛み砕いて説明する
・睡眠や日常負担などの観点は「可能性」「考えられる視点」で述べる
・断定語（原因は／治る／診断）は使わない
・最後に次の一文を必ず入れる：
  「※これは医療的な診断ではなく、来院時に状態を確認しながら整理していきます。」`

// GenerateOverview produce el texto de la pantalla de confirmación.
// Nunca falla: degrada al texto por reglas.
func (s *AITextService) GenerateOverview(ctx context.Context, input domain.UserAIInput) string {
	text, err := s.callLLM(ctx, overviewSystemPrompt, overviewUserPromptTemplate, input)
	if err != nil || len([]rune(text)) < minOverviewRunes {
		if err != nil && s.logger != nil {
			s.logger.Warn("overview llm fallback", zap.Error(err))
		}
		return fallbackOverviewText(input)
	}
	return text
}

// GenerateLineDetail produce el texto largo que se envía por LINE.
func (s *AITextService) GenerateLineDetail(ctx context.Context, input domain.UserAIInput) string {
	text, err := s.callLLM(ctx, lineDetailSystemPrompt, lineDetailUserPromptTemplate, input)
	if err != nil || len([]rune(text)) < minLineDetailRunes {
		if err != nil && s.logger != nil {
			s.logger.Warn("line detail llm fallback", zap.Error(err))
		}
		return fallbackLineDetailText(input)
	}
	return text
}

func (s *AITextService) callLLM(ctx context.Context, systemPrompt, userPromptTemplate string, input domain.UserAIInput) (string, error) {
	if s.client == nil {
		return "", errors.New("llm client not configured")
	}
	now := time.Now().UTC()
	if s.budget == nil || !s.budget.CanSpend(now) {
		return "", errLLMBudgetExceeded
	}

	inputJSON, err := json.MarshalIndent(input, "", "  ")
	if err != nil {
		return "", err
	}
	userPrompt := strings.ReplaceAll(userPromptTemplate, "%INPUT%", string(inputJSON))

	text, err := s.client.Generate(ctx, systemPrompt, userPrompt)
	if err != nil {
		return "", err
	}

	s.budget.Record(now)
	return text, nil
}

// fallbackOverviewText arma un resumen con contenido real a partir del
// material, sin afirmar nada clínico.
func fallbackOverviewText(input domain.UserAIInput) string {
	cPart := "お身体のつらさ"
	if len(input.MainComplaints) > 0 {
		cPart = strings.Join(firstN(input.MainComplaints, 3), "・")
	}
	aPart := "体の状態"
	if len(input.BodyAreas) > 0 {
		aPart = input.BodyAreas[0]
	}
	ctxPart := "日常の負担"
	if len(input.ContextFactors) > 0 {
		ctxPart = strings.Join(firstN(input.ContextFactors, 2), "、")
	}

	return "ご入力ありがとうございました。この画面までで問診の入力は完了しています。\n" +
		"今回の入力では、" + cPart + "など（" + aPart + "）のつらさが中心となっている可能性がうかがえます。" +
		"また、" + ctxPart + "といった観点も関係している可能性があります。\n" +
		"内容の整理をもう少し詳しく知りたい方には、LINEで補足をご案内できます（登録は任意です）。"
}

func fallbackLineDetailText(input domain.UserAIInput) string {
	cPart := "お身体のつらさ"
	if len(input.MainComplaints) > 0 {
		cPart = strings.Join(firstN(input.MainComplaints, 3), "・")
	}
	aPart := "体の状態"
	if len(input.BodyAreas) > 0 {
		aPart = input.BodyAreas[0]
	}
	ctxPart := "日常の負担や休息の状況"
	if len(input.ContextFactors) > 0 {
		ctxPart = strings.Join(firstN(input.ContextFactors, 2), "、")
	}

	return "ご入力内容をもとに、状態の整理を行っています。\n\n" +
		"今回の入力では、" + cPart + "といったつらさが中心で、" +
		aPart + "に負担がかかっている可能性が考えられます。" +
		"こうしたつらさは、姿勢や動きの癖だけでなく、" +
		ctxPart + "などが重なって感じやすくなることがあります。\n\n" +
		"どの点を優先して見ていくかは、実際の状態を確認しながら整理していくことが大切です。" +
		"※これは医療的な診断ではなく、来院時に状態を確認しながら整理していきます。"
}

func firstN(items []string, n int) []string {
	if len(items) <= n {
		return items
	}
	return items[:n]
}
