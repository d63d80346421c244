package service

import (
	"strings"

	"chiro-intake-api/internal/domain"
)

var (
	upperBodyKeywords = []string{"首", "肩", "背中", "肩甲骨", "腕", "頭"}
	lowerBodyKeywords = []string{"腰", "骨盤", "股関節", "膝", "脚", "足"}
)

// BuildUserAIInput toma el summary de administración y arma el material
// seguro para los textos de cara al usuario. No diagnostica ni evalúa:
// ordena hechos y características.
func BuildUserAIInput(admin domain.AdminIntakeSummary) domain.UserAIInput {
	return domain.UserAIInput{
		MainComplaints:  append([]string{}, admin.ChiefComplaints...),
		BodyAreas:       inferBodyAreas(admin.ChiefComplaints),
		ContextFactors:  buildContextFactors(admin),
		AttentionPoints: buildAttentionPoints(admin),
		Notes: []string{
			"これは医療的な診断ではなく、入力内容を整理したものです。",
			"最終的な判断は来院時に状態を確認しながら行います。",
		},
	}
}

// inferBodyAreas estima la zona del cuerpo por palabras clave, sin
// afirmar nada: 上半身 / 下半身 / 広い範囲 / その他.
func inferBodyAreas(complaints []string) []string {
	if len(complaints) == 0 {
		return []string{}
	}

	hasUpper := anyKeyword(complaints, upperBodyKeywords)
	hasLower := anyKeyword(complaints, lowerBodyKeywords)

	switch {
	case hasUpper && hasLower:
		return []string{"広い範囲"}
	case hasUpper:
		return []string{"上半身中心"}
	case hasLower:
		return []string{"下半身中心"}
	}
	return []string{"全身・その他"}
}

// buildContextFactors traduce el nivel de estrés a una expresión suave.
// Cualquier nivel declarado (low/middle/high) se presenta igual.
func buildContextFactors(admin domain.AdminIntakeSummary) []string {
	contexts := []string{}
	if admin.StressLevel != nil && *admin.StressLevel != "" {
		contexts = append(contexts, "日常生活の負荷")
	}
	return contexts
}

// buildAttentionPoints presenta señales sin lenguaje alarmista.
func buildAttentionPoints(admin domain.AdminIntakeSummary) []string {
	points := []string{}
	if admin.SleepTrouble != nil && *admin.SleepTrouble {
		points = append(points, "睡眠や休息の取りづらさ")
	}
	return points
}

func anyKeyword(complaints, keywords []string) bool {
	for _, c := range complaints {
		for _, k := range keywords {
			if strings.Contains(c, k) {
				return true
			}
		}
	}
	return false
}
