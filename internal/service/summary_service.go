package service

import (
	"strings"

	"chiro-intake-api/internal/domain"
)

// Etiquetas de enfoque clínico. No son diagnóstico, solo una guía
// rápida para el administrador, resuelta por reglas fijas.
const (
	focusRedFlags     = "注意所見あり（評価優先）"
	focusAutonomic    = "自律神経アプローチ優先"
	focusPelvisLegs   = "骨盤・下肢連動評価"
	focusNeckPosture  = "頚肩部・姿勢評価"
	focusFullBody     = "全身バランス評価"
	redFlagHasHistory = "既往歴あり"
)

// BuildAdminSummary genera el summary de administración a partir del
// payload crudo del formulario. Solo extrae hechos: no evalúa ni infiere.
func BuildAdminSummary(payload map[string]any) domain.AdminIntakeSummary {
	chiefComplaints := extractChiefComplaints(payload)
	redFlags := extractRedFlags(payload)
	sleepTrouble := detectSleepTrouble(payload)

	return domain.AdminIntakeSummary{
		ChiefComplaints: chiefComplaints,
		SymptomDuration: nil, // el formulario v2 todavía no lo captura
		RedFlags:        redFlags,
		SleepTrouble:    sleepTrouble,
		StressLevel:     normalizeStressLevel(payload["stressLevel"]),
		ClinicalFocus:   determineClinicalFocus(chiefComplaints, redFlags, sleepTrouble),
	}
}

// extractChiefComplaints convierte payload["symptoms"] en la lista de
// síntomas declarados. Tolera claves ausentes y tipos inesperados.
func extractChiefComplaints(payload map[string]any) []string {
	symptoms, ok := payload["symptoms"].([]any)
	if !ok {
		return []string{}
	}

	result := []string{}
	for _, s := range symptoms {
		entry, ok := s.(map[string]any)
		if !ok {
			continue
		}
		if symptom, ok := entry["symptom"].(string); ok && symptom != "" {
			result = append(result, symptom)
		}
	}
	return result
}

// extractRedFlags hace chequeo de existencia, nunca de gravedad.
func extractRedFlags(payload map[string]any) []string {
	flags := []string{}
	if hasValue(payload["medicalHistory"]) {
		flags = append(flags, redFlagHasHistory)
	}
	return flags
}

func hasValue(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(t) != ""
	case bool:
		return t
	case []any:
		return len(t) > 0
	default:
		return true
	}
}

// detectSleepTrouble marca problema de sueño con menos de 5 horas
// declaradas. Sin dato devuelve nil, no false.
func detectSleepTrouble(payload map[string]any) *bool {
	hours, ok := asNumber(payload["sleepHours"])
	if !ok {
		return nil
	}
	trouble := hours < 5
	if !trouble {
		return nil
	}
	return &trouble
}

// normalizeStressLevel acepta número o string y devuelve low/middle/high.
func normalizeStressLevel(value any) *string {
	if value == nil {
		return nil
	}

	if n, ok := asNumber(value); ok {
		var level string
		switch {
		case n <= 2:
			level = "low"
		case n < 4:
			level = "middle"
		default:
			level = "high"
		}
		return &level
	}

	if s, ok := value.(string); ok {
		return &s
	}

	return nil
}

// determineClinicalFocus resuelve la etiqueta por prioridad: señales de
// atención primero, después sueño, después el síntoma principal.
func determineClinicalFocus(chiefComplaints, redFlags []string, sleepTrouble *bool) *string {
	pick := func(label string) *string { return &label }

	if len(redFlags) > 0 {
		return pick(focusRedFlags)
	}
	if sleepTrouble != nil && *sleepTrouble {
		return pick(focusAutonomic)
	}
	if containsComplaint(chiefComplaints, "腰痛") {
		return pick(focusPelvisLegs)
	}
	if containsComplaint(chiefComplaints, "首こり") || containsComplaint(chiefComplaints, "肩こり") {
		return pick(focusNeckPosture)
	}
	return pick(focusFullBody)
}

func containsComplaint(complaints []string, target string) bool {
	for _, c := range complaints {
		if c == target {
			return true
		}
	}
	return false
}

func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
