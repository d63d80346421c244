package domain

import "time"

// Estados de vinculación LINE que ve el panel de administración.
const (
	LineStatusLinked   = "連携済"
	LineStatusUnlinked = "未連携"
)

// Intake guarda una entrada del formulario tal como llegó del frontend.
type Intake struct {
	ID             int64      `json:"id"`
	Payload        string     `json:"-"`
	OverviewText   string     `json:"overview_text,omitempty"`
	LineDetailText string     `json:"line_detail_text,omitempty"`
	LineLinkToken  string     `json:"-"`
	LineUserID     string     `json:"-"`
	LineSentAt     *time.Time `json:"line_sent_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// LineStatus devuelve la etiqueta de vinculación para el panel.
func (i Intake) LineStatus() string {
	if i.LineUserID != "" {
		return LineStatusLinked
	}
	return LineStatusUnlinked
}

// AdminIntakeSummary es el resumen estructurado para administradores.
// No contiene texto generado, solo hechos extraídos por reglas.
type AdminIntakeSummary struct {
	ChiefComplaints []string `json:"chief_complaints"`
	SymptomDuration *string  `json:"symptom_duration"`
	RedFlags        []string `json:"red_flags"`
	SleepTrouble    *bool    `json:"sleep_trouble"`
	StressLevel     *string  `json:"stress_level"`
	ClinicalFocus   *string  `json:"clinical_focus"`
}

// AdminIntakeListSummary es el subconjunto del summary para el listado.
type AdminIntakeListSummary struct {
	ChiefComplaints []string `json:"chief_complaints"`
	RedFlags        []string `json:"red_flags"`
	ClinicalFocus   *string  `json:"clinical_focus"`
}

// ListSummary extrae el subconjunto mínimo para el listado.
func (s AdminIntakeSummary) ListSummary() AdminIntakeListSummary {
	return AdminIntakeListSummary{
		ChiefComplaints: s.ChiefComplaints,
		RedFlags:        s.RedFlags,
		ClinicalFocus:   s.ClinicalFocus,
	}
}

// UserAIInput es el material seguro que se le pasa al LLM para los
// textos de cara al usuario: hechos ordenados, sin evaluación clínica.
type UserAIInput struct {
	MainComplaints  []string `json:"main_complaints"`
	BodyAreas       []string `json:"body_areas"`
	ContextFactors  []string `json:"context_factors"`
	AttentionPoints []string `json:"attention_points"`
	Notes           []string `json:"notes"`
}
