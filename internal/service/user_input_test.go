package service

import (
	"testing"

	"chiro-intake-api/internal/domain"
)

func TestInferBodyAreas(t *testing.T) {
	cases := []struct {
		name       string
		complaints []string
		want       string
	}{
		{"upper only", []string{"首こり", "肩こり"}, "上半身中心"},
		{"lower only", []string{"腰痛"}, "下半身中心"},
		{"both", []string{"首こり", "腰痛"}, "広い範囲"},
		{"neither", []string{"倦怠感"}, "全身・その他"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			areas := inferBodyAreas(tc.complaints)
			if len(areas) != 1 || areas[0] != tc.want {
				t.Fatalf("expected [%q], got %v", tc.want, areas)
			}
		})
	}

	if areas := inferBodyAreas(nil); len(areas) != 0 {
		t.Fatalf("expected no areas without complaints, got %v", areas)
	}
}

func TestBuildUserAIInput(t *testing.T) {
	stress := "high"
	trouble := true
	admin := domain.AdminIntakeSummary{
		ChiefComplaints: []string{"腰痛"},
		StressLevel:     &stress,
		SleepTrouble:    &trouble,
	}

	input := BuildUserAIInput(admin)

	if len(input.MainComplaints) != 1 || input.MainComplaints[0] != "腰痛" {
		t.Fatalf("unexpected main complaints: %v", input.MainComplaints)
	}
	if len(input.ContextFactors) != 1 || input.ContextFactors[0] != "日常生活の負荷" {
		t.Fatalf("unexpected context factors: %v", input.ContextFactors)
	}
	if len(input.AttentionPoints) != 1 || input.AttentionPoints[0] != "睡眠や休息の取りづらさ" {
		t.Fatalf("unexpected attention points: %v", input.AttentionPoints)
	}
	if len(input.Notes) != 2 {
		t.Fatalf("expected fixed notes, got %v", input.Notes)
	}
}

func TestBuildUserAIInput_Empty(t *testing.T) {
	input := BuildUserAIInput(domain.AdminIntakeSummary{})

	if len(input.MainComplaints) != 0 || len(input.BodyAreas) != 0 {
		t.Fatalf("expected empty material, got %+v", input)
	}
	if len(input.ContextFactors) != 0 || len(input.AttentionPoints) != 0 {
		t.Fatalf("expected no factors without data, got %+v", input)
	}
}
