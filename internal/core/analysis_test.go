package core

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap/zaptest"
)

func TestParseAnalysis(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
		recs string
	}{
		{
			name: "bare object",
			raw:  `{"summary":"Trabajo y familia","emotional_state":"ansioso","progress_indicators":"mejor sueño","recommendations":"respiración","risk_level":"bajo"}`,
			want: "Trabajo y familia",
			recs: "respiración",
		},
		{
			name: "fenced with list",
			raw:  "```json\n{\"summary\":\"Duelo\",\"recommendations\":[\"diario\",\"caminar\"],\"risk_level\":\"medio\"}\n```",
			want: "Duelo",
			recs: "diario; caminar",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseAnalysis(tt.raw)
			if err != nil {
				t.Fatalf("parseAnalysis: %v", err)
			}
			if got.Summary != tt.want || got.Recommendations != tt.recs {
				t.Errorf("got %+v", got)
			}
		})
	}

	if _, err := parseAnalysis("El paciente se mostró tranquilo."); err == nil {
		t.Error("prose should not parse")
	}
}

func TestAnalyzerFallbacks(t *testing.T) {
	logger := zaptest.NewLogger(t)

	failing := NewAnalyzer(&fakeLLM{chatErr: errors.New("down")}, logger)
	if got := failing.Analyze(context.Background(), "transcripción"); got != analysisFailed {
		t.Errorf("agent failure = %+v, want analysisFailed", got)
	}

	prose := NewAnalyzer(&fakeLLM{reply: "No puedo dar JSON."}, logger)
	if got := prose.Analyze(context.Background(), "transcripción"); got != analysisPending {
		t.Errorf("non-JSON answer = %+v, want analysisPending", got)
	}

	ok := NewAnalyzer(&fakeLLM{reply: `{"summary":"s","emotional_state":"e","progress_indicators":"p","recommendations":"r","risk_level":"alto"}`}, logger)
	got := ok.Analyze(context.Background(), "transcripción")
	if got.RiskLevel != "alto" || got.EmotionalState != "e" {
		t.Errorf("parsed analysis = %+v", got)
	}
}
