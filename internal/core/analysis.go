package core

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ccodesido/zentiumassist-all/internal/llm"
	"github.com/ccodesido/zentiumassist-all/pkg"
	"go.uber.org/zap"
)

// Analyzer produces a structured clinical analysis of a session transcript.
// It never fails: unusable agent output and agent errors map to fixed
// placeholder analyses so the session can still be closed.
type Analyzer struct {
	LLM     llm.Client
	Logger  *zap.Logger
	Timeout time.Duration
}

// NewAnalyzer constructs an analyzer with a 60 second agent timeout.
func NewAnalyzer(client llm.Client, logger *zap.Logger) *Analyzer {
	return &Analyzer{LLM: client, Logger: logger, Timeout: 60 * time.Second}
}

// Analyze sends the transcript to the agent with AnalysisPersona and decodes
// the JSON answer.
func (a *Analyzer) Analyze(ctx context.Context, transcript string) pkg.SessionAnalysis {
	if a.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.Timeout)
		defer cancel()
	}
	resp, err := a.LLM.Chat(ctx, []llm.Message{
		{Role: "system", Content: AnalysisPersona},
		{Role: "user", Content: fmt.Sprintf(analysisPromptFormat, transcript)},
	})
	if err != nil {
		a.Logger.Warn("transcript analysis unavailable", zap.Error(err))
		return analysisFailed
	}
	analysis, err := parseAnalysis(resp)
	if err != nil {
		a.Logger.Warn("transcript analysis is not valid JSON", zap.Error(err))
		return analysisPending
	}
	return analysis
}

// parseAnalysis accepts a bare JSON object or one wrapped in a markdown code
// fence.  List-valued fields are joined with "; ".
func parseAnalysis(raw string) (pkg.SessionAnalysis, error) {
	body := strings.TrimSpace(raw)
	if strings.HasPrefix(body, "```") {
		body = strings.TrimPrefix(body, "```json")
		body = strings.TrimPrefix(body, "```")
		body = strings.TrimSuffix(strings.TrimSpace(body), "```")
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &fields); err != nil {
		return pkg.SessionAnalysis{}, err
	}
	return pkg.SessionAnalysis{
		Summary:            flatten(fields["summary"]),
		EmotionalState:     flatten(fields["emotional_state"]),
		ProgressIndicators: flatten(fields["progress_indicators"]),
		Recommendations:    flatten(fields["recommendations"]),
		RiskLevel:          flatten(fields["risk_level"]),
	}, nil
}

func flatten(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return strings.Join(list, "; ")
	}
	return strings.TrimSpace(string(raw))
}
