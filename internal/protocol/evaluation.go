package protocol

import "fmt"

// Evaluation verdicts.
const (
	VerdictPass   = "PASS"
	VerdictRevise = "REVISE"
)

// Evaluation is the decoded payload of a kind=evaluation message.
// The reviewer scores the deliverable 1-5 on each axis.
type Evaluation struct {
	Verdict         string `json:"verdict"`
	BrandVoiceScore int    `json:"brand_voice_score"`
	QualityScore    int    `json:"quality_score"`
	CompletionScore int    `json:"completion_score"`
	Feedback        string `json:"feedback"`
}

// DecodeEvaluation extracts and validates an evaluation payload.
func DecodeEvaluation(m *Message) (Evaluation, error) {
	if m.Kind != KindEvaluation {
		return Evaluation{}, &Error{Reason: fmt.Sprintf("expected evaluation, got %s", m.Kind)}
	}
	var ev Evaluation
	if err := m.Decode(&ev); err != nil {
		return Evaluation{}, err
	}
	if ev.Verdict != VerdictPass && ev.Verdict != VerdictRevise {
		return Evaluation{}, &Error{Reason: fmt.Sprintf("unknown verdict %q", ev.Verdict)}
	}
	for _, s := range []int{ev.BrandVoiceScore, ev.QualityScore, ev.CompletionScore} {
		if s < 1 || s > 5 {
			return Evaluation{}, &Error{Reason: fmt.Sprintf("score %d out of range 1-5", s)}
		}
	}
	return ev, nil
}
