package models

import "time"

// ResponderInfo is the identity block a public submitter may attach to a
// submission. Which parts are mandatory is dictated by the form's identity
// requirements.
type ResponderInfo struct {
	Name      string `json:"name,omitempty" validate:"omitempty,max=200"`
	Email     string `json:"email,omitempty" validate:"omitempty,email,max=320"`
	StudentID string `json:"studentId,omitempty" validate:"omitempty,max=100"`
}

// SubmissionPayload is the wire shape of a public submission.
type SubmissionPayload struct {
	Answers   []Answer       `json:"answers" validate:"required"`
	Responder *ResponderInfo `json:"responder,omitempty"`
	StartedAt *time.Time     `json:"startedAt,omitempty"`
}

// AnswerMap indexes the payload's answers by field id. Later duplicates of
// the same field win, matching submit-order semantics.
func (p *SubmissionPayload) AnswerMap() map[string]any {
	m := make(map[string]any, len(p.Answers))
	for _, a := range p.Answers {
		m[a.FieldID] = a.Value
	}
	return m
}
