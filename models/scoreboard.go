package models

import (
	"github.com/shopspring/decimal"
)

// ScoreboardEntry is a course member annotated with their role
// classification and, when present, their score for the tool's line item.
type ScoreboardEntry struct {
	UserID       string           `json:"user_id"`
	Name         string           `json:"name,omitempty"`
	Email        string           `json:"email,omitempty"`
	Roles        []string         `json:"roles"`
	IsInstructor bool             `json:"is_instructor"`
	IsLearner    bool             `json:"is_learner"`
	ScoreGiven   *decimal.Decimal `json:"score_given,omitempty"`
	ScoreMaximum *decimal.Decimal `json:"score_maximum,omitempty"`
}
