package domain

import (
	"context"
	"time"
)

// VoteType is the direction of an evaluation.
type VoteType string

const (
	VoteRecommend VoteType = "recommend"
	VoteWarn      VoteType = "warn"
)

// ParseVoteType converts user input into a VoteType.
func ParseVoteType(s string) (VoteType, bool) {
	switch VoteType(s) {
	case VoteRecommend:
		return VoteRecommend, true
	case VoteWarn:
		return VoteWarn, true
	default:
		return "", false
	}
}

// Evaluation is one immutable ledger row.
type Evaluation struct {
	ID          int64
	EvaluatorID int64
	TargetID    int64
	TagID       int64
	Type        VoteType
	CreatedAt   time.Time
}

// EvaluationStamp is the part of an evaluation the score calculator needs.
type EvaluationStamp struct {
	Type      VoteType
	CreatedAt time.Time
}

// TagCount is the number of evaluations a target received with one tag.
type TagCount struct {
	TagID   int64
	TagName string
	Type    VoteType
	Count   int
}

// TargetCounts are raw, undecayed totals for a profile card.
type TargetCounts struct {
	TargetID       int64
	RecommendCount int
	WarnCount      int
	ByTag          []TagCount
}

// EvaluationRepository is the append-only ledger.
type EvaluationRepository interface {
	// Insert appends an evaluation for an active tag, creating missing users.
	// Returns ErrUnknownTag or ErrDuplicateEvaluation on contract violations.
	Insert(ctx context.Context, evaluatorID, targetID, tagID int64, createdAt time.Time) (*Evaluation, error)
	CountsForTarget(ctx context.Context, targetID int64) (*TargetCounts, error)
	StampsForTarget(ctx context.Context, targetID int64) ([]EvaluationStamp, error)
	DeleteByEvaluator(ctx context.Context, evaluatorID int64) (int64, error)
	DeleteByTarget(ctx context.Context, targetID int64) (int64, error)
}

// TagType returns the tag type whose evaluations are recorded with this vote type.
func (v VoteType) TagType() TagType {
	if v == VoteWarn {
		return TagNegative
	}
	return TagPositive
}
