package domain

import "context"

// TagType is fixed when a tag is created.
type TagType string

const (
	TagPositive TagType = "positive"
	TagNegative TagType = "negative"
)

// VoteType returns the evaluation type recorded for evaluations carrying a tag of this type.
func (t TagType) VoteType() VoteType {
	if t == TagNegative {
		return VoteWarn
	}
	return VoteRecommend
}

func (t TagType) Valid() bool {
	return t == TagPositive || t == TagNegative
}

type Tag struct {
	ID     int64
	Name   string
	Type   TagType
	Active bool
}

// TagRepository is the admin-facing tag store. There is deliberately no way to change a tag's type.
type TagRepository interface {
	Create(ctx context.Context, name string, tagType TagType) (*Tag, error)
	GetByID(ctx context.Context, tagID int64) (*Tag, error)
	List(ctx context.Context, activeOnly bool) ([]Tag, error)
	Rename(ctx context.Context, tagID int64, name string) error
	SetActive(ctx context.Context, tagID int64, active bool) error
}
