package app

import (
	"context"
	"strings"
	"testing"

	"github.com/pscheid92/repledger/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalog_CreateTag(t *testing.T) {
	tags := &mockTagRepo{
		createFn: func(_ context.Context, name string, tagType domain.TagType) (*domain.Tag, error) {
			return &domain.Tag{ID: 1, Name: name, Type: tagType, Active: true}, nil
		},
	}
	catalog := NewCatalog(tags)

	tag, err := catalog.CreateTag(context.Background(), "  Reliable ", domain.TagPositive)

	require.NoError(t, err)
	assert.Equal(t, "Reliable", tag.Name)
	assert.Equal(t, domain.VoteRecommend, tag.Type.VoteType())
}

func TestCatalog_CreateTagValidation(t *testing.T) {
	catalog := NewCatalog(&mockTagRepo{})
	ctx := context.Background()

	_, err := catalog.CreateTag(ctx, "   ", domain.TagPositive)
	assert.ErrorIs(t, err, domain.ErrInvalidTag)

	_, err = catalog.CreateTag(ctx, strings.Repeat("x", 65), domain.TagPositive)
	assert.ErrorIs(t, err, domain.ErrInvalidTag)

	_, err = catalog.CreateTag(ctx, "Scammer", domain.TagType("neutral"))
	assert.ErrorIs(t, err, domain.ErrInvalidTag)
}

func TestCatalog_CreateTagDuplicate(t *testing.T) {
	tags := &mockTagRepo{
		createFn: func(context.Context, string, domain.TagType) (*domain.Tag, error) {
			return nil, domain.ErrDuplicateTag
		},
	}

	_, err := NewCatalog(tags).CreateTag(context.Background(), "Reliable", domain.TagPositive)

	assert.ErrorIs(t, err, domain.ErrDuplicateTag)
}

func TestCatalog_RenameTag(t *testing.T) {
	var renamed string
	tags := &mockTagRepo{
		renameFn: func(_ context.Context, _ int64, name string) error {
			renamed = name
			return nil
		},
	}

	require.NoError(t, NewCatalog(tags).RenameTag(context.Background(), 1, " Fast shipper "))
	assert.Equal(t, "Fast shipper", renamed)
}

func TestCatalog_SetTagActive(t *testing.T) {
	var got bool
	tags := &mockTagRepo{
		setActiveFn: func(_ context.Context, _ int64, active bool) error {
			got = active
			return nil
		},
	}

	require.NoError(t, NewCatalog(tags).SetTagActive(context.Background(), 1, true))
	assert.True(t, got)
}

func TestCatalog_ListTags(t *testing.T) {
	tags := &mockTagRepo{
		listFn: func(_ context.Context, activeOnly bool) ([]domain.Tag, error) {
			assert.True(t, activeOnly)
			return []domain.Tag{{ID: 1, Name: "Reliable", Type: domain.TagPositive, Active: true}}, nil
		},
	}

	list, err := NewCatalog(tags).ListTags(context.Background(), true)

	require.NoError(t, err)
	assert.Len(t, list, 1)
}
