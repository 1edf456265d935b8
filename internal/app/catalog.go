package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pscheid92/repledger/internal/domain"
)

const maxTagNameLength = 64

// Catalog manages the tag vocabulary. A tag's type is fixed at creation.
type Catalog struct {
	tags domain.TagRepository
}

func NewCatalog(tags domain.TagRepository) *Catalog {
	return &Catalog{tags: tags}
}

func (c *Catalog) CreateTag(ctx context.Context, name string, tagType domain.TagType) (*domain.Tag, error) {
	name, err := normalizeTagName(name)
	if err != nil {
		return nil, err
	}
	if !tagType.Valid() {
		return nil, fmt.Errorf("%w: unknown tag type %q", domain.ErrInvalidTag, tagType)
	}

	tag, err := c.tags.Create(ctx, name, tagType)
	if err != nil {
		return nil, fmt.Errorf("failed to create tag: %w", err)
	}
	slog.InfoContext(ctx, "Tag created", "tag_id", tag.ID, "name", tag.Name, "type", tag.Type)
	return tag, nil
}

func (c *Catalog) ListTags(ctx context.Context, activeOnly bool) ([]domain.Tag, error) {
	tags, err := c.tags.List(ctx, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	return tags, nil
}

func (c *Catalog) RenameTag(ctx context.Context, tagID int64, name string) error {
	name, err := normalizeTagName(name)
	if err != nil {
		return err
	}
	if err := c.tags.Rename(ctx, tagID, name); err != nil {
		return fmt.Errorf("failed to rename tag: %w", err)
	}
	return nil
}

// SetTagActive toggles whether new evaluations may use the tag. Existing
// evaluations keep counting either way.
func (c *Catalog) SetTagActive(ctx context.Context, tagID int64, active bool) error {
	if err := c.tags.SetActive(ctx, tagID, active); err != nil {
		return fmt.Errorf("failed to update tag: %w", err)
	}
	slog.InfoContext(ctx, "Tag visibility changed", "tag_id", tagID, "active", active)
	return nil
}

func normalizeTagName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: name is empty", domain.ErrInvalidTag)
	}
	if len([]rune(name)) > maxTagNameLength {
		return "", fmt.Errorf("%w: name longer than %d characters", domain.ErrInvalidTag, maxTagNameLength)
	}
	return name, nil
}
