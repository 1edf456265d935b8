package httpserver

import (
	"time"

	"github.com/pscheid92/repledger/internal/domain"
)

type userResponse struct {
	ID          int64     `json:"id"`
	Handle      string    `json:"handle,omitempty"`
	DisplayName string    `json:"display_name"`
	Hidden      bool      `json:"hidden"`
	CreatedAt   time.Time `json:"created_at"`
}

func newUserResponse(u *domain.User) userResponse {
	return userResponse{
		ID:          u.ID,
		Handle:      u.Handle,
		DisplayName: u.DisplayName(),
		Hidden:      u.Hidden,
		CreatedAt:   u.CreatedAt,
	}
}

type evaluationResponse struct {
	ID          int64           `json:"id"`
	EvaluatorID int64           `json:"evaluator_id"`
	TargetID    int64           `json:"target_id"`
	TagID       int64           `json:"tag_id"`
	Type        domain.VoteType `json:"type"`
	CreatedAt   time.Time       `json:"created_at"`
}

func newEvaluationResponse(e *domain.Evaluation) evaluationResponse {
	return evaluationResponse{
		ID:          e.ID,
		EvaluatorID: e.EvaluatorID,
		TargetID:    e.TargetID,
		TagID:       e.TagID,
		Type:        e.Type,
		CreatedAt:   e.CreatedAt,
	}
}

type tagCountResponse struct {
	TagID   int64           `json:"tag_id"`
	TagName string          `json:"tag_name"`
	Type    domain.VoteType `json:"type"`
	Count   int             `json:"count"`
}

type countsResponse struct {
	TargetID       int64              `json:"target_id"`
	RecommendCount int                `json:"recommend_count"`
	WarnCount      int                `json:"warn_count"`
	ByTag          []tagCountResponse `json:"by_tag"`
}

func newCountsResponse(c *domain.TargetCounts) countsResponse {
	resp := countsResponse{
		TargetID:       c.TargetID,
		RecommendCount: c.RecommendCount,
		WarnCount:      c.WarnCount,
		ByTag:          make([]tagCountResponse, 0, len(c.ByTag)),
	}
	for _, tc := range c.ByTag {
		resp.ByTag = append(resp.ByTag, tagCountResponse(tc))
	}
	return resp
}

type scoreResponse struct {
	TargetID          int64   `json:"target_id"`
	Score             int     `json:"score"`
	WeightedRecommend float64 `json:"weighted_recommend"`
	WeightedWarn      float64 `json:"weighted_warn"`
	RecommendCount    int     `json:"recommend_count"`
	WarnCount         int     `json:"warn_count"`
	FavoriteCount     int     `json:"favorite_count"`
}

type rankedUserResponse struct {
	Rank   int    `json:"rank"`
	UserID int64  `json:"user_id"`
	Handle string `json:"handle,omitempty"`
	Count  int    `json:"count"`
}

type leaderboardResponse struct {
	TagID      int64                `json:"tag_id"`
	Type       domain.VoteType      `json:"type"`
	Page       int                  `json:"page"`
	PageSize   int                  `json:"page_size"`
	TotalPages int                  `json:"total_pages"`
	Rows       []rankedUserResponse `json:"rows"`
	ComputedAt time.Time            `json:"computed_at"`
}

func newLeaderboardResponse(p domain.LeaderboardPage) leaderboardResponse {
	resp := leaderboardResponse{
		TagID:      p.TagID,
		Type:       p.VoteType,
		Page:       p.Page,
		PageSize:   p.PageSize,
		TotalPages: p.TotalPages,
		Rows:       make([]rankedUserResponse, 0, len(p.Rows)),
		ComputedAt: p.ComputedAt,
	}
	for _, r := range p.Rows {
		resp.Rows = append(resp.Rows, rankedUserResponse(r))
	}
	return resp
}

type favoriteResponse struct {
	TargetID     int64     `json:"target_id"`
	TargetHandle string    `json:"target_handle,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

type favoritePageResponse struct {
	OwnerID    int64              `json:"owner_id"`
	Page       int                `json:"page"`
	PageSize   int                `json:"page_size"`
	TotalPages int                `json:"total_pages"`
	Favorites  []favoriteResponse `json:"favorites"`
}

func newFavoritePageResponse(p *domain.FavoritePage) favoritePageResponse {
	resp := favoritePageResponse{
		OwnerID:    p.OwnerID,
		Page:       p.Page,
		PageSize:   p.PageSize,
		TotalPages: p.TotalPages,
		Favorites:  make([]favoriteResponse, 0, len(p.Edges)),
	}
	for _, e := range p.Edges {
		resp.Favorites = append(resp.Favorites, favoriteResponse{
			TargetID:     e.TargetID,
			TargetHandle: e.TargetHandle,
			CreatedAt:    e.CreatedAt,
		})
	}
	return resp
}

type tagResponse struct {
	ID     int64          `json:"id"`
	Name   string         `json:"name"`
	Type   domain.TagType `json:"type"`
	Active bool           `json:"active"`
}
