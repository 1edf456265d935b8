package domain

// Score is a point-in-time reputation summary for one target.
type Score struct {
	TargetID          int64
	Score             int
	WeightedRecommend float64
	WeightedWarn      float64
	RecommendCount    int
	WarnCount         int
	FavoriteCount     int
}
