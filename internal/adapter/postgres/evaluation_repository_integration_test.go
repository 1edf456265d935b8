package postgres

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/pscheid92/repledger/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func TestEvaluationInsert_DuplicateScenario(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewEvaluationRepo(pool)
	ctx := context.Background()
	reliable := seedTag(t, pool, "Reliable", "positive")

	ev, err := repo.Insert(ctx, 1, 2, reliable, t0)
	require.NoError(t, err)
	assert.Equal(t, domain.VoteRecommend, ev.Type)
	assert.True(t, t0.Equal(ev.CreatedAt))

	_, err = repo.Insert(ctx, 1, 2, reliable, t0.Add(time.Minute))
	assert.ErrorIs(t, err, domain.ErrDuplicateEvaluation)

	counts, err := repo.CountsForTarget(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, counts.RecommendCount)
	assert.Equal(t, 0, counts.WarnCount)
}

func TestEvaluationInsert_ConcurrentSameTriple(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewEvaluationRepo(pool)
	ctx := context.Background()
	reliable := seedTag(t, pool, "Reliable", "positive")

	const writers = 8
	start := make(chan struct{})
	errs := make([]error, writers)
	var wg sync.WaitGroup
	for i := range writers {
		wg.Go(func() {
			<-start
			_, errs[i] = repo.Insert(ctx, 1, 2, reliable, t0)
		})
	}
	close(start)
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrDuplicateEvaluation)
	}
	assert.Equal(t, 1, succeeded)

	counts, err := repo.CountsForTarget(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, counts.RecommendCount)
}

func TestEvaluationInsert_CreatesUsers(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewEvaluationRepo(pool)
	users := NewUserRepo(pool)
	ctx := context.Background()
	tag := seedTag(t, pool, "Reliable", "positive")

	_, err := repo.Insert(ctx, 10, 20, tag, t0)
	require.NoError(t, err)

	for _, id := range []int64{10, 20} {
		u, err := users.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "", u.Handle)
	}
}

func TestEvaluationInsert_SameTripleDifferentTagAllowed(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewEvaluationRepo(pool)
	ctx := context.Background()
	reliable := seedTag(t, pool, "Reliable", "positive")
	fast := seedTag(t, pool, "Fast", "positive")

	_, err := repo.Insert(ctx, 1, 2, reliable, t0)
	require.NoError(t, err)
	_, err = repo.Insert(ctx, 1, 2, fast, t0)
	require.NoError(t, err)

	counts, err := repo.CountsForTarget(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, counts.RecommendCount)
	assert.Len(t, counts.ByTag, 2)
}

func TestEvaluationInsert_UnknownOrInactiveTag(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewEvaluationRepo(pool)
	tags := NewTagRepo(pool)
	ctx := context.Background()
	tag := seedTag(t, pool, "Retired", "positive")
	require.NoError(t, tags.SetActive(ctx, tag, false))

	_, err := repo.Insert(ctx, 1, 2, tag, t0)
	assert.ErrorIs(t, err, domain.ErrUnknownTag)

	_, err = repo.Insert(ctx, 1, 2, 9999, t0)
	assert.ErrorIs(t, err, domain.ErrUnknownTag)
}

func TestEvaluationInsert_SelfEvaluationBackstop(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewEvaluationRepo(pool)
	tag := seedTag(t, pool, "Reliable", "positive")

	_, err := repo.Insert(context.Background(), 3, 3, tag, t0)

	assert.ErrorIs(t, err, domain.ErrSelfEvaluation)
}

func TestCountsForTarget_ByTag(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewEvaluationRepo(pool)
	ctx := context.Background()
	reliable := seedTag(t, pool, "Reliable", "positive")
	scammer := seedTag(t, pool, "Scammer", "negative")

	for evaluator := int64(10); evaluator < 13; evaluator++ {
		_, err := repo.Insert(ctx, evaluator, 1, reliable, t0)
		require.NoError(t, err)
	}
	_, err := repo.Insert(ctx, 20, 1, scammer, t0)
	require.NoError(t, err)

	counts, err := repo.CountsForTarget(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, counts.RecommendCount)
	assert.Equal(t, 1, counts.WarnCount)
	require.Len(t, counts.ByTag, 2)
	assert.Equal(t, domain.TagCount{TagID: reliable, TagName: "Reliable", Type: domain.VoteRecommend, Count: 3}, counts.ByTag[0])
	assert.Equal(t, domain.VoteWarn, counts.ByTag[1].Type)
}

func TestCountsForTarget_Unknown(t *testing.T) {
	pool := setupTestDB(t)

	counts, err := NewEvaluationRepo(pool).CountsForTarget(context.Background(), 404)

	require.NoError(t, err)
	assert.Zero(t, counts.RecommendCount)
	assert.Zero(t, counts.WarnCount)
}

func TestStampsForTarget(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewEvaluationRepo(pool)
	ctx := context.Background()
	reliable := seedTag(t, pool, "Reliable", "positive")
	scammer := seedTag(t, pool, "Scammer", "negative")

	_, err := repo.Insert(ctx, 1, 5, reliable, t0)
	require.NoError(t, err)
	_, err = repo.Insert(ctx, 2, 5, scammer, t0.Add(time.Hour))
	require.NoError(t, err)

	stamps, err := repo.StampsForTarget(ctx, 5)
	require.NoError(t, err)
	require.Len(t, stamps, 2)

	types := map[domain.VoteType]int{}
	for _, s := range stamps {
		types[s.Type]++
	}
	assert.Equal(t, 1, types[domain.VoteRecommend])
	assert.Equal(t, 1, types[domain.VoteWarn])
}

func TestDeleteEvaluations(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewEvaluationRepo(pool)
	ctx := context.Background()
	tag := seedTag(t, pool, "Reliable", "positive")

	_, err := repo.Insert(ctx, 1, 2, tag, t0)
	require.NoError(t, err)
	_, err = repo.Insert(ctx, 1, 3, tag, t0)
	require.NoError(t, err)
	_, err = repo.Insert(ctx, 4, 1, tag, t0)
	require.NoError(t, err)

	n, err := repo.DeleteByEvaluator(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = repo.DeleteByEvaluator(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	n, err = repo.DeleteByTarget(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestRanking_OrderAndTieBreak(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewEvaluationRepo(pool)
	users := NewUserRepo(pool)
	ctx := context.Background()
	tag := seedTag(t, pool, "Reliable", "positive")

	_, err := users.Upsert(ctx, 100, "zed")
	require.NoError(t, err)
	_, err = users.Upsert(ctx, 101, "amy")
	require.NoError(t, err)
	_, err = users.Upsert(ctx, 102, "bob")
	require.NoError(t, err)

	// zed: 3, amy: 1, bob: 1
	for evaluator := int64(1); evaluator <= 3; evaluator++ {
		_, err := repo.Insert(ctx, evaluator, 100, tag, t0)
		require.NoError(t, err)
	}
	_, err = repo.Insert(ctx, 1, 102, tag, t0)
	require.NoError(t, err)
	_, err = repo.Insert(ctx, 1, 101, tag, t0)
	require.NoError(t, err)

	total, err := repo.CountRankedTargets(ctx, tag, domain.VoteRecommend)
	require.NoError(t, err)
	assert.Equal(t, 3, total)

	rows, err := repo.RankTargets(ctx, tag, domain.VoteRecommend, 10, 0)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"zed", "amy", "bob"}, []string{rows[0].Handle, rows[1].Handle, rows[2].Handle})
	assert.Equal(t, 3, rows[0].Count)

	page2, err := repo.RankTargets(ctx, tag, domain.VoteRecommend, 2, 2)
	require.NoError(t, err)
	require.Len(t, page2, 1)
	assert.Equal(t, int64(102), page2[0].UserID)
}

func TestRanking_FiltersByTagTypeAndHidden(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewEvaluationRepo(pool)
	users := NewUserRepo(pool)
	ctx := context.Background()
	reliable := seedTag(t, pool, "Reliable", "positive")
	fast := seedTag(t, pool, "Fast", "positive")
	scammer := seedTag(t, pool, "Scammer", "negative")

	_, err := repo.Insert(ctx, 1, 10, reliable, t0)
	require.NoError(t, err)
	_, err = repo.Insert(ctx, 1, 11, fast, t0)
	require.NoError(t, err)
	_, err = repo.Insert(ctx, 1, 12, scammer, t0)
	require.NoError(t, err)
	_, err = repo.Insert(ctx, 1, 13, reliable, t0)
	require.NoError(t, err)
	require.NoError(t, users.SetHidden(ctx, 13, true))

	byTag, err := repo.CountRankedTargets(ctx, reliable, domain.VoteRecommend)
	require.NoError(t, err)
	assert.Equal(t, 1, byTag)

	allPositive, err := repo.CountRankedTargets(ctx, domain.AllTags, domain.VoteRecommend)
	require.NoError(t, err)
	assert.Equal(t, 2, allPositive)

	warns, err := repo.RankTargets(ctx, domain.AllTags, domain.VoteWarn, 10, 0)
	require.NoError(t, err)
	require.Len(t, warns, 1)
	assert.Equal(t, int64(12), warns[0].UserID)

	// A positive tag id combined with the warn type selects nothing.
	mismatch, err := repo.CountRankedTargets(ctx, reliable, domain.VoteWarn)
	require.NoError(t, err)
	assert.Zero(t, mismatch)
}

func TestFindShilling_SixthRecommendFires(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewEvaluationRepo(pool)
	ctx := context.Background()
	now := t0.Add(2 * time.Hour)

	tags := make([]int64, 6)
	for i := range tags {
		tags[i] = seedTag(t, pool, fmt.Sprintf("Good %d", i), "positive")
	}

	const target = 99
	for evaluator := int64(1); evaluator <= 5; evaluator++ {
		_, err := repo.Insert(ctx, evaluator, target, tags[0], t0)
		require.NoError(t, err)
	}
	const shill = 50
	for i := range 5 {
		_, err := repo.Insert(ctx, shill, target, tags[i], t0.Add(time.Duration(i)*time.Minute))
		require.NoError(t, err)
	}

	findings, err := repo.FindShilling(ctx, now.Add(-24*time.Hour), 5)
	require.NoError(t, err)
	assert.Empty(t, findings, "five recommends from one evaluator stay under the threshold")

	_, err = repo.Insert(ctx, shill, target, tags[5], t0.Add(time.Hour))
	require.NoError(t, err)

	findings, err = repo.FindShilling(ctx, now.Add(-24*time.Hour), 5)
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, domain.ShillingFinding{EvaluatorID: shill, TargetID: target, Count: 6}, findings[0])
}

func TestFindShilling_IgnoresOldAndNegative(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewEvaluationRepo(pool)
	ctx := context.Background()
	now := t0.Add(48 * time.Hour)

	for i := range 6 {
		pos := seedTag(t, pool, fmt.Sprintf("Good %d", i), "positive")
		neg := seedTag(t, pool, fmt.Sprintf("Bad %d", i), "negative")
		_, err := repo.Insert(ctx, 1, 2, pos, t0)
		require.NoError(t, err)
		_, err = repo.Insert(ctx, 3, 4, neg, now)
		require.NoError(t, err)
	}

	findings, err := repo.FindShilling(ctx, now.Add(-24*time.Hour), 5)
	require.NoError(t, err)
	assert.Empty(t, findings)
}

func TestFindRevengeDownvotes(t *testing.T) {
	tests := []struct {
		name string
		gap  time.Duration
		want int
	}{
		{"seven minutes fires", 7 * time.Minute, 1},
		{"eleven minutes does not fire", 11 * time.Minute, 0},
		{"exactly ten minutes does not fire", 10 * time.Minute, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pool := setupTestDB(t)
			repo := NewEvaluationRepo(pool)
			ctx := context.Background()
			scammer := seedTag(t, pool, "Scammer", "negative")

			const a, b = 1, 2
			_, err := repo.Insert(ctx, a, b, scammer, t0)
			require.NoError(t, err)
			_, err = repo.Insert(ctx, b, a, scammer, t0.Add(tt.gap))
			require.NoError(t, err)

			findings, err := repo.FindRevengeDownvotes(ctx, t0.Add(-time.Hour), 10*time.Minute)
			require.NoError(t, err)
			require.Len(t, findings, tt.want)
			if tt.want == 1 {
				assert.Equal(t, int64(b), findings[0].RetaliatorID)
				assert.Equal(t, int64(a), findings[0].OriginalID)
				assert.True(t, t0.Equal(findings[0].OriginalAt))
				assert.Equal(t, tt.gap, findings[0].ResponseAt.Sub(findings[0].OriginalAt))
			}
		})
	}
}

func TestFindRevengeDownvotes_IgnoresRecommends(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewEvaluationRepo(pool)
	ctx := context.Background()
	reliable := seedTag(t, pool, "Reliable", "positive")
	scammer := seedTag(t, pool, "Scammer", "negative")

	_, err := repo.Insert(ctx, 1, 2, reliable, t0)
	require.NoError(t, err)
	_, err = repo.Insert(ctx, 2, 1, scammer, t0.Add(time.Minute))
	require.NoError(t, err)

	findings, err := repo.FindRevengeDownvotes(ctx, t0.Add(-time.Hour), 10*time.Minute)
	require.NoError(t, err)
	assert.Empty(t, findings)
}
