package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pscheid92/repledger/internal/domain"
)

// EvaluationRepo is the append-only evaluation ledger. It also serves the
// leaderboard ranking and the anomaly scans, which are plain aggregates over it.
type EvaluationRepo struct {
	pool *pgxpool.Pool
}

func NewEvaluationRepo(pool *pgxpool.Pool) *EvaluationRepo {
	return &EvaluationRepo{pool: pool}
}

const getActiveTagType = `-- name: GetActiveTagType :one
SELECT type FROM tags WHERE id = $1 AND active`

const insertEvaluation = `-- name: InsertEvaluation :one
INSERT INTO evaluations (evaluator_id, target_id, tag_id, created_at)
VALUES ($1, $2, $3, $4)
RETURNING id, created_at`

func (r *EvaluationRepo) Insert(ctx context.Context, evaluatorID, targetID, tagID int64, createdAt time.Time) (*domain.Evaluation, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, wrapErr("begin transaction", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var tagType domain.TagType
	err = tx.QueryRow(ctx, getActiveTagType, tagID).Scan(&tagType)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrUnknownTag
	}
	if err != nil {
		return nil, wrapErr("look up tag", err)
	}

	if err := ensureUsersTx(ctx, tx, evaluatorID, targetID); err != nil {
		return nil, err
	}

	ev := &domain.Evaluation{
		EvaluatorID: evaluatorID,
		TargetID:    targetID,
		TagID:       tagID,
		Type:        tagType.VoteType(),
	}
	err = tx.QueryRow(ctx, insertEvaluation, evaluatorID, targetID, tagID, createdAt).Scan(&ev.ID, &ev.CreatedAt)
	switch {
	case isPgCode(err, uniqueViolation):
		return nil, domain.ErrDuplicateEvaluation
	case isPgCode(err, checkViolation):
		return nil, domain.ErrSelfEvaluation
	case err != nil:
		return nil, wrapErr("insert evaluation", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, wrapErr("commit evaluation", err)
	}
	return ev, nil
}

const countsForTarget = `-- name: CountsForTarget :many
SELECT t.id, t.name, t.type, COUNT(*)
FROM evaluations e
JOIN tags t ON t.id = e.tag_id
WHERE e.target_id = $1
GROUP BY t.id, t.name, t.type
ORDER BY COUNT(*) DESC, LOWER(t.name), t.id`

func (r *EvaluationRepo) CountsForTarget(ctx context.Context, targetID int64) (*domain.TargetCounts, error) {
	rows, err := r.pool.Query(ctx, countsForTarget, targetID)
	if err != nil {
		return nil, wrapErr("count evaluations", err)
	}

	byTag, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.TagCount, error) {
		var (
			tc      domain.TagCount
			tagType domain.TagType
		)
		err := row.Scan(&tc.TagID, &tc.TagName, &tagType, &tc.Count)
		tc.Type = tagType.VoteType()
		return tc, err
	})
	if err != nil {
		return nil, wrapErr("count evaluations", err)
	}

	counts := &domain.TargetCounts{TargetID: targetID, ByTag: byTag}
	for _, tc := range byTag {
		switch tc.Type {
		case domain.VoteRecommend:
			counts.RecommendCount += tc.Count
		case domain.VoteWarn:
			counts.WarnCount += tc.Count
		}
	}
	return counts, nil
}

const stampsForTarget = `-- name: StampsForTarget :many
SELECT t.type, e.created_at
FROM evaluations e
JOIN tags t ON t.id = e.tag_id
WHERE e.target_id = $1`

func (r *EvaluationRepo) StampsForTarget(ctx context.Context, targetID int64) ([]domain.EvaluationStamp, error) {
	rows, err := r.pool.Query(ctx, stampsForTarget, targetID)
	if err != nil {
		return nil, wrapErr("load evaluation history", err)
	}

	stamps, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.EvaluationStamp, error) {
		var (
			st      domain.EvaluationStamp
			tagType domain.TagType
		)
		err := row.Scan(&tagType, &st.CreatedAt)
		st.Type = tagType.VoteType()
		return st, err
	})
	if err != nil {
		return nil, wrapErr("load evaluation history", err)
	}
	return stamps, nil
}

const deleteByEvaluator = `-- name: DeleteEvaluationsByEvaluator :execrows
DELETE FROM evaluations WHERE evaluator_id = $1`

func (r *EvaluationRepo) DeleteByEvaluator(ctx context.Context, evaluatorID int64) (int64, error) {
	tag, err := r.pool.Exec(ctx, deleteByEvaluator, evaluatorID)
	if err != nil {
		return 0, wrapErr("delete evaluations by evaluator", err)
	}
	return tag.RowsAffected(), nil
}

const deleteByTarget = `-- name: DeleteEvaluationsByTarget :execrows
DELETE FROM evaluations WHERE target_id = $1`

func (r *EvaluationRepo) DeleteByTarget(ctx context.Context, targetID int64) (int64, error) {
	tag, err := r.pool.Exec(ctx, deleteByTarget, targetID)
	if err != nil {
		return 0, wrapErr("delete evaluations by target", err)
	}
	return tag.RowsAffected(), nil
}

// Ranking filters shared by the count and the page query. A tag id of 0 selects all tags.
const rankingFilter = `
FROM evaluations e
JOIN tags t ON t.id = e.tag_id
JOIN users u ON u.id = e.target_id
WHERE t.type = $1
  AND ($2::BIGINT = 0 OR e.tag_id = $2)
  AND NOT u.hidden`

const countRankedTargets = `-- name: CountRankedTargets :one
SELECT COUNT(DISTINCT e.target_id)` + rankingFilter

const rankTargets = `-- name: RankTargets :many
SELECT e.target_id, COALESCE(u.handle, ''), COUNT(*) AS n` + rankingFilter + `
GROUP BY e.target_id, u.handle
ORDER BY n DESC, u.handle ASC, e.target_id ASC
LIMIT $3 OFFSET $4`

func (r *EvaluationRepo) CountRankedTargets(ctx context.Context, tagID int64, voteType domain.VoteType) (int, error) {
	var total int
	err := r.pool.QueryRow(ctx, countRankedTargets, string(voteType.TagType()), tagID).Scan(&total)
	if err != nil {
		return 0, wrapErr("count ranked targets", err)
	}
	return total, nil
}

func (r *EvaluationRepo) RankTargets(ctx context.Context, tagID int64, voteType domain.VoteType, limit, offset int) ([]domain.RankedUser, error) {
	rows, err := r.pool.Query(ctx, rankTargets, string(voteType.TagType()), tagID, limit, offset)
	if err != nil {
		return nil, wrapErr("rank targets", err)
	}

	ranked, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.RankedUser, error) {
		var ru domain.RankedUser
		err := row.Scan(&ru.UserID, &ru.Handle, &ru.Count)
		return ru, err
	})
	if err != nil {
		return nil, wrapErr("rank targets", err)
	}
	return ranked, nil
}

const findShilling = `-- name: FindShilling :many
SELECT e.evaluator_id, e.target_id, COUNT(*) AS n
FROM evaluations e
JOIN tags t ON t.id = e.tag_id
WHERE t.type = 'positive'
  AND e.created_at >= $1
GROUP BY e.target_id, e.evaluator_id
HAVING COUNT(*) > $2
ORDER BY n DESC, e.target_id, e.evaluator_id`

// FindShilling returns (evaluator, target) pairs with more than threshold recommends since the cutoff.
func (r *EvaluationRepo) FindShilling(ctx context.Context, since time.Time, threshold int) ([]domain.ShillingFinding, error) {
	rows, err := r.pool.Query(ctx, findShilling, since, threshold)
	if err != nil {
		return nil, wrapErr("scan for shilling", err)
	}

	findings, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.ShillingFinding, error) {
		var f domain.ShillingFinding
		err := row.Scan(&f.EvaluatorID, &f.TargetID, &f.Count)
		return f, err
	})
	if err != nil {
		return nil, wrapErr("scan for shilling", err)
	}
	return findings, nil
}

const findRevengeDownvotes = `-- name: FindRevengeDownvotes :many
SELECT response.evaluator_id, original.evaluator_id, original.created_at, response.created_at
FROM evaluations response
JOIN tags rt ON rt.id = response.tag_id AND rt.type = 'negative'
JOIN evaluations original
  ON original.evaluator_id = response.target_id
 AND original.target_id = response.evaluator_id
JOIN tags ot ON ot.id = original.tag_id AND ot.type = 'negative'
WHERE response.created_at >= $1
  AND response.created_at > original.created_at
  AND response.created_at - original.created_at < make_interval(secs => $2)
ORDER BY response.created_at, response.id, original.id`

// FindRevengeDownvotes pairs each recent warn with every earlier reciprocal warn inside the window.
func (r *EvaluationRepo) FindRevengeDownvotes(ctx context.Context, since time.Time, window time.Duration) ([]domain.RevengeFinding, error) {
	rows, err := r.pool.Query(ctx, findRevengeDownvotes, since, window.Seconds())
	if err != nil {
		return nil, wrapErr("scan for revenge downvotes", err)
	}

	findings, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.RevengeFinding, error) {
		var f domain.RevengeFinding
		err := row.Scan(&f.RetaliatorID, &f.OriginalID, &f.OriginalAt, &f.ResponseAt)
		return f, err
	})
	if err != nil {
		return nil, wrapErr("scan for revenge downvotes", err)
	}
	return findings, nil
}
