package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pscheid92/repledger/internal/domain"
)

const (
	uniqueViolation = "23505"
	checkViolation  = "23514"
)

// wrapErr annotates err with the failed operation. Errors that did not come
// from the server itself (dial failures, broken connections, pool exhaustion)
// additionally match domain.ErrStoreUnavailable.
func wrapErr(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	return fmt.Errorf("%w: failed to %s: %w", domain.ErrStoreUnavailable, op, err)
}

func isPgCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}
