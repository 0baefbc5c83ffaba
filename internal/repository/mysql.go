package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/transport-ticketing/internal/apperr"
)

// MySQL error numbers handled by the store.
const (
	errDupEntry        = 1062
	errLockWaitTimeout = 1205
	errDeadlock        = 1213
)

// MySQLStore implements Store on MySQL.  A MySQLStore returned to a
// RunInTx callback runs every statement on that transaction and locks the
// rows it reads with SELECT ... FOR UPDATE where the interface asks for it.
type MySQLStore struct {
	db         *sqlx.DB
	q          sqlx.ExtContext
	inTx       bool
	maxRetries int
}

var _ Store = (*MySQLStore)(nil)

// NewMySQLStore returns a MySQLStore bound to db.  Transactions aborted by
// a deadlock or a lock wait timeout are retried up to maxRetries times.
func NewMySQLStore(db *sqlx.DB, maxRetries int) *MySQLStore {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &MySQLStore{db: db, q: db, maxRetries: maxRetries}
}

// RunInTx implements Store.
func (s *MySQLStore) RunInTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	if s.inTx {
		return fn(ctx, s)
	}
	var err error
	for attempt := 0; ; attempt++ {
		err = s.runOnce(ctx, fn)
		if err == nil || !retryable(err) || attempt >= s.maxRetries {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt+1) * 20 * time.Millisecond):
		}
	}
}

func (s *MySQLStore) runOnce(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return apperr.Transient("begin transaction", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	view := &MySQLStore{db: s.db, q: tx, inTx: true}
	if err := fn(ctx, view); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return apperr.Transient("commit transaction", err)
	}
	committed = true
	return nil
}

// forUpdate returns the locking suffix for reads inside a transaction.
func (s *MySQLStore) forUpdate() string {
	if s.inTx {
		return " FOR UPDATE"
	}
	return ""
}

func (s *MySQLStore) get(ctx context.Context, op string, dest any, query string, args ...any) error {
	if err := sqlx.GetContext(ctx, s.q, dest, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return storeErr(op, err)
	}
	return nil
}

func (s *MySQLStore) selectAll(ctx context.Context, op string, dest any, query string, args ...any) error {
	if err := sqlx.SelectContext(ctx, s.q, dest, query, args...); err != nil {
		return storeErr(op, err)
	}
	return nil
}

// exec runs a write.  When mustMatch is set a statement touching no row
// yields ErrNotFound.
func (s *MySQLStore) exec(ctx context.Context, op string, mustMatch bool, query string, args ...any) error {
	res, err := s.q.ExecContext(ctx, query, args...)
	if err != nil {
		return storeErr(op, err)
	}
	if mustMatch {
		n, err := res.RowsAffected()
		if err != nil {
			return storeErr(op, err)
		}
		if n == 0 {
			return ErrNotFound
		}
	}
	return nil
}

// storeErr classifies a driver error.  Duplicate keys become ErrConflict;
// everything else is transient.
func storeErr(op string, err error) error {
	var me *mysql.MySQLError
	if errors.As(err, &me) && me.Number == errDupEntry {
		return ErrConflict
	}
	return apperr.Transient(op, err)
}

func retryable(err error) bool {
	var me *mysql.MySQLError
	if !errors.As(err, &me) {
		return false
	}
	return me.Number == errDeadlock || me.Number == errLockWaitTimeout
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func now() time.Time { return time.Now().UTC() }
