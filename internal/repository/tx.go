package repository

import (
	"context"
	"database/sql"
	"fmt"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
)

// WithTx runs fn inside a transaction. Any error or panic rolls it back.
func WithTx(ctx context.Context, drv dialect.Driver, fn func(tx dialect.Tx) error) (err error) {
	tx, err := drv.Tx(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()
	if err := fn(tx); err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			return fmt.Errorf("%w: rolling back transaction: %v", err, rerr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func execQ(ctx context.Context, x dialect.ExecQuerier, q entsql.Querier) error {
	query, args := q.Query()
	return x.Exec(ctx, query, args, nil)
}

// execAffected runs q and returns the number of rows it touched.
func execAffected(ctx context.Context, x dialect.ExecQuerier, q entsql.Querier) (int64, error) {
	query, args := q.Query()
	var res sql.Result
	if err := x.Exec(ctx, query, args, &res); err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// queryQ runs q and hands the open rows to scan. Rows are always closed
// before returning.
func queryQ(ctx context.Context, x dialect.ExecQuerier, q entsql.Querier, scan func(rows *entsql.Rows) error) error {
	query, args := q.Query()
	rows := &entsql.Rows{}
	if err := x.Query(ctx, query, args, rows); err != nil {
		return err
	}
	defer rows.Close()
	if err := scan(rows); err != nil {
		return err
	}
	return rows.Err()
}
