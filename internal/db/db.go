// Package db exposes the narrow query surface the chat pipeline needs:
// run one parameterized statement, get generic rows back.
package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	errx "github.com/tradechat-bot/server/internal/core/error"
	logx "github.com/tradechat-bot/server/pkg/logger"
)

// Querier runs a statement with named parameters and returns rows as
// column-name maps.
type Querier interface {
	Query(ctx context.Context, sql string, params map[string]any) ([]map[string]any, error)
}

// PoolQuerier backs Querier with a pgx connection pool.
type PoolQuerier struct {
	pool *pgxpool.Pool
}

func NewPoolQuerier(pool *pgxpool.Pool) *PoolQuerier {
	return &PoolQuerier{pool: pool}
}

func (p *PoolQuerier) Query(ctx context.Context, sql string, params map[string]any) ([]map[string]any, error) {
	rows, err := p.pool.Query(ctx, sql, pgx.NamedArgs(params))
	if err != nil {
		logx.Error().Err(err).Msg("query execution failed")
		return nil, errx.WrapPostgres(err)
	}

	out, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		logx.Error().Err(err).Msg("row collection failed")
		return nil, errx.WrapPostgres(err)
	}
	return out, nil
}

var _ Querier = (*PoolQuerier)(nil)
