package repository

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pashagolub/pgxmock/v3"
)

var (
	_ pgxPool = (*pgxpool.Pool)(nil)
	_ pgxPool = pgxmock.PgxPoolIface(nil)
)
