package postgres

import (
	"github.com/jackc/pgx/v5"
)

func errNoRowsForTest() error { return pgx.ErrNoRows }
