package sqlstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRebind(t *testing.T) {
	sqlite := &Store{driver: DriverSQLite}
	pg := &Store{driver: DriverPostgres}

	q := `INSERT INTO t (a, b) VALUES ($1, $12) -- costs $`
	assert.Equal(t, `INSERT INTO t (a, b) VALUES (?, ?) -- costs $`, sqlite.rebind(q))
	assert.Equal(t, q, pg.rebind(q))
}
