package mysql

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/golang-sql/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenameStatement(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "RENAME TABLE `s__next` TO `s`", renameStatement("s__next", "s", false))
	assert.Equal(t, "RENAME TABLE `s` TO `s__prev`, `s__next` TO `s`", renameStatement("s__next", "s", true))
}

func TestDialect(t *testing.T) {
	t.Parallel()

	d := Dialect{}
	assert.Equal(t, "2020-03-01", d.Encode(civil.Date{Year: 2020, Month: time.March, Day: 1}))
	assert.Equal(t, "07:05:00", d.Encode(civil.Time{Hour: 7, Minute: 5}))
	assert.Equal(t, true, d.Encode(true))
	assert.Equal(t, "TIME_FORMAT(t, '%l %p')", d.HourLabel("t"))
	assert.Equal(t, "`police`.`stops`", d.QuoteTable("police.stops"))
}

// TestRepository_Integration runs only when TEST_MYSQL_DSN is set, e.g.
// TEST_MYSQL_DSN='root:pass@tcp(127.0.0.1:3306)/test'.
func TestRepository_Integration(t *testing.T) {
	dsn := os.Getenv("TEST_MYSQL_DSN")
	if dsn == "" {
		t.Skip("skipping integration test: set TEST_MYSQL_DSN to run")
	}
	ctx := context.Background()
	repo, closeFn, err := NewRepository(ctx, Config{DSN: dsn, PoolSize: 2})
	require.NoError(t, err)
	defer closeFn()

	d := Dialect{}
	require.NoError(t, repo.Exec(ctx, "DROP TABLE IF EXISTS checkpost_it, checkpost_it__next"))
	require.NoError(t, repo.Exec(ctx, "CREATE TABLE checkpost_it__next (d DATE NULL, tm TIME NULL, b TINYINT(1) NULL)"))
	n, err := repo.CopyFrom(ctx, "checkpost_it__next", []string{"d", "tm", "b"}, [][]any{
		{d.Encode(civil.Date{Year: 2020, Month: time.March, Day: 9}), d.Encode(civil.Time{Hour: 19, Minute: 45}), true},
		{nil, nil, nil},
	})
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
	require.NoError(t, repo.Swap(ctx, "checkpost_it__next", "checkpost_it"))

	rs, err := repo.Query(ctx, "SELECT "+d.Year("d")+", "+d.MonthName("d")+", "+d.HourLabel("tm")+", d FROM checkpost_it WHERE d IS NOT NULL")
	require.NoError(t, err)
	assert.Equal(t, []any{int64(2020), "March", "7 PM", "2020-03-09"}, rs.Rows[0])
}
