package mssql

import (
	"testing"
	"time"

	"github.com/golang-sql/civil"
	"github.com/stretchr/testify/assert"
)

func TestDialect(t *testing.T) {
	t.Parallel()

	d := Dialect{}
	assert.Equal(t, "@p2", d.Placeholder(2))
	assert.Equal(t, "[dbo].[stops]", d.QuoteTable("dbo.stops"))
	assert.Equal(t, " OFFSET 0 ROWS FETCH NEXT 5 ROWS ONLY", d.Limit(5))
	assert.Equal(t, "NVARCHAR(100)", d.ColumnType("varchar", 100))

	assert.Equal(t, time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC), d.Encode(civil.Date{Year: 2020, Month: time.March, Day: 1}))
	assert.Equal(t, time.Date(1, 1, 1, 7, 5, 0, 0, time.UTC), d.Encode(civil.Time{Hour: 7, Minute: 5}))
	assert.Equal(t, "x", d.Encode("x"))
}

func TestSwapScript(t *testing.T) {
	t.Parallel()

	got := swapScript("dbo.stops__next", "dbo.stops")
	assert.Equal(t, []string{
		"IF OBJECT_ID(N'[dbo].[stops__prev]', N'U') IS NOT NULL DROP TABLE [dbo].[stops__prev]",
		"IF OBJECT_ID(N'[dbo].[stops]', N'U') IS NOT NULL EXEC sp_rename N'[dbo].[stops]', N'stops__prev'",
		"EXEC sp_rename N'[dbo].[stops__next]', N'stops'",
		"IF OBJECT_ID(N'[dbo].[stops__prev]', N'U') IS NOT NULL DROP TABLE [dbo].[stops__prev]",
	}, got)
}
