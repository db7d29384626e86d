package postgres

import (
	"database/sql"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"catdist/domain/chart"
)

func TestQueriesQuoteTable(t *testing.T) {
	r := NewRowRepository(nil, `rows"; DROP TABLE x; --`)

	assert.Contains(t, r.selectQuery(), `FROM "rows""; DROP TABLE x; --"`)
	assert.Contains(t, r.insertQuery(), `INSERT INTO "rows""; DROP TABLE x; --"`)
	assert.Contains(t, r.createQuery(), `CREATE TABLE IF NOT EXISTS "rows""; DROP TABLE x; --"`)
}

func TestRowConversion(t *testing.T) {
	scanned := chartRow{
		Category: sql.NullString{String: "A", Valid: true},
		Marked:   sql.NullBool{Bool: true, Valid: true},
	}
	row := scanned.toRow("chart_rows", 3)

	assert.True(t, math.IsNaN(row.Y), "NULL value is missing data")
	assert.Equal(t, "A", row.Category)
	assert.True(t, row.Marked)
	assert.NotEmpty(t, row.ID)

	back := fromRow(chart.Row{Y: math.NaN(), Category: "B"})
	assert.False(t, back.Value.Valid)
	assert.Equal(t, "B", back.Category.String)

	back = fromRow(chart.Row{Y: 2.5})
	assert.True(t, back.Value.Valid)
	assert.Equal(t, 2.5, back.Value.Float64)
}
