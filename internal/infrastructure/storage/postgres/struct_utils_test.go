package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"kgv/internal/core/id"
)

type baseRow struct {
	ID        id.ID     `db:"id"`
	CreatedAt time.Time `db:"created_at"`
}

type caseRow struct {
	baseRow
	FileReference string  `db:"file_reference"`
	DistrictCode  string  `db:"district_code"`
	Position      *int    `db:"position"`
	Internal      string  `db:"-"`
	Untagged      float64 ``
}

func TestExtractDBColumns(t *testing.T) {
	cols := ExtractDBColumns[caseRow]()

	expected := []string{"id", "created_at", "file_reference", "district_code", "position"}
	for _, col := range expected {
		assert.Contains(t, cols, col)
	}
	assert.NotContains(t, cols, "-")
	assert.Len(t, cols, len(expected))
}

func TestStructToMap(t *testing.T) {
	now := time.Now().UTC()
	pos := 7
	row := caseRow{
		baseRow: baseRow{
			ID:        id.New(),
			CreatedAt: now,
		},
		FileReference: "07-00123/2024",
		DistrictCode:  "07",
		Position:      &pos,
		Internal:      "hidden",
		Untagged:      1.5,
	}

	m := StructToMap(row)

	assert.Equal(t, row.ID, m["id"])
	assert.Equal(t, now, m["created_at"])
	assert.Equal(t, "07-00123/2024", m["file_reference"])
	assert.Equal(t, "07", m["district_code"])
	assert.Equal(t, &pos, m["position"])
	assert.NotContains(t, m, "-")
	assert.Len(t, m, 5)
}

func TestStructToMap_PointerInput(t *testing.T) {
	row := &caseRow{FileReference: "12-00001/2025"}
	m := StructToMap(row)
	assert.Equal(t, "12-00001/2025", m["file_reference"])
}

func TestStructToMap_NonStruct(t *testing.T) {
	assert.Nil(t, StructToMap(42))
	assert.Nil(t, StructToMap("text"))
}
