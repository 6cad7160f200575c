package utils

import (
	"strings"
	"testing"
)

func TestReadPrizeRows(t *testing.T) {
	input := `Prize Name,Category,Description,Weight,Stock,Emoji
Free court hour,digital,Any weekday,3,10,🎾
Padel balls,PHYSICAL,,,,🟡
,physical,missing name,1,1,
Try again,no_win,,abc,,🎲
`
	rows, rowErrors, err := ReadPrizeRows(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadPrizeRows() error = %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("ReadPrizeRows() rows = %d, want 2", len(rows))
	}
	if len(rowErrors) != 2 {
		t.Fatalf("ReadPrizeRows() rowErrors = %v, want 2 entries", rowErrors)
	}

	first := rows[0]
	if first.Name != "Free court hour" || first.Category != "digital" || first.Emoji != "🎾" {
		t.Errorf("first row = %+v", first)
	}
	if first.Weight == nil || *first.Weight != 3 {
		t.Errorf("first row weight = %v, want 3", first.Weight)
	}
	if first.Quantity == nil || *first.Quantity != 10 {
		t.Errorf("first row quantity = %v, want 10", first.Quantity)
	}
	if rows[1].Weight != nil || rows[1].Quantity != nil {
		t.Errorf("second row optional fields = %v %v, want nil", rows[1].Weight, rows[1].Quantity)
	}
	if rowErrors[0].Line != 4 || rowErrors[1].Line != 5 {
		t.Errorf("rowErrors lines = %d, %d, want 4, 5", rowErrors[0].Line, rowErrors[1].Line)
	}
}

func TestReadPrizeRowsMissingColumns(t *testing.T) {
	if _, _, err := ReadPrizeRows(strings.NewReader("Description,Weight\nx,1\n")); err == nil {
		t.Error("ReadPrizeRows() without name/category should fail")
	}
}
