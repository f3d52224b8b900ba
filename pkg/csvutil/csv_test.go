package csvutil

import (
	"errors"
	"testing"
)

func TestParse(t *testing.T) {
	csv := "Email, Name ,Spend\n" +
		"jane@example.com,Jane,120.5\n" +
		"bob@example.com,,40\n" +
		",,\n"

	rows, fields, err := Parse([]byte(csv))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	wantFields := []string{"email", "name", "spend"}
	for i, f := range wantFields {
		if fields[i] != f {
			t.Errorf("fields[%d] = %s, want %s", i, fields[i], f)
		}
	}

	// the all-empty row is dropped
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}

	if rows[0]["email"] != "jane@example.com" {
		t.Errorf("unexpected email: %v", rows[0]["email"])
	}
	if rows[0]["spend"] != 120.5 {
		t.Errorf("numeric cell should be float64, got %T %v", rows[0]["spend"], rows[0]["spend"])
	}

	// empty cells are omitted, not empty strings
	if _, ok := rows[1]["name"]; ok {
		t.Errorf("empty cell should be absent from row")
	}
}

func TestParseNoHeader(t *testing.T) {
	_, _, err := Parse([]byte(""))
	if !errors.Is(err, ErrNoHeader) {
		t.Errorf("got %v, want ErrNoHeader", err)
	}
}

func TestParseMalformed(t *testing.T) {
	csv := "a,b\n\"unterminated\n"
	if _, _, err := Parse([]byte(csv)); err == nil {
		t.Errorf("malformed csv should error")
	}
}
