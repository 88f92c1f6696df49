package document

import (
	"reflect"
	"testing"
)

func TestNormalize_CollapsesAndDrops(t *testing.T) {
	input := []string{
		"  1.  VOTUM   -  INTROITUS ",
		"",
		"   ",
		"P:\tDengan nama\u00a0Allah",
		"\n",
		"BERNYANYI KJ 3",
	}
	got := Normalize(input)
	want := []string{
		"1. VOTUM - INTROITUS",
		"P: Dengan nama Allah",
		"BERNYANYI KJ 3",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := [][]string{
		{"a  b", " c ", "", "d\u00a0\u00a0e"},
		{"K O O R  AMA", "PKL 08.00 - 09.00"},
		{"Cafe\u0301 latte"},
		{},
	}
	for _, in := range inputs {
		once := Normalize(in)
		twice := Normalize(once)
		if !reflect.DeepEqual(once, twice) {
			t.Errorf("normalize not idempotent: %q -> %q", once, twice)
		}
	}
}

func TestNormalizeLine_ComposesUnicode(t *testing.T) {
	got := NormalizeLine("Cafe\u0301")
	if got != "Caf\u00e9" {
		t.Errorf("expected composed form, got %q", got)
	}
}

func TestDocumentLines_NilSafe(t *testing.T) {
	var d *Document
	if d.Lines() != nil {
		t.Error("expected nil lines for nil document")
	}
	doc := &Document{Paragraphs: []string{" x ", ""}}
	if got := doc.Lines(); len(got) != 1 || got[0] != "x" {
		t.Errorf("expected [x], got %q", got)
	}
}
