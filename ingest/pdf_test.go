package ingest

import (
	"testing"

	pdflib "github.com/ledongthuc/pdf"
)

func frag(s string, x, y float64, font string, size float64) pdflib.Text {
	return pdflib.Text{S: s, X: x, Y: y, W: float64(len(s)) * size * 0.5, FontSize: size, Font: font}
}

func TestGroupLinesByBaseline(t *testing.T) {
	texts := []pdflib.Text{
		frag("Annual", 72, 700, "Helvetica-Bold", 18),
		frag("Report", 140, 700.8, "Helvetica-Bold", 18),
		frag("Body text follows.", 72, 680, "Helvetica", 10),
	}

	lines := groupLines(texts)
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if len(lines[0]) != 2 {
		t.Errorf("first line has %d fragments, want 2", len(lines[0]))
	}
	if lines[0][0].S != "Annual" || lines[0][1].S != "Report" {
		t.Errorf("first line out of horizontal order: %v", lines[0])
	}
}

func TestGroupLinesSkipsEmptyFragments(t *testing.T) {
	texts := []pdflib.Text{
		frag("", 72, 700, "Helvetica", 10),
		frag("kept", 72, 650, "Helvetica", 10),
	}
	lines := groupLines(texts)
	if len(lines) != 1 || lines[0][0].S != "kept" {
		t.Errorf("lines = %v, want only the non-empty fragment", lines)
	}
}

func TestPageElements(t *testing.T) {
	texts := []pdflib.Text{
		frag("Heading", 72, 700, "Times-Bold", 16),
		frag("body", 72, 680, "Times-Roman", 10),
		frag("continues", 110, 680, "Times-Roman", 10),
	}

	elems := pageElements(3, texts)
	if len(elems) != 2 {
		t.Fatalf("got %d elements, want 2", len(elems))
	}

	heading := elems[0]
	if heading.Text != "Heading" || heading.Page != 3 {
		t.Errorf("heading = %+v", heading)
	}
	if !heading.Bold {
		t.Error("Times-Bold line should be bold")
	}
	if heading.FontSize != 16 || heading.FontName != "Times-Bold" {
		t.Errorf("heading typography = %v %q", heading.FontSize, heading.FontName)
	}

	body := elems[1]
	if body.Text != "body continues" {
		t.Errorf("body text = %q, want joined fragments", body.Text)
	}
	if body.Bold {
		t.Error("Times-Roman line should not be bold")
	}
	if body.ID == heading.ID {
		t.Error("elements must have distinct ids")
	}
}

func TestIsBoldFont(t *testing.T) {
	tests := []struct {
		font string
		want bool
	}{
		{"Helvetica-Bold", true},
		{"ArialBlack", true},
		{"Inter-Heavy", true},
		{"Times-Roman", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := isBoldFont(tt.font); got != tt.want {
			t.Errorf("isBoldFont(%q) = %v, want %v", tt.font, got, tt.want)
		}
	}
}
