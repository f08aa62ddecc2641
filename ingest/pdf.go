package ingest

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	pdflib "github.com/ledongthuc/pdf"

	"github.com/tsawler/collate/internal/logging"
	"github.com/tsawler/collate/model"
)

// lineTolerance is the maximum vertical distance, in points, between
// fragments that still count as the same line.
const lineTolerance = 2.0

// LoadPDF reads a PDF file and returns its text as positioned line
// elements in document order.
func LoadPDF(path string) ([]model.ContentElement, error) {
	f, reader, err := pdflib.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", path, err)
	}
	defer f.Close()

	var elements []model.ContentElement
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		elements = append(elements, pageElements(i, page.Content().Text)...)
	}

	logging.IngestStats(path, numPages, len(elements))
	return elements, nil
}

// pageElements groups a page's raw text fragments into line elements.
func pageElements(page int, texts []pdflib.Text) []model.ContentElement {
	lines := groupLines(texts)
	elements := make([]model.ContentElement, 0, len(lines))
	for _, ln := range lines {
		e := lineElement(page, ln)
		if e.Text == "" {
			continue
		}
		elements = append(elements, e)
	}
	return elements
}

// groupLines buckets fragments by vertical position. Fragments within
// lineTolerance of a line's baseline join that line; each line is then
// ordered left to right.
func groupLines(texts []pdflib.Text) [][]pdflib.Text {
	sorted := make([]pdflib.Text, len(texts))
	copy(sorted, texts)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Y != sorted[j].Y {
			return sorted[i].Y > sorted[j].Y
		}
		return sorted[i].X < sorted[j].X
	})

	var lines [][]pdflib.Text
	for _, t := range sorted {
		if t.S == "" {
			continue
		}
		n := len(lines)
		if n > 0 && abs(lines[n-1][0].Y-t.Y) <= lineTolerance {
			lines[n-1] = append(lines[n-1], t)
			continue
		}
		lines = append(lines, []pdflib.Text{t})
	}

	for _, ln := range lines {
		sort.SliceStable(ln, func(i, j int) bool { return ln[i].X < ln[j].X })
	}
	return lines
}

// lineElement merges one line's fragments into a content element. The
// line takes the typography of its first fragment; its box spans every
// fragment.
func lineElement(page int, line []pdflib.Text) model.ContentElement {
	var sb strings.Builder
	minX, maxX := line[0].X, line[0].X+line[0].W
	for i, t := range line {
		if i > 0 && needsSpace(sb.String(), t.S) {
			sb.WriteByte(' ')
		}
		sb.WriteString(t.S)
		if t.X < minX {
			minX = t.X
		}
		if t.X+t.W > maxX {
			maxX = t.X + t.W
		}
	}

	first := line[0]
	height := first.FontSize
	if height <= 0 {
		height = 12
	}
	return model.ContentElement{
		ID:       uuid.New(),
		Type:     model.ElementTypeText,
		Page:     page,
		BBox:     model.NewBBox(minX, first.Y, maxX-minX, height),
		Text:     strings.TrimSpace(sb.String()),
		FontSize: first.FontSize,
		FontName: first.Font,
		Bold:     isBoldFont(first.Font),
	}
}

// needsSpace reports whether a joining space belongs between
// accumulated text and the next fragment. Fragments often arrive
// pre-spaced, so a space is added only when neither side carries one.
func needsSpace(acc, next string) bool {
	if acc == "" || next == "" {
		return false
	}
	return !strings.HasSuffix(acc, " ") && !strings.HasPrefix(next, " ")
}

// isBoldFont recognizes boldness from the font's PostScript name.
func isBoldFont(font string) bool {
	f := strings.ToLower(font)
	return strings.Contains(f, "bold") || strings.Contains(f, "black") || strings.Contains(f, "heavy")
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
