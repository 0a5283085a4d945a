// Package report renders charts as printable documents.
package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/couchcryptid/natal-chart-service/internal/domain"
	"github.com/couchcryptid/natal-chart-service/internal/interpret"
	"github.com/jung-kurt/gofpdf"
)

// compress toggles stream compression; tests turn it off to inspect page text.
var compress = true

// BuildChartPDF renders an A4 natal chart report: birth details, a placement
// table, the element balance, and one interpretation paragraph per entry.
// A nil catalog omits the interpretation section.
func BuildChartPDF(c domain.Chart, tally domain.ElementTally, catalog *interpret.Catalog) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(compress)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Natal Chart", false)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(0, 10, "Natal Chart")
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 10)
	for _, line := range headerLines(c) {
		pdf.Cell(0, 6, tr(line))
		pdf.Ln(5)
	}
	pdf.Ln(4)

	// Placements
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(45, 6, "Point", "1", 0, "L", false, 0, "")
	pdf.CellFormat(35, 6, "Sign", "1", 0, "L", false, 0, "")
	pdf.CellFormat(30, 6, "Degree", "1", 0, "R", false, 0, "")
	pdf.CellFormat(20, 6, "House", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, b := range domain.AllBodies {
		p, ok := c.Placement(b)
		if !ok {
			continue
		}
		pdf.CellFormat(45, 6, b.Label(), "1", 0, "L", false, 0, "")
		pdf.CellFormat(35, 6, p.Sign.String(), "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 6, tr(fmt.Sprintf("%.2f°", p.Degree)), "1", 0, "R", false, 0, "")
		pdf.CellFormat(20, 6, fmt.Sprintf("%d", p.House), "1", 0, "C", false, 0, "")
		pdf.Ln(-1)
	}
	pdf.Ln(6)

	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(0, 8, "Element balance")
	pdf.Ln(8)
	pdf.SetFont("Arial", "", 10)
	for _, e := range domain.Elements {
		pdf.CellFormat(30, 6, string(e), "", 0, "L", false, 0, "")
		pdf.CellFormat(20, 6, fmt.Sprintf("%d%%", tally.Percent(e)), "", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	if catalog != nil {
		pdf.Ln(6)
		pdf.SetFont("Arial", "B", 12)
		pdf.Cell(0, 8, "Interpretation")
		pdf.Ln(8)
		pdf.SetFont("Arial", "", 10)
		for _, b := range domain.AllBodies {
			p, ok := c.Placement(b)
			if !ok {
				continue
			}
			pdf.MultiCell(0, 5, tr(catalog.Describe(b, p)), "", "L", false)
			pdf.Ln(2)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render chart pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func houseSystemLabel(h domain.HouseSystem) string {
	switch h {
	case domain.WholeSign:
		return "Whole Sign"
	case domain.Placidus:
		return "Placidus"
	default:
		return string(h)
	}
}

// headerLines lists the birth details printed above the placement table.
// Every line may carry user text, so all of them go through the translator.
func headerLines(c domain.Chart) []string {
	lines := []string{
		fmt.Sprintf("Place: %s", c.City),
		fmt.Sprintf("Born: %s %s", c.Date, c.Time),
		fmt.Sprintf("House system: %s", houseSystemLabel(c.HouseSystem)),
	}
	if c.Polarity != "" {
		lines = append(lines, fmt.Sprintf("Sect: %s chart", c.Polarity))
	}
	if !c.ComputedAt.IsZero() {
		lines = append(lines, fmt.Sprintf("Generated: %s", c.ComputedAt.UTC().Format(time.RFC3339)))
	}
	return lines
}
