// Package export renders stored readings into downloadable documents.
package export

import (
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/tarotlab/tarot-engine/pkg/models"
)

const (
	pageMargin = 15.0
	lineHeight = 6.0
)

// WriteReadingPDF renders a reading as an A4 PDF. spread may be nil, in
// which case the spread id stands in for its name. Output is stable for a
// given reading because the creation date comes from the reading itself.
func WriteReadingPDF(w io.Writer, reading *models.Reading, spread *models.Spread) error {
	if reading == nil {
		return fmt.Errorf("reading is required")
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	// Core fonts are cp1252; translate so accented card names survive.
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	spreadName := reading.SpreadID
	if spread != nil {
		spreadName = spread.Name
	}

	pdf.SetTitle("Tarot reading "+reading.ID.String(), true)
	pdf.SetCreator("tarot-engine", true)
	pdf.SetCreationDate(reading.CreatedAt)
	pdf.SetModificationDate(reading.CreatedAt)
	pdf.SetCatalogSort(true)
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.SetTextColor(120, 120, 120)
		pdf.CellFormat(0, 8, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 10, tr(spreadName), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(90, 90, 90)
	pdf.CellFormat(0, lineHeight, tr(fmt.Sprintf("Topic: %s    Drawn: %s",
		cases.Title(language.English).String(string(reading.Topic)), reading.CreatedAt.UTC().Format("2006-01-02 15:04 UTC"))), "", 1, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)

	if reading.Question != "" {
		pdf.Ln(2)
		pdf.SetFont("Helvetica", "I", 11)
		pdf.MultiCell(0, lineHeight, tr("\""+reading.Question+"\""), "", "L", false)
	}

	section(pdf, tr, "Cards")
	for _, dc := range reading.Cards {
		pdf.SetFont("Helvetica", "B", 11)
		heading := fmt.Sprintf("%d. %s: %s", dc.Position.Position, dc.Position.Name, dc.Card.DisplayName())
		if dc.Orientation == models.Reversed {
			heading += " (reversed)"
		}
		pdf.MultiCell(0, lineHeight, tr(heading), "", "L", false)

		if dc.Interpretation != nil {
			pdf.SetFont("Helvetica", "", 10)
			pdf.MultiCell(0, lineHeight-1, tr(dc.Interpretation.Text()), "", "L", false)
		}
		pdf.Ln(1.5)
	}

	section(pdf, tr, "Interpretation")
	pdf.SetFont("Helvetica", "", 10)
	body := reading.OverallMessage
	if reading.AIText != "" {
		body = reading.AIText
	}
	pdf.MultiCell(0, lineHeight-1, tr(body), "", "L", false)

	if len(reading.Patterns) > 0 {
		section(pdf, tr, "Patterns")
		pdf.SetFont("Helvetica", "", 10)
		for _, p := range reading.Patterns {
			pdf.MultiCell(0, lineHeight-1, tr("- "+p.Description), "", "L", false)
		}
	}

	if p := reading.Probability; p != nil {
		section(pdf, tr, "Outlook")
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(0, lineHeight, fmt.Sprintf("Success %d%%   Challenge %d%%   Uncertainty %d%%",
			p.SuccessProbability, p.ChallengeProbability, p.UncertaintyLevel), "", 1, "L", false, 0, "")
		if p.Recommendation != "" {
			pdf.MultiCell(0, lineHeight-1, tr(p.Recommendation), "", "L", false)
		}
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to write pdf: %w", err)
	}
	return nil
}

func section(pdf *gofpdf.Fpdf, tr func(string) string, title string) {
	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(0, 8, tr(title), "B", 1, "L", false, 0, "")
	pdf.Ln(1)
}
