package app

import (
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"github.com/hyperifyio/gocatalog/internal/extract"
)

const (
	pdfNameWidth  = 110.0
	pdfPriceWidth = 30.0
	pdfImageWidth = 40.0
	pdfRowHeight  = 6.0
)

// writeCatalogPDF renders groups as a printable catalog: one heading per
// group, its description, then a Name / Price / Image table. Image URLs are
// clickable links rather than embedded pictures.
func writeCatalogPDF(groups []extract.ProductGroup, outPath string) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Product catalog", true)
	pdf.SetFont("Helvetica", "", 10)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, "Product catalog", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	if len(groups) == 0 {
		pdf.MultiCell(0, 5, "No products found.", "", "L", false)
	}

	for _, g := range groups {
		pdf.Ln(4)
		name := g.Name
		if name == "" {
			name = "(untitled)"
		}
		pdf.SetFont("Helvetica", "B", 13)
		pdf.CellFormat(0, 8, tr(name), "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "I", 8)
		pdf.CellFormat(0, 4, tr(g.Source+"  "+g.ID), "", 1, "L", false, 0, "")
		if g.Description != "" {
			pdf.SetFont("Helvetica", "", 10)
			pdf.MultiCell(0, 5, tr(g.Description), "", "L", false)
		}

		pdf.SetFont("Helvetica", "B", 10)
		pdf.SetFillColor(235, 235, 235)
		pdf.CellFormat(pdfNameWidth, pdfRowHeight, "Name", "1", 0, "L", true, 0, "")
		pdf.CellFormat(pdfPriceWidth, pdfRowHeight, "Price", "1", 0, "R", true, 0, "")
		pdf.CellFormat(pdfImageWidth, pdfRowHeight, "Image", "1", 1, "L", true, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		for _, sp := range g.SubProducts {
			pdf.CellFormat(pdfNameWidth, pdfRowHeight, tr(fitText(pdf, sp.Name, pdfNameWidth)), "1", 0, "L", false, 0, "")
			pdf.CellFormat(pdfPriceWidth, pdfRowHeight, sp.Price, "1", 0, "R", false, 0, "")
			if sp.Image != "" {
				pdf.SetTextColor(0, 0, 200)
				pdf.CellFormat(pdfImageWidth, pdfRowHeight, "view", "1", 1, "L", false, 0, sp.Image)
				pdf.SetTextColor(0, 0, 0)
			} else {
				pdf.CellFormat(pdfImageWidth, pdfRowHeight, "", "1", 1, "L", false, 0, "")
			}
		}
	}

	if err := pdf.OutputFileAndClose(outPath); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

// fitText shortens s with an ellipsis until it fits width.
func fitText(pdf *gofpdf.Fpdf, s string, width float64) string {
	max := width - 2
	if pdf.GetStringWidth(s) <= max {
		return s
	}
	r := []rune(s)
	for len(r) > 0 && pdf.GetStringWidth(string(r)+"...") > max {
		r = r[:len(r)-1]
	}
	return string(r) + "..."
}
