package app

import (
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/hyperifyio/postforge/internal/content"
)

// WritePostsPDF renders a response as a printable review sheet: one block per
// post with its position and length, image links, and the cost breakdown.
func WritePostsPDF(resp *content.Response, outPath string) error {
	if resp == nil {
		return fmt.Errorf("write pdf: nil response")
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	// The core fonts are cp1252; map UTF-8 where possible.
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("postforge posts", true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 14)
	title := "Generated posts"
	if resp.Source.Title != "" {
		title = resp.Source.Title
	}
	pdf.CellFormat(0, 9, tr(title), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	if resp.Source.Identifier != "" {
		pdf.CellFormat(0, 5, tr(fmt.Sprintf("%s: %s", resp.Source.Kind, clip(resp.Source.Identifier, 110))), "", 1, "L", false, 0, "")
	}
	pdf.Ln(3)

	for i, p := range resp.Posts {
		pdf.SetFont("Helvetica", "B", 11)
		heading := fmt.Sprintf("Post %d", i+1)
		if p.ThreadPosition != nil {
			heading = fmt.Sprintf("Thread %d/%d", *p.ThreadPosition, len(resp.Posts))
		}
		heading += fmt.Sprintf("  (%d chars)", len([]rune(p.Text)))
		if p.IsPremiumContent {
			heading += "  premium"
		}
		pdf.CellFormat(0, 7, heading, "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
		pdf.MultiCell(0, 5, tr(p.Text), "", "L", false)
		if p.ImageURL != nil && *p.ImageURL != "" {
			pdf.SetTextColor(0, 0, 180)
			pdf.WriteLinkString(5, "image", *p.ImageURL)
			pdf.SetTextColor(0, 0, 0)
			pdf.Ln(5)
		}
		pdf.Ln(4)
	}

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, 7, "Cost", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	for _, line := range costLines(resp) {
		pdf.CellFormat(0, 5, line, "", 1, "L", false, 0, "")
	}
	return pdf.OutputFileAndClose(outPath)
}

func costLines(resp *content.Response) []string {
	b := resp.Cost
	var lines []string
	if b.Tokens != nil {
		lines = append(lines, fmt.Sprintf("Tokens: %d in / %d out  $%.6f", b.Tokens.InputTokens, b.Tokens.OutputTokens, b.Tokens.Subtotal()))
	}
	if b.Transcription != nil {
		lines = append(lines, fmt.Sprintf("Transcription: %.2f min  $%.6f", b.Transcription.DurationMinutes, b.Transcription.WhisperCost))
	}
	if b.Images != nil {
		lines = append(lines, fmt.Sprintf("Images: %d  $%.6f", b.Images.Generated, b.Images.ImageCost))
	}
	if b.Scrape != nil {
		lines = append(lines, fmt.Sprintf("Scrape credits: %d  $%.6f", b.Scrape.CreditsUsed, b.Scrape.ScrapeCost))
	}
	total := fmt.Sprintf("Total: $%.6f", b.TotalCost)
	if resp.Estimated {
		total += " (token counts estimated)"
	}
	return append(lines, total)
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n])) + "..."
}
