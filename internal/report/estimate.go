// Package report renders printable documents for workshops and their clients.
package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/jhon-henao13/Fixly/internal/model"
)

var (
	colorPrimary   = [3]int{30, 58, 95}    // Dark navy
	colorTextDark  = [3]int{44, 62, 80}    // Dark text
	colorTextMuted = [3]int{127, 140, 141} // Muted text
	colorTableAlt  = [3]int{241, 245, 249} // Alternating row
	colorApproved  = [3]int{46, 204, 113}  // Green
)

// EstimateData is everything printed on an estimate
type EstimateData struct {
	Workshop    model.Workshop
	Job         model.Job
	Estimate    model.Estimate
	ApprovalURL string
	GeneratedAt time.Time
}

// EstimatePDF renders the estimate as an A4 PDF
func EstimatePDF(data *EstimateData) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 25)
	pdf.SetTitle(fmt.Sprintf("Estimate #%d", data.Estimate.ID), true)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageWidth, _ := pdf.GetPageSize()
	pdf.SetFillColor(colorPrimary[0], colorPrimary[1], colorPrimary[2])
	pdf.Rect(0, 0, pageWidth, 8, "F")

	pdf.SetY(20)
	pdf.SetFont("Arial", "B", 22)
	pdf.SetTextColor(colorPrimary[0], colorPrimary[1], colorPrimary[2])
	pdf.CellFormat(0, 10, tr(data.Workshop.Name), "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.SetTextColor(colorTextMuted[0], colorTextMuted[1], colorTextMuted[2])
	pdf.CellFormat(0, 6, tr(data.Workshop.Email), "", 1, "L", false, 0, "")
	pdf.Ln(6)

	pdf.SetFont("Arial", "B", 16)
	pdf.SetTextColor(colorTextDark[0], colorTextDark[1], colorTextDark[2])
	pdf.CellFormat(0, 9, fmt.Sprintf("Estimate #%d - Job #%d", data.Estimate.ID, data.Job.ID), "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 6, "Date: "+data.GeneratedAt.Format("January 2, 2006"), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	writeRow := func(label, value string, fill bool) {
		pdf.SetFillColor(colorTableAlt[0], colorTableAlt[1], colorTableAlt[2])
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(50, 8, label, "", 0, "L", fill, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(0, 8, tr(value), "", 1, "L", fill, 0, "")
	}
	writeRow("Client", data.Job.ClientName, true)
	writeRow("Phone", data.Job.ClientPhone, false)
	writeRow("Item", data.Job.Item, true)
	writeRow("Status", data.Job.Status, false)
	pdf.Ln(2)

	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(0, 8, "Problem", "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.MultiCell(0, 6, tr(data.Job.Problem), "", "L", false)
	pdf.Ln(2)

	if data.Estimate.Description != "" {
		pdf.SetFont("Arial", "B", 11)
		pdf.CellFormat(0, 8, "Work description", "", 1, "L", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.MultiCell(0, 6, tr(data.Estimate.Description), "", "L", false)
		pdf.Ln(2)
	}

	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(colorPrimary[0], colorPrimary[1], colorPrimary[2])
	pdf.SetTextColor(255, 255, 255)
	pdf.CellFormat(120, 8, "Concept", "1", 0, "L", true, 0, "")
	pdf.CellFormat(0, 8, "Amount", "1", 1, "R", true, 0, "")

	pdf.SetTextColor(colorTextDark[0], colorTextDark[1], colorTextDark[2])
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(120, 8, "Labor", "1", 0, "L", false, 0, "")
	pdf.CellFormat(0, 8, data.Estimate.Labor.StringFixed(2), "1", 1, "R", false, 0, "")
	pdf.CellFormat(120, 8, "Parts", "1", 0, "L", false, 0, "")
	pdf.CellFormat(0, 8, data.Estimate.Parts.StringFixed(2), "1", 1, "R", false, 0, "")
	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(120, 9, "Total", "1", 0, "L", false, 0, "")
	pdf.CellFormat(0, 9, data.Estimate.Total.StringFixed(2), "1", 1, "R", false, 0, "")
	pdf.Ln(6)

	if data.Estimate.Approved {
		pdf.SetTextColor(colorApproved[0], colorApproved[1], colorApproved[2])
		pdf.SetFont("Arial", "B", 12)
		pdf.CellFormat(0, 8, "APPROVED BY CLIENT", "", 1, "L", false, 0, "")
	} else if data.ApprovalURL != "" {
		pdf.SetTextColor(colorTextMuted[0], colorTextMuted[1], colorTextMuted[2])
		pdf.SetFont("Arial", "", 9)
		pdf.MultiCell(0, 5, "Approve online: "+data.ApprovalURL, "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("PDF output error: %w", err)
	}
	return buf.Bytes(), nil
}
