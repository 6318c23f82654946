package report

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/huangweiliang/dlt-viewer-simplified/internal/common"
)

const qrImageName = "digest-qr"

// SavePDF renders the summary into a PDF document at out.
func SavePDF(s Summary, out string) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("DLT Decode Report", false)
	pdf.SetAuthor("dltctl", false)
	pdf.SetCreator("dltctl", false)
	pdf.SetMargins(15, 20, 15)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()

	addPDFTitle(pdf, "DLT Decode Report")
	addSummarySection(pdf, s)
	addCountsSection(pdf, "Messages by Type", s.ByType)
	addCountsSection(pdf, "Messages by ECU", s.ByECU)
	addCountsSection(pdf, "Messages by Application", s.ByApp)
	addFilesSection(pdf, s.Files)

	if pdf.Err() {
		return pdf.Error()
	}
	return pdf.OutputFileAndClose(out)
}

func addPDFTitle(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, title)
	pdf.Ln(12)
}

func addSummarySection(pdf *gofpdf.Fpdf, s Summary) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Summary")
	pdf.Ln(8)

	top := pdf.GetY()
	pdf.SetFont("Helvetica", "", 11)
	items := []struct {
		label string
		value string
	}{
		{label: "Run", value: emptyFallback(s.RunID, "-")},
		{label: "Generated", value: s.Generated.Format(time.RFC3339)},
		{label: "Duration", value: emptyFallback(s.Duration, "-")},
		{label: "Files", value: strconv.Itoa(len(s.Files))},
		{label: "Messages", value: strconv.Itoa(s.Messages)},
		{label: "Resyncs", value: strconv.Itoa(s.Resyncs)},
		{label: "Skipped Arguments", value: strconv.Itoa(s.SkippedArgs)},
		{label: "First Timestamp", value: emptyFallback(s.FirstTimestamp, "-")},
		{label: "Last Timestamp", value: emptyFallback(s.LastTimestamp, "-")},
	}
	for _, item := range items {
		pdf.CellFormat(50, 6, item.label, "", 0, "L", false, 0, "")
		pdf.CellFormat(90, 6, item.value, "", 1, "L", false, 0, "")
	}
	if s.Digest != "" {
		addDigest(pdf, s.Digest, top)
	}
	pdf.Ln(4)
}

// addDigest prints the input digest and places its QR code to the right of
// the summary block.
func addDigest(pdf *gofpdf.Fpdf, digest string, top float64) {
	pdf.SetFont("Helvetica", "", 8)
	pdf.MultiCell(0, 4, "Input digest: "+digest, "", "L", false)
	png, err := DigestQR(digest, 256)
	if err != nil {
		common.Logf("report: digest qr: %v", err)
		return
	}
	opts := gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: false}
	pdf.RegisterImageOptionsReader(qrImageName, opts, bytes.NewReader(png))
	pageW, _ := pdf.GetPageSize()
	_, _, right, _ := pdf.GetMargins()
	const side = 32.0
	pdf.ImageOptions(qrImageName, pageW-right-side, top, side, side, false, opts, 0, "")
}

func addCountsSection(pdf *gofpdf.Fpdf, title string, counts []Count) {
	if len(counts) == 0 {
		return
	}
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, title)
	pdf.Ln(9)

	widths := []float64{60, 30}
	pdf.SetFillColor(240, 240, 240)
	pdf.SetFont("Helvetica", "B", 10)
	for i, h := range []string{"Key", "Messages"} {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	for _, c := range counts {
		renderTableRow(pdf, widths, []string{c.Key, strconv.Itoa(c.Count)}, 5)
	}
	pdf.Ln(4)
}

func addFilesSection(pdf *gofpdf.Fpdf, files []FileSummary) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Files")
	pdf.Ln(9)

	if len(files) == 0 {
		pdf.SetFont("Helvetica", "", 11)
		pdf.MultiCell(0, 6, "No files decoded.", "", "L", false)
		return
	}

	headers := []string{"File", "Size", "First Index", "Messages", "Resyncs", "Status"}
	widths := []float64{58, 24, 24, 24, 20, 30}
	pdf.SetFillColor(240, 240, 240)
	pdf.SetFont("Helvetica", "B", 10)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	for _, f := range files {
		values := []string{
			f.Name,
			common.FormatBytes(f.Size),
			strconv.FormatUint(f.FirstIndex, 10),
			strconv.Itoa(f.Messages),
			strconv.Itoa(f.Resyncs),
			fileStatus(f),
		}
		renderTableRow(pdf, widths, values, 5)
	}
	pdf.Ln(4)

	for _, f := range files {
		if f.Error == "" {
			continue
		}
		pdf.SetFont("Helvetica", "", 9)
		pdf.MultiCell(0, 4, fmt.Sprintf("%s: %s", f.Name, f.Error), "", "L", false)
	}
}

func fileStatus(f FileSummary) string {
	switch {
	case f.Error != "":
		return "ERROR"
	case f.Cached:
		return "cached"
	default:
		return "decoded"
	}
}

func renderTableRow(pdf *gofpdf.Fpdf, widths []float64, values []string, lineHeight float64) {
	xStart := pdf.GetX()
	yStart := pdf.GetY()
	maxLines := 1
	splitCols := make([][]string, len(values))
	for i, val := range values {
		text := strings.TrimSpace(val)
		if text == "" {
			text = "-"
		}
		lines := pdf.SplitText(text, widths[i]-2)
		if len(lines) == 0 {
			lines = []string{""}
		}
		splitCols[i] = lines
		if len(lines) > maxLines {
			maxLines = len(lines)
		}
	}
	rowHeight := float64(maxLines) * lineHeight
	x := xStart
	for i, lines := range splitCols {
		pdf.SetXY(x, yStart)
		pdf.MultiCell(widths[i], lineHeight, strings.Join(lines, "\n"), "1", "L", false)
		x += widths[i]
	}
	pdf.SetXY(xStart, yStart+rowHeight)
}

func emptyFallback(val, fallback string) string {
	if strings.TrimSpace(val) == "" {
		return fallback
	}
	return val
}
