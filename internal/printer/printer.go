package printer

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/skip2/go-qrcode"

	"pallet-board-backend/internal/board"
	"pallet-board-backend/internal/layout"
)

// Label grid on A4 portrait.
const (
	labelCols   = 3
	labelRows   = 7
	marginTop   = 10.0
	marginLeft  = 8.0
	labelGapX   = 2.0
	labelGapY   = 2.0
	pageWidth   = 210.0
	pageHeight  = 297.0
	qrSizeRatio = 0.75
)

// LocationLabelsPDF renders one QR label per location id. The QR code holds
// the id; the caption is the long label.
func LocationLabelsPDF(ids []string) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetFont("Arial", "B", 10)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	labelW := (pageWidth - 2*marginLeft - float64(labelCols-1)*labelGapX) / labelCols
	labelH := (pageHeight - 2*marginTop - float64(labelRows-1)*labelGapY) / labelRows
	perPage := labelCols * labelRows

	if len(ids) == 0 {
		pdf.AddPage()
	}
	for i, id := range ids {
		if i%perPage == 0 {
			pdf.AddPage()
		}
		onPage := i % perPage
		x := marginLeft + float64(onPage%labelCols)*(labelW+labelGapX)
		y := marginTop + float64(onPage/labelCols)*(labelH+labelGapY)

		png, err := qrcode.Encode(id, qrcode.Medium, 256)
		if err != nil {
			return nil, fmt.Errorf("failed to encode QR for %s: %w", id, err)
		}
		imgName := fmt.Sprintf("qr_%d", i)
		imgOptions := gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: true}
		pdf.RegisterImageOptionsReader(imgName, imgOptions, bytes.NewReader(png))

		qrSize := (labelH - 8) * qrSizeRatio
		pdf.ImageOptions(imgName, x+2, y+(labelH-qrSize)/2, qrSize, qrSize, false, imgOptions, 0, "")

		textX := x + qrSize + 4
		textW := labelW - qrSize - 5
		pdf.SetXY(textX, y+labelH/2-7)
		pdf.SetFontSize(16)
		pdf.CellFormat(textW, 8, tr(layout.ShortLabel(id)), "", 2, "L", false, 0, "")
		pdf.SetFontSize(8)
		pdf.CellFormat(textW, 5, tr(layout.LongLabel(id)), "", 0, "L", false, 0, "")

		pdf.Rect(x, y, labelW, labelH, "D")
	}

	return output(pdf)
}

// SasSheetPDF renders the reception buffer as a printable table titled with
// the given day.
func SasSheetPDF(rows []board.SasItem, day time.Time) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 12, 10)
	pdf.SetAutoPageBreak(true, 12)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, tr("SA RÉCEPTION "+day.Format("02-01-2006")), "", 1, "C", false, 0, "")
	pdf.Ln(2)

	headers := []string{"N° Commande", "Flux", "Client", "Date", "Info", "Commentaire"}
	widths := []float64{38, 14, 52, 16, 30, 40}

	pdf.SetFont("Arial", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 7, tr(h), "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, row := range rows {
		cells := []string{row.OrderNumber, string(row.Flux), row.ClientName, row.Date, row.Info, row.Comment}
		for i, c := range cells {
			pdf.CellFormat(widths[i], 6, tr(c), "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	pdf.Ln(2)
	pdf.SetFont("Arial", "I", 8)
	pdf.CellFormat(0, 5, fmt.Sprintf("Total : %d", len(rows)), "", 1, "R", false, 0, "")

	return output(pdf)
}

func output(pdf *gofpdf.Fpdf) ([]byte, error) {
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
