package document

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/jung-kurt/gofpdf"
	qrcode "github.com/skip2/go-qrcode"
)

// BadgeEmployee is the data printed on one badge label.
type BadgeEmployee struct {
	Registration int64
	Name         string
}

// Badge sheet layout: letter pages, two columns by five rows, each
// label a 40mm QR code with the employee name centered above it.
const (
	badgeQRSizeMM   = 40.0
	badgeNameGapMM  = 2.0
	badgeCols       = 2
	badgeRows       = 5
	badgePerPage    = badgeCols * badgeRows
	badgeQRPixels   = 256
	badgeItemHeight = badgeQRSizeMM + 10.0
)

// GenerateBadgePDF renders QR-code badge labels for the given
// employees. Each QR encodes the registration number, the payload the
// bus readers scan.
func GenerateBadgePDF(employees []BadgeEmployee) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "Letter", "")
	pdf.SetFont("Helvetica", "", 8)

	pageWidth, pageHeight := pdf.GetPageSize()
	hMargin := (pageWidth - badgeCols*badgeQRSizeMM) / (badgeCols + 1)
	vMargin := (pageHeight - badgeRows*badgeItemHeight) / 2

	for i, emp := range employees {
		if i%badgePerPage == 0 {
			pdf.AddPage()
		}

		slot := i % badgePerPage
		col := float64(slot % badgeCols)
		row := float64(slot / badgeCols)

		x := hMargin + col*(hMargin+badgeQRSizeMM)
		y := vMargin + row*badgeItemHeight

		png, err := qrcode.Encode(strconv.FormatInt(emp.Registration, 10), qrcode.Low, badgeQRPixels)
		if err != nil {
			return nil, fmt.Errorf("encoding QR for registration %d: %w", emp.Registration, err)
		}

		imageName := fmt.Sprintf("qr-%d", emp.Registration)
		pdf.RegisterImageOptionsReader(imageName,
			gofpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(png))

		nameWidth := pdf.GetStringWidth(emp.Name)
		pdf.Text(x+(badgeQRSizeMM-nameWidth)/2, y+badgeNameGapMM, emp.Name)

		pdf.ImageOptions(imageName, x, y+badgeNameGapMM+2,
			badgeQRSizeMM, badgeQRSizeMM, false, gofpdf.ImageOptions{ImageType: "PNG"}, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("rendering badge PDF: %w", err)
	}
	return buf.Bytes(), nil
}
