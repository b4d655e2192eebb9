package render

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/go-pdf/fpdf"
	"github.com/skip2/go-qrcode"

	models "github.com/phillip/riseandserve-go/models"
)

// DefaultQRSize is the edge length in pixels of a pass QR image.
const DefaultQRSize = 256

const passDateLayout = "Monday, 02 January 2006 15:04 MST"

// PassQR encodes the JSON form of the pass as a PNG QR code.
func PassQR(pass models.PassPayload, size int) ([]byte, error) {
	if size <= 0 {
		size = DefaultQRSize
	}
	data, err := json.Marshal(pass)
	if err != nil {
		return nil, fmt.Errorf("marshal pass: %w", err)
	}
	png, err := qrcode.Encode(string(data), qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	return png, nil
}

// PassPDF lays the pass out on an A4 page with its QR code, ready to print.
func PassPDF(pass models.PassPayload, location string) ([]byte, error) {
	png, err := PassQR(pass, DefaultQRSize)
	if err != nil {
		return nil, err
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Volunteer pass - "+pass.EventTitle, true)
	pdf.SetAuthor("RiseAndServe", true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 22)
	pdf.CellFormat(0, 14, tr("Volunteer Pass"), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 12)
	pdf.CellFormat(0, 8, tr(string(pass.EventType)), "", 1, "C", false, 0, "")
	pdf.Ln(6)

	rows := [][2]string{
		{"Event", pass.EventTitle},
		{"Date", pass.EventDate.UTC().Format(passDateLayout)},
		{"Location", location},
		{"Participant", pass.ParticipantName},
		{"Email", pass.ParticipantEmail},
	}
	for _, r := range rows {
		if r[1] == "" {
			continue
		}
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(40, 9, tr(r[0]), "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 12)
		pdf.MultiCell(0, 9, tr(r[1]), "", "L", false)
	}
	pdf.Ln(8)

	opts := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("qr", opts, bytes.NewReader(png))
	pageW, _ := pdf.GetPageSize()
	const qrMM = 70.0
	pdf.ImageOptions("qr", (pageW-qrMM)/2, pdf.GetY(), qrMM, qrMM, true, opts, 0, "")

	pdf.SetFont("Helvetica", "I", 9)
	pdf.CellFormat(0, 8, tr("Issued "+pass.IssuedAt.UTC().Format(passDateLayout)), "", 1, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pass pdf: %w", err)
	}
	return buf.Bytes(), nil
}
