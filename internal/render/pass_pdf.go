// Package render produces the printable entry pass.
package render

import (
	"bytes"
	"fmt"

	"github.com/phpdave11/gofpdf"

	"github.com/Shine-Infosolutions/eventbackend/internal/model"
)

// PassData is what gets printed on a pass.  Token is the scan token; the
// gate app turns it into a QR code.
type PassData struct {
	EventName     string
	BookingID     string
	PassType      string
	Price         int64
	BuyerName     string
	BuyerPhone    string
	TotalPeople   int
	TotalAmount   int64
	PaymentStatus string
	Holders       []model.PassHolder
	Token         string
	PassURL       string
}

// PassFromBooking fills PassData from a normalized booking.
func PassFromBooking(eventName string, b *model.Booking) PassData {
	return PassData{
		EventName:     eventName,
		BookingID:     b.BookingID,
		PassType:      b.PassTypeName,
		Price:         b.PassTypePrice,
		BuyerName:     b.BuyerName,
		BuyerPhone:    b.BuyerPhone,
		TotalPeople:   b.TotalPeople,
		TotalAmount:   b.TotalAmount,
		PaymentStatus: string(b.PaymentStatus),
		Holders:       b.PassHolders,
	}
}

func safe(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// PassPDF renders d as a one-page A4 document.
func PassPDF(d PassData) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Entry Pass "+d.BookingID, false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 20)
	pdf.Cell(0, 10, safe(d.EventName, "Entry Pass"))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "B", 14)
	pdf.Cell(0, 8, fmt.Sprintf("Pass #%s  (%s)", safe(d.BookingID, "-"), safe(d.PassType, "-")))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	lines := []string{
		"Name     : " + safe(d.BuyerName, "-"),
		"Phone    : " + safe(d.BuyerPhone, "-"),
		fmt.Sprintf("Admits   : %d", d.TotalPeople),
		fmt.Sprintf("Price    : %d per person", d.Price),
		fmt.Sprintf("Amount   : %d", d.TotalAmount),
		"Payment  : " + safe(d.PaymentStatus, "-"),
	}
	for _, s := range lines {
		pdf.Cell(0, 7, s)
		pdf.Ln(7)
	}

	if len(d.Holders) > 0 {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "B", 12)
		pdf.Cell(0, 7, "Pass holders:")
		pdf.Ln(7)
		pdf.SetFont("Helvetica", "", 11)
		for i, h := range d.Holders {
			pdf.Cell(0, 6, fmt.Sprintf("%d) %s  %s", i+1, safe(h.Name, "-"), h.Phone))
			pdf.Ln(6)
		}
	}

	if d.Token != "" {
		pdf.Ln(6)
		pdf.SetFont("Courier", "", 9)
		pdf.MultiCell(0, 5, "Scan code: "+d.Token, "", "", false)
	}
	if d.PassURL != "" {
		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(0, 5, d.PassURL, "", "", false)
	}

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "I", 10)
	pdf.MultiCell(0, 6, "Show this pass at the gate. Entry is counted per person up to the number admitted.", "", "", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
