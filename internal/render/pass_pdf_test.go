package render

import (
	"bytes"
	"testing"

	"github.com/Shine-Infosolutions/eventbackend/internal/model"
)

func TestPassPDF(t *testing.T) {
	b := &model.Booking{
		BookingID:     "0001",
		PassTypeName:  model.PassCouple,
		PassTypePrice: 500,
		BuyerName:     "Asha",
		TotalPeople:   2,
		TotalAmount:   1000,
		PaymentStatus: model.PaymentPaid,
		PassHolders:   []model.PassHolder{{Name: "Asha"}, {Name: "Vik", Phone: "999"}},
	}
	d := PassFromBooking("New Year 2025", b)
	if d.Price != 500 || len(d.Holders) != 2 {
		t.Fatalf("pass data = %+v", d)
	}
	d.Token = "abc123"
	out, err := PassPDF(d)
	if err != nil {
		t.Fatalf("PassPDF: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF-")) {
		t.Fatalf("output is not a PDF: %q", out[:8])
	}
}

func TestPassPDFEmptyFields(t *testing.T) {
	out, err := PassPDF(PassData{})
	if err != nil || len(out) == 0 {
		t.Fatalf("empty pass: %v", err)
	}
}
