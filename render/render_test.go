package render

import (
	"bytes"
	"image/png"
	"strings"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	models "github.com/phillip/riseandserve-go/models"
)

func samplePass() models.PassPayload {
	return models.PassPayload{
		EventID:          "65f0c0ffee0000000000abcd",
		EventTitle:       "Beach Cleanup",
		EventDate:        time.Date(2026, 6, 5, 2, 0, 0, 0, time.UTC),
		EventType:        models.Cleanup,
		ParticipantName:  "Zoë",
		ParticipantEmail: "zoe@example.com",
		IssuedAt:         time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestPassQR(t *testing.T) {
	data, err := PassQR(samplePass(), 0)
	if err != nil {
		t.Fatalf("PassQR: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("not a png: %v", err)
	}
	if b := img.Bounds(); b.Dx() != DefaultQRSize || b.Dy() != DefaultQRSize {
		t.Fatalf("expected %dpx square, got %v", DefaultQRSize, b)
	}

	big, err := PassQR(samplePass(), 512)
	if err != nil {
		t.Fatalf("PassQR: %v", err)
	}
	img, _ = png.Decode(bytes.NewReader(big))
	if img.Bounds().Dx() != 512 {
		t.Fatalf("expected 512px, got %v", img.Bounds())
	}
}

func TestPassPDF(t *testing.T) {
	data, err := PassPDF(samplePass(), "Marina Beach, Chennai")
	if err != nil {
		t.Fatalf("PassPDF: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Fatalf("output is not a PDF: %q", data[:min(len(data), 16)])
	}
	if len(data) < 1000 {
		t.Fatalf("suspiciously small PDF: %d bytes", len(data))
	}
}

func TestEventICS(t *testing.T) {
	oid := primitive.NewObjectID()
	event := models.Event{
		ID:          oid,
		Title:       "Beach Cleanup",
		Description: "Bring gloves",
		Location:    "Marina Beach",
		EventDate:   time.Date(2026, 6, 5, 2, 0, 0, 0, time.UTC),
		Creator:     models.Snapshot{Name: "Hana", Email: "host@example.com"},
		CreatedAt:   time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
		UpdatedAt:   time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC),
	}
	out := EventICS(event, time.Hour, "https://riseandserve.example/events/"+oid.Hex())

	for _, want := range []string{
		"BEGIN:VCALENDAR",
		"BEGIN:VEVENT",
		"UID:" + oid.Hex() + "@riseandserve",
		"DTSTART:20260605T020000Z",
		"DTEND:20260605T030000Z",
		"SUMMARY:Beach Cleanup",
		"LOCATION:Marina Beach",
		"mailto:host@example.com",
		"END:VCALENDAR",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("calendar missing %q:\n%s", want, out)
		}
	}
}
