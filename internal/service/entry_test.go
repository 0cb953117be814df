package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Shine-Infosolutions/eventbackend/internal/domain"
	"github.com/Shine-Infosolutions/eventbackend/internal/model"
	"github.com/Shine-Infosolutions/eventbackend/internal/repository"
)

func newTracker(f *fixture, stream EntryPublisher) (*EntryTracker, *fakeEntryLogs) {
	logs := &fakeEntryLogs{}
	return NewEntryTracker(f.bookings, f.ledger, logs, f.tokens, stream, nil), logs
}

func TestCheckInScenario(t *testing.T) {
	f := newFixture(LedgerOptions{})
	ctx := context.Background()
	stream := &fakeStream{}
	tracker, _ := newTracker(f, stream)

	b, err := f.ledger.Create(ctx, sales, CreateBookingInput{PassTypeID: "pt-couple", BuyerName: "Asha", TotalPeople: 2})
	if err != nil {
		t.Fatal(err)
	}

	res, err := tracker.CheckIn(ctx, gate, b.ID, 1)
	if err != nil {
		t.Fatalf("check in 1: %v", err)
	}
	if res.State != model.EntryPartial || res.Booking.PeopleEntered != 1 || !res.Booking.CheckedIn || res.Remaining != 1 {
		t.Fatalf("after first entry: %+v", res)
	}
	if res.Booking.CheckedInAt == nil || res.Booking.ScannedBy == nil || *res.Booking.ScannedBy != "Ravi" {
		t.Fatalf("first entry not stamped: %+v", res.Booking)
	}
	firstAt := *res.Booking.CheckedInAt

	_, err = tracker.CheckIn(ctx, gate, b.ID, 2)
	var ce domain.CapacityError
	if !errors.As(err, &ce) {
		t.Fatalf("expected CapacityError, got %v", err)
	}
	if ce.Requested != 2 || ce.Entered != 1 || ce.Total != 2 {
		t.Fatalf("capacity error = %+v", ce)
	}
	cur, _ := f.ledger.Get(ctx, gate, b.ID)
	if cur.PeopleEntered != 1 {
		t.Fatalf("rejected entry changed the counter: %d", cur.PeopleEntered)
	}

	tracker.clock = func() time.Time { return firstAt.Add(time.Hour) }
	res, err = tracker.CheckIn(ctx, admin, b.ID, 1)
	if err != nil {
		t.Fatalf("check in last: %v", err)
	}
	if res.State != model.EntryFull || res.Remaining != 0 || !res.Booking.CheckedInAt.Equal(firstAt) {
		t.Fatalf("after full entry: %+v", res)
	}
	if *res.Booking.ScannedBy != "Root" {
		t.Fatalf("scanned_by should name the latest scanner, got %q", *res.Booking.ScannedBy)
	}

	if _, err := tracker.CheckIn(ctx, gate, b.ID, 1); !domain.IsCapacity(err) {
		t.Fatalf("entry after full must be a capacity error, got %v", err)
	}
	if len(stream.events) != 2 || stream.events[1].PeopleEntered != 2 {
		t.Fatalf("stream events = %+v", stream.events)
	}
}

func TestCheckInInvariantHoldsForAnySequence(t *testing.T) {
	f := newFixture(LedgerOptions{})
	ctx := context.Background()
	tracker, _ := newTracker(f, nil)
	b, _ := f.ledger.Create(ctx, sales, CreateBookingInput{PassTypeID: "pt-family", BuyerName: "A", TotalPeople: 5})

	for _, n := range []int{2, 4, 1, 3, 1, 1, 6, 1} {
		_, err := tracker.CheckIn(ctx, gate, b.ID, n)
		if err != nil && !domain.IsCapacity(err) {
			t.Fatalf("unexpected error: %v", err)
		}
		cur, _ := f.ledger.Get(ctx, gate, b.ID)
		if cur.PeopleEntered < 0 || cur.PeopleEntered > cur.TotalPeople {
			t.Fatalf("invariant broken: %d of %d", cur.PeopleEntered, cur.TotalPeople)
		}
	}
	cur, _ := f.ledger.Get(ctx, gate, b.ID)
	if cur.PeopleEntered != 5 {
		t.Fatalf("expected a full booking, got %d", cur.PeopleEntered)
	}
}

func TestCheckInValidationAndAccess(t *testing.T) {
	f := newFixture(LedgerOptions{})
	ctx := context.Background()
	tracker, _ := newTracker(f, nil)
	b, _ := f.ledger.Create(ctx, sales, CreateBookingInput{PassTypeID: "pt-couple", BuyerName: "A"})

	if _, err := tracker.CheckIn(ctx, gate, b.ID, 0); !domain.IsValidation(err) {
		t.Fatalf("zero people: %v", err)
	}
	if _, err := tracker.CheckIn(ctx, sales, b.ID, 1); !domain.IsAuthorization(err) {
		t.Fatalf("sales at the gate: %v", err)
	}
	if _, err := tracker.CheckIn(ctx, gate, "missing", 1); !domain.IsNotFound(err) {
		t.Fatalf("unknown booking: %v", err)
	}
}

func TestCheckInStreamFailureDoesNotFailEntry(t *testing.T) {
	f := newFixture(LedgerOptions{})
	ctx := context.Background()
	tracker, _ := newTracker(f, &fakeStream{err: errBoom})
	b, _ := f.ledger.Create(ctx, sales, CreateBookingInput{PassTypeID: "pt-couple", BuyerName: "A"})
	if _, err := tracker.CheckIn(ctx, gate, b.ID, 1); err != nil {
		t.Fatalf("stream error leaked: %v", err)
	}
}

func TestGateSearch(t *testing.T) {
	f := newFixture(LedgerOptions{})
	ctx := context.Background()
	tracker, _ := newTracker(f, nil)
	f.ledger.Create(ctx, sales, CreateBookingInput{PassTypeID: "pt-family", BuyerName: "Asha Rao", BuyerPhone: "9990001111"})
	f.ledger.Create(ctx, sales, CreateBookingInput{PassTypeID: "pt-family", BuyerName: "Vikram", BuyerPhone: "8887776666"})

	cases := map[string]int{"1001": 1, "asha": 1, "RAO": 1, "0001111": 1, "88877": 1, "zzz": 0}
	for q, want := range cases {
		out, err := tracker.Search(ctx, gate, q)
		if err != nil {
			t.Fatalf("%q: %v", q, err)
		}
		if len(out) != want {
			t.Fatalf("%q: got %d results", q, len(out))
		}
	}
	if _, err := tracker.Search(ctx, gate, "  "); !domain.IsValidation(err) {
		t.Fatalf("empty query: %v", err)
	}
	if _, err := tracker.Search(ctx, sales, "asha"); !domain.IsAuthorization(err) {
		t.Fatalf("sales lookup: %v", err)
	}
}

func TestGateSearchLegacyVirtualID(t *testing.T) {
	f := newFixture(LedgerOptions{})
	ctx := context.Background()
	tracker, _ := newTracker(f, nil)
	id := "64f0c2a1b2c3d4e5f6a7b8c9"
	f.bookings.byID[id] = &model.Booking{ID: id, BuyerName: "Old", TotalPeople: 1}

	out, err := tracker.Search(ctx, gate, "ny2025-A7B8C9")
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 || out[0].BookingID != "NY2025-a7b8c9" {
		t.Fatalf("legacy lookup = %+v", out)
	}
}

func TestScanToken(t *testing.T) {
	f := newFixture(LedgerOptions{})
	ctx := context.Background()
	tracker, _ := newTracker(f, nil)
	b, _ := f.ledger.Create(ctx, sales, CreateBookingInput{PassTypeID: "pt-couple", BuyerName: "A"})

	old, _ := f.tokens.Issue(ctx, b.ID)
	tok, _ := f.tokens.Issue(ctx, b.ID)
	got, err := tracker.ScanToken(ctx, gate, tok)
	if err != nil || got.ID != b.ID {
		t.Fatalf("scan: %v %+v", err, got)
	}
	if _, err := tracker.ScanToken(ctx, gate, old); !domain.IsNotFound(err) {
		t.Fatalf("superseded token should not resolve: %v", err)
	}
}

func TestLogsUseWholeDay(t *testing.T) {
	f := newFixture(LedgerOptions{})
	tracker, logs := newTracker(f, nil)
	day := time.Date(2024, 12, 31, 15, 30, 0, 0, time.UTC)

	if _, err := tracker.Logs(context.Background(), admin, EntryLogQuery{Date: day, BookingID: "b"}); err != nil {
		t.Fatal(err)
	}
	if logs.got.From.Hour() != 0 || logs.got.From.Day() != 31 || logs.got.To.Hour() != 23 || logs.got.To.Day() != 31 {
		t.Fatalf("range = %v .. %v", logs.got.From, logs.got.To)
	}
	if logs.got.BookingID != "b" {
		t.Fatalf("filter = %+v", logs.got)
	}
	if _, err := tracker.Logs(context.Background(), gate, EntryLogQuery{}); !domain.IsAuthorization(err) {
		t.Fatalf("gate staff must not read logs: %v", err)
	}
}

func TestGateBookingsFilter(t *testing.T) {
	f := newFixture(LedgerOptions{})
	ctx := context.Background()
	tracker, _ := newTracker(f, nil)
	b, _ := f.ledger.Create(ctx, sales, CreateBookingInput{PassTypeID: "pt-couple", BuyerName: "A"})
	f.ledger.Create(ctx, sales, CreateBookingInput{PassTypeID: "pt-couple", BuyerName: "B"})
	tracker.CheckIn(ctx, gate, b.ID, 1)

	out, err := tracker.GateBookings(ctx, gate, repository.BookingFilter{EntryStatus: model.EntryPartial})
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 || out[0].ID != b.ID {
		t.Fatalf("gate list = %+v", out)
	}
}
