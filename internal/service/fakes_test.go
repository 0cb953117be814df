package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Shine-Infosolutions/eventbackend/internal/model"
	"github.com/Shine-Infosolutions/eventbackend/internal/queue"
	"github.com/Shine-Infosolutions/eventbackend/internal/repository"
)

var (
	admin = Actor{UserID: 1, Name: "Root", Role: model.RoleAdmin}
	sales = Actor{UserID: 2, Name: "Meera", Role: model.RoleSales}
	gate  = Actor{UserID: 3, Name: "Ravi", Role: model.RoleGate}
)

type fakePassTypes struct {
	mu    sync.Mutex
	items map[string]*model.PassType
	refs  map[string]bool
	err   error
}

func newFakePassTypes(pts ...model.PassType) *fakePassTypes {
	f := &fakePassTypes{items: map[string]*model.PassType{}, refs: map[string]bool{}}
	for i := range pts {
		p := pts[i]
		f.items[p.ID] = &p
	}
	return f
}

func (f *fakePassTypes) Create(_ context.Context, p *model.PassType) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	cp := *p
	f.items[p.ID] = &cp
	return nil
}

func (f *fakePassTypes) GetByID(_ context.Context, id string) (*model.PassType, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakePassTypes) List(context.Context, bool) ([]model.PassType, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.PassType{}
	for _, p := range f.items {
		out = append(out, *p)
	}
	return out, nil
}

func (f *fakePassTypes) Update(_ context.Context, p *model.PassType) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.items[p.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *p
	f.items[p.ID] = &cp
	return nil
}

func (f *fakePassTypes) IsReferenced(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refs[id], nil
}

func (f *fakePassTypes) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.items[id]; !ok {
		return repository.ErrNotFound
	}
	if f.refs[id] {
		return repository.ErrInUse
	}
	delete(f.items, id)
	return nil
}

// fakeBookings enforces the unique booking number the way the MySQL key
// does, so concurrent creates race exactly as they would in production.
type fakeBookings struct {
	mu       sync.Mutex
	byID     map[string]*model.Booking
	numbers  map[string]string // booking_number -> id
	order    []string
	collide  int // inserts to reject with a duplicate before accepting
	inserted int
}

func newFakeBookings() *fakeBookings {
	return &fakeBookings{byID: map[string]*model.Booking{}, numbers: map[string]string{}}
}

func clone(b *model.Booking) *model.Booking {
	cp := *b
	if b.PassHolders != nil {
		cp.PassHolders = append([]model.PassHolder(nil), b.PassHolders...)
	}
	return &cp
}

func (f *fakeBookings) TopNumbersInBand(_ context.Context, band, prefix string, limit, offset int) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, b := range f.byID {
		if b.NumberBand == band && b.BookingNumber != "" {
			out = append(out, b.BookingNumber)
		}
	}
	return pageByCounter(out, prefix, limit, offset), nil
}

func (f *fakeBookings) NumberTaken(_ context.Context, number string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.numbers[number]
	return ok, nil
}

// castCounter mimics MySQL's CAST(... AS UNSIGNED) on the number with its
// prefix stripped: leading digits count, anything else reads as zero.
func castCounter(number, prefix string) uint64 {
	s := strings.TrimSpace(number)
	s = strings.TrimPrefix(s, prefix)
	var n uint64
	for _, r := range s {
		if r < '0' || r > '9' {
			break
		}
		n = n*10 + uint64(r-'0')
	}
	return n
}

func pageByCounter(numbers []string, prefix string, limit, offset int) []string {
	sort.SliceStable(numbers, func(i, j int) bool {
		ci, cj := castCounter(numbers[i], prefix), castCounter(numbers[j], prefix)
		if ci != cj {
			return ci > cj
		}
		return numbers[i] > numbers[j]
	})
	if offset >= len(numbers) {
		return nil
	}
	numbers = numbers[offset:]
	if len(numbers) > limit {
		numbers = numbers[:limit]
	}
	return numbers
}

func (f *fakeBookings) Create(_ context.Context, b *model.Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.collide > 0 {
		f.collide--
		return repository.ErrDuplicateBookingNumber
	}
	if _, taken := f.numbers[b.BookingNumber]; taken {
		return repository.ErrDuplicateBookingNumber
	}
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	f.inserted++
	b.CreatedAt = time.Now().UTC().Add(time.Duration(f.inserted) * time.Millisecond)
	f.byID[b.ID] = clone(b)
	f.numbers[b.BookingNumber] = b.ID
	f.order = append(f.order, b.ID)
	return nil
}

func (f *fakeBookings) GetByID(_ context.Context, id string) (*model.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return clone(b), nil
}

func (f *fakeBookings) FindByPhone(_ context.Context, phone string) (*model.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range f.order {
		if b := f.byID[id]; b != nil && b.BuyerPhone == phone {
			return clone(b), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeBookings) List(_ context.Context, flt repository.BookingFilter) ([]model.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.Booking{}
	for _, b := range f.byID {
		if flt.PaymentStatus != "" && b.PaymentStatus != flt.PaymentStatus {
			continue
		}
		if flt.EntryStatus != "" && b.State() != flt.EntryStatus {
			continue
		}
		if s := strings.ToLower(flt.Search); s != "" &&
			!strings.Contains(strings.ToLower(b.BuyerName), s) && !strings.Contains(b.BuyerPhone, s) {
			continue
		}
		out = append(out, *clone(b))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeBookings) Update(_ context.Context, b *model.Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cur, ok := f.byID[b.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if cur.PeopleEntered > b.TotalPeople {
		return repository.ErrEnteredExceedsTotal
	}
	cp := clone(b)
	cp.PeopleEntered, cp.CheckedIn, cp.CheckedInAt = cur.PeopleEntered, cur.CheckedIn, cur.CheckedInAt
	f.byID[b.ID] = cp
	return nil
}

func (f *fakeBookings) UpdatePaymentStatus(_ context.Context, id string, s model.PaymentStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	b.PaymentStatus = s
	return nil
}

func (f *fakeBookings) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	delete(f.numbers, b.BookingNumber)
	delete(f.byID, id)
	return nil
}

// RecordEntry mirrors the guarded UPDATE of the MySQL gate repository.
func (f *fakeBookings) RecordEntry(_ context.Context, rec repository.EntryRecord) (*model.Booking, *model.EntryLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.byID[rec.BookingID]
	if !ok {
		return nil, nil, repository.ErrNotFound
	}
	if b.PeopleEntered+rec.People > b.TotalPeople {
		return clone(b), nil, repository.ErrOverCapacity
	}
	b.PeopleEntered += rec.People
	b.CheckedIn = true
	if b.CheckedInAt == nil {
		at := rec.At
		b.CheckedInAt = &at
	}
	by := rec.ScannedBy
	b.ScannedBy = &by
	return clone(b), &model.EntryLog{
		BookingID: b.ID, People: rec.People, EnteredAfter: b.PeopleEntered,
		ScannedBy: rec.ScannedBy, StaffID: rec.StaffID, CreatedAt: rec.At,
	}, nil
}

func (f *fakeBookings) Search(_ context.Context, query, idSuffix string, _ int) ([]model.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	q := strings.ToLower(query)
	out := []model.Booking{}
	for _, b := range f.byID {
		if b.BookingNumber == query || strings.Contains(strings.ToLower(b.BuyerName), q) ||
			strings.Contains(b.BuyerPhone, query) || (idSuffix != "" && strings.HasSuffix(b.ID, strings.ToLower(idSuffix))) {
			out = append(out, *clone(b))
		}
	}
	return out, nil
}

type fakeEntryLogs struct {
	got repository.EntryLogFilter
}

func (f *fakeEntryLogs) List(_ context.Context, flt repository.EntryLogFilter) ([]model.EntryLog, error) {
	f.got = flt
	return []model.EntryLog{}, nil
}

type fakeTokens struct {
	mu      sync.Mutex
	byToken map[string]string
	latest  map[string]string
	n       int
	err     error
}

func newFakeTokens() *fakeTokens {
	return &fakeTokens{byToken: map[string]string{}, latest: map[string]string{}}
}

func (f *fakeTokens) Issue(_ context.Context, bookingID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	if old, ok := f.latest[bookingID]; ok {
		delete(f.byToken, old)
	}
	f.n++
	tok := fmt.Sprintf("tok-%d", f.n)
	f.byToken[tok] = bookingID
	f.latest[bookingID] = tok
	return tok, nil
}

func (f *fakeTokens) Resolve(_ context.Context, token string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.byToken[token]
	if !ok {
		return "", repository.ErrNotFound
	}
	return id, nil
}

func (f *fakeTokens) Revoke(_ context.Context, bookingID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if tok, ok := f.latest[bookingID]; ok {
		delete(f.byToken, tok)
		delete(f.latest, bookingID)
	}
	return nil
}

type fakeDispatcher struct {
	sent []queue.PassDispatchEvent
	err  error
}

func (f *fakeDispatcher) PublishDispatch(_ context.Context, ev queue.PassDispatchEvent) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, ev)
	return nil
}

type fakeStream struct {
	events []queue.EntryRecordedEvent
	err    error
}

func (f *fakeStream) PublishEntry(_ context.Context, ev queue.EntryRecordedEvent) error {
	f.events = append(f.events, ev)
	return f.err
}

var errBoom = errors.New("boom")

func couplePass() model.PassType {
	return model.PassType{ID: "pt-couple", Name: model.PassCouple, Price: 500, MaxPeople: 2, IsActive: true}
}

func familyPass() model.PassType {
	return model.PassType{ID: "pt-family", Name: model.PassFamily, Price: 1200, MaxPeople: 5, IsActive: true}
}

func teensPass() model.PassType {
	return model.PassType{ID: "pt-teens", Name: model.PassTeens, Price: 300, MaxPeople: 1, IsActive: true}
}

type fixture struct {
	bookings  *fakeBookings
	passTypes *fakePassTypes
	tokens    *fakeTokens
	ledger    *Ledger
}

func newFixture(opts LedgerOptions) *fixture {
	f := &fixture{
		bookings:  newFakeBookings(),
		passTypes: newFakePassTypes(couplePass(), familyPass(), teensPass()),
		tokens:    newFakeTokens(),
	}
	f.ledger = NewLedger(f.bookings, f.passTypes, f.tokens, opts, nil)
	return f
}
