package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Shine-Infosolutions/eventbackend/internal/model"
	"github.com/Shine-Infosolutions/eventbackend/internal/repository"
	"github.com/Shine-Infosolutions/eventbackend/internal/service"
)

var (
	admin = service.Actor{UserID: 1, Name: "Asha", Role: model.RoleAdmin}
	sales = service.Actor{UserID: 2, Name: "Sam", Role: model.RoleSales}
	gate  = service.Actor{UserID: 3, Name: "Gita", Role: model.RoleGate}

	noActor service.Actor
)

// newContext builds an Echo context the way JWTAuth would leave it.  A
// zero actor means an anonymous request.
func newContext(method, target, body string, actor service.Actor) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if actor.UserID != 0 {
		c.Set("user_id", actor.UserID)
		c.Set("role", string(actor.Role))
		c.Set("name", actor.Name)
	}
	return c, rec
}

func withID(c echo.Context, id string) echo.Context {
	c.SetParamNames("id")
	c.SetParamValues(id)
	return c
}

type fakeLedger struct {
	created   service.CreateBookingInput
	lastActor service.Actor
	filter    repository.BookingFilter
	booking   *model.Booking
	err       error
}

func (f *fakeLedger) Create(_ context.Context, a service.Actor, in service.CreateBookingInput) (*model.Booking, error) {
	f.lastActor, f.created = a, in
	return f.booking, f.err
}
func (f *fakeLedger) Get(_ context.Context, a service.Actor, _ string) (*model.Booking, error) {
	f.lastActor = a
	return f.booking, f.err
}
func (f *fakeLedger) GetPublic(context.Context, string) (*model.Booking, error) { return f.booking, f.err }
func (f *fakeLedger) List(_ context.Context, a service.Actor, flt repository.BookingFilter) ([]model.Booking, error) {
	f.lastActor, f.filter = a, flt
	if f.err != nil {
		return nil, f.err
	}
	return []model.Booking{*f.booking}, nil
}
func (f *fakeLedger) Update(_ context.Context, _ service.Actor, _ string, _ service.UpdateBookingInput) (*model.Booking, error) {
	return f.booking, f.err
}
func (f *fakeLedger) UpdatePaymentStatus(_ context.Context, _ service.Actor, _ string, s model.PaymentStatus) (*model.Booking, error) {
	if f.err != nil {
		return nil, f.err
	}
	b := *f.booking
	b.PaymentStatus = s
	return &b, nil
}
func (f *fakeLedger) Delete(context.Context, service.Actor, string) error { return f.err }
func (f *fakeLedger) NextNumber(_ context.Context, _ service.Actor, name string) (string, error) {
	return name + "-0001", f.err
}

type fakeResender struct {
	in  service.ResendInput
	err error
}

func (f *fakeResender) Resend(_ context.Context, _ service.Actor, _ string, in service.ResendInput) (*service.DeliveryResult, error) {
	f.in = in
	if f.err != nil {
		return nil, f.err
	}
	return &service.DeliveryResult{Success: true, Channel: in.Channel, DeliveredTo: "+911234567890"}, nil
}

type fakeTracker struct {
	count int
	query service.EntryLogQuery
	err   error
}

func (f *fakeTracker) CheckIn(_ context.Context, _ service.Actor, id string, count int) (*service.CheckInResult, error) {
	f.count = count
	if f.err != nil {
		return nil, f.err
	}
	b := sampleBooking()
	b.PeopleEntered = count
	return &service.CheckInResult{Booking: b, State: b.State(), Remaining: b.Remaining()}, nil
}
func (f *fakeTracker) Search(context.Context, service.Actor, string) ([]model.Booking, error) {
	return []model.Booking{*sampleBooking()}, f.err
}
func (f *fakeTracker) ScanToken(context.Context, service.Actor, string) (*model.Booking, error) {
	return sampleBooking(), f.err
}
func (f *fakeTracker) GateBookings(context.Context, service.Actor, repository.BookingFilter) ([]model.Booking, error) {
	return []model.Booking{}, f.err
}
func (f *fakeTracker) Logs(_ context.Context, _ service.Actor, q service.EntryLogQuery) ([]model.EntryLog, error) {
	f.query = q
	return []model.EntryLog{}, f.err
}

type fakeUsers struct {
	byID   map[uint64]model.User
	admins int
	nextID uint64
}

func newFakeUsers(users ...model.User) *fakeUsers {
	f := &fakeUsers{byID: map[uint64]model.User{}, nextID: 100}
	for _, u := range users {
		f.byID[u.ID] = u
		if u.Role == model.RoleAdmin {
			f.admins++
		}
	}
	return f
}

func (f *fakeUsers) Create(_ context.Context, name, email, _ string, role model.Role, _ int) (uint64, error) {
	for _, u := range f.byID {
		if u.Email == email {
			return 0, repository.ErrEmailExists
		}
	}
	f.nextID++
	f.byID[f.nextID] = model.User{ID: f.nextID, Name: name, Email: email, Role: role, IsActive: true}
	if role == model.RoleAdmin {
		f.admins++
	}
	return f.nextID, nil
}
func (f *fakeUsers) GetByEmail(_ context.Context, email string) (model.User, error) {
	for _, u := range f.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}
func (f *fakeUsers) GetByID(_ context.Context, id uint64) (model.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}
func (f *fakeUsers) List(context.Context) ([]model.User, error) {
	out := []model.User{}
	for _, u := range f.byID {
		out = append(out, u)
	}
	return out, nil
}
func (f *fakeUsers) CountByRole(_ context.Context, role model.Role) (int, error) {
	if role == model.RoleAdmin {
		return f.admins, nil
	}
	return 0, nil
}
func (f *fakeUsers) Update(_ context.Context, u model.User) error {
	if _, ok := f.byID[u.ID]; !ok {
		return repository.ErrNotFound
	}
	f.byID[u.ID] = u
	return nil
}
func (f *fakeUsers) SetPassword(context.Context, uint64, string, int) error { return nil }
func (f *fakeUsers) Delete(_ context.Context, id uint64) error {
	if _, ok := f.byID[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

type fakeRefresh struct {
	stored  map[string]uint64
	revoked map[uint64]bool
}

func newFakeRefresh() *fakeRefresh {
	return &fakeRefresh{stored: map[string]uint64{}, revoked: map[uint64]bool{}}
}

func (f *fakeRefresh) StoreRefresh(_ context.Context, userID uint64, hash string, _ time.Time) error {
	f.stored[hash] = userID
	return nil
}
func (f *fakeRefresh) ValidateRefresh(_ context.Context, hash string) (uint64, error) {
	id, ok := f.stored[hash]
	if !ok {
		return 0, repository.ErrNotFound
	}
	return id, nil
}
func (f *fakeRefresh) RevokeByHash(_ context.Context, hash string) error {
	delete(f.stored, hash)
	return nil
}
func (f *fakeRefresh) RevokeAllForUser(_ context.Context, userID uint64) error {
	f.revoked[userID] = true
	for h, id := range f.stored {
		if id == userID {
			delete(f.stored, h)
		}
	}
	return nil
}

func sampleBooking() *model.Booking {
	shot := "receipt.png"
	return &model.Booking{
		ID:                "9f1c2a7e-0000-4000-8000-00000000abcd",
		PassTypeID:        "pt-couple",
		PassTypeName:      "Couple",
		PassTypePrice:     3000,
		BookingNumber:     "C0007",
		BookingID:         "C0007",
		BuyerName:         "Ravi Kumar",
		BuyerPhone:        "+911234567890",
		PassHolders:       []model.PassHolder{{Name: "Ravi"}, {Name: "Meera"}},
		TotalPeople:       2,
		TotalPasses:       1,
		TotalAmount:       3000,
		PaymentStatus:     model.PaymentPaid,
		PaymentMode:       model.PaymentUPI,
		Notes:             "VIP table",
		PaymentScreenshot: &shot,
		EntryStatus:       model.EntryPending,
	}
}
