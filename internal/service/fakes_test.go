package service

import (
	"context"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"

	"rentals/internal/db"
	"rentals/internal/entities"
	"rentals/internal/repository"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeBookingRepo struct {
	mu       sync.Mutex
	bookings map[string]db.Booking
	failWith error
}

func newFakeBookingRepo(bookings ...db.Booking) *fakeBookingRepo {
	r := &fakeBookingRepo{bookings: map[string]db.Booking{}}
	for _, b := range bookings {
		r.bookings[b.ID] = b
	}
	return r
}

func (r *fakeBookingRepo) get(id string) db.Booking {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.bookings[id]
}

func (r *fakeBookingRepo) find(match func(db.Booking) bool) (*db.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return nil, r.failWith
	}
	for _, b := range r.bookings {
		if match(b) {
			return &b, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeBookingRepo) Create(_ context.Context, b *db.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bookings[b.ID]; ok {
		return repository.ErrDuplicate
	}
	stored := *b
	stored.Vehicle = nil
	r.bookings[b.ID] = stored
	return nil
}

func (r *fakeBookingRepo) GetByID(_ context.Context, id string) (*db.Booking, error) {
	return r.find(func(b db.Booking) bool { return b.ID == id })
}

func (r *fakeBookingRepo) GetBySessionID(_ context.Context, sessionID string) (*db.Booking, error) {
	return r.find(func(b db.Booking) bool { return sessionID != "" && b.CheckoutSessionID == sessionID })
}

func (r *fakeBookingRepo) GetByPaymentIntentID(_ context.Context, pi string) (*db.Booking, error) {
	return r.find(func(b db.Booking) bool { return pi != "" && b.PaymentIntentID == pi })
}

func (r *fakeBookingRepo) filter(match func(db.Booking) bool) []db.Booking {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []db.Booking{}
	for _, b := range r.bookings {
		if match(b) {
			out = append(out, b)
		}
	}
	return out
}

func (r *fakeBookingRepo) ListByUser(_ context.Context, userID string) ([]db.Booking, error) {
	return r.filter(func(b db.Booking) bool { return b.UserID == userID }), nil
}

func (r *fakeBookingRepo) ListAll(_ context.Context, status string) ([]db.Booking, error) {
	return r.filter(func(b db.Booking) bool { return status == "" || b.Status == status }), nil
}

func (r *fakeBookingRepo) UpdateDetails(_ context.Context, b *db.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.bookings[b.ID]
	if !ok || !stored.Mutable() {
		return repository.ErrNotFound
	}
	stored.PickupLocation = b.PickupLocation
	stored.DropoffLocation = b.DropoffLocation
	stored.SpecialRequests = b.SpecialRequests
	stored.Customer = b.Customer
	r.bookings[b.ID] = stored
	return nil
}

func (r *fakeBookingRepo) TransitionStatus(_ context.Context, id string, from []string, to string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.bookings[id]
	if !ok || !slices.Contains(from, stored.Status) {
		return false, nil
	}
	stored.Status = to
	r.bookings[id] = stored
	return true, nil
}

func (r *fakeBookingRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bookings[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.bookings, id)
	return nil
}

func (r *fakeBookingRepo) HasOverlap(_ context.Context, vehicleID string, start, end time.Time, excludeID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.bookings {
		if b.ID == excludeID || b.VehicleID != vehicleID || b.Status == db.BookingStatusCancelled {
			continue
		}
		if b.StartDate.Before(end) && start.Before(b.EndDate) {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeBookingRepo) SetCheckoutSession(_ context.Context, id, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.bookings[id]
	if !ok || stored.Status != db.BookingStatusPending || stored.PaymentStatus == db.PaymentStatusPaid {
		return repository.ErrNotFound
	}
	stored.CheckoutSessionID = sessionID
	r.bookings[id] = stored
	return nil
}

func (r *fakeBookingRepo) update(match func(db.Booking) bool, apply func(*db.Booking)) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, b := range r.bookings {
		if match(b) {
			apply(&b)
			r.bookings[id] = b
			return true
		}
	}
	return false
}

func (r *fakeBookingRepo) MarkPaid(_ context.Context, sessionID, pi string) (bool, error) {
	return r.update(func(b db.Booking) bool {
		return b.CheckoutSessionID == sessionID &&
			(b.PaymentStatus == db.PaymentStatusPending || b.PaymentStatus == db.PaymentStatusFailed)
	}, func(b *db.Booking) {
		b.PaymentStatus = db.PaymentStatusPaid
		if b.Status == db.BookingStatusPending {
			b.Status = db.BookingStatusConfirmed
		}
		b.PaymentIntentID = pi
	}), nil
}

func (r *fakeBookingRepo) MarkPaymentFailed(_ context.Context, sessionID string) (bool, error) {
	return r.update(func(b db.Booking) bool {
		return b.CheckoutSessionID == sessionID && b.PaymentStatus == db.PaymentStatusPending
	}, func(b *db.Booking) {
		b.PaymentStatus = db.PaymentStatusFailed
	}), nil
}

func (r *fakeBookingRepo) MarkRefunded(_ context.Context, id string) (bool, error) {
	return r.update(func(b db.Booking) bool {
		return b.ID == id && b.PaymentStatus == db.PaymentStatusPaid
	}, func(b *db.Booking) {
		b.Status = db.BookingStatusCancelled
		b.PaymentStatus = db.PaymentStatusRefunded
	}), nil
}

type fakeFleetRepo struct {
	branches map[string]db.Branch
	vehicles map[string]db.Vehicle
}

func newFakeFleetRepo(vehicles ...db.Vehicle) *fakeFleetRepo {
	r := &fakeFleetRepo{branches: map[string]db.Branch{}, vehicles: map[string]db.Vehicle{}}
	for _, v := range vehicles {
		r.vehicles[v.ID] = v
	}
	return r
}

func (r *fakeFleetRepo) ListBranches(context.Context) ([]db.Branch, error) {
	out := []db.Branch{}
	for _, b := range r.branches {
		out = append(out, b)
	}
	return out, nil
}

func (r *fakeFleetRepo) GetBranch(_ context.Context, id string) (*db.Branch, error) {
	b, ok := r.branches[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &b, nil
}

func (r *fakeFleetRepo) CreateBranch(_ context.Context, b *db.Branch) error {
	r.branches[b.ID] = *b
	return nil
}

func (r *fakeFleetRepo) UpdateBranch(_ context.Context, b *db.Branch) error {
	if _, ok := r.branches[b.ID]; !ok {
		return repository.ErrNotFound
	}
	r.branches[b.ID] = *b
	return nil
}

func (r *fakeFleetRepo) DeleteBranch(_ context.Context, id string) error {
	if _, ok := r.branches[id]; !ok {
		return repository.ErrNotFound
	}
	for _, v := range r.vehicles {
		if v.BranchID == id {
			return repository.ErrInUse
		}
	}
	delete(r.branches, id)
	return nil
}

func (r *fakeFleetRepo) ListVehicles(_ context.Context, branchID string) ([]db.Vehicle, error) {
	out := []db.Vehicle{}
	for _, v := range r.vehicles {
		if branchID == "" || v.BranchID == branchID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (r *fakeFleetRepo) GetVehicle(_ context.Context, id string) (*db.Vehicle, error) {
	v, ok := r.vehicles[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &v, nil
}

func (r *fakeFleetRepo) CreateVehicle(_ context.Context, v *db.Vehicle) error {
	for _, existing := range r.vehicles {
		if existing.Plate == v.Plate {
			return repository.ErrDuplicate
		}
	}
	r.vehicles[v.ID] = *v
	return nil
}

// fakeGateway keeps sessions in memory. Tests flip session state directly.
type fakeGateway struct {
	mu          sync.Mutex
	sessions    map[string]*entities.GatewaySession
	created     []entities.CheckoutSessionRequest
	refunds     []string
	detached    []string
	customers   int
	failCreate  error
	failGet     error
	failRefund  error
	failAttach  error
	webhookNext *WebhookEvent
	webhookErr  error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{sessions: map[string]*entities.GatewaySession{}}
}

func (g *fakeGateway) CreateCheckoutSession(_ context.Context, req entities.CheckoutSessionRequest) (*entities.GatewaySession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failCreate != nil {
		return nil, g.failCreate
	}
	g.created = append(g.created, req)
	id := "cs_test_" + req.BookingID
	sess := &entities.GatewaySession{
		ID:            id,
		URL:           "https://checkout.example.com/" + id,
		PaymentStatus: entities.SessionUnpaid,
		Status:        entities.SessionOpen,
		BookingID:     req.BookingID,
	}
	g.sessions[id] = sess
	copied := *sess
	return &copied, nil
}

func (g *fakeGateway) GetCheckoutSession(_ context.Context, id string) (*entities.GatewaySession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failGet != nil {
		return nil, g.failGet
	}
	sess, ok := g.sessions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *sess
	return &copied, nil
}

func (g *fakeGateway) setSession(id, paymentStatus, status, pi string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	sess, ok := g.sessions[id]
	if !ok {
		sess = &entities.GatewaySession{ID: id}
		g.sessions[id] = sess
	}
	sess.PaymentStatus = paymentStatus
	sess.Status = status
	sess.PaymentIntentID = pi
}

func (g *fakeGateway) Refund(_ context.Context, pi string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failRefund != nil {
		return g.failRefund
	}
	g.refunds = append(g.refunds, pi)
	return nil
}

func (g *fakeGateway) EnsureCustomer(_ context.Context, existing, _, _ string) (string, error) {
	if existing != "" {
		return existing, nil
	}
	g.customers++
	return "cus_test", nil
}

func (g *fakeGateway) AttachPaymentMethod(_ context.Context, pmID, _ string) (*entities.CardDetails, error) {
	if g.failAttach != nil {
		return nil, g.failAttach
	}
	return &entities.CardDetails{PaymentMethodID: pmID, Brand: "visa", Last4: "4242", ExpMonth: 12, ExpYear: 2030, Country: "US", Funding: "credit"}, nil
}

func (g *fakeGateway) DetachPaymentMethod(_ context.Context, pmID string) error {
	g.detached = append(g.detached, pmID)
	return nil
}

func (g *fakeGateway) ParseWebhook([]byte, string) (*WebhookEvent, error) {
	return g.webhookNext, g.webhookErr
}

type fakeNotifier struct {
	mu        sync.Mutex
	confirmed []string
	cancelled []string
}

func (n *fakeNotifier) BookingConfirmed(_ context.Context, b db.Booking) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.confirmed = append(n.confirmed, b.ID)
}

func (n *fakeNotifier) BookingCancelled(_ context.Context, b db.Booking) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.cancelled = append(n.cancelled, b.ID)
}

func (n *fakeNotifier) confirmedCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.confirmed)
}
