package orders

import (
	"context"
	"errors"
	"testing"

	"github.com/crevva/arewa-tasty-backend/internal/quotes"
	"github.com/crevva/arewa-tasty-backend/pkg/db"
	"github.com/crevva/arewa-tasty-backend/pkg/db/models"
	"github.com/crevva/arewa-tasty-backend/pkg/enums"
	pkgerrors "github.com/crevva/arewa-tasty-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type stubQuotes struct {
	quote *quotes.Quote
	err   error
	calls int
}

func (s *stubQuotes) Compute(ctx context.Context, zoneID uuid.UUID, lines []quotes.RequestLine) (*quotes.Quote, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.quote, nil
}

type stubTx struct{}

func (stubTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubRepo struct {
	Repository

	conflictsLeft int
	conflictErr   error
	createdCodes  []string
	createdItems  []models.OrderItem

	byCode map[string]*models.Order
	byID   map[uuid.UUID]*models.Order
}

func (s *stubRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubRepo) Create(ctx context.Context, order *models.Order) error {
	if s.conflictsLeft > 0 {
		s.conflictsLeft--
		if s.conflictErr != nil {
			return s.conflictErr
		}
		return &db.ConflictError{Constraint: "orders_code_key", Err: errors.New("duplicate key")}
	}
	order.ID = uuid.New()
	s.createdCodes = append(s.createdCodes, order.Code)
	return nil
}

func (s *stubRepo) CreateItems(ctx context.Context, items []models.OrderItem) error {
	s.createdItems = append(s.createdItems, items...)
	return nil
}

func (s *stubRepo) FindByCode(ctx context.Context, code string) (*models.Order, error) {
	if order, ok := s.byCode[code]; ok {
		return order, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if order, ok := s.byID[id]; ok {
		return order, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) error {
	order, ok := s.byID[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	order.Status = status
	return nil
}

type stubProfiles struct {
	emails map[uuid.UUID]string
}

func (s *stubProfiles) EmailByProfileID(ctx context.Context, id uuid.UUID) (string, error) {
	if email, ok := s.emails[id]; ok {
		return email, nil
	}
	return "", gorm.ErrRecordNotFound
}

func testQuote() *quotes.Quote {
	productID := uuid.New()
	return &quotes.Quote{
		SubtotalKobo: 500000,
		DeliveryKobo: 180000,
		TotalKobo:    680000,
		Currency:     enums.CurrencyNGN,
		Lines: []quotes.Line{{
			ProductID:     productID,
			Name:          "Jollof Rice & Chicken",
			UnitPriceKobo: 250000,
			Quantity:      2,
			LineTotalKobo: 500000,
		}},
		Zone: quotes.ZoneSummary{ID: uuid.New(), State: "Lagos", City: "Ikeja", Zone: "GRA", FeeKobo: 180000},
	}
}

func newTestService(t *testing.T, repo *stubRepo, quoteSvc quotes.Service) Service {
	t.Helper()
	svc, err := NewService(repo, quoteSvc, stubTx{}, &stubProfiles{}, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestCreatePersistsOrderWithSnapshots(t *testing.T) {
	repo := &stubRepo{}
	quote := testQuote()
	svc := newTestService(t, repo, &stubQuotes{quote: quote})

	order, err := svc.Create(context.Background(), CreateInput{
		DeliveryZoneID: quote.Zone.ID,
		Lines:          []quotes.RequestLine{{ProductID: quote.Lines[0].ProductID, Quantity: 2}},
		GuestEmail:     "  Ada.Obi@Example.COM ",
		GuestPhone:     "+234 (801) 234-5678",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if !ValidCode(order.Code) {
		t.Fatalf("order code %q invalid", order.Code)
	}
	if order.GuestEmail != "ada.obi@example.com" {
		t.Fatalf("email = %q, want normalized", order.GuestEmail)
	}
	if order.GuestPhone != "+2348012345678" {
		t.Fatalf("phone = %q, want normalized", order.GuestPhone)
	}
	if order.Status != enums.OrderStatusPendingPayment {
		t.Fatalf("status = %s, want pending_payment", order.Status)
	}
	if order.TotalKobo != 680000 {
		t.Fatalf("total = %d, want 680000", order.TotalKobo)
	}
	if len(repo.createdItems) != 1 {
		t.Fatalf("items = %d, want 1", len(repo.createdItems))
	}
	item := repo.createdItems[0]
	if item.Name != "Jollof Rice & Chicken" || item.UnitPriceKobo != 250000 || item.LineTotalKobo != 500000 {
		t.Fatalf("item snapshot mismatch: %+v", item)
	}
}

func TestCreateRetriesOnCodeConflict(t *testing.T) {
	repo := &stubRepo{conflictsLeft: 3}
	svc := newTestService(t, repo, &stubQuotes{quote: testQuote()})

	order, err := svc.Create(context.Background(), CreateInput{
		GuestEmail: "ada@example.com",
		Lines:      []quotes.RequestLine{{ProductID: uuid.New(), Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("create after collisions: %v", err)
	}
	if len(repo.createdCodes) != 1 {
		t.Fatalf("created %d orders, want 1", len(repo.createdCodes))
	}
	if order.Code == "" {
		t.Fatal("order code not set")
	}
}

func TestCreateGivesUpAfterSixAttempts(t *testing.T) {
	repo := &stubRepo{conflictsLeft: 10}
	svc := newTestService(t, repo, &stubQuotes{quote: testQuote()})

	_, err := svc.Create(context.Background(), CreateInput{
		GuestEmail: "ada@example.com",
		Lines:      []quotes.RequestLine{{ProductID: uuid.New(), Quantity: 1}},
	})
	if !IsCodeAllocationExhausted(err) {
		t.Fatalf("err = %v, want code allocation exhausted", err)
	}
	if repo.conflictsLeft != 4 {
		t.Fatalf("attempts = %d, want exactly 6", 10-repo.conflictsLeft)
	}
}

func TestCreateDoesNotRetryUnrelatedConflicts(t *testing.T) {
	repo := &stubRepo{
		conflictsLeft: 10,
		conflictErr:   &db.ConflictError{Constraint: "payments_provider_ref_key", Err: errors.New("duplicate key")},
	}
	svc := newTestService(t, repo, &stubQuotes{quote: testQuote()})

	_, err := svc.Create(context.Background(), CreateInput{
		GuestEmail: "ada@example.com",
		Lines:      []quotes.RequestLine{{ProductID: uuid.New(), Quantity: 1}},
	})
	if !db.IsConflict(err) {
		t.Fatalf("err = %v, want the conflict surfaced unchanged", err)
	}
	if repo.conflictsLeft != 9 {
		t.Fatalf("attempts = %d, want exactly 1", 10-repo.conflictsLeft)
	}
}

func TestCreateRequiresContact(t *testing.T) {
	repo := &stubRepo{}
	quoteSvc := &stubQuotes{quote: testQuote()}
	svc := newTestService(t, repo, quoteSvc)

	_, err := svc.Create(context.Background(), CreateInput{
		Lines: []quotes.RequestLine{{ProductID: uuid.New(), Quantity: 1}},
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("err = %v, want validation error", err)
	}
	if quoteSvc.calls != 0 {
		t.Fatal("quote computed before contact validation")
	}
}

func TestLookupMatchesGuestIdentity(t *testing.T) {
	order := &models.Order{
		Code:       "AT-DEADBEEF",
		GuestEmail: "ada@example.com",
		GuestPhone: "+2348012345678",
		Status:     enums.OrderStatusPaid,
	}
	repo := &stubRepo{byCode: map[string]*models.Order{order.Code: order}}
	svc := newTestService(t, repo, &stubQuotes{quote: testQuote()})

	got, err := svc.Lookup(context.Background(), LookupInput{Code: "AT-DEADBEEF", Email: "ADA@example.com"})
	if err != nil {
		t.Fatalf("lookup by email: %v", err)
	}
	if got.Code != order.Code {
		t.Fatalf("got order %q", got.Code)
	}

	if _, err := svc.Lookup(context.Background(), LookupInput{Code: "AT-DEADBEEF", Phone: "+234 (801) 234-5678 "}); err != nil {
		t.Fatalf("lookup by phone: %v", err)
	}

	// Normalization strips formatting only; a local 0-prefixed number is not
	// rewritten to the stored international form.
	if _, err := svc.Lookup(context.Background(), LookupInput{Code: "AT-DEADBEEF", Phone: "08012345678"}); !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("local-format phone: err = %v, want not found", err)
	}
}

func TestLookupRejectsMismatchedIdentity(t *testing.T) {
	order := &models.Order{Code: "AT-DEADBEEF", GuestEmail: "ada@example.com"}
	repo := &stubRepo{byCode: map[string]*models.Order{order.Code: order}}
	svc := newTestService(t, repo, &stubQuotes{quote: testQuote()})

	cases := []LookupInput{
		{Code: "AT-DEADBEEF", Email: "someone.else@example.com"},
		{Code: "AT-DEADBEEF"},
		{Code: "not-a-code", Email: "ada@example.com"},
		{Code: "AT-00000000", Email: "ada@example.com"},
	}
	for _, input := range cases {
		if _, err := svc.Lookup(context.Background(), input); !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
			t.Fatalf("input %+v: err = %v, want not found", input, err)
		}
	}
}

func TestLookupMatchesLinkedProfileEmail(t *testing.T) {
	profileID := uuid.New()
	order := &models.Order{Code: "AT-CAFEF00D", UserProfileID: &profileID}
	repo := &stubRepo{byCode: map[string]*models.Order{order.Code: order}}

	svc, err := NewService(repo, &stubQuotes{quote: testQuote()}, stubTx{}, &stubProfiles{
		emails: map[uuid.UUID]string{profileID: "ada@example.com"},
	}, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	if _, err := svc.Lookup(context.Background(), LookupInput{Code: "AT-CAFEF00D", Email: "ada@example.com"}); err != nil {
		t.Fatalf("lookup via profile email: %v", err)
	}
	if _, err := svc.Lookup(context.Background(), LookupInput{Code: "AT-CAFEF00D", Email: "intruder@example.com"}); err == nil {
		t.Fatal("expected mismatched profile email to fail")
	}
}

func TestTransitionFollowsFulfillmentTable(t *testing.T) {
	id := uuid.New()
	repo := &stubRepo{byID: map[uuid.UUID]*models.Order{
		id: {ID: id, Code: "AT-DEADBEEF", Status: enums.OrderStatusPaid},
	}}
	svc := newTestService(t, repo, &stubQuotes{quote: testQuote()})

	order, err := svc.Transition(context.Background(), id, enums.OrderStatusProcessing)
	if err != nil {
		t.Fatalf("paid -> processing: %v", err)
	}
	if order.Status != enums.OrderStatusProcessing {
		t.Fatalf("status = %s", order.Status)
	}

	if _, err := svc.Transition(context.Background(), id, enums.OrderStatusDelivered); !pkgerrors.HasCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("processing -> delivered: err = %v, want state conflict", err)
	}
}

func TestTransitionNeverConfirmsPayment(t *testing.T) {
	id := uuid.New()
	repo := &stubRepo{byID: map[uuid.UUID]*models.Order{
		id: {ID: id, Code: "AT-DEADBEEF", Status: enums.OrderStatusPendingPayment},
	}}
	svc := newTestService(t, repo, &stubQuotes{quote: testQuote()})

	if _, err := svc.Transition(context.Background(), id, enums.OrderStatusPaid); !pkgerrors.HasCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("pending_payment -> paid: err = %v, want state conflict", err)
	}
}

func TestNormalizePhone(t *testing.T) {
	cases := map[string]string{
		"+234 (801) 234-5678": "+2348012345678",
		"0801 234 5678":       "08012345678",
		"  +2348012345678  ":  "+2348012345678",
		"080-12+34":           "0801234",
	}
	for input, want := range cases {
		if got := NormalizePhone(input); got != want {
			t.Fatalf("NormalizePhone(%q) = %q, want %q", input, got, want)
		}
	}
}
