package orders

import (
	"context"

	"github.com/crevva/arewa-tasty-backend/pkg/db/models"
	pkgerrors "github.com/crevva/arewa-tasty-backend/pkg/errors"
	"github.com/google/uuid"
)

// ProfileEmails resolves the email of a linked account. Wired to the
// backoffice user store in production and stubbed in tests.
type ProfileEmails interface {
	EmailByProfileID(ctx context.Context, id uuid.UUID) (string, error)
}

// LookupInput is the guest order-lookup payload: the code plus exactly the
// identity the customer supplied at checkout.
type LookupInput struct {
	Code  string
	Email string
	Phone string
}

// Lookup returns the order only when the code is well-formed, exists, and the
// supplied identity matches one recorded on the order. Every failure mode
// returns the same not-found error so the endpoint cannot be used to probe
// which codes exist.
func (s *service) Lookup(ctx context.Context, input LookupInput) (*models.Order, error) {
	if !ValidCode(input.Code) {
		return nil, errOrderLookupFailed()
	}

	order, err := s.repo.FindByCode(ctx, input.Code)
	if err != nil {
		if IsNotFound(err) {
			return nil, errOrderLookupFailed()
		}
		return nil, err
	}

	if !s.identityMatches(ctx, order, input) {
		return nil, errOrderLookupFailed()
	}
	return order, nil
}

func (s *service) identityMatches(ctx context.Context, order *models.Order, input LookupInput) bool {
	email := NormalizeEmail(input.Email)
	phone := NormalizePhone(input.Phone)
	if email == "" && phone == "" {
		return false
	}

	if email != "" && order.GuestEmail != "" && email == NormalizeEmail(order.GuestEmail) {
		return true
	}
	if phone != "" && order.GuestPhone != "" && phone == NormalizePhone(order.GuestPhone) {
		return true
	}

	if email != "" && order.UserProfileID != nil && s.profiles != nil {
		profileEmail, err := s.profiles.EmailByProfileID(ctx, *order.UserProfileID)
		if err == nil && profileEmail != "" && email == NormalizeEmail(profileEmail) {
			return true
		}
	}
	return false
}

func errOrderLookupFailed() error {
	return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
}
