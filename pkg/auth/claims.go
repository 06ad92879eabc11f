package auth

import (
	"github.com/crevva/arewa-tasty-backend/pkg/enums"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID uuid.UUID
	Role   enums.BackofficeRole
}

// AccessTokenClaims represents the typed JWT issued to backoffice clients.
type AccessTokenClaims struct {
	UserID uuid.UUID            `json:"user_id"`
	Role   enums.BackofficeRole `json:"role"`
	jwt.RegisteredClaims
}
