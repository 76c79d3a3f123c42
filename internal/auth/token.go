package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"growf/platform-backend/internal/identity"
)

const issuer = "growf"

// Claims is the JWT payload.
type Claims struct {
	Role           identity.Role `json:"role"`
	OrganizationID string        `json:"org_id,omitempty"`
	CompanyID      string        `json:"company_id,omitempty"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies HS256 access tokens.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs a token for p.
func (m *TokenManager) Issue(p identity.Principal) (string, time.Time, error) {
	now := m.now()
	expiresAt := now.Add(m.ttl)
	claims := Claims{
		Role: p.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   p.UserID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
	}
	if p.OrganizationID != nil {
		claims.OrganizationID = p.OrganizationID.String()
	}
	if p.CompanyID != nil {
		claims.CompanyID = p.CompanyID.String()
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Parse implements httpx.TokenParser.
func (m *TokenManager) Parse(token string) (*identity.Principal, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, err
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("invalid subject: %w", err)
	}
	if !claims.Role.Valid() {
		return nil, errors.New("invalid role claim")
	}

	p := &identity.Principal{UserID: userID, Role: claims.Role}
	if claims.OrganizationID != "" {
		id, err := uuid.Parse(claims.OrganizationID)
		if err != nil {
			return nil, fmt.Errorf("invalid org_id: %w", err)
		}
		p.OrganizationID = &id
	}
	if claims.CompanyID != "" {
		id, err := uuid.Parse(claims.CompanyID)
		if err != nil {
			return nil, fmt.Errorf("invalid company_id: %w", err)
		}
		p.CompanyID = &id
	}
	return p, nil
}
