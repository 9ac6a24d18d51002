package auth

import (
	"errors"
	"fmt"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/segyhp/parking-billing/internal/domain"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims carries the tenant of a bearer token. The user id is the subject.
type Claims struct {
	CompanyID string `json:"company_id"`
	Role      string `json:"role"`
	jwt.RegisteredClaims
}

type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue signs an HS256 token for the tenant.
func (m *TokenManager) Issue(tenant domain.TenantContext) (string, error) {
	now := m.now()
	claims := Claims{
		CompanyID: tenant.CompanyID.String(),
		Role:      tenant.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   tenant.UserID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Parse validates a token and returns the tenant it was issued for.
func (m *TokenManager) Parse(tokenStr string) (domain.TenantContext, error) {
	t, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return domain.TenantContext{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	c, ok := t.Claims.(*Claims)
	if !ok || !t.Valid {
		return domain.TenantContext{}, ErrInvalidToken
	}

	companyID, err := uuid.Parse(c.CompanyID)
	if err != nil {
		return domain.TenantContext{}, fmt.Errorf("%w: bad company_id", ErrInvalidToken)
	}
	userID, err := uuid.Parse(c.Subject)
	if err != nil {
		return domain.TenantContext{}, fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}

	tenant := domain.NewTenantContext(companyID, userID, c.Role)
	if !tenant.IsValid() {
		return domain.TenantContext{}, fmt.Errorf("%w: unknown role %q", ErrInvalidToken, c.Role)
	}
	return tenant, nil
}
