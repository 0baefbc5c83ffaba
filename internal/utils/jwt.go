// Package utils issues the staff access tokens verified by
// middleware.JWTAuth.
package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// StaffClaims are the claims of a staff access token.  CompanyID and
// AgencyID scope counter sales to the agent's own agency.
type StaffClaims struct {
	Role      string `json:"role"`
	CompanyID string `json:"company_id,omitempty"`
	AgencyID  string `json:"agency_id,omitempty"`
	jwt.RegisteredClaims
}

// AccessToken is a signed JWT with its expiry.
type AccessToken struct {
	Token string
	Exp   time.Time
}

// NewAccessToken signs an HS256 token for a staff member valid for ttl.
func NewAccessToken(secret, userID, role, companyID, agencyID string, ttl time.Duration) (AccessToken, error) {
	if secret == "" {
		return AccessToken{}, errors.New("empty signing secret")
	}
	now := time.Now().UTC()
	exp := now.Add(ttl)
	claims := StaffClaims{
		Role:      role,
		CompanyID: companyID,
		AgencyID:  agencyID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}
