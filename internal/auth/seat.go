package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

var (
	ErrMissingToken = errors.New("missing token")
	ErrInvalidToken = errors.New("invalid token")
)

// SeatClaims bind a player to one pool game area.
type SeatClaims struct {
	AreaID   string `json:"area_id"`
	PlayerID string `json:"player_id"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies HS256 seat tokens.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewIssuer(secret string, ttl time.Duration) *Issuer {
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue returns a signed token letting playerID act in areaID until the returned expiry.
func (i *Issuer) Issue(areaID, playerID string) (string, time.Time, error) {
	if areaID == "" || playerID == "" {
		return "", time.Time{}, fmt.Errorf("%w: area and player required", ErrInvalidToken)
	}
	now := i.now()
	exp := now.Add(i.ttl)
	claims := SeatClaims{
		AreaID:   areaID,
		PlayerID: playerID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   playerID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign seat token: %w", err)
	}
	return signed, exp, nil
}

// Parse verifies token and returns its claims. A bearer prefix is accepted.
func (i *Issuer) Parse(token string) (*SeatClaims, error) {
	token = strings.TrimSpace(strings.TrimPrefix(token, "Bearer "))
	if token == "" {
		return nil, ErrMissingToken
	}

	claims := &SeatClaims{}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	parsed, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return i.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.AreaID == "" || claims.PlayerID == "" {
		return nil, fmt.Errorf("%w: missing seat", ErrInvalidToken)
	}
	return claims, nil
}
