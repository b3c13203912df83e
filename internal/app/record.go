package app

import (
	"fmt"
	"time"

	"bridgebid/internal/ports"

	"github.com/form3tech-oss/jwt-go"
)

// RecordSigner issues HS256 tokens over completed auction records so that a
// downstream scorer can check a transcript came from this server unaltered.
type RecordSigner struct {
	secret   string
	issuer   string
	validFor time.Duration
	now      func() time.Time
}

func NewRecordSigner(secret, issuer string, validFor time.Duration) *RecordSigner {
	return &RecordSigner{
		secret:   secret,
		issuer:   issuer,
		validFor: validFor,
		now:      time.Now,
	}
}

// Sign returns the signed token for record.
func (s *RecordSigner) Sign(record ports.AuctionRecord) (string, error) {
	if s == nil || s.secret == "" || s.issuer == "" {
		return "", ErrSignerNotConfigured
	}
	if record.GameID == "" {
		return "", fmt.Errorf("record game id is required")
	}

	now := s.now()
	claims := jwt.MapClaims{
		"iss":        s.issuer,
		"sub":        record.GameID,
		"iat":        now.Unix(),
		"exp":        now.Add(s.validFor).Unix(),
		"board":      record.Board,
		"dealer":     record.Dealer,
		"vul":        record.Vulnerability,
		"calls":      record.Calls,
		"passed_out": record.PassedOut,
	}
	if record.Contract != "" {
		claims["contract"] = record.Contract
		claims["declarer"] = record.Declarer
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.secret))
}

// Verify parses a token produced by Sign and returns its claims.
func (s *RecordSigner) Verify(tokenString string) (jwt.MapClaims, error) {
	if s == nil || s.secret == "" {
		return nil, ErrSignerNotConfigured
	}
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to verify auction record: %w", err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("auction record token is invalid")
	}
	if iss, _ := claims["iss"].(string); iss != s.issuer {
		return nil, fmt.Errorf("unexpected record issuer %q", iss)
	}
	return claims, nil
}
