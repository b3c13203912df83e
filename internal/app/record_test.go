package app

import (
	"errors"
	"testing"
	"time"

	"bridgebid/internal/ports"

	"github.com/form3tech-oss/jwt-go"
)

func sampleRecord() ports.AuctionRecord {
	return ports.AuctionRecord{
		GameID:        "game-1",
		Board:         5,
		Dealer:        "N",
		Vulnerability: "NS",
		Calls:         []string{"1S", "P", "4S", "P", "P", "P"},
		Contract:      "4S",
		Declarer:      "N",
	}
}

func TestRecordSignerRoundTrip(t *testing.T) {
	signer := NewRecordSigner("secret", "bridgebid", time.Hour)

	token, err := signer.Sign(sampleRecord())
	if err != nil {
		t.Fatalf("sign error: %v", err)
	}

	parsed, err := jwt.Parse(token, func(token *jwt.Token) (interface{}, error) {
		return []byte("secret"), nil
	})
	if err != nil {
		t.Fatalf("failed to parse token: %v", err)
	}
	claims := parsed.Claims.(jwt.MapClaims)

	if claims["iss"] != "bridgebid" {
		t.Errorf("iss = %v", claims["iss"])
	}
	if claims["sub"] != "game-1" {
		t.Errorf("sub = %v", claims["sub"])
	}
	if claims["contract"] != "4S" || claims["declarer"] != "N" {
		t.Errorf("contract claims = %v / %v", claims["contract"], claims["declarer"])
	}
	calls, ok := claims["calls"].([]interface{})
	if !ok || len(calls) != 6 || calls[2] != "4S" {
		t.Errorf("calls claim = %v", claims["calls"])
	}

	exp := int64(claims["exp"].(float64))
	iat := int64(claims["iat"].(float64))
	if exp-iat != int64(time.Hour.Seconds()) {
		t.Errorf("exp - iat = %d, want %d", exp-iat, int64(time.Hour.Seconds()))
	}

	if _, err := signer.Verify(token); err != nil {
		t.Fatalf("verify error: %v", err)
	}
}

func TestRecordSignerPassOutOmitsContract(t *testing.T) {
	signer := NewRecordSigner("secret", "bridgebid", time.Hour)
	record := sampleRecord()
	record.Calls = []string{"P", "P", "P", "P"}
	record.PassedOut = true
	record.Contract = ""
	record.Declarer = ""

	token, err := signer.Sign(record)
	if err != nil {
		t.Fatalf("sign error: %v", err)
	}
	claims, err := signer.Verify(token)
	if err != nil {
		t.Fatalf("verify error: %v", err)
	}
	if _, ok := claims["contract"]; ok {
		t.Errorf("pass-out token should not carry a contract claim")
	}
	if claims["passed_out"] != true {
		t.Errorf("passed_out = %v", claims["passed_out"])
	}
}

func TestRecordSignerRejects(t *testing.T) {
	signer := NewRecordSigner("secret", "bridgebid", time.Hour)
	token, err := signer.Sign(sampleRecord())
	if err != nil {
		t.Fatalf("sign error: %v", err)
	}

	expired := NewRecordSigner("secret", "bridgebid", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expiredToken, err := expired.Sign(sampleRecord())
	if err != nil {
		t.Fatalf("sign error: %v", err)
	}

	tests := []struct {
		name   string
		signer *RecordSigner
		token  string
	}{
		{name: "Wrong secret", signer: NewRecordSigner("other", "bridgebid", time.Hour), token: token},
		{name: "Wrong issuer", signer: NewRecordSigner("secret", "someone-else", time.Hour), token: token},
		{name: "Expired", signer: signer, token: expiredToken},
		{name: "Garbage", signer: signer, token: "not-a-token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.signer.Verify(tt.token); err == nil {
				t.Fatalf("expected verify to fail")
			}
		})
	}
}

func TestRecordSignerNotConfigured(t *testing.T) {
	tests := []struct {
		name   string
		signer *RecordSigner
	}{
		{name: "Nil signer", signer: nil},
		{name: "Empty secret", signer: NewRecordSigner("", "bridgebid", time.Hour)},
		{name: "Empty issuer", signer: NewRecordSigner("secret", "", time.Hour)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.signer.Sign(sampleRecord()); !errors.Is(err, ErrSignerNotConfigured) {
				t.Fatalf("err = %v, want ErrSignerNotConfigured", err)
			}
		})
	}
}
