package decode

import (
	"testing"
	"time"
)

type claims struct {
	UserID   string        `json:"userId"`
	Username string        `json:"username"`
	Exp      int64         `json:"exp"`
	Grace    time.Duration `json:"grace"`
}

func TestDecodeMap(t *testing.T) {
	m := map[string]any{
		"userId":   "U1",
		"username": "alice",
		"exp":      float64(1700000000),
		"grace":    "30s",
		"iat":      float64(1),
	}
	out, err := DecodeMap[claims](m)
	if err != nil {
		t.Fatalf("DecodeMap: %v", err)
	}
	if out.UserID != "U1" || out.Username != "alice" || out.Exp != 1700000000 || out.Grace != 30*time.Second {
		t.Fatalf("unexpected result %+v", out)
	}

	if _, err := DecodeMap[claims](m, Options{ErrorUnused: true}); err == nil {
		t.Fatal("expected error for unused key iat")
	}
	if _, err := DecodeMap[claims](nil); err == nil {
		t.Fatal("expected error for nil map")
	}
}
