package tools

import (
	"testing"
	"time"
)

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("PPD_STR", " v ")
	t.Setenv("PPD_INT", "x")
	t.Setenv("PPD_BOOL", "YES")
	t.Setenv("PPD_DUR", "1500")

	if got := GetEnv("PPD_STR", "d"); got != "v" {
		t.Fatalf("GetEnv = %q", got)
	}
	if got := GetEnv("PPD_MISSING", "d"); got != "d" {
		t.Fatalf("GetEnv default = %q", got)
	}
	if got := GetEnvInt("PPD_INT", 7); got != 7 {
		t.Fatalf("GetEnvInt bad value = %d", got)
	}
	if !GetEnvBool("PPD_BOOL", false) {
		t.Fatal("GetEnvBool")
	}
	if got := GetEnvDuration("PPD_DUR", 0); got != 1500*time.Millisecond {
		t.Fatalf("GetEnvDuration ms = %v", got)
	}
	t.Setenv("PPD_DUR", "2s")
	if got := GetEnvDuration("PPD_DUR", 0); got != 2*time.Second {
		t.Fatalf("GetEnvDuration = %v", got)
	}
}
