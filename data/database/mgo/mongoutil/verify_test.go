package mongoutil

import (
	"strings"
	"testing"

	"PPDirect/tools/errs"
)

func TestValidateAndSetDefaults(t *testing.T) {
	c := &Config{Address: []string{"db1:27017", "db2:27017"}, Database: "chat", Username: "root", Password: "pw"}
	if err := c.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults: %v", err)
	}
	if c.MaxPoolSize != defaultMaxPoolSize || c.MaxRetry != defaultMaxRetry {
		t.Fatalf("defaults not applied: %+v", c)
	}
	want := "mongodb://root:pw@db1:27017,db2:27017/chat?authSource=chat&maxPoolSize=100"
	if c.Uri != want {
		t.Fatalf("Uri = %q, want %q", c.Uri, want)
	}

	anon := &Config{Address: []string{"localhost:27017"}, Database: "chat", AuthSource: "admin"}
	if err := anon.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(anon.Uri, "mongodb://localhost:27017/chat?authSource=admin") {
		t.Fatalf("unexpected anonymous uri %q", anon.Uri)
	}
}

func TestValidateRejects(t *testing.T) {
	if err := (&Config{Database: "chat"}).ValidateAndSetDefaults(); !errs.ErrArgs.Is(err) {
		t.Fatalf("missing address: got %v", err)
	}
	if err := (&Config{Uri: "mongodb://x"}).ValidateAndSetDefaults(); !errs.ErrArgs.Is(err) {
		t.Fatalf("missing database: got %v", err)
	}
}
