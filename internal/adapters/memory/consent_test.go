package memory

import (
	"context"
	"testing"
)

func TestConsentStore(t *testing.T) {
	ctx := context.Background()
	s := NewConsentStore()

	ok, err := s.Allowed(ctx, "allow_internet_What3Words")
	if err != nil || ok {
		t.Fatalf("missing key = %v, %v; want false, nil", ok, err)
	}

	if err := s.SetAllowed(ctx, "allow_internet_What3Words", true); err != nil {
		t.Fatal(err)
	}
	if ok, _ := s.Allowed(ctx, "allow_internet_What3Words"); !ok {
		t.Error("expected true after SetAllowed(true)")
	}

	_ = s.SetAllowed(ctx, "allow_internet_What3Words", false)
	if ok, _ := s.Allowed(ctx, "allow_internet_What3Words"); ok {
		t.Error("expected false after SetAllowed(false)")
	}
}
