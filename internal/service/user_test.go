package service

import (
	"context"
	"testing"

	"github.com/spendwise/backend/internal/storetest"
)

func TestGetOrCreateAssignsReferralCode(t *testing.T) {
	store := storetest.New()
	svc := NewUserService(store)

	email := "a@example.com"
	user, err := svc.GetOrCreate(context.Background(), Profile{ID: 1, Email: &email})
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if user.ReferralCode == "" {
		t.Error("referral code not assigned")
	}
	if len(user.ReferralCode) != 8 {
		t.Errorf("referral code %q length = %d, want 8", user.ReferralCode, len(user.ReferralCode))
	}
}

func TestGetOrCreateKeepsExistingCode(t *testing.T) {
	store := storetest.New()
	svc := NewUserService(store)
	ctx := context.Background()

	first, err := svc.GetOrCreate(ctx, Profile{ID: 1})
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}

	email := "new@example.com"
	second, err := svc.GetOrCreate(ctx, Profile{ID: 1, Email: &email})
	if err != nil {
		t.Fatalf("GetOrCreate upsert: %v", err)
	}
	if second.ReferralCode != first.ReferralCode {
		t.Errorf("referral code changed on upsert: %q -> %q", first.ReferralCode, second.ReferralCode)
	}
	if second.Email == nil || *second.Email != email {
		t.Error("email not updated on upsert")
	}
}
