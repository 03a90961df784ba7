package model

import "testing"

func TestParseCategory(t *testing.T) {
	tests := []struct {
		raw    string
		want   Category
		wantOK bool
	}{
		{"cooking", CategoryCooking, true},
		{"  Cooking ", CategoryCooking, true},
		{"face-masks", CategoryFaceMasks, true},
		{"mask", CategoryFaceMasks, true},
		{"face-mask", CategoryFaceMasks, true},
		{"DIY", CategoryDIY, true},
		{"", "", false},
		{"recipes", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := ParseCategory(tt.raw)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("ParseCategory(%q) = (%q, %v), want (%q, %v)", tt.raw, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestPlatformValid(t *testing.T) {
	for _, p := range []Platform{PlatformInstagram, PlatformFacebook, PlatformYouTube, PlatformTikTok} {
		if !p.Valid() {
			t.Errorf("%q should be valid", p)
		}
	}
	for _, p := range []Platform{"", "vimeo", "YouTube"} {
		if p.Valid() {
			t.Errorf("%q should be invalid", p)
		}
	}
}

func TestIsSubscribed(t *testing.T) {
	tests := []struct {
		status SubscriptionStatus
		want   bool
	}{
		{SubscriptionNone, false},
		{SubscriptionActive, true},
		{SubscriptionCancelAtPeriodEnd, true},
		{SubscriptionPastDue, false},
		{SubscriptionDeleted, false},
	}

	for _, tt := range tests {
		u := &User{SubscriptionStatus: tt.status, Credits: 5}
		if got := u.IsSubscribed(); got != tt.want {
			t.Errorf("IsSubscribed(%q) = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestSubscriptionStatusValid(t *testing.T) {
	if !SubscriptionNone.Valid() || !SubscriptionPastDue.Valid() {
		t.Error("known statuses should be valid")
	}
	if SubscriptionStatus("trialing").Valid() {
		t.Error("unknown status should be invalid")
	}
}
