package core

import "testing"

func TestMoney_Validate(t *testing.T) {
	cases := []struct {
		cents int64
		ok    bool
	}{
		{1, true},
		{100, true},
		{0, false},
		{-1, false},
	}
	for _, tc := range cases {
		err := Money{Cents: tc.cents}.Validate()
		if tc.ok && err != nil {
			t.Fatalf("%d cents: unexpected error %v", tc.cents, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("%d cents: expected error", tc.cents)
		}
	}
}

func TestMoney_ValidateNonNegative(t *testing.T) {
	if err := (Money{Cents: 0}).ValidateNonNegative(); err != nil {
		t.Fatalf("zero should be allowed: %v", err)
	}
	if err := (Money{Cents: -5}).ValidateNonNegative(); err == nil {
		t.Fatal("negative should be rejected")
	}
}

func TestBalance(t *testing.T) {
	got := Balance(Money{Cents: 100000}, Money{Cents: 5000}, Money{Cents: 2000})
	if got.Cents != 97000 {
		t.Fatalf("expected 97000, got %d", got.Cents)
	}
}

func TestProgress(t *testing.T) {
	cases := []struct {
		name  string
		limit int64
		spent int64
		want  float64
	}{
		{"quarter spent", 20000, 5000, 25},
		{"fully spent", 10000, 10000, 100},
		{"overspent clamps to 100", 10000, 15000, 100},
		{"nothing spent", 10000, 0, 0},
		{"zero limit", 0, 5000, 0},
		{"negative spent", 10000, -100, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Progress(Money{Cents: tc.limit}, Money{Cents: tc.spent})
			if got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}
