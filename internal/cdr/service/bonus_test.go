package service

import "testing"

func TestCalculateBonus(t *testing.T) {
	tests := []struct {
		name        string
		callType    string
		duration    int
		wantBase    int64
		wantOverage int64
		wantTotal   int64
	}{
		{"first call at minimum duration", CallTypeFirst, 900, 750, 0, 750},
		{"second call", CallTypeSecond, 1200, 750, 0, 750},
		{"third call", CallTypeThird, 2000, 500, 0, 500},
		{"fourth call with one extra hour", CallTypeFourth, 5400, 1000, 1000, 2000},
		{"deposit exactly one hour has no overage", CallTypeDeposit, 3600, 1000, 0, 1000},
		{"overage needs a complete extra hour", CallTypeFirst, 7199, 750, 0, 750},
		{"two complete extra hours", CallTypeFirst, 10800, 750, 2000, 2750},
		{"unknown type earns no base", "fifth_call", 5400, 0, 0, 0},
		{"unknown type still accrues overage", "fifth_call", 7300, 0, 1000, 1000},
		{"zero duration", CallTypeFirst, 0, 750, 0, 750},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateBonus(tt.callType, tt.duration)
			if got.BaseCents != tt.wantBase || got.OverageCents != tt.wantOverage || got.TotalCents != tt.wantTotal {
				t.Fatalf("CalculateBonus(%s, %d) = %+v, want base=%d overage=%d total=%d",
					tt.callType, tt.duration, got, tt.wantBase, tt.wantOverage, tt.wantTotal)
			}
		})
	}
}

func TestIsDeclarableType(t *testing.T) {
	if IsDeclarableType(CallTypeDeposit) {
		t.Fatal("deposit must not be agent-declarable")
	}
	for _, ct := range []string{CallTypeFirst, CallTypeSecond, CallTypeThird, CallTypeFourth} {
		if !IsDeclarableType(ct) {
			t.Fatalf("%s should be declarable", ct)
		}
	}
	if IsDeclarableType("tenth_call") {
		t.Fatal("unknown type should not be declarable")
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		seconds int
		want    string
	}{
		{900, "15:00"},
		{59, "0:59"},
		{3600, "1:00:00"},
		{5432, "1:30:32"},
		{0, "0:00"},
	}

	for _, tt := range tests {
		if got := FormatDuration(tt.seconds); got != tt.want {
			t.Fatalf("FormatDuration(%d) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}
