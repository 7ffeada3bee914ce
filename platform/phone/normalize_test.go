package phone

import "testing"

func TestSameNumber(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		want bool
	}{
		{"identical", "4377576727", "4377576727", true},
		{"country code prefix", "14377576727", "4377576727", true},
		{"plus and formatting", "+1 (437) 757-6727", "14377576727", true},
		{"different numbers", "14377576727", "14377576728", false},
		{"too short", "576727", "14377576727", false},
		{"both empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SameNumber(tt.a, tt.b); got != tt.want {
				t.Fatalf("SameNumber(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestDigits(t *testing.T) {
	if got := Digits("+1 (437) 757-6727"); got != "14377576727" {
		t.Fatalf("Digits = %q, want 14377576727", got)
	}
}
