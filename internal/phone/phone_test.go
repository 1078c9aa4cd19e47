package phone

import "testing"

func TestIsValidLocalNumber(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		valid bool
	}{
		{"bare 9-digit vodacom", "810000000", true},
		{"bare 9-digit airtel", "970123456", true},
		{"bare 9-digit orange", "890123456", true},
		{"prefixed 12-digit", "243810000000", true},
		{"prefixed with punctuation", "+243 81 000 00 00", true},
		{"spaced local number", "81 000 00 00", true},
		{"unknown prefix", "700000000", false},
		{"too short", "81000000", false},
		{"too long local", "8100000000", false},
		{"prefixed but 11 digits", "24381000000", false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidLocalNumber(tt.raw); got != tt.valid {
				t.Errorf("IsValidLocalNumber(%q) = %v, want %v", tt.raw, got, tt.valid)
			}
		})
	}
}

func TestFormatToInternational(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{"bare local number", "810000000", "243810000000", false},
		{"already prefixed is unchanged", "243810000000", "243810000000", false},
		{"punctuation stripped", "+243-81-000-00-00", "243810000000", false},
		{"spaced local number", "81 000 00 00", "243810000000", false},
		{"too short", "8100", "", true},
		{"empty", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FormatToInternational(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q, got %q", tt.raw, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("FormatToInternational(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

// Prepending the country code then formatting again must not prepend twice.
func TestFormatToInternationalIdempotent(t *testing.T) {
	first, err := FormatToInternational("810000000")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := FormatToInternational(first)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first != second {
		t.Errorf("formatting is not idempotent: %q != %q", first, second)
	}
}

func TestDetectOperator(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"810000000", OperatorVodacom},
		{"850000000", OperatorVodacom},
		{"970000000", OperatorAirtel},
		{"990000000", OperatorAirtel},
		{"890000000", OperatorOrange},
		{"910000000", OperatorOrange},
		{"243810000000", OperatorVodacom},
		{"243990000000", OperatorAirtel},
		{"700000000", ""},
		{"8", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := DetectOperator(tt.raw); got != tt.want {
			t.Errorf("DetectOperator(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

// Every prefix maps to exactly one operator; the table is a partition.
func TestPrefixTablePartition(t *testing.T) {
	seen := map[string]string{}
	for prefix, op := range operatorPrefixes {
		if prev, ok := seen[prefix]; ok && prev != op {
			t.Errorf("prefix %s maps to both %s and %s", prefix, prev, op)
		}
		seen[prefix] = op
	}
}

func TestOperatorMatches(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		claimed string
		want    bool
	}{
		{"vodacom matches vodacom", "810000000", OperatorVodacom, true},
		{"prefixed vodacom matches", "243810000000", OperatorVodacom, true},
		{"airtel claimed as vodacom", "970000000", OperatorVodacom, false},
		{"unknown prefix matches nothing", "700000000", OperatorVodacom, false},
		{"empty number matches nothing", "", OperatorAirtel, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := OperatorMatches(tt.raw, tt.claimed); got != tt.want {
				t.Errorf("OperatorMatches(%q, %q) = %v, want %v", tt.raw, tt.claimed, got, tt.want)
			}
		})
	}
}
