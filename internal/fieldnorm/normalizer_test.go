package fieldnorm

import "testing"

func TestNormalizePhone(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"+62 812-3456-7890", "6281234567890"},
		{"(021) 555 0199", "0215550199"},
		{"6281234567890", "6281234567890"},
		{"ext. 42", "42"},
		{"", ""},
		{"no digits", ""},
	}
	for _, tc := range cases {
		if got := NormalizePhone(tc.in); got != tc.want {
			t.Errorf("NormalizePhone(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeEmail(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"  Jane.Doe@Example.COM ", "jane.doe@example.com"},
		{"<jane@example.com>", "jane@example.com"},
		{"\"jane@example.com\"", "jane@example.com"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := NormalizeEmail(tc.in); got != tc.want {
			t.Errorf("NormalizeEmail(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSamePhone(t *testing.T) {
	if !SamePhone("+62 812-3456-7890", "6281234567890") {
		t.Error("expected formatted and bare numbers to match")
	}
	if SamePhone("", "") {
		t.Error("empty phones must never match")
	}
	if SamePhone("123", "124") {
		t.Error("different digit sequences must not match")
	}
}

func TestSameEmail(t *testing.T) {
	if !SameEmail("Jane@Example.com", "jane@example.com") {
		t.Error("expected case-insensitive match")
	}
	if SameEmail("", "") {
		t.Error("empty emails must never match")
	}
}

func TestNormalizeName(t *testing.T) {
	if got := NormalizeName("  Jane   Doe "); got != "Jane Doe" {
		t.Errorf("NormalizeName = %q, want %q", got, "Jane Doe")
	}
}
