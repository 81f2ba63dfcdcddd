package phone

import "testing"

func TestNormalizeE164(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"06 12 34 56 78", "+33612345678"},
		{"0612345678", "+33612345678"},
		{"+33 6 12 34 56 78", "+33612345678"},
		{"+14155552671", "+14155552671"},
		{"", ""},
		{"   ", ""},
		{"not a number", "not a number"},
	}

	for _, tc := range cases {
		if got := NormalizeE164(tc.in); got != tc.want {
			t.Fatalf("NormalizeE164(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
