package freshservice

import "testing"

func TestSanitizeQuery(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `status:2 AND group_id:3`, `status:2 AND group_id:3`},
		{"smart quotes", "status:‘2’ AND tag:“hot”", `status:'2' AND tag:'hot'`},
		{"non-breaking space", "status:2 AND group_id:3", `status:2 AND group_id:3`},
		{"zero-width space", "status:2​AND group_id:3", `status:2 AND group_id:3`},
		{"whitespace runs", "status:2   AND\t\tgroup_id:3", `status:2 AND group_id:3`},
		{"leading and trailing", "  status:2  ", `status:2`},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeQuery(tt.in); got != tt.want {
				t.Errorf("SanitizeQuery(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestEncodeQuery(t *testing.T) {
	got := EncodeQuery("status:2 AND group_id:3")
	want := `%22status%3A2%20AND%20group_id%3A3%22`
	if got != want {
		t.Errorf("EncodeQuery = %q, want %q", got, want)
	}
}

func TestEncodeQuery_NoPlusEncoding(t *testing.T) {
	got := EncodeQuery("a b")
	if got != `%22a%20b%22` {
		t.Errorf("EncodeQuery = %q, spaces must encode as %%20", got)
	}
}
