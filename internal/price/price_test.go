package price

import "testing"

func TestExtract(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"$1,234.50", "1234.50", true},
		{"€99", "99", true},
		{"N/A", "", false},
		{"", "", false},
		{"Price: £ 12.5 each", "12.5", true},
		{"USD 3,000,000", "3000000", true},
		{"10.999", "10.99", true},
		{"￥１，２００", "1200", true},
		{"from $5.00 to $9.00", "5.00", true},
	}
	for _, tc := range cases {
		got, ok := Extract(tc.in)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("Extract(%q)=(%q,%v) want (%q,%v)", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}
