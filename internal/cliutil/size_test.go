package cliutil

import "testing"

func TestParseSize(t *testing.T) {
	cases := []struct {
		in      string
		want    uint64
		wantErr bool
	}{
		{"1024", 1024, false},
		{"4k", 4 << 10, false},
		{"4K", 4 << 10, false},
		{"8m", 8 << 20, false},
		{"8M", 8 << 20, false},
		{"1g", 1 << 30, false},
		{"1G", 1 << 30, false},
		{"", 0, true},
		{"abc", 0, true},
		{"99999999999999999999G", 0, true},
	}
	for _, c := range cases {
		got, err := ParseSize(c.in)
		if c.wantErr {
			if err == nil {
				t.Errorf("ParseSize(%q): expected error, got %d", c.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseSize(%q): unexpected error: %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("ParseSize(%q) = %d, want %d", c.in, got, c.want)
		}
	}
}
