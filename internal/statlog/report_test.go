package statlog

import "testing"

func TestBytesToSize(t *testing.T) {
	cases := []struct {
		in   uint64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1 KB"},
		{1536, "1 KB"},
		{1 << 20, "1 MB"},
		{1 << 30, "1 GB"},
	}
	for _, c := range cases {
		if got := BytesToSize(c.in); got != c.want {
			t.Errorf("BytesToSize(%d) = %q, want %q", c.in, got, c.want)
		}
	}
}
