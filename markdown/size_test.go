package markdown

import "testing"

func TestParseSizeExpr(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want int64
	}{
		{"4096", 4096},
		{"4K", 4 * 1024},
		{"4M", 4 * 1024 * 1024},
		{"1G", 1024 * 1024 * 1024},
		{"4MB", 4 * 1000 * 1000},
		{"512KB", 512 * 1000},
		{"4MiB", 4 * 1024 * 1024},
		{"512KiB", 512 * 1024},
		{"4mib", 4 * 1024 * 1024},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.in, func(t *testing.T) {
			t.Parallel()
			got, err := ParseSizeExpr(tc.in)
			if err != nil {
				t.Fatalf("ParseSizeExpr(%q): %v", tc.in, err)
			}
			if got != tc.want {
				t.Fatalf("ParseSizeExpr(%q) = %d, want %d", tc.in, got, tc.want)
			}
		})
	}
}

func TestParseSizeExpr_Invalid(t *testing.T) {
	t.Parallel()

	if _, err := ParseSizeExpr("not-a-size"); err == nil {
		t.Fatal("ParseSizeExpr(invalid) = nil error, want error")
	}
}

func TestFormatBytes(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   int64
		want string
	}{
		{500, "500.0B"},
		{1536, "1.5KiB"},
		{1024 * 1024, "1.0MiB"},
	}
	for _, tc := range cases {
		if got := FormatBytes(tc.in); got != tc.want {
			t.Fatalf("FormatBytes(%d) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
