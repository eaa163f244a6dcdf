package markdown

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var sizeExprRe = regexp.MustCompile(`^(\d+)\s*(K|M|G|KB|MB|GB|KIB|MIB|GIB)?$`)

// ParseSizeExpr parses a size expression as used by `--split size=<N>`
// (§4.7): a bare number of bytes, an IEC unit (K/M/G or KiB/MiB/GiB,
// 1024^n), or an SI unit (KB/MB/GB, 1000^n). Case-insensitive.
func ParseSizeExpr(expr string) (int64, error) {
	s := strings.ToUpper(strings.TrimSpace(expr))
	m := sizeExprRe.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("invalid size expression %q", expr)
	}
	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size expression %q: %w", expr, err)
	}
	unit := m[2]
	switch unit {
	case "", "K", "M", "G":
		return n * iecMultiplier(unit), nil
	case "KB", "MB", "GB":
		return n * siMultiplier(unit), nil
	case "KIB", "MIB", "GIB":
		return n * iecMultiplier(unit[:1]), nil
	}
	return n, nil
}

func iecMultiplier(u string) int64 {
	switch u {
	case "K":
		return 1024
	case "M":
		return 1024 * 1024
	case "G":
		return 1024 * 1024 * 1024
	default:
		return 1
	}
}

func siMultiplier(u string) int64 {
	switch u {
	case "KB":
		return 1000
	case "MB":
		return 1000 * 1000
	case "GB":
		return 1000 * 1000 * 1000
	default:
		return 1
	}
}

// FormatBytes renders n as a human-readable IEC byte count, one decimal
// place, for progress/preview output.
func FormatBytes(n int64) string {
	units := []string{"B", "KiB", "MiB", "GiB", "TiB"}
	v := float64(n)
	i := 0
	for v >= 1024 && i < len(units)-1 {
		v /= 1024
		i++
	}
	return fmt.Sprintf("%.1f%s", v, units[i])
}
