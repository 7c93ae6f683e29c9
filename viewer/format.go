package viewer

import (
	"fmt"
	"strconv"
)

// FormatNumber abbreviates counts the way the profile card shows them:
// 15420 -> "15.4K", 2500000 -> "2.5M". Rounding is half-up to one decimal.
func FormatNumber(n int64) string {
	switch {
	case n >= 1_000_000:
		return tenths(n, 100_000) + "M"
	case n >= 1_000:
		return tenths(n, 100) + "K"
	default:
		return strconv.FormatInt(n, 10)
	}
}

func tenths(n, unit int64) string {
	t := (n + unit/2) / unit
	return fmt.Sprintf("%d.%d", t/10, t%10)
}
