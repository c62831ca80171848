package core

import "strconv"

// utoa formats an unsigned value for debug output without pulling in fmt
func utoa(n uint32) string {
	return strconv.FormatUint(uint64(n), 10)
}

// utoa64 is utoa for 64-bit values
func utoa64(n uint64) string {
	return strconv.FormatUint(n, 10)
}
