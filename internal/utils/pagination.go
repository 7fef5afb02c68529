package utils

import "strconv"

// MaxPageSize caps every paginated endpoint.
const MaxPageSize = 100

// ParsePage returns a 1-indexed page number. Non-numeric or sub-1 input
// falls back to page 1 rather than erroring.
func ParsePage(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// ParsePageSize returns def when raw is not a number in [1, MaxPageSize].
// Out-of-range values fall back to the endpoint default, they are not
// clamped to the cap.
func ParsePageSize(raw string, def int) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > MaxPageSize {
		return def
	}
	return n
}
