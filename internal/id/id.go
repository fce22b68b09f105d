package id

import (
	"fmt"
	"strconv"
)

// FormatEntryRef returns an entry reference like "000042".
func FormatEntryRef(number int64) string {
	return fmt.Sprintf("%06d", number)
}

// FormatLineRef returns a line reference like "000042a" (line 0='a',
// 1='b', ..., 25='z', 26='aa').
func FormatLineRef(entryRef string, line int) string {
	return entryRef + lineSuffix(line)
}

func lineSuffix(n int) string {
	var b []byte
	for n >= 0 {
		b = append([]byte{byte('a' + n%26)}, b...)
		n = n/26 - 1
	}
	return string(b)
}

// ParseEntryRef parses "000042" or "000042b" into the entry number.
func ParseEntryRef(ref string) (int64, error) {
	base := EntryGroup(ref)
	if base == "" {
		return 0, fmt.Errorf("invalid entry reference %q", ref)
	}
	n, err := strconv.ParseInt(base, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid entry reference %q: %w", ref, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("invalid entry reference %q: number must be positive", ref)
	}
	return n, nil
}

// EntryGroup strips the line suffix from a line reference.
// "000042a" -> "000042"
func EntryGroup(lineRef string) string {
	i := len(lineRef)
	for i > 0 && lineRef[i-1] >= 'a' && lineRef[i-1] <= 'z' {
		i--
	}
	return lineRef[:i]
}
