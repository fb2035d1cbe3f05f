package ledger

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatEntryID returns an entry ID like "2025-01-001".
func FormatEntryID(year, month, seq int) string {
	return fmt.Sprintf("%04d-%02d-%03d", year, month, seq)
}

// FormatLegID returns a leg ID like "2025-01-001a" (leg 0='a', 1='b', etc.).
func FormatLegID(entryID string, leg int) string {
	return entryID + string(rune('a'+leg))
}

// ParseEntryID parses "2025-01-001" or a leg ID into year, month, seq.
func ParseEntryID(id string) (year, month, seq int, err error) {
	base := strings.TrimRight(id, "abcdefghijklmnopqrstuvwxyz")

	parts := strings.SplitN(base, "-", 3)
	if len(parts) != 3 {
		return 0, 0, 0, fmt.Errorf("invalid entry ID format: %q", id)
	}

	nums := make([]int, 3)
	for i, p := range parts {
		if nums[i], err = strconv.Atoi(p); err != nil {
			return 0, 0, 0, fmt.Errorf("invalid entry ID %q: %w", id, err)
		}
	}
	if nums[1] < 1 || nums[1] > 12 {
		return 0, 0, 0, fmt.Errorf("invalid month in entry ID %q", id)
	}
	return nums[0], nums[1], nums[2], nil
}
