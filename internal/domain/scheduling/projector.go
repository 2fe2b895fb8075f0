package scheduling

import "sort"

// openTimes projects the free times of day for one date: the active weekly
// templates minus the times already held by a live appointment. Duplicate
// templates collapse to a single offering and the result is sorted, so the
// projection is deterministic regardless of template insertion order.
func openTimes(templates []*AvailableSlot, taken []string) []string {
	blocked := make(map[string]bool, len(taken))
	for _, t := range taken {
		blocked[t] = true
	}

	seen := make(map[string]bool, len(templates))
	open := make([]string, 0, len(templates))
	for _, tpl := range templates {
		if !tpl.IsActive || seen[tpl.Time] || blocked[tpl.Time] {
			continue
		}
		seen[tpl.Time] = true
		open = append(open, tpl.Time)
	}

	sort.Strings(open)
	return open
}
