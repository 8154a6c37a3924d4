package dataset

import (
	"sort"
	"time"
)

// PrepStore filters the sales history down to one store keeping only rows
// matching the open flag, then returns the series sorted by date. Duplicate
// dates keep the first occurrence. An unknown store yields empty slices and
// the fit surfaces the error downstream.
func PrepStore(records []Record, storeID, openFlag int) ([]time.Time, []float64) {
	filtered := make([]Record, 0, len(records))
	for _, rec := range records {
		if rec.Store != storeID || rec.Open != openFlag {
			continue
		}
		filtered = append(filtered, rec)
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].Date.Before(filtered[j].Date)
	})

	t := make([]time.Time, 0, len(filtered))
	y := make([]float64, 0, len(filtered))
	for _, rec := range filtered {
		if len(t) > 0 && rec.Date.Equal(t[len(t)-1]) {
			continue
		}
		t = append(t, rec.Date)
		y = append(y, rec.Sales)
	}
	return t, y
}

// Stores returns the sorted distinct store ids present in the history.
func Stores(records []Record) []int {
	seen := make(map[int]struct{})
	for _, rec := range records {
		seen[rec.Store] = struct{}{}
	}
	ids := make([]int, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
