package codec

import (
	"sort"
	"time"
)

// Offset positions one bound of a date range macro relative to local
// midnight of the evaluation day.
type Offset struct {
	Ms    int64 `json:"msOffset" yaml:"msOffset"`
	Hours int   `json:"hourOffset" yaml:"hourOffset"`
	Years int   `json:"yearOffset" yaml:"yearOffset"`
}

// DateRange is a named relative time window such as "last week". A nil
// bound offset leaves that side of the window open.
type DateRange struct {
	ID          string  `json:"id" yaml:"id"`
	Label       string  `json:"label" yaml:"label"`
	Order       int     `json:"order" yaml:"order"`
	StartOffset *Offset `json:"dateStartOffset,omitempty" yaml:"dateStartOffset,omitempty"`
	EndOffset   *Offset `json:"dateEndOffset,omitempty" yaml:"dateEndOffset,omitempty"`
}

// SortDateRanges orders ranges by their configured display order.
func SortDateRanges(ranges []DateRange) {
	sort.SliceStable(ranges, func(i, j int) bool {
		return ranges[i].Order < ranges[j].Order
	})
}

// FindDateRange looks a range up by id.
func FindDateRange(ranges []DateRange, id string) (DateRange, bool) {
	for _, r := range ranges {
		if r.ID == id {
			return r, true
		}
	}
	return DateRange{}, false
}

// OffsetToDate resolves one bound of a date range against the given
// evaluation instant. The base is local midnight of that instant's day;
// the millisecond and hour offsets shift from there and the year offset
// moves by calendar years. A nil offset reports ok=false, which the
// compilers render as an open bound.
func OffsetToDate(off *Offset, now time.Time) (time.Time, bool) {
	if off == nil {
		return time.Time{}, false
	}
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	t := midnight.Add(time.Duration(off.Ms) * time.Millisecond)
	t = t.Add(time.Duration(off.Hours) * time.Hour)
	if off.Years != 0 {
		t = t.AddDate(off.Years, 0, 0)
	}
	return t, true
}
