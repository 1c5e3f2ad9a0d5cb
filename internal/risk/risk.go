// Package risk turns raw inventory records into classified, sorted view
// models. Everything here is pure: inputs arrive as parameters and the
// caller owns all state.
package risk

import (
	"math"
	"sort"
	"strconv"
	"time"

	"shelfwatch/internal/api"
	"shelfwatch/internal/escape"
)

// CategoryAll is the synthetic pseudo-category meaning "no filter". The
// server never returns it.
const CategoryAll = "All"

// SentinelDays is returned for missing or unparseable expiry dates and is
// treated as "far future".
const SentinelDays = 999

const DefaultUrgentThreshold = 3

const dateLayout = "2006-01-02"

type Status string

const (
	StatusSafe    Status = "safe"
	StatusUrgent  Status = "urgent"
	StatusExpired Status = "expired"
)

// Group is the server-assigned lifecycle partition, independent of any
// client-side day math.
type Group int

const (
	GroupFresh Group = iota
	GroupExpired
)

// ViewModel is the render-ready projection of one raw item. It is recomputed
// every cycle and never mutated in place.
type ViewModel struct {
	api.Item
	DaysLeft      int
	Status        Status
	Label         string
	FormattedDate string
	SafeName      string
	SafeCat       string
}

// Buckets holds one classified collection per risk bucket. Every input item
// lands in exactly one.
type Buckets struct {
	Safe    []ViewModel
	Urgent  []ViewModel
	Expired []ViewModel
}

// Attention reports whether anything needs the user's eyes.
func (b Buckets) Attention() bool {
	return len(b.Urgent)+len(b.Expired) > 0
}

// DaysRemaining returns the signed whole-day count from today's local
// midnight to the date's midnight: 0 means due today, negative means
// overdue. Missing or unparseable dates yield SentinelDays.
func DaysRemaining(dateStr string, today time.Time) int {
	if dateStr == "" {
		return SentinelDays
	}
	target, err := time.ParseInLocation(dateLayout, dateStr, today.Location())
	if err != nil {
		return SentinelDays
	}
	midnight := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, today.Location())
	return int(math.Ceil(target.Sub(midnight).Hours() / 24))
}

// Classify maps one raw item to its view model. Expired-lifecycle items are
// always StatusExpired no matter what the date says; fresh items are urgent
// iff DaysLeft is within the threshold (inclusive).
func Classify(item api.Item, group Group, today time.Time, urgentThreshold int) ViewModel {
	vm := ViewModel{
		Item:          item,
		DaysLeft:      DaysRemaining(item.ExpiryDate, today),
		FormattedDate: formatDate(item.ExpiryDate),
		SafeName:      escape.HTML(item.Name),
		SafeCat:       escape.HTML(item.Category),
	}

	if group == GroupExpired {
		vm.Status = StatusExpired
		vm.Label = "EXPIRED"
		return vm
	}

	if vm.DaysLeft <= urgentThreshold {
		vm.Status = StatusUrgent
	} else {
		vm.Status = StatusSafe
	}
	vm.Label = freshLabel(vm.DaysLeft, urgentThreshold)
	return vm
}

func freshLabel(daysLeft, urgentThreshold int) string {
	switch {
	case daysLeft < 0:
		return "OVERDUE"
	case daysLeft == 0:
		return "TODAY"
	case daysLeft == 1:
		return "1 DAY"
	case daysLeft <= urgentThreshold:
		return strconv.Itoa(daysLeft) + " DAYS"
	default:
		return "SAFE"
	}
}

// ClassifyAndSort filters both lifecycle groups by the active category,
// classifies every surviving item, and returns the three buckets. Urgent and
// safe are stably sorted by DaysLeft ascending; expired keeps server order.
func ClassifyAndSort(fresh, expired []api.Item, activeCategory string, today time.Time, urgentThreshold int) Buckets {
	var b Buckets
	for _, item := range fresh {
		if !matches(item, activeCategory) {
			continue
		}
		vm := Classify(item, GroupFresh, today, urgentThreshold)
		if vm.Status == StatusUrgent {
			b.Urgent = append(b.Urgent, vm)
		} else {
			b.Safe = append(b.Safe, vm)
		}
	}
	for _, item := range expired {
		if !matches(item, activeCategory) {
			continue
		}
		b.Expired = append(b.Expired, Classify(item, GroupExpired, today, urgentThreshold))
	}

	sort.SliceStable(b.Urgent, func(i, j int) bool { return b.Urgent[i].DaysLeft < b.Urgent[j].DaysLeft })
	sort.SliceStable(b.Safe, func(i, j int) bool { return b.Safe[i].DaysLeft < b.Safe[j].DaysLeft })
	return b
}

func matches(item api.Item, activeCategory string) bool {
	return activeCategory == CategoryAll || item.Category == activeCategory
}

func formatDate(dateStr string) string {
	t, err := time.Parse(dateLayout, dateStr)
	if err != nil {
		return "No date"
	}
	return t.Format("Jan 2, 2006")
}
