package core

import (
	"fmt"
	"sort"
)

// Ordinal formats a day number with its English ordinal suffix:
// 1 -> "1st", 2 -> "2nd", 11 -> "11th", 21 -> "21st".
func Ordinal(n int) string {
	suffix := "th"
	if v := n % 100; v < 11 || v > 13 {
		switch n % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return fmt.Sprintf("%d%s", n, suffix)
}

// RelativeDueLabel renders the distance between a due day and today's day of
// month. The comparison is day-number arithmetic only: dueDay=1 seen on the
// 30th reads "Passed (29d ago)" even though day 1 comes right back around.
// That matches how the ledger has always displayed it.
func RelativeDueLabel(dueDay, today int) string {
	diff := dueDay - today
	switch {
	case diff == 0:
		return "Today"
	case diff == 1:
		return "Tomorrow"
	case diff > 1:
		return fmt.Sprintf("In %d days", diff)
	case diff == -1:
		return "Yesterday"
	default:
		return fmt.Sprintf("Passed (%dd ago)", -diff)
	}
}

// SelectNextDue picks the unpaid expense whose payment comes up next.
//
// Unpaid expenses are ordered by due day (stable, so insertion order breaks
// ties) and the first with dueDay >= today wins. When every unpaid due day
// has already passed this month, the earliest of them is next: it is the
// first payment of the coming cycle. Returns nil when nothing is unpaid.
func SelectNextDue(expenses []Expense, today int) *Expense {
	var unpaid []Expense
	for _, e := range expenses {
		if !e.IsPaid {
			unpaid = append(unpaid, e)
		}
	}
	if len(unpaid) == 0 {
		return nil
	}
	sort.SliceStable(unpaid, func(i, j int) bool {
		return unpaid[i].DueDay < unpaid[j].DueDay
	})
	for i := range unpaid {
		if unpaid[i].DueDay >= today {
			return &unpaid[i]
		}
	}
	return &unpaid[0]
}

// SortByDueDay orders expenses ascending by due day in place, keeping
// insertion order for equal days.
func SortByDueDay(expenses []Expense) {
	sort.SliceStable(expenses, func(i, j int) bool {
		return expenses[i].DueDay < expenses[j].DueDay
	})
}
