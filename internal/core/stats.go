package core

// ComputeStats aggregates the ledger into the target display currency.
// Each amount is converted independently, so a missing rate degrades only
// the expenses priced in that currency. Progress is defined as 0 for an
// empty ledger.
func ComputeStats(expenses []Expense, target Currency, rates ExchangeRates) Stats {
	var s Stats
	for _, e := range expenses {
		v := Convert(e.Amount, e.Currency, target, rates)
		s.TotalNeeded += v
		if e.IsPaid {
			s.TotalPaid += v
		}
	}
	s.Remaining = s.TotalNeeded - s.TotalPaid
	if s.TotalNeeded != 0 {
		s.ProgressPercent = s.TotalPaid / s.TotalNeeded * 100
	}
	return s
}
