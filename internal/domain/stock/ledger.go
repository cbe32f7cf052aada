package stock

// ReconcileResult reports whether a ledger partition's running-balance chain
// is internally consistent.
type ReconcileResult struct {
	Consistent           bool
	FirstDivergenceIndex int // -1 when consistent
}

// Reconcile walks a (tenant, product, location) partition of the ledger in
// creation order and verifies that every entry's running balance equals the
// prior balance plus its delta. The chain is seeded from the first entry's
// implied prior balance, so a partition whose older entries were archived
// still reconciles. Pure function: same input, same output, no side effects.
func Reconcile(events []InventoryEvent) ReconcileResult {
	if len(events) == 0 {
		return ReconcileResult{Consistent: true, FirstDivergenceIndex: -1}
	}

	balance := events[0].RunningBalance - events[0].QuantityDelta
	for i := range events {
		balance += events[i].QuantityDelta
		if events[i].RunningBalance != balance {
			return ReconcileResult{Consistent: false, FirstDivergenceIndex: i}
		}
	}

	return ReconcileResult{Consistent: true, FirstDivergenceIndex: -1}
}

// VerifyLedger reconciles the partition and additionally checks that the
// final running balance matches the live stock level quantity. Any mismatch
// is an InvariantViolationError: a bug or data corruption upstream, to be
// alerted on, never ignored.
func VerifyLedger(events []InventoryEvent, liveQuantity int64) error {
	result := Reconcile(events)
	if !result.Consistent {
		i := result.FirstDivergenceIndex
		expected := events[i].RunningBalance - events[i].QuantityDelta
		if i > 0 {
			expected = events[i-1].RunningBalance
		}
		return &InvariantViolationError{
			Index:    i,
			Expected: expected + events[i].QuantityDelta,
			Actual:   events[i].RunningBalance,
		}
	}

	if len(events) > 0 {
		final := events[len(events)-1].RunningBalance
		if final != liveQuantity {
			return &InvariantViolationError{
				Index:    len(events) - 1,
				Expected: liveQuantity,
				Actual:   final,
			}
		}
	}

	return nil
}
