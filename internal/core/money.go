package core

// Money is an amount in integer cents. All ledger arithmetic runs on
// cents so that SQL SUM over the transaction set stays exact; floats
// appear only at the display edge (Progress).
type Money struct {
	Cents int64
}

// Validate reports whether the amount is usable for a transaction.
// Transactions must carry a strictly positive amount.
func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// ValidateNonNegative is the weaker check for budget totals and
// category limits, which may be zero.
func (m Money) ValidateNonNegative() error {
	if m.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Add returns m + other.
func (m Money) Add(other Money) Money {
	return Money{Cents: m.Cents + other.Cents}
}

// Sub returns m - other.
func (m Money) Sub(other Money) Money {
	return Money{Cents: m.Cents - other.Cents}
}

// Balance computes base - expense + income. The same formula backs
// Budget.Balance (base = total_amount) and Category.Balance
// (base = limit_amount).
func Balance(base, expense, income Money) Money {
	return base.Sub(expense).Add(income)
}

// Progress returns how much of limit has been spent, as a percentage
// clamped to [0, 100]. A zero or negative limit, or nothing spent,
// yields 0. Derived at read time, never stored.
func Progress(limit, spent Money) float64 {
	if limit.Cents <= 0 || spent.Cents <= 0 {
		return 0
	}
	p := float64(spent.Cents) / float64(limit.Cents) * 100
	if p > 100 {
		return 100
	}
	return p
}
