package model

// Ledger holds the balance and the append-only transaction history shared by
// both account variants. Amounts are whole units; positive entries are money
// in, negative entries are money out. The balance is always the sum of
// History.
type Ledger struct {
	Balance int   `json:"balance"`
	Fee     int   `json:"fee"`
	History []int `json:"history"`
}

// IncomingTransfer credits the account. Amounts of zero or less are rejected
// without touching the ledger.
func (l *Ledger) IncomingTransfer(amount int) bool {
	if amount <= 0 {
		return false
	}

	l.Balance += amount
	l.History = append(l.History, amount)
	return true
}

// OutgoingTransfer debits the account. Negative amounts and amounts exceeding
// the balance are rejected without touching the ledger. A zero amount succeeds
// and records a zero entry.
func (l *Ledger) OutgoingTransfer(amount int) bool {
	if amount < 0 || amount > l.Balance {
		return false
	}

	l.Balance -= amount
	l.History = append(l.History, -amount)
	return true
}

// ExpressTransfer debits the account and charges the account's fee on top,
// recorded as two separate history entries: the amount first, then the fee.
// The fee may legally drive the balance negative, down to -Fee when the full
// balance is sent. Rejected when amount is negative or exceeds balance + fee.
func (l *Ledger) ExpressTransfer(amount int) bool {
	if amount < 0 || amount > l.Balance+l.Fee {
		return false
	}

	l.Balance -= amount + l.Fee
	l.History = append(l.History, -amount, -l.Fee)
	return true
}
