package model

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// InvalidKey is the sentinel stored in place of an identity key that failed
// structural validation. Validation never errors; it degrades to this value.
const InvalidKey = "Invalid"

// Default per-transfer fees for the two account variants.
const (
	PersonalAccountFee = 1
	BusinessAccountFee = 5
)

// promoBonus is credited on construction when a valid promo code meets the
// eligibility rule.
const promoBonus = 50

// Identifiable is satisfied by anything that can live in the account registry:
// it only has to expose its identity key.
type Identifiable interface {
	Key() string
}

// Transferable is the ledger surface the transfer API operates on. Both
// account variants satisfy it through their embedded Ledger.
type Transferable interface {
	IncomingTransfer(amount int) bool
	OutgoingTransfer(amount int) bool
	ExpressTransfer(amount int) bool
}

// Verifier checks a company against an external registry as of a given date.
// Any error, including a timeout, counts as a failed verification.
type Verifier interface {
	Verify(ctx context.Context, nip string, date time.Time) (bool, error)
}

// Notifier sends an email and reports whether the dispatch succeeded.
// Failures are expected to be swallowed by the implementation, not returned.
type Notifier interface {
	Send(ctx context.Context, subject, body, recipient string) bool
}

// PersonalAccount is an account held by an individual, keyed by an 11-digit
// PESEL number.
type PersonalAccount struct {
	Ledger

	ID        uuid.UUID `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	PESEL     string    `json:"pesel"`
	PromoCode string    `json:"promo_code,omitempty"`
}

// NewPersonalAccount creates a personal account. A malformed PESEL degrades to
// the Invalid sentinel rather than failing. A valid promo code combined with
// promotion eligibility credits an opening bonus, recorded in the history like
// any other transfer.
func NewPersonalAccount(firstName, lastName, pesel, promoCode string) *PersonalAccount {
	a := &PersonalAccount{
		Ledger:    Ledger{Fee: PersonalAccountFee},
		ID:        uuid.New(),
		FirstName: firstName,
		LastName:  lastName,
		PESEL:     pesel,
		PromoCode: promoCode,
	}

	if !isAllDigits(pesel, 11) {
		a.PESEL = InvalidKey
	}

	if isPromoCodeValid(promoCode) && a.eligibleForPromotion() {
		a.Balance += promoBonus
		a.History = append(a.History, promoBonus)
	}

	return a
}

// Key returns the account's identity key.
func (a *PersonalAccount) Key() string {
	return a.PESEL
}

// BirthYear decodes the year of birth from the PESEL's first four digits.
// The month digits carry a century offset; values outside the known buckets
// mean the year cannot be derived and ok is false.
func (a *PersonalAccount) BirthYear() (int, bool) {
	if a.PESEL == InvalidKey || len(a.PESEL) != 11 {
		return 0, false
	}

	year := int(a.PESEL[0]-'0')*10 + int(a.PESEL[1]-'0')
	month := int(a.PESEL[2]-'0')*10 + int(a.PESEL[3]-'0')

	switch {
	case month >= 1 && month <= 12:
		return 1900 + year, true
	case month >= 21 && month <= 32:
		return 2000 + year, true
	case month >= 41 && month <= 52:
		return 2100 + year, true
	case month >= 61 && month <= 72:
		return 2200 + year, true
	case month >= 81 && month <= 92:
		return 1800 + year, true
	default:
		return 0, false
	}
}

func (a *PersonalAccount) eligibleForPromotion() bool {
	year, ok := a.BirthYear()
	return ok && year > 1960
}

// SubmitForLoan applies for a loan. Two rules, checked in order:
// at least three history entries with the last three all strictly positive, or
// at least five history entries whose last five sum to more than the requested
// amount. Approval credits the amount; rejection leaves the ledger untouched.
func (a *PersonalAccount) SubmitForLoan(amount int) bool {
	if amount <= 0 {
		return false
	}

	if len(a.History) >= 3 {
		allPositive := true
		for _, entry := range a.History[len(a.History)-3:] {
			if entry <= 0 {
				allPositive = false
				break
			}
		}
		if allPositive {
			a.Balance += amount
			a.History = append(a.History, amount)
			return true
		}
	}

	if len(a.History) >= 5 {
		sum := 0
		for _, entry := range a.History[len(a.History)-5:] {
			sum += entry
		}
		if sum > amount {
			a.Balance += amount
			a.History = append(a.History, amount)
			return true
		}
	}

	return false
}

// SendHistoryViaEmail emails the full transaction history to the recipient.
func (a *PersonalAccount) SendHistoryViaEmail(ctx context.Context, notifier Notifier, recipient string) bool {
	subject := historyEmailSubject(time.Now())
	body := fmt.Sprintf("Personal account history: %v", a.History)
	return notifier.Send(ctx, subject, body, recipient)
}

// BusinessAccount is an account held by a company, keyed by a 10-digit NIP
// tax identifier.
type BusinessAccount struct {
	Ledger

	ID          uuid.UUID `json:"id"`
	CompanyName string    `json:"company_name"`
	NIP         string    `json:"nip"`
}

// NewBusinessAccount creates a business account after verifying the company
// against the external registry as of today. A structurally invalid NIP or a
// failed verification aborts construction with ErrNotRegistered; no account
// exists in that case.
func NewBusinessAccount(ctx context.Context, companyName, nip string, verifier Verifier) (*BusinessAccount, error) {
	if !isAllDigits(nip, 10) {
		return nil, ErrNotRegistered
	}

	active, err := verifier.Verify(ctx, nip, time.Now())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotRegistered, err)
	}
	if !active {
		return nil, ErrNotRegistered
	}

	return &BusinessAccount{
		Ledger:      Ledger{Fee: BusinessAccountFee},
		ID:          uuid.New(),
		CompanyName: companyName,
		NIP:         nip,
	}, nil
}

// Key returns the account's identity key.
func (a *BusinessAccount) Key() string {
	return a.NIP
}

// mandatoryInsuranceAmount is the outgoing transfer a company must have in its
// history before it can take a loan.
const mandatoryInsuranceAmount = -1775

// TakeLoan applies for a company loan. The pre-loan balance must cover twice
// the requested amount and the history must contain the mandatory insurance
// transfer. Approval credits the amount; rejection leaves the ledger untouched.
func (a *BusinessAccount) TakeLoan(amount int) bool {
	if amount <= 0 {
		return false
	}
	if a.Balance < amount*2 {
		return false
	}

	paidInsurance := false
	for _, entry := range a.History {
		if entry == mandatoryInsuranceAmount {
			paidInsurance = true
			break
		}
	}
	if !paidInsurance {
		return false
	}

	a.Balance += amount
	a.History = append(a.History, amount)
	return true
}

// SendHistoryViaEmail emails the full transaction history to the recipient.
func (a *BusinessAccount) SendHistoryViaEmail(ctx context.Context, notifier Notifier, recipient string) bool {
	subject := historyEmailSubject(time.Now())
	body := fmt.Sprintf("Company account history: %v", a.History)
	return notifier.Send(ctx, subject, body, recipient)
}

func historyEmailSubject(now time.Time) string {
	return "Account Transfer History " + now.Format("2006-01-02")
}

// isPromoCodeValid reports whether the code matches PROM_ followed by exactly
// three characters. Characters, not bytes: a multibyte suffix still counts as
// three.
func isPromoCodeValid(code string) bool {
	return strings.HasPrefix(code, "PROM_") && utf8.RuneCountInString(code) == 8
}

// isAllDigits reports whether s consists of exactly n ASCII digits.
func isAllDigits(s string, n int) bool {
	if len(s) != n {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
