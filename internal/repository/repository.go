// Package repository persists the account registry to a document store.
// Saving is full-replace: the destination is cleared, then every account is
// upserted under its identity key. Loading reconstructs typed accounts,
// discriminating on which identity field the document carries.
package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/mkaczor/bankapi/internal/model"
)

// AccountsRepository is the persistence contract for the account registry.
type AccountsRepository interface {
	// SaveAll clears the store and writes every account, keyed by identity.
	SaveAll(ctx context.Context, accounts []model.Identifiable) error
	// LoadAll reconstructs every stored account with its balance and full
	// transaction history.
	LoadAll(ctx context.Context) ([]model.Identifiable, error)
}

// accountDocument is the flat persisted form of either account variant.
// Exactly one of Pesel and NIP is set; the reader discriminates on presence.
type accountDocument struct {
	AccountID   string `bson:"account_id" json:"account_id"`
	Pesel       string `bson:"pesel,omitempty" json:"pesel,omitempty"`
	FirstName   string `bson:"first_name,omitempty" json:"first_name,omitempty"`
	LastName    string `bson:"last_name,omitempty" json:"last_name,omitempty"`
	PromoCode   string `bson:"promo_code,omitempty" json:"promo_code,omitempty"`
	NIP         string `bson:"nip,omitempty" json:"nip,omitempty"`
	CompanyName string `bson:"company_name,omitempty" json:"company_name,omitempty"`
	Balance     int    `bson:"balance" json:"balance"`
	Fee         int    `bson:"fee" json:"fee"`
	History     []int  `bson:"history" json:"history"`
}

// key returns the identity key the document is upserted under.
func (d accountDocument) key() string {
	if d.NIP != "" {
		return d.NIP
	}
	return d.Pesel
}

func encodeAccount(account model.Identifiable) (accountDocument, error) {
	switch a := account.(type) {
	case *model.PersonalAccount:
		return accountDocument{
			AccountID: a.ID.String(),
			Pesel:     a.PESEL,
			FirstName: a.FirstName,
			LastName:  a.LastName,
			PromoCode: a.PromoCode,
			Balance:   a.Balance,
			Fee:       a.Fee,
			History:   append([]int(nil), a.History...),
		}, nil
	case *model.BusinessAccount:
		return accountDocument{
			AccountID:   a.ID.String(),
			NIP:         a.NIP,
			CompanyName: a.CompanyName,
			Balance:     a.Balance,
			Fee:         a.Fee,
			History:     append([]int(nil), a.History...),
		}, nil
	default:
		return accountDocument{}, fmt.Errorf("unsupported account type %T", account)
	}
}

// decodeAccount rebuilds the typed account without going through the
// constructors: restoring must not re-apply the promo bonus or re-verify the
// company.
func decodeAccount(d accountDocument) (model.Identifiable, error) {
	id, err := uuid.Parse(d.AccountID)
	if err != nil {
		id = uuid.New()
	}

	ledger := model.Ledger{
		Balance: d.Balance,
		Fee:     d.Fee,
		History: append([]int(nil), d.History...),
	}

	switch {
	case d.Pesel != "":
		return &model.PersonalAccount{
			Ledger:    ledger,
			ID:        id,
			FirstName: d.FirstName,
			LastName:  d.LastName,
			PESEL:     d.Pesel,
			PromoCode: d.PromoCode,
		}, nil
	case d.NIP != "":
		return &model.BusinessAccount{
			Ledger:      ledger,
			ID:          id,
			CompanyName: d.CompanyName,
			NIP:         d.NIP,
		}, nil
	default:
		return nil, fmt.Errorf("document %s has neither pesel nor nip", d.AccountID)
	}
}
