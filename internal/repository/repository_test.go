package repository

import (
	"context"
	"reflect"
	"testing"

	"github.com/mkaczor/bankapi/internal/model"
)

func TestEncodeDecodeAccount_Personal(t *testing.T) {
	a := model.NewPersonalAccount("Jan", "Kowalski", "65010112345", "PROM_456")
	a.IncomingTransfer(500)
	a.ExpressTransfer(100)

	doc, err := encodeAccount(a)
	if err != nil {
		t.Fatalf("encodeAccount() error = %v", err)
	}
	if doc.key() != "65010112345" {
		t.Errorf("doc key = %s, want pesel", doc.key())
	}

	restored, err := decodeAccount(doc)
	if err != nil {
		t.Fatalf("decodeAccount() error = %v", err)
	}

	p, ok := restored.(*model.PersonalAccount)
	if !ok {
		t.Fatalf("decoded %T, want *model.PersonalAccount", restored)
	}
	if p.FirstName != "Jan" || p.LastName != "Kowalski" {
		t.Errorf("name = %s %s, want Jan Kowalski", p.FirstName, p.LastName)
	}
	if p.PESEL != a.PESEL || p.PromoCode != a.PromoCode {
		t.Errorf("identity = (%s, %s), want (%s, %s)", p.PESEL, p.PromoCode, a.PESEL, a.PromoCode)
	}
	if p.ID != a.ID {
		t.Errorf("id = %s, want %s", p.ID, a.ID)
	}
	if p.Balance != a.Balance || p.Fee != a.Fee {
		t.Errorf("ledger = (%d, %d), want (%d, %d)", p.Balance, p.Fee, a.Balance, a.Fee)
	}
	if !reflect.DeepEqual(p.History, a.History) {
		t.Errorf("history = %v, want %v", p.History, a.History)
	}
}

func TestEncodeDecodeAccount_Business(t *testing.T) {
	a := &model.BusinessAccount{
		Ledger:      model.Ledger{Balance: 3225, Fee: model.BusinessAccountFee, History: []int{5000, -1775}},
		CompanyName: "Test Corp",
		NIP:         "8461627563",
	}

	doc, err := encodeAccount(a)
	if err != nil {
		t.Fatalf("encodeAccount() error = %v", err)
	}
	if doc.key() != "8461627563" {
		t.Errorf("doc key = %s, want nip", doc.key())
	}
	if doc.Pesel != "" {
		t.Errorf("business document has pesel %q", doc.Pesel)
	}

	restored, err := decodeAccount(doc)
	if err != nil {
		t.Fatalf("decodeAccount() error = %v", err)
	}

	b, ok := restored.(*model.BusinessAccount)
	if !ok {
		t.Fatalf("decoded %T, want *model.BusinessAccount", restored)
	}
	if b.CompanyName != "Test Corp" || b.NIP != "8461627563" {
		t.Errorf("identity = (%s, %s), want (Test Corp, 8461627563)", b.CompanyName, b.NIP)
	}
	if b.Balance != 3225 || b.Fee != model.BusinessAccountFee {
		t.Errorf("ledger = (%d, %d), want (3225, %d)", b.Balance, b.Fee, model.BusinessAccountFee)
	}
	if !reflect.DeepEqual(b.History, []int{5000, -1775}) {
		t.Errorf("history = %v, want [5000 -1775]", b.History)
	}
}

func TestEncodeAccount_Unsupported(t *testing.T) {
	if _, err := encodeAccount(unknownAccount{}); err == nil {
		t.Error("encodeAccount() accepted unsupported type")
	}
}

type unknownAccount struct{}

func (unknownAccount) Key() string { return "whatever" }

func TestDecodeAccount_MissingIdentity(t *testing.T) {
	if _, err := decodeAccount(accountDocument{Balance: 100}); err == nil {
		t.Error("decodeAccount() accepted document without identity fields")
	}
}

func TestMemoryRepository_RoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	personal := model.NewPersonalAccount("Jan", "Kowalski", "65010112345", "PROM_456")
	personal.IncomingTransfer(500)
	personal.ExpressTransfer(100)

	other := model.NewPersonalAccount("Anna", "Nowak", "22222222222", "")

	business := &model.BusinessAccount{
		Ledger:      model.Ledger{Balance: 3225, Fee: model.BusinessAccountFee, History: []int{5000, -1775}},
		CompanyName: "Test Corp",
		NIP:         "8461627563",
	}

	if err := repo.SaveAll(ctx, []model.Identifiable{personal, other, business}); err != nil {
		t.Fatalf("SaveAll() error = %v", err)
	}

	loaded, err := repo.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll() error = %v", err)
	}
	if len(loaded) != 3 {
		t.Fatalf("LoadAll() returned %d accounts, want 3", len(loaded))
	}

	byKey := make(map[string]model.Identifiable, len(loaded))
	for _, account := range loaded {
		byKey[account.Key()] = account
	}

	p, ok := byKey["65010112345"].(*model.PersonalAccount)
	if !ok {
		t.Fatal("personal account missing or wrong type after round trip")
	}
	if p.Balance != personal.Balance || !reflect.DeepEqual(p.History, personal.History) {
		t.Errorf("personal ledger = (%d, %v), want (%d, %v)",
			p.Balance, p.History, personal.Balance, personal.History)
	}

	b, ok := byKey["8461627563"].(*model.BusinessAccount)
	if !ok {
		t.Fatal("business account missing or wrong type after round trip")
	}
	if b.Balance != 3225 || b.CompanyName != "Test Corp" {
		t.Errorf("business account = (%d, %s), want (3225, Test Corp)", b.Balance, b.CompanyName)
	}
}

func TestMemoryRepository_SaveAllReplaces(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	if err := repo.SaveAll(ctx, []model.Identifiable{
		model.NewPersonalAccount("Jan", "Kowalski", "11111111111", ""),
	}); err != nil {
		t.Fatalf("SaveAll() error = %v", err)
	}

	if err := repo.SaveAll(ctx, []model.Identifiable{
		model.NewPersonalAccount("Anna", "Nowak", "22222222222", ""),
	}); err != nil {
		t.Fatalf("SaveAll() error = %v", err)
	}

	loaded, err := repo.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll() error = %v", err)
	}
	if len(loaded) != 1 {
		t.Fatalf("LoadAll() returned %d accounts, want 1", len(loaded))
	}
	if loaded[0].Key() != "22222222222" {
		t.Errorf("surviving key = %s, want 22222222222", loaded[0].Key())
	}
}

func TestMemoryRepository_DuplicateKeysCollapse(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	first := model.NewPersonalAccount("John", "Doe", "12345678911", "")
	second := model.NewPersonalAccount("Jane", "Smith", "12345678911", "")

	if err := repo.SaveAll(ctx, []model.Identifiable{first, second}); err != nil {
		t.Fatalf("SaveAll() error = %v", err)
	}

	loaded, err := repo.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll() error = %v", err)
	}
	if len(loaded) != 1 {
		t.Fatalf("LoadAll() returned %d accounts, want 1 (upsert semantics)", len(loaded))
	}
}
