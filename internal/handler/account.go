package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/mkaczor/bankapi/internal/model"
	"github.com/mkaczor/bankapi/internal/registry"
	"github.com/mkaczor/bankapi/internal/repository"
)

// transferAccepted is the message the original bank returns for a booked
// transfer order.
const transferAccepted = "Zlecenie przyjęto do realizacji"

// historyMailer is satisfied by both account variants.
type historyMailer interface {
	SendHistoryViaEmail(ctx context.Context, notifier model.Notifier, recipient string) bool
}

// AccountHandler handles HTTP requests for accounts
type AccountHandler struct {
	// mu guards account state across requests. The registry guards its own
	// collection, but field updates and ledger operations on individual
	// accounts need this outer lock: writers take it exclusively, readers
	// take the read side so their projections see consistent state.
	mu       sync.RWMutex
	registry *registry.Registry
	repo     repository.AccountsRepository
	verifier model.Verifier
	notifier model.Notifier
}

// NewAccountHandler creates a new AccountHandler
func NewAccountHandler(reg *registry.Registry, repo repository.AccountsRepository, verifier model.Verifier, notifier model.Notifier) *AccountHandler {
	return &AccountHandler{
		registry: reg,
		repo:     repo,
		verifier: verifier,
		notifier: notifier,
	}
}

// RegisterRoutes sets up the account routes on the given router
func (h *AccountHandler) RegisterRoutes(r chi.Router) {
	r.Route("/accounts", func(r chi.Router) {
		r.Post("/", h.Create)
		r.Get("/", h.List)
		r.Get("/count", h.Count)
		r.Post("/save", h.Save)
		r.Post("/load", h.Load)
		r.Get("/{pesel}", h.GetByPesel)
		r.Patch("/{pesel}", h.Update)
		r.Delete("/{pesel}", h.Delete)
		r.Post("/{pesel}/transfer", h.Transfer)
		r.Post("/{pesel}/loan", h.Loan)
		r.Post("/{pesel}/email", h.EmailHistory)
	})

	r.Route("/companies", func(r chi.Router) {
		r.Post("/", h.CreateCompany)
		r.Get("/{nip}", h.GetCompanyByNIP)
	})
}

// accountResponse is the public projection of a personal account.
type accountResponse struct {
	Name    string `json:"name"`
	Surname string `json:"surname"`
	Pesel   string `json:"pesel"`
	Balance int    `json:"balance"`
}

func toAccountResponse(a *model.PersonalAccount) accountResponse {
	return accountResponse{
		Name:    a.FirstName,
		Surname: a.LastName,
		Pesel:   a.PESEL,
		Balance: a.Balance,
	}
}

// companyResponse is the public projection of a business account.
type companyResponse struct {
	CompanyName string `json:"company_name"`
	NIP         string `json:"nip"`
	Balance     int    `json:"balance"`
}

// Create handles POST /accounts
func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name    string `json:"name"`
		Surname string `json:"surname"`
		Pesel   string `json:"pesel"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Name == "" || req.Surname == "" || req.Pesel == "" {
		writeError(w, http.StatusBadRequest, "Missing required fields")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	// Uniqueness is enforced here, not in the registry.
	if _, exists := h.registry.FindByKey(req.Pesel); exists {
		writeError(w, http.StatusConflict, "Account with this PESEL already exists")
		return
	}

	account := model.NewPersonalAccount(req.Name, req.Surname, req.Pesel, "")
	h.registry.Add(account)

	writeJSON(w, http.StatusCreated, map[string]string{"message": "Account created"})
}

// List handles GET /accounts
func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	accounts := []accountResponse{}
	for _, entry := range h.registry.All() {
		if a, ok := entry.(*model.PersonalAccount); ok {
			accounts = append(accounts, toAccountResponse(a))
		}
	}

	writeJSON(w, http.StatusOK, accounts)
}

// Count handles GET /accounts/count
func (h *AccountHandler) Count(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]int{"count": h.registry.Count()})
}

// GetByPesel handles GET /accounts/{pesel}
func (h *AccountHandler) GetByPesel(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	account, ok := h.findPersonal(chi.URLParam(r, "pesel"))
	if !ok {
		writeError(w, http.StatusNotFound, "Account not found")
		return
	}

	writeJSON(w, http.StatusOK, toAccountResponse(account))
}

// Update handles PATCH /accounts/{pesel}
func (h *AccountHandler) Update(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	account, ok := h.findPersonal(chi.URLParam(r, "pesel"))
	if !ok {
		writeError(w, http.StatusNotFound, "Account not found")
		return
	}

	var req struct {
		Name    *string `json:"name"`
		Surname *string `json:"surname"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "No data provided")
		return
	}
	if req.Name == nil && req.Surname == nil {
		writeError(w, http.StatusBadRequest, "No data provided")
		return
	}

	if req.Name != nil {
		account.FirstName = *req.Name
	}
	if req.Surname != nil {
		account.LastName = *req.Surname
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Account updated"})
}

// Delete handles DELETE /accounts/{pesel}
func (h *AccountHandler) Delete(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	account, ok := h.registry.FindByKey(chi.URLParam(r, "pesel"))
	if !ok {
		writeError(w, http.StatusNotFound, "Account not found")
		return
	}

	h.registry.Remove(account)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Account deleted"})
}

// Transfer handles POST /accounts/{pesel}/transfer
func (h *AccountHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	entry, ok := h.registry.FindByKey(chi.URLParam(r, "pesel"))
	if !ok {
		writeError(w, http.StatusNotFound, "Account not found")
		return
	}

	var req struct {
		Amount *int   `json:"amount"`
		Type   string `json:"type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Amount == nil || req.Type == "" {
		writeError(w, http.StatusBadRequest, "Missing required fields")
		return
	}

	account, ok := entry.(model.Transferable)
	if !ok {
		writeError(w, http.StatusNotFound, "Account not found")
		return
	}

	switch req.Type {
	case "incoming":
		// A rejected incoming amount is silently a no-op, preserved from
		// the original API.
		account.IncomingTransfer(*req.Amount)
		writeJSON(w, http.StatusOK, map[string]string{"message": transferAccepted})
	case "outgoing":
		if !account.OutgoingTransfer(*req.Amount) {
			writeError(w, http.StatusUnprocessableEntity, "Insufficient funds")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": transferAccepted})
	case "express":
		if !account.ExpressTransfer(*req.Amount) {
			writeError(w, http.StatusUnprocessableEntity, "Insufficient funds")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": transferAccepted})
	default:
		writeError(w, http.StatusBadRequest, "Invalid transfer type")
	}
}

// Loan handles POST /accounts/{pesel}/loan
// Personal accounts go through the history-based approval rules, business
// accounts through the collateral and insurance checks.
func (h *AccountHandler) Loan(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	entry, ok := h.registry.FindByKey(chi.URLParam(r, "pesel"))
	if !ok {
		writeError(w, http.StatusNotFound, "Account not found")
		return
	}

	var req struct {
		Amount *int `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Amount == nil {
		writeError(w, http.StatusBadRequest, "Missing required fields")
		return
	}

	var granted bool
	switch account := entry.(type) {
	case *model.PersonalAccount:
		granted = account.SubmitForLoan(*req.Amount)
	case *model.BusinessAccount:
		granted = account.TakeLoan(*req.Amount)
	default:
		writeError(w, http.StatusNotFound, "Account not found")
		return
	}

	if !granted {
		writeError(w, http.StatusUnprocessableEntity, "Loan rejected")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Loan granted"})
}

// EmailHistory handles POST /accounts/{pesel}/email
// The read lock is held across the dispatch so the emailed history is a
// consistent snapshot.
func (h *AccountHandler) EmailHistory(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	entry, ok := h.registry.FindByKey(chi.URLParam(r, "pesel"))
	if !ok {
		writeError(w, http.StatusNotFound, "Account not found")
		return
	}

	var req struct {
		Recipient string `json:"recipient"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Recipient == "" {
		writeError(w, http.StatusBadRequest, "Missing required fields")
		return
	}

	account, ok := entry.(historyMailer)
	if !ok {
		writeError(w, http.StatusNotFound, "Account not found")
		return
	}

	if !account.SendHistoryViaEmail(r.Context(), h.notifier, req.Recipient) {
		writeError(w, http.StatusBadGateway, "Failed to send history")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "History sent"})
}

// Save handles POST /accounts/save
func (h *AccountHandler) Save(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.repo.SaveAll(r.Context(), h.registry.All()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save accounts")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Accounts saved"})
}

// Load handles POST /accounts/load
// The loaded set fully replaces the registry contents.
func (h *AccountHandler) Load(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	accounts, err := h.repo.LoadAll(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load accounts")
		return
	}

	h.registry.ReplaceAll(accounts)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Accounts loaded"})
}

// CreateCompany handles POST /companies
// Construction verifies the company against the external registry; an
// unverifiable company never becomes an account.
func (h *AccountHandler) CreateCompany(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CompanyName string `json:"company_name"`
		NIP         string `json:"nip"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.CompanyName == "" || req.NIP == "" {
		writeError(w, http.StatusBadRequest, "Missing required fields")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, exists := h.registry.FindByKey(req.NIP); exists {
		writeError(w, http.StatusConflict, "Account with this NIP already exists")
		return
	}

	account, err := model.NewBusinessAccount(r.Context(), req.CompanyName, req.NIP, h.verifier)
	if err != nil {
		if errors.Is(err, model.ErrNotRegistered) {
			writeError(w, http.StatusUnprocessableEntity, "Entity not registered")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to create account")
		return
	}

	h.registry.Add(account)
	writeJSON(w, http.StatusCreated, map[string]string{"message": "Account created"})
}

// GetCompanyByNIP handles GET /companies/{nip}
func (h *AccountHandler) GetCompanyByNIP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	entry, ok := h.registry.FindByKey(chi.URLParam(r, "nip"))
	if !ok {
		writeError(w, http.StatusNotFound, "Account not found")
		return
	}

	account, ok := entry.(*model.BusinessAccount)
	if !ok {
		writeError(w, http.StatusNotFound, "Account not found")
		return
	}

	writeJSON(w, http.StatusOK, companyResponse{
		CompanyName: account.CompanyName,
		NIP:         account.NIP,
		Balance:     account.Balance,
	})
}

// findPersonal looks up a personal account by PESEL. A business account
// under the same key does not match.
func (h *AccountHandler) findPersonal(pesel string) (*model.PersonalAccount, bool) {
	entry, ok := h.registry.FindByKey(pesel)
	if !ok {
		return nil, false
	}
	account, ok := entry.(*model.PersonalAccount)
	return account, ok
}

// Helper functions for HTTP responses

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
