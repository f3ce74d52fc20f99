package verify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestClient_Verify(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantActive bool
		wantErr    bool
	}{
		{
			name:       "active company",
			status:     http.StatusOK,
			body:       `{"result":{"subject":{"statusVat":"Czynny"}}}`,
			wantActive: true,
		},
		{
			name:       "inactive company",
			status:     http.StatusOK,
			body:       `{"result":{"subject":{"statusVat":"Zwolniony"}}}`,
			wantActive: false,
		},
		{
			name:       "company not found",
			status:     http.StatusOK,
			body:       `{"result":{"subject":null}}`,
			wantActive: false,
		},
		{
			name:       "missing status field",
			status:     http.StatusOK,
			body:       `{"result":{"subject":{}}}`,
			wantActive: false,
		},
		{
			name:    "registry error status",
			status:  http.StatusInternalServerError,
			body:    `{"error":"boom"}`,
			wantErr: true,
		},
		{
			name:    "bad request status",
			status:  http.StatusBadRequest,
			body:    `{}`,
			wantErr: true,
		},
		{
			name:    "malformed response",
			status:  http.StatusOK,
			body:    `not json`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := NewClient(server.URL)
			active, err := client.Verify(context.Background(), "8461627563", time.Now())

			if (err != nil) != tt.wantErr {
				t.Fatalf("Verify() error = %v, wantErr %v", err, tt.wantErr)
			}
			if active != tt.wantActive {
				t.Errorf("Verify() = %v, want %v", active, tt.wantActive)
			}
		})
	}
}

func TestClient_Verify_RequestShape(t *testing.T) {
	var gotPath, gotDate string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotDate = r.URL.Query().Get("date")
		w.Write([]byte(`{"result":{"subject":{"statusVat":"Czynny"}}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	date := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	if _, err := client.Verify(context.Background(), "8461627563", date); err != nil {
		t.Fatalf("Verify() error = %v", err)
	}

	if gotPath != "/api/search/nip/8461627563" {
		t.Errorf("request path = %s, want /api/search/nip/8461627563", gotPath)
	}
	if gotDate != "2026-03-14" {
		t.Errorf("date query = %s, want 2026-03-14", gotDate)
	}
}

func TestClient_Verify_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // immediately, so the address refuses connections

	client := NewClient(server.URL)
	active, err := client.Verify(context.Background(), "8461627563", time.Now())
	if err == nil {
		t.Fatal("Verify() error = nil, want transport error")
	}
	if active {
		t.Error("Verify() = true on transport error")
	}
}

func TestClient_Verify_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	client := NewClient(server.URL)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if _, err := client.Verify(ctx, "8461627563", time.Now()); err == nil {
		t.Fatal("Verify() error = nil, want context deadline error")
	}
}
