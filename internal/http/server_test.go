package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"conti/internal/core"
	"conti/internal/services"
	"conti/internal/storage"
)

// fakeStore satisfies Store with overridable behavior per test.
type fakeStore struct {
	summaries []storage.TransactionSummary
	total     int
	err       error

	transactions map[int64]core.Transaction
	nextID       int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{transactions: make(map[int64]core.Transaction), nextID: 1}
}

func (f *fakeStore) Currencies(context.Context) ([]core.Currency, error) { return nil, f.err }
func (f *fakeStore) CreateCurrency(_ context.Context, c core.Currency) (core.Currency, error) {
	c.ID = 1
	return c, f.err
}
func (f *fakeStore) UpdateCurrency(_ context.Context, c core.Currency) (core.Currency, error) {
	return c, f.err
}
func (f *fakeStore) DeleteCurrency(context.Context, int64) error { return f.err }

func (f *fakeStore) Categories(context.Context) ([]core.Category, error) { return nil, f.err }
func (f *fakeStore) CreateCategory(_ context.Context, c core.Category) (core.Category, error) {
	c.ID = 1
	return c, f.err
}
func (f *fakeStore) UpdateCategory(_ context.Context, c core.Category) (core.Category, error) {
	return c, f.err
}
func (f *fakeStore) DeleteCategory(context.Context, int64) error { return f.err }

func (f *fakeStore) Classifications(context.Context) ([]core.Classification, error) {
	return nil, f.err
}
func (f *fakeStore) CreateClassification(_ context.Context, c core.Classification) (core.Classification, error) {
	c.ID = 1
	return c, f.err
}
func (f *fakeStore) UpdateClassification(_ context.Context, c core.Classification) (core.Classification, error) {
	return c, f.err
}
func (f *fakeStore) DeleteClassification(context.Context, int64) error { return f.err }

func (f *fakeStore) Accounts(context.Context) ([]core.Account, error)         { return nil, f.err }
func (f *fakeStore) AccountsDetailed(context.Context) ([]core.Account, error) { return nil, f.err }
func (f *fakeStore) CreateAccount(_ context.Context, a core.Account) (core.Account, error) {
	a.ID = 1
	return a, f.err
}
func (f *fakeStore) UpdateAccount(_ context.Context, a core.Account) (core.Account, error) {
	return a, f.err
}
func (f *fakeStore) DeleteAccount(context.Context, int64) error               { return f.err }
func (f *fakeStore) LinkClassification(context.Context, int64, int64) error   { return f.err }
func (f *fakeStore) UnlinkClassification(context.Context, int64, int64) error { return f.err }

func (f *fakeStore) TransactionSummaries(context.Context, int, int) ([]storage.TransactionSummary, error) {
	return f.summaries, f.err
}
func (f *fakeStore) CountTransactions(context.Context) (int, error) { return f.total, f.err }
func (f *fakeStore) Transaction(_ context.Context, id int64) (core.Transaction, error) {
	if f.err != nil {
		return core.Transaction{}, f.err
	}
	t, ok := f.transactions[id]
	if !ok {
		return core.Transaction{}, &core.NotFoundError{Entity: "transaction", ID: id}
	}
	return t, nil
}
func (f *fakeStore) TransactionLines(ctx context.Context, id int64) ([]core.TransactionLine, error) {
	t, err := f.Transaction(ctx, id)
	if err != nil {
		return nil, err
	}
	return t.Lines, nil
}
func (f *fakeStore) CreateTransaction(_ context.Context, t core.Transaction) (core.Transaction, error) {
	if f.err != nil {
		return core.Transaction{}, f.err
	}
	t.ID = f.nextID
	f.nextID++
	f.transactions[t.ID] = t
	return t, nil
}
func (f *fakeStore) UpdateTransaction(_ context.Context, t core.Transaction) (core.Transaction, error) {
	if f.err != nil {
		return core.Transaction{}, f.err
	}
	if _, ok := f.transactions[t.ID]; !ok {
		return core.Transaction{}, &core.NotFoundError{Entity: "transaction", ID: t.ID}
	}
	f.transactions[t.ID] = t
	return t, nil
}
func (f *fakeStore) DeleteTransaction(_ context.Context, id int64) error {
	if f.err != nil {
		return f.err
	}
	if _, ok := f.transactions[id]; !ok {
		return &core.NotFoundError{Entity: "transaction", ID: id}
	}
	delete(f.transactions, id)
	return nil
}

type fakeComposer struct {
	dashboard services.Dashboard
	err       error
}

func (f *fakeComposer) Compose(context.Context) (services.Dashboard, error) {
	return f.dashboard, f.err
}

type fakePublisher struct {
	actions []string
	ids     []int64
	err     error
}

func (f *fakePublisher) PublishTransactionEvent(_ context.Context, action string, id int64) error {
	f.actions = append(f.actions, action)
	f.ids = append(f.ids, id)
	return f.err
}

func newTestServer(store *fakeStore, composer *fakeComposer, publisher *fakePublisher) *Server {
	if composer == nil {
		composer = &fakeComposer{}
	}
	// A nil *fakePublisher must become a nil interface, not a typed nil.
	var p EventPublisher
	if publisher != nil {
		p = publisher
	}
	return NewServer(":0", store, composer, p, 1000)
}

func TestRootMessage(t *testing.T) {
	srv := newTestServer(newFakeStore(), nil, nil)

	rec := httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	if rec.Code != 200 {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["message"] == "" {
		t.Error("expected a message field")
	}
}

func TestRootUnknownPath(t *testing.T) {
	srv := newTestServer(newFakeStore(), nil, nil)

	rec := httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(rec, httptest.NewRequest("GET", "/nope", nil))

	if rec.Code != 404 {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestListTransactionsEnvelope(t *testing.T) {
	store := newFakeStore()
	store.summaries = []storage.TransactionSummary{
		{ID: 1, Description: "Groceries", CurrencyName: "USD", Date: "2024-06-01", Amount: 50, Accounts: "Cash,Food"},
	}
	store.total = 42
	srv := newTestServer(store, nil, nil)

	rec := httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/transactions?skip=5&limit=1", nil))

	if rec.Code != 200 {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body struct {
		Transactions []storage.TransactionSummary `json:"transactions"`
		Total        int                          `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Total != 42 {
		t.Errorf("total = %d, want 42", body.Total)
	}
	if len(body.Transactions) != 1 || body.Transactions[0].Description != "Groceries" {
		t.Errorf("unexpected transactions: %+v", body.Transactions)
	}
}

func TestListTransactionsEmptyIsNotNull(t *testing.T) {
	srv := newTestServer(newFakeStore(), nil, nil)

	rec := httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/transactions", nil))

	if !bytes.Contains(rec.Body.Bytes(), []byte(`"transactions":[]`)) {
		t.Errorf("expected empty array, got %s", rec.Body.String())
	}
}

func TestCreateTransactionPublishesEvent(t *testing.T) {
	store := newFakeStore()
	publisher := &fakePublisher{}
	srv := newTestServer(store, nil, publisher)

	payload := `{"description": "Lunch", "lines": [{"account_id": 1, "debit": 12.5, "date": "2024-06-01"}]}`
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/transactions", bytes.NewBufferString(payload))
	srv.Server.Handler.ServeHTTP(rec, req)

	if rec.Code != 201 {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	if len(publisher.actions) != 1 || publisher.actions[0] != "created" {
		t.Errorf("published actions = %v, want [created]", publisher.actions)
	}

	var body struct {
		ID    int64 `json:"id"`
		Lines []struct {
			Date string `json:"date"`
		} `json:"lines"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.ID != 1 {
		t.Errorf("id = %d, want 1", body.ID)
	}
	if len(body.Lines) != 1 || body.Lines[0].Date != "2024-06-01" {
		t.Errorf("unexpected lines: %+v", body.Lines)
	}
}

func TestCreateTransactionValidation(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"empty description", `{"description": "", "lines": []}`},
		{"bad date", `{"description": "x", "lines": [{"account_id": 1, "debit": 1, "date": "junk"}]}`},
		{"missing account", `{"description": "x", "lines": [{"debit": 1, "date": "2024-06-01"}]}`},
		{"negative debit", `{"description": "x", "lines": [{"account_id": 1, "debit": -1, "date": "2024-06-01"}]}`},
		{"malformed json", `{`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(newFakeStore(), nil, nil)
			rec := httptest.NewRecorder()
			req := httptest.NewRequest("POST", "/api/transactions", bytes.NewBufferString(tt.payload))
			srv.Server.Handler.ServeHTTP(rec, req)

			if rec.Code != 422 {
				t.Errorf("status = %d, want 422: %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"not found", &core.NotFoundError{Entity: "transaction", ID: 9}, 404},
		{"conflict", &core.ConflictError{Entity: "currency", ID: 1, Dependents: "accounts", Count: 2}, 409},
		{"internal", errors.New("disk on fire"), 500},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			store.err = tt.err
			srv := newTestServer(store, nil, nil)

			rec := httptest.NewRecorder()
			srv.Server.Handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/transactions/9", nil))

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			var body errorBody
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if tt.wantStatus == 500 && body.Error != "internal server error" {
				t.Errorf("internal error leaked: %q", body.Error)
			}
		})
	}
}

func TestBadPathID(t *testing.T) {
	srv := newTestServer(newFakeStore(), nil, nil)

	for _, path := range []string{"/api/transactions/abc", "/api/transactions/-4", "/api/transactions/0"} {
		rec := httptest.NewRecorder()
		srv.Server.Handler.ServeHTTP(rec, httptest.NewRequest("GET", path, nil))
		if rec.Code != 422 {
			t.Errorf("%s: status = %d, want 422", path, rec.Code)
		}
	}
}

func TestDeleteTransactionPublishesEvent(t *testing.T) {
	store := newFakeStore()
	store.transactions[3] = core.Transaction{ID: 3, Description: "old"}
	publisher := &fakePublisher{}
	srv := newTestServer(store, nil, publisher)

	rec := httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(rec, httptest.NewRequest("DELETE", "/api/transactions/3", nil))

	if rec.Code != 200 {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if len(publisher.ids) != 1 || publisher.ids[0] != 3 || publisher.actions[0] != "deleted" {
		t.Errorf("published = %v %v", publisher.actions, publisher.ids)
	}
}

func TestPublishFailureDoesNotFailRequest(t *testing.T) {
	store := newFakeStore()
	publisher := &fakePublisher{err: errors.New("broker down")}
	srv := newTestServer(store, nil, publisher)

	payload := `{"description": "Lunch", "lines": [{"account_id": 1, "debit": 5, "date": "2024-06-01"}]}`
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/transactions", bytes.NewBufferString(payload))
	srv.Server.Handler.ServeHTTP(rec, req)

	if rec.Code != 201 {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
}

func TestCreateAccountDefaults(t *testing.T) {
	srv := newTestServer(newFakeStore(), nil, nil)

	payload := `{"name": "Cash", "category_id": 1}`
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/accounts", bytes.NewBufferString(payload))
	srv.Server.Handler.ServeHTTP(rec, req)

	if rec.Code != 201 {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	var body accountResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Nature != "both" || body.Term != "undefined" {
		t.Errorf("defaults = %s/%s, want both/undefined", body.Nature, body.Term)
	}
	if body.IsCreditCard {
		t.Error("plain account flagged as credit card")
	}
}

func TestCreateAccountInvalidCreditCard(t *testing.T) {
	srv := newTestServer(newFakeStore(), nil, nil)

	payload := `{"name": "Visa", "category_id": 1, "credit_card": {"credit_limit": 1000, "close_day": 0, "due_day": 15}}`
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/accounts", bytes.NewBufferString(payload))
	srv.Server.Handler.ServeHTTP(rec, req)

	if rec.Code != 422 {
		t.Fatalf("status = %d, want 422: %s", rec.Code, rec.Body.String())
	}
}

func TestCurrencyDefaultExchangeRate(t *testing.T) {
	srv := newTestServer(newFakeStore(), nil, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/currencies", bytes.NewBufferString(`{"name": "EUR"}`))
	srv.Server.Handler.ServeHTTP(rec, req)

	if rec.Code != 201 {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	var body currencyResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.ExchangeRate != 1.0 {
		t.Errorf("exchange_rate = %v, want 1.0", body.ExchangeRate)
	}
}

func TestDashboardSlices(t *testing.T) {
	composer := &fakeComposer{dashboard: services.Dashboard{
		AccountBalances: []services.AccountBalance{{AccountID: 1, Name: "Cash", Balance: 10}},
		CreditCardDues:  []services.CreditCardDue{},
	}}
	srv := newTestServer(newFakeStore(), composer, nil)

	rec := httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/dashboard/balances", nil))
	if rec.Code != 200 {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !bytes.Contains(rec.Body.Bytes(), []byte(`"account_balances"`)) {
		t.Errorf("missing account_balances key: %s", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/dashboard/credit-cards", nil))
	if !bytes.Contains(rec.Body.Bytes(), []byte(`"credit_card_dues":[]`)) {
		t.Errorf("credit_card_dues should be an empty array: %s", rec.Body.String())
	}
}

func TestDashboardComposeError(t *testing.T) {
	composer := &fakeComposer{err: errors.New("store gone")}
	srv := newTestServer(newFakeStore(), composer, nil)

	rec := httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/dashboard", nil))

	if rec.Code != 500 {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}

func TestRateLimit(t *testing.T) {
	srv := NewServer(":0", newFakeStore(), &fakeComposer{}, nil, 2)

	payload := `{"description": "x", "lines": []}`
	var last int
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/api/transactions", bytes.NewBufferString(payload))
		req.Header.Set("X-Forwarded-For", "10.0.0.9")
		srv.Server.Handler.ServeHTTP(rec, req)
		last = rec.Code
	}
	if last != 429 {
		t.Errorf("third write status = %d, want 429", last)
	}
}

func TestRateLimiterSweepsStaleClients(t *testing.T) {
	rl := newRateLimiter(5)
	rl.clients["10.0.0.1"] = &clientInfo{lastRequest: time.Now().Add(-20 * time.Minute), requests: 3}

	if !rl.allow("10.0.0.2") {
		t.Fatal("fresh client should be allowed")
	}
	if _, ok := rl.clients["10.0.0.1"]; ok {
		t.Error("stale client entry should have been swept")
	}
	if _, ok := rl.clients["10.0.0.2"]; !ok {
		t.Error("active client entry should survive the sweep")
	}
}
