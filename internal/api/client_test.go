package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	_ "time/tzdata"

	"expensync/internal/core"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return New(srv.URL, WithHTTPClient(srv.Client())), &calls
}

func money(cents int64) *core.Money {
	return &core.Money{Cents: cents}
}

func TestLoginThenList(t *testing.T) {
	var listedUser string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case pathLogin:
			var body map[string]string
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Errorf("decode login body: %v", err)
			}
			if body["email"] != "a@b.c" || body["password"] != "pw" {
				t.Errorf("login body = %v", body)
			}
			w.Header().Set("Content-Type", "application/json")
			io.WriteString(w, `{"user_id": 42, "message": "ok"}`)
		case pathList:
			listedUser = r.URL.Query().Get("user_id")
			io.WriteString(w, `[]`)
		default:
			http.NotFound(w, r)
		}
	})

	ctx := context.Background()
	s, err := client.Login(ctx, "a@b.c", "pw")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if s.UserID != "42" {
		t.Fatalf("UserID = %q, want 42", s.UserID)
	}

	expenses, err := client.ListExpenses(ctx, s.UserID, ListOptions{})
	if err != nil {
		t.Fatalf("ListExpenses: %v", err)
	}
	if len(expenses) != 0 {
		t.Fatalf("expenses = %v, want empty", expenses)
	}
	if listedUser != "42" {
		t.Fatalf("list user_id = %q, want 42", listedUser)
	}
}

func TestLoginFailures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{"rejected with text", http.StatusUnauthorized, "Invalid credentials\n", "Invalid credentials"},
		{"rejected with json", http.StatusBadRequest, `{"error":"bad email"}`, "bad email"},
		{"ok without user id", http.StatusOK, "Welcome back", "user_id missing in response"},
		{"ok json without user id", http.StatusOK, `{"message":"hi"}`, "user_id missing in response"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			})
			_, err := client.Login(context.Background(), "a@b.c", "pw")
			var authErr *AuthError
			if !errors.As(err, &authErr) {
				t.Fatalf("err = %v, want *AuthError", err)
			}
			if authErr.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", authErr.Message, tt.wantMsg)
			}
		})
	}
}

func TestSignupKeepsUsername(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != pathSignup || r.Method != http.MethodPost {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		io.WriteString(w, `{"user_id":"u-7"}`)
	})
	s, err := client.Signup(context.Background(), "alice", "a@b.c", "pw")
	if err != nil {
		t.Fatalf("Signup: %v", err)
	}
	if s.UserID != "u-7" || s.Username != "alice" {
		t.Fatalf("session = %+v", s)
	}
}

func TestListDecodesWireVariants(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[
			{"expense_id": 1, "user_id": 42, "category_id": 2, "amount": 10.5, "datetime": "2024-03-01T12:30:00", "description": "Lunch"},
			{"expense_id": "2", "category": {"id": 1, "name": "Groceries"}, "amount": "3,20", "datetime": "2024-03-02", "description": "Milk", "receipt": {"url": "https://r/1.png"}},
			{"expense_id": 3, "category": "restaurants", "amount": 0, "datetime": "2024-03-01T23:30:00Z", "description": "Free", "receipt": "https://r/2.pdf"},
			{"expense_id": 4, "category": "Travel", "amount": 7, "datetime": "2024-03-03 08:00:00", "description": "Taxi"},
			{"expense_id": 5, "amount": 1, "datetime": "2024-03-04T09:15", "description": "Mystery"}
		]`)
	})
	rome, err := time.LoadLocation("Europe/Rome")
	if err != nil {
		t.Fatalf("LoadLocation: %v", err)
	}
	client.loc = rome

	got, err := client.ListExpenses(context.Background(), "42", ListOptions{})
	if err != nil {
		t.Fatalf("ListExpenses: %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("len = %d, want 5", len(got))
	}

	if got[0].ID != "1" || got[0].UserID != "42" || got[0].Category.ID != 2 || got[0].Amount.Cents != 1050 {
		t.Errorf("record 0 = %+v", got[0])
	}
	if got[1].Category.Name != "Groceries" || got[1].Amount.Cents != 320 || got[1].Receipt == nil || got[1].Receipt.URL != "https://r/1.png" {
		t.Errorf("record 1 = %+v", got[1])
	}
	if got[2].Category.ID != 2 || got[2].Amount.Cents != 0 || got[2].Receipt.URL != "https://r/2.pdf" {
		t.Errorf("record 2 = %+v", got[2])
	}
	// 23:30Z is already the next day in Rome.
	if day := got[2].Day().String(); day != "2024-03-02" {
		t.Errorf("record 2 day = %s, want 2024-03-02", day)
	}
	if got[3].Category.ID != 0 || got[3].Category.Name != "Travel" {
		t.Errorf("record 3 category = %+v", got[3].Category)
	}
	if !got[4].Category.IsZero() || got[4].Category.Label() != core.UncategorizedLabel {
		t.Errorf("record 4 category = %+v", got[4].Category)
	}
	if got[4].OccurredAt.Location() != rome {
		t.Errorf("record 4 location = %v", got[4].OccurredAt.Location())
	}
}

func TestListUnknownCategoryIDIsUncategorized(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[
			{"expense_id": 1, "category_id": 99, "amount": 5, "datetime": "2024-03-01", "description": "a"},
			{"expense_id": 2, "category": 0, "amount": 3, "datetime": "2024-03-01", "description": "b"},
			{"expense_id": 3, "category": {"id": 42}, "amount": 1, "datetime": "2024-03-01", "description": "c"}
		]`)
	})

	got, err := client.ListExpenses(context.Background(), "42", ListOptions{})
	if err != nil {
		t.Fatalf("ListExpenses: %v", err)
	}
	for _, e := range got {
		if !e.Category.IsZero() {
			t.Errorf("expense %s category = %+v, want unresolved", e.ID, e.Category)
		}
	}
	totals := core.CategoryTotals(got)
	if len(totals) != 1 || totals[core.UncategorizedLabel].Cents != 900 {
		t.Fatalf("totals = %v", totals)
	}
}

func TestListMalformedResponse(t *testing.T) {
	tests := map[string]string{
		"not an array": `{"expenses": []}`,
		"bad amount":   `[{"expense_id": 1, "amount": "-3"}]`,
		"bad datetime": `[{"expense_id": 1, "amount": 1, "datetime": "yesterday"}]`,
		"bool id":      `[{"expense_id": true}]`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				io.WriteString(w, body)
			})
			_, err := client.ListExpenses(context.Background(), "42", ListOptions{})
			var fetchErr *FetchError
			if !errors.As(err, &fetchErr) {
				t.Fatalf("err = %v, want *FetchError", err)
			}
		})
	}
}

func TestNon2xxBecomesFetchError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, `{"message":"database down"}`)
	})
	ctx := context.Background()

	checks := map[string]error{}
	_, checks["list"] = client.ListExpenses(ctx, "42", ListOptions{})
	_, checks["create"] = client.CreateExpense(ctx, "42", ExpenseFields{
		Category: core.ResolveCategory("1"), Amount: money(100), OccurredAt: time.Now(), Description: "x",
	}, nil)
	checks["delete"] = client.DeleteExpense(ctx, "42", "9")

	for name, err := range checks {
		var fetchErr *FetchError
		if !errors.As(err, &fetchErr) {
			t.Fatalf("%s: err = %v, want *FetchError", name, err)
		}
		if fetchErr.Status != http.StatusInternalServerError || fetchErr.Message != "database down" {
			t.Errorf("%s: %+v", name, fetchErr)
		}
	}
}

func TestTransportFailure(t *testing.T) {
	client := New("http://127.0.0.1:1", WithHTTPClient(&http.Client{Timeout: time.Second}))
	_, err := client.ListExpenses(context.Background(), "42", ListOptions{})
	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) || fetchErr.Err == nil {
		t.Fatalf("err = %v, want transport *FetchError", err)
	}
	if UserMessage(err) != msgNetwork {
		t.Errorf("UserMessage = %q", UserMessage(err))
	}
}

func TestCreateRejectsTextReceiptWithoutRequest(t *testing.T) {
	client, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	fields := ExpenseFields{
		Category:    core.ResolveCategory("Groceries"),
		Amount:      money(500),
		OccurredAt:  time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
		Description: "Bread",
	}

	receipts := []*Receipt{
		{Filename: "notes.txt", Data: []byte("just some text")},
		{Filename: "notes.txt", ContentType: "text/plain", Data: []byte("just some text")},
	}
	for _, r := range receipts {
		_, err := client.CreateExpense(context.Background(), "42", fields, r)
		var vErr *ValidationError
		if !errors.As(err, &vErr) || vErr.Field != FieldReceipt {
			t.Fatalf("err = %v, want receipt ValidationError", err)
		}
		if UserMessage(err) != msgInvalidReceipt {
			t.Errorf("UserMessage = %q", UserMessage(err))
		}
	}
	if n := atomic.LoadInt32(calls); n != 0 {
		t.Fatalf("server received %d requests, want 0", n)
	}
}

func TestCreateValidatesFieldsBeforeRequest(t *testing.T) {
	client, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
	base := ExpenseFields{
		Category:    core.ResolveCategory("1"),
		Amount:      money(100),
		OccurredAt:  time.Now(),
		Description: "ok",
	}

	tests := []struct {
		name   string
		mutate func(*ExpenseFields)
		field  string
	}{
		{"blank description", func(f *ExpenseFields) { f.Description = "  " }, FieldDescription},
		{"missing amount", func(f *ExpenseFields) { f.Amount = nil }, FieldAmount},
		{"negative amount", func(f *ExpenseFields) { f.Amount = money(-1) }, FieldAmount},
		{"missing category", func(f *ExpenseFields) { f.Category = core.Category{} }, FieldCategory},
		{"missing datetime", func(f *ExpenseFields) { f.OccurredAt = time.Time{} }, FieldDatetime},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := base
			tt.mutate(&f)
			_, err := client.CreateExpense(context.Background(), "42", f, nil)
			var vErr *ValidationError
			if !errors.As(err, &vErr) || vErr.Field != tt.field {
				t.Fatalf("err = %v, want ValidationError on %s", err, tt.field)
			}
		})
	}
	if n := atomic.LoadInt32(calls); n != 0 {
		t.Fatalf("server received %d requests, want 0", n)
	}
}

func TestCreateSendsMultipart(t *testing.T) {
	pdf := append([]byte("%PDF-1.4\n"), make([]byte, 32)...)
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != pathCreate {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get(HeaderRequestID) == "" {
			t.Error("missing request id header")
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("ParseMultipartForm: %v", err)
			return
		}
		want := map[string]string{
			"user_id":     "42",
			"category":    "Restaurants",
			"amount":      "12.34",
			"datetime":    "2024-03-01T12:30:00",
			"description": "Lunch",
		}
		for k, v := range want {
			if got := r.FormValue(k); got != v {
				t.Errorf("field %s = %q, want %q", k, got, v)
			}
		}
		file, header, err := r.FormFile("receipt")
		if err != nil {
			t.Errorf("FormFile: %v", err)
			return
		}
		defer file.Close()
		if ct := header.Header.Get("Content-Type"); ct != "application/pdf" {
			t.Errorf("receipt content type = %q", ct)
		}
		io.WriteString(w, "Expense added")
	})

	fields := ExpenseFields{
		Category:    core.ResolveCategory("2"),
		Amount:      money(1234),
		OccurredAt:  time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC),
		Description: "Lunch",
	}
	got, err := client.CreateExpense(context.Background(), "42", fields, &Receipt{Filename: "bill.pdf", Data: pdf})
	if err != nil {
		t.Fatalf("CreateExpense: %v", err)
	}
	if got.ID != "" {
		t.Errorf("ID = %q, want empty for text confirmation", got.ID)
	}
	if got.UserID != "42" || got.Amount.Cents != 1234 || got.Description != "Lunch" {
		t.Errorf("synthesized expense = %+v", got)
	}
}

func TestCreateResponseShapes(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantID   string
		wantDesc string
	}{
		{"full record", `{"expense_id": 99, "amount": 5, "description": "From server", "datetime": "2024-03-01"}`, "99", "From server"},
		{"bare id", `{"expense_id": 100, "message": "created"}`, "100", "Lunch"},
		{"plain text", `Expense added`, "", "Lunch"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				io.WriteString(w, tt.body)
			})
			got, err := client.CreateExpense(context.Background(), "42", ExpenseFields{
				Category: core.ResolveCategory("2"), Amount: money(100), OccurredAt: time.Now(), Description: "Lunch",
			}, nil)
			if err != nil {
				t.Fatalf("CreateExpense: %v", err)
			}
			if got.ID != tt.wantID || got.Description != tt.wantDesc || got.UserID != "42" {
				t.Errorf("got %+v, want id %q desc %q", got, tt.wantID, tt.wantDesc)
			}
		})
	}
}

func TestUpdateOmitsBlankDatetime(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != pathUpdate {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("ParseMultipartForm: %v", err)
			return
		}
		if _, ok := r.MultipartForm.Value["datetime"]; ok {
			t.Error("datetime sent although not provided")
		}
		if r.FormValue("expense_id") != "7" {
			t.Errorf("expense_id = %q", r.FormValue("expense_id"))
		}
		io.WriteString(w, `{"expense_id": 7, "user_id": 42, "category_id": 3, "amount": "20.00", "datetime": "2024-03-05T10:00:00", "description": "Fuel"}`)
	})
	got, err := client.UpdateExpense(context.Background(), "7", ExpenseFields{
		Category: core.ResolveCategory("Gas"), Amount: money(2000), Description: "Fuel",
	}, nil)
	if err != nil {
		t.Fatalf("UpdateExpense: %v", err)
	}
	if got.ID != "7" || got.Category.ID != 3 || got.OccurredAt.IsZero() {
		t.Fatalf("updated = %+v", got)
	}
}

func TestDeleteSendsJSONBody(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || r.URL.Path != pathDelete {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode: %v", err)
		}
		if body["user_id"] != "42" || body["expense_id"] != "9" {
			t.Errorf("body = %v", body)
		}
		w.WriteHeader(http.StatusNoContent)
	})
	if err := client.DeleteExpense(context.Background(), "42", "9"); err != nil {
		t.Fatalf("DeleteExpense: %v", err)
	}
}

func TestGetExpense(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("expense_id") == "1" {
			io.WriteString(w, `[{"expense_id": 1, "amount": 2, "description": "Tea", "datetime": "2024-01-01"}]`)
			return
		}
		io.WriteString(w, `[]`)
	})
	ctx := context.Background()

	e, err := client.GetExpense(ctx, "42", "1")
	if err != nil || e.Description != "Tea" {
		t.Fatalf("GetExpense = %+v, %v", e, err)
	}

	_, err = client.GetExpense(ctx, "42", "2")
	var nf *NotFoundError
	if !errors.As(err, &nf) || nf.ExpenseID != "2" {
		t.Fatalf("err = %v, want NotFoundError", err)
	}
}

func TestContextCancellation(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := client.DeleteExpense(ctx, "42", "1")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}
	if !strings.Contains(UserMessage(err), "timed out") {
		t.Errorf("UserMessage = %q", UserMessage(err))
	}
}
