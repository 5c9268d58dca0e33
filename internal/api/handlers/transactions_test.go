package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pattarads/set-dividend-tracker-backend/internal/api/request"
	"github.com/pattarads/set-dividend-tracker-backend/internal/model"
	"github.com/pattarads/set-dividend-tracker-backend/internal/testutil"
)

func TestTransactionHandler_CreateTransaction(t *testing.T) {
	setupHandler := func(t *testing.T) (*TransactionHandler, *sql.DB) {
		t.Helper()
		db := testutil.SetupTestDB(t)
		svc := newTestServices(t, db)
		return NewTransactionHandler(svc.transactions), db
	}

	t.Run("records a valid trade", func(t *testing.T) {
		handler, db := setupHandler(t)
		testutil.NewStock("PTT").Build(t, db)

		body := jsonBody(t, request.CreateTransactionRequest{
			UserID:        testutil.MakeID(),
			Symbol:        "PTT",
			Date:          "2026-01-09",
			Type:          "BUY",
			Quantity:      100,
			PricePerShare: 30,
			Commission:    50,
		})
		req := httptest.NewRequest(http.MethodPost, "/api/transaction", body)
		w := httptest.NewRecorder()

		handler.CreateTransaction(w, req)

		if w.Code != http.StatusCreated {
			t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
		}

		var created model.Transaction
		//nolint:errcheck // Test assertion - decode failure would cause test to fail anyway
		json.NewDecoder(w.Body).Decode(&created)

		if created.ID == "" {
			t.Error("Expected a generated transaction ID")
		}
		if created.TotalAmount != 3050 {
			t.Errorf("TotalAmount = %v, want 3050", created.TotalAmount)
		}
		testutil.AssertRowCount(t, db, `"transaction"`, 1)
	})

	t.Run("rejects a malformed payload", func(t *testing.T) {
		handler, db := setupHandler(t)
		testutil.NewStock("PTT").Build(t, db)

		body := jsonBody(t, request.CreateTransactionRequest{
			Symbol: "PTT",
			Type:   "SHORT",
		})
		req := httptest.NewRequest(http.MethodPost, "/api/transaction", body)
		w := httptest.NewRecorder()

		handler.CreateTransaction(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d: %s", w.Code, w.Body.String())
		}
	})

	t.Run("returns 409 when a sell exceeds the holding", func(t *testing.T) {
		handler, db := setupHandler(t)
		testutil.NewStock("PTT").Build(t, db)

		body := jsonBody(t, request.CreateTransactionRequest{
			UserID:        testutil.MakeID(),
			Symbol:        "PTT",
			Date:          "2026-01-09",
			Type:          "SELL",
			Quantity:      100,
			PricePerShare: 30,
		})
		req := httptest.NewRequest(http.MethodPost, "/api/transaction", body)
		w := httptest.NewRecorder()

		handler.CreateTransaction(w, req)

		if w.Code != http.StatusConflict {
			t.Errorf("Expected 409, got %d: %s", w.Code, w.Body.String())
		}
	})
}

func TestTransactionHandler_ListTransactions(t *testing.T) {
	setupHandler := func(t *testing.T) (*TransactionHandler, *sql.DB) {
		t.Helper()
		db := testutil.SetupTestDB(t)
		svc := newTestServices(t, db)
		return NewTransactionHandler(svc.transactions), db
	}

	t.Run("requires userId", func(t *testing.T) {
		handler, _ := setupHandler(t)

		req := httptest.NewRequest(http.MethodGet, "/api/transaction", nil)
		w := httptest.NewRecorder()

		handler.ListTransactions(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d: %s", w.Code, w.Body.String())
		}
	})

	t.Run("returns the user's trades", func(t *testing.T) {
		handler, db := setupHandler(t)
		testutil.NewStock("PTT").Build(t, db)

		userID := testutil.MakeID()
		testutil.NewTransaction(userID, "PTT", testutil.Day(2026, 1, 5)).Build(t, db)
		testutil.NewTransaction(userID, "PTT", testutil.Day(2026, 2, 10)).Sell().WithQuantity(50).Build(t, db)
		// Another user's trade stays invisible.
		testutil.NewTransaction(testutil.MakeID(), "PTT", testutil.Day(2026, 1, 5)).Build(t, db)

		req := testutil.NewRequestWithQueryParams(http.MethodGet, "/api/transaction",
			map[string]string{"userId": userID})
		w := httptest.NewRecorder()

		handler.ListTransactions(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
		}

		var transactions []model.Transaction
		//nolint:errcheck // Test assertion - decode failure would cause test to fail anyway
		json.NewDecoder(w.Body).Decode(&transactions)

		if len(transactions) != 2 {
			t.Errorf("Expected 2 transactions, got %d", len(transactions))
		}
	})
}

func TestTransactionHandler_GetTransaction(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newTestServices(t, db)
	handler := NewTransactionHandler(svc.transactions)
	testutil.NewStock("PTT").Build(t, db)

	userID := testutil.MakeID()
	created := testutil.NewTransaction(userID, "PTT", testutil.Day(2026, 1, 5)).Build(t, db)

	t.Run("returns the trade", func(t *testing.T) {
		req := testutil.NewRequestWithURLParams(http.MethodGet,
			"/api/transaction/"+created.ID+"?userId="+userID,
			map[string]string{"id": created.ID})
		w := httptest.NewRecorder()

		handler.GetTransaction(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
		}
	})

	t.Run("unknown ID yields 404", func(t *testing.T) {
		req := testutil.NewRequestWithURLParams(http.MethodGet,
			"/api/transaction/missing?userId="+userID,
			map[string]string{"id": "missing"})
		w := httptest.NewRecorder()

		handler.GetTransaction(w, req)

		if w.Code != http.StatusNotFound {
			t.Errorf("Expected 404, got %d: %s", w.Code, w.Body.String())
		}
	})
}
