package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"tally/internal/classifier"
	"tally/internal/core"
)

// writeJSON renders v with the given status. An encoding failure is only
// loggable; the status line is already on the wire.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// writeError renders the error envelope shared by every endpoint.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listTransactions(w, r)
	case http.MethodPost:
		s.createTransaction(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (s *Server) listTransactions(w http.ResponseWriter, r *http.Request) {
	transactions, err := s.transactions.List(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "List transactions error", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch transactions")
		return
	}
	if transactions == nil {
		transactions = []core.Transaction{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"transactions": transactions})
}

func (s *Server) createTransaction(w http.ResponseWriter, r *http.Request) {
	var in core.Transaction
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	created, err := s.transactions.Create(r.Context(), in)
	if err != nil {
		if errors.Is(err, core.ErrValidation) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		slog.ErrorContext(r.Context(), "Create transaction error", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to save transaction")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"transaction": created,
	})
}

// handleTransactionByID serves /api/transactions/{id}.
func (s *Server) handleTransactionByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		w.Header().Set("Allow", "DELETE")
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/transactions/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "Transaction id is required")
		return
	}

	if err := s.transactions.Delete(r.Context(), id); err != nil {
		slog.ErrorContext(r.Context(), "Delete transaction error", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to delete transaction")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	analytics, err := s.transactions.Analytics(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Analytics error", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to compute analytics")
		return
	}

	writeJSON(w, http.StatusOK, analytics)
}

func (s *Server) handleProcessReceipt(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if s.classifier == nil {
		writeError(w, http.StatusBadRequest, "Receipt processing is not configured")
		return
	}

	var req struct {
		ImageBase64 string `json:"imageBase64"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.ImageBase64) == "" {
		writeError(w, http.StatusBadRequest, "imageBase64 is required")
		return
	}

	data, err := s.classifier.Classify(r.Context(), req.ImageBase64)
	if err != nil {
		slog.ErrorContext(r.Context(), "Receipt classification error", "error", err)
		if errors.Is(err, classifier.ErrUnavailable) || errors.Is(err, classifier.ErrInvalidResponse) {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to process receipt")
		return
	}

	created, err := s.transactions.FromReceipt(r.Context(), data)
	if err != nil {
		slog.ErrorContext(r.Context(), "Receipt store error", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to save receipt transaction")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"receiptData": data,
		"transaction": created,
	})
}
