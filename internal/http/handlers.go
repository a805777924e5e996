package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/LedyBacer/bs-budget-tracker-backend/internal/auth"
	"github.com/LedyBacer/bs-budget-tracker-backend/internal/core"
	"github.com/LedyBacer/bs-budget-tracker-backend/internal/log"
	"github.com/LedyBacer/bs-budget-tracker-backend/internal/services"
	"github.com/LedyBacer/bs-budget-tracker-backend/internal/storage"
)

const (
	defaultPageLimit = 50
	maxPageLimit     = 200
)

// errBadRequest marks client-side input problems found by the handlers
// themselves, like unparseable ids or JSON bodies.
var errBadRequest = errors.New("bad request")

// withPrincipal resolves the identity assertion and runs fn on a
// single database transaction: the identity refresh, the operation and
// its recompute commit together or not at all. The response body is
// written only after a successful commit.
func (s *Server) withPrincipal(w http.ResponseWriter, r *http.Request, fn func(q *storage.Queries, p auth.Principal) (int, any, error)) {
	raw := r.Header.Get(InitDataHeader)

	var status int
	var body any
	err := s.repo.InTx(r.Context(), func(q *storage.Queries) error {
		p, err := s.resolver.Resolve(r.Context(), q, raw)
		if err != nil {
			return err
		}
		status, body, err = fn(q, p)
		return err
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if body == nil {
		w.WriteHeader(status)
		return
	}
	writeJSON(w, status, body)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, core.ErrMalformedInitData),
		errors.Is(err, core.ErrInvalidSignature),
		errors.Is(err, core.ErrExpiredInitData),
		errors.Is(err, core.ErrMissingUser):
		status = http.StatusUnauthorized
	case errors.Is(err, core.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, core.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, errBadRequest),
		errors.Is(err, core.ErrCategoryMismatch):
		status = http.StatusBadRequest
	case errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrEmptyName),
		errors.Is(err, core.ErrInvalidType),
		errors.Is(err, core.ErrInvalidDate),
		errors.Is(err, core.ErrOwnerInvariant):
		status = http.StatusUnprocessableEntity
	}

	if status == http.StatusInternalServerError {
		s.logger.ErrorContext(r.Context(), "Request failed",
			log.FieldMethod, r.Method, log.FieldPath, r.URL.Path, log.FieldError, err)
		writeJSON(w, status, errorJSON{Error: "internal error"})
		return
	}
	writeJSON(w, status, errorJSON{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errBadRequest
	}
	return nil
}

func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		return uuid.Nil, errBadRequest
	}
	return id, nil
}

func pageParams(r *http.Request) (limit, offset int) {
	limit = defaultPageLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}

// parseTimeParam accepts RFC 3339 or a plain date.
func parseTimeParam(v string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", v); err == nil {
		return t, nil
	}
	return time.Time{}, errBadRequest
}

// Budgets

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	var req createBudgetRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.withPrincipal(w, r, func(q *storage.Queries, p auth.Principal) (int, any, error) {
		b, err := s.ledger.CreateBudget(r.Context(), q, p.Owner(), req.Name, core.Money{Cents: req.TotalAmountCents})
		if err != nil {
			return 0, nil, err
		}
		return http.StatusCreated, toBudgetJSON(b), nil
	})
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageParams(r)
	s.withPrincipal(w, r, func(q *storage.Queries, p auth.Principal) (int, any, error) {
		budgets, err := s.ledger.ListBudgets(r.Context(), q, p.Owner(), limit, offset)
		if err != nil {
			return 0, nil, err
		}
		out := make([]budgetJSON, 0, len(budgets))
		for _, b := range budgets {
			out = append(out, toBudgetJSON(b))
		}
		return http.StatusOK, out, nil
	})
}

func (s *Server) handleGetBudget(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "budgetID")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.withPrincipal(w, r, func(q *storage.Queries, p auth.Principal) (int, any, error) {
		b, err := s.ledger.GetBudget(r.Context(), q, p.Owner(), id)
		if err != nil {
			return 0, nil, err
		}
		return http.StatusOK, toBudgetJSON(b), nil
	})
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "budgetID")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req updateBudgetRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	upd := services.BudgetUpdate{Name: req.Name}
	if req.TotalAmountCents != nil {
		upd.TotalAmount = &core.Money{Cents: *req.TotalAmountCents}
	}

	s.withPrincipal(w, r, func(q *storage.Queries, p auth.Principal) (int, any, error) {
		b, err := s.ledger.UpdateBudget(r.Context(), q, p.Owner(), id, upd)
		if err != nil {
			return 0, nil, err
		}
		return http.StatusOK, toBudgetJSON(b), nil
	})
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "budgetID")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.withPrincipal(w, r, func(q *storage.Queries, p auth.Principal) (int, any, error) {
		if err := s.ledger.DeleteBudget(r.Context(), q, p.Owner(), id); err != nil {
			return 0, nil, err
		}
		return http.StatusNoContent, nil, nil
	})
}

// Categories

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	budgetID, err := pathUUID(r, "budgetID")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req createCategoryRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.withPrincipal(w, r, func(q *storage.Queries, p auth.Principal) (int, any, error) {
		c, err := s.ledger.CreateCategory(r.Context(), q, p.Owner(), budgetID, req.Name, core.Money{Cents: req.LimitAmountCents})
		if err != nil {
			return 0, nil, err
		}
		return http.StatusCreated, toCategoryJSON(c), nil
	})
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	budgetID, err := pathUUID(r, "budgetID")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	limit, offset := pageParams(r)
	s.withPrincipal(w, r, func(q *storage.Queries, p auth.Principal) (int, any, error) {
		categories, err := s.ledger.ListCategories(r.Context(), q, p.Owner(), budgetID, limit, offset)
		if err != nil {
			return 0, nil, err
		}
		out := make([]categoryJSON, 0, len(categories))
		for _, c := range categories {
			out = append(out, toCategoryJSON(c))
		}
		return http.StatusOK, out, nil
	})
}

func (s *Server) handleGetCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "categoryID")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.withPrincipal(w, r, func(q *storage.Queries, p auth.Principal) (int, any, error) {
		c, err := s.ledger.GetCategory(r.Context(), q, p.Owner(), id)
		if err != nil {
			return 0, nil, err
		}
		return http.StatusOK, toCategoryJSON(c), nil
	})
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "categoryID")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req updateCategoryRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	upd := services.CategoryUpdate{Name: req.Name}
	if req.LimitAmountCents != nil {
		upd.LimitAmount = &core.Money{Cents: *req.LimitAmountCents}
	}

	s.withPrincipal(w, r, func(q *storage.Queries, p auth.Principal) (int, any, error) {
		c, err := s.ledger.UpdateCategory(r.Context(), q, p.Owner(), id, upd)
		if err != nil {
			return 0, nil, err
		}
		return http.StatusOK, toCategoryJSON(c), nil
	})
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "categoryID")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.withPrincipal(w, r, func(q *storage.Queries, p auth.Principal) (int, any, error) {
		if err := s.ledger.DeleteCategory(r.Context(), q, p.Owner(), id); err != nil {
			return 0, nil, err
		}
		return http.StatusNoContent, nil, nil
	})
}

// Transactions

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	budgetID, err := pathUUID(r, "budgetID")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req createTransactionRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	categoryID, err := uuid.Parse(req.CategoryID)
	if err != nil {
		s.writeError(w, r, errBadRequest)
		return
	}

	in := services.TransactionInput{
		Type:            core.TransactionType(req.Type),
		Amount:          core.Money{Cents: req.AmountCents},
		Name:            req.Name,
		Comment:         req.Comment,
		TransactionDate: req.TransactionDate,
		CategoryID:      categoryID,
	}

	s.withPrincipal(w, r, func(q *storage.Queries, p auth.Principal) (int, any, error) {
		t, err := s.ledger.CreateTransaction(r.Context(), q, p.Owner(), p.User.ID, budgetID, in)
		if err != nil {
			return 0, nil, err
		}
		return http.StatusCreated, toTransactionJSON(t), nil
	})
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "transactionID")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.withPrincipal(w, r, func(q *storage.Queries, p auth.Principal) (int, any, error) {
		t, err := s.ledger.GetTransaction(r.Context(), q, p.Owner(), id)
		if err != nil {
			return 0, nil, err
		}
		return http.StatusOK, toTransactionJSON(t), nil
	})
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "transactionID")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req updateTransactionRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	upd := services.TransactionUpdate{
		Name:            req.Name,
		Comment:         req.Comment,
		TransactionDate: req.TransactionDate,
	}
	if req.Type != nil {
		t := core.TransactionType(*req.Type)
		upd.Type = &t
	}
	if req.AmountCents != nil {
		upd.Amount = &core.Money{Cents: *req.AmountCents}
	}
	if req.CategoryID != nil {
		categoryID, err := uuid.Parse(*req.CategoryID)
		if err != nil {
			s.writeError(w, r, errBadRequest)
			return
		}
		upd.CategoryID = &categoryID
	}

	s.withPrincipal(w, r, func(q *storage.Queries, p auth.Principal) (int, any, error) {
		t, err := s.ledger.UpdateTransaction(r.Context(), q, p.Owner(), id, upd)
		if err != nil {
			return 0, nil, err
		}
		return http.StatusOK, toTransactionJSON(t), nil
	})
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "transactionID")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.withPrincipal(w, r, func(q *storage.Queries, p auth.Principal) (int, any, error) {
		if err := s.ledger.DeleteTransaction(r.Context(), q, p.Owner(), id); err != nil {
			return 0, nil, err
		}
		return http.StatusNoContent, nil, nil
	})
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	budgetID, err := pathUUID(r, "budgetID")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	limit, offset := pageParams(r)

	var f storage.TransactionFilter
	query := r.URL.Query()
	if v := query.Get("category_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			s.writeError(w, r, errBadRequest)
			return
		}
		f.CategoryID = &id
	}
	if v := query.Get("author_user_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			s.writeError(w, r, errBadRequest)
			return
		}
		f.AuthorUserID = &id
	}
	if v := query.Get("type"); v != "" {
		t := core.TransactionType(v)
		if err := t.Validate(); err != nil {
			s.writeError(w, r, err)
			return
		}
		f.Type = &t
	}
	if v := query.Get("from"); v != "" {
		t, err := parseTimeParam(v)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		f.From = &t
	}
	if v := query.Get("to"); v != "" {
		t, err := parseTimeParam(v)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		f.To = &t
	}

	s.withPrincipal(w, r, func(q *storage.Queries, p auth.Principal) (int, any, error) {
		page, err := s.ledger.ListTransactions(r.Context(), q, p.Owner(), budgetID, f, limit, offset)
		if err != nil {
			return 0, nil, err
		}
		return http.StatusOK, toTransactionPageJSON(page), nil
	})
}

func (s *Server) handleDailySums(w http.ResponseWriter, r *http.Request) {
	budgetID, err := pathUUID(r, "budgetID")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	query := r.URL.Query()
	to := time.Now()
	from := to.AddDate(0, -1, 0)
	if v := query.Get("from"); v != "" {
		if from, err = parseTimeParam(v); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	if v := query.Get("to"); v != "" {
		if to, err = parseTimeParam(v); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	var txType *core.TransactionType
	if v := query.Get("type"); v != "" {
		t := core.TransactionType(v)
		if err := t.Validate(); err != nil {
			s.writeError(w, r, err)
			return
		}
		txType = &t
	}

	s.withPrincipal(w, r, func(q *storage.Queries, p auth.Principal) (int, any, error) {
		sums, err := s.ledger.SummarizeTransactionsByDate(r.Context(), q, p.Owner(), budgetID, from, to, txType)
		if err != nil {
			return 0, nil, err
		}
		out := make(map[string]int64, len(sums))
		for day, m := range sums {
			out[day] = m.Cents
		}
		return http.StatusOK, out, nil
	})
}
