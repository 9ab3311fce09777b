package http

import (
	"net/http"

	"spendtrack/internal/auth"
	"spendtrack/internal/core"
	"spendtrack/internal/log"
	"spendtrack/internal/store"
)

const expenseIDPrefix = "/api/expenses/"

// handleExpenses serves the collection: GET lists, POST creates.
func (s *Server) handleExpenses(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleListExpenses(w, r)
	case http.MethodPost:
		s.handleCreateExpense(w, r)
	default:
		MethodNotAllowedError("GET, POST").Write(w)
	}
}

// handleExpenseByID serves a single row: GET, PUT and DELETE.
func (s *Server) handleExpenseByID(w http.ResponseWriter, r *http.Request) {
	id, err := ParseIDFromPath(r.URL.Path, expenseIDPrefix)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.handleGetExpense(w, r, id)
	case http.MethodPut:
		s.handleUpdateExpense(w, r, id)
	case http.MethodDelete:
		s.handleDeleteExpense(w, r, id)
	default:
		MethodNotAllowedError("GET, PUT, DELETE").Write(w)
	}
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	filter := ParseFilter(r.URL.Query())
	filter.UserID = s.scopeUserID(r)

	expenses, err := s.svc.List(r.Context(), filter)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	// Serialize the empty list as [], never null.
	if expenses == nil {
		expenses = []core.Expense{}
	}
	NewJSONResponse().Body(expenses).Write(w)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	e, err := ParseCreatePayload(r)
	if err != nil {
		writeParseError(w, err)
		return
	}

	user, _ := auth.UserFromContext(r.Context())
	e.UserID = user.ID

	created, err := s.svc.Create(r.Context(), e)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	log.FromContext(r.Context()).InfoContext(r.Context(), "expense created",
		log.FieldOperation, log.OpCreate,
		log.FieldExpenseID, created.ID,
		log.FieldUserID, created.UserID,
		log.FieldCategory, created.Category,
		log.FieldAmount, created.Amount.String())
	NewJSONResponse().Status(http.StatusCreated).Body(created).Write(w)
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request, id int64) {
	e, err := s.fetchScoped(r, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(e).Write(w)
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request, id int64) {
	patch, err := ParseUpdatePayload(r)
	if err != nil {
		writeParseError(w, err)
		return
	}

	if _, err := s.fetchScoped(r, id); err != nil {
		s.writeError(w, r, err)
		return
	}

	updated, err := s.svc.Update(r.Context(), id, patch)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	log.FromContext(r.Context()).InfoContext(r.Context(), "expense updated",
		log.FieldOperation, log.OpUpdate,
		log.FieldExpenseID, id)
	NewJSONResponse().Body(updated).Write(w)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request, id int64) {
	if _, err := s.fetchScoped(r, id); err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.svc.Delete(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}

	log.FromContext(r.Context()).InfoContext(r.Context(), "expense deleted",
		log.FieldOperation, log.OpDelete,
		log.FieldExpenseID, id)
	w.WriteHeader(http.StatusNoContent)
}

// fetchScoped loads a row and, when tenant scoping is on, hides rows
// owned by other users behind the same not-found as absent ids.
func (s *Server) fetchScoped(r *http.Request, id int64) (core.Expense, error) {
	e, err := s.svc.Get(r.Context(), id)
	if err != nil {
		return core.Expense{}, err
	}
	if s.opts.TenantScoping {
		user, _ := auth.UserFromContext(r.Context())
		if e.UserID != user.ID {
			return core.Expense{}, store.ErrNotFound
		}
	}
	return e, nil
}

// scopeUserID returns the filter scope for reads: the caller's id when
// tenant scoping is on, otherwise empty.
func (s *Server) scopeUserID(r *http.Request) string {
	if !s.opts.TenantScoping {
		return ""
	}
	user, _ := auth.UserFromContext(r.Context())
	return user.ID
}
