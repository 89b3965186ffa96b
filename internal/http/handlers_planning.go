package http

import (
	"net/http"
	"strings"

	applog "fintrack/internal/log"
)

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request, userID string) {
	views, err := s.svc.Budgets.GetBudgetsWithCalculations(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(views).Write(w)
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request, userID string) {
	var req budgetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	b, err := req.toBudget(userID, s.loc)
	if err != nil {
		writeError(w, r, err)
		return
	}

	view, err := s.svc.Budgets.Create(r.Context(), b)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Body(view).Write(w)
}

func (s *Server) handleGetBudget(w http.ResponseWriter, r *http.Request, userID string) {
	view, err := s.svc.Budgets.Get(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(view).Write(w)
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request, userID string) {
	var req budgetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	b, err := req.toBudget(userID, s.loc)
	if err != nil {
		writeError(w, r, err)
		return
	}
	b.ID = r.PathValue("id")
	if strings.TrimSpace(req.Period) == "" {
		// Keep the stored period.
		b.Period = ""
	}

	view, err := s.svc.Budgets.Update(r.Context(), b)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(view).Write(w)
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request, userID string) {
	if err := s.svc.Budgets.Delete(r.Context(), userID, r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

// handleRecomputeBudgets rebuilds every spent value of the user from the ledger.
func (s *Server) handleRecomputeBudgets(w http.ResponseWriter, r *http.Request, userID string) {
	views, err := s.svc.Budgets.Recompute(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	applog.FromContext(r.Context()).WithComponent(applog.ComponentBudget).InfoContext(r.Context(),
		"Budgets recomputed",
		applog.FieldOperation, applog.OpRepair,
		"budgets", len(views))
	NewJSONResponse().Body(views).Write(w)
}

func (s *Server) handleGoalSummary(w http.ResponseWriter, r *http.Request, userID string) {
	summary, err := s.svc.Goals.GetGoalSummary(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(summary).Write(w)
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request, userID string) {
	var req goalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	g, err := req.toGoal(userID, s.loc)
	if err != nil {
		writeError(w, r, err)
		return
	}

	view, err := s.svc.Goals.Create(r.Context(), g)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Body(view).Write(w)
}

func (s *Server) handleGetGoal(w http.ResponseWriter, r *http.Request, userID string) {
	view, err := s.svc.Goals.Get(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(view).Write(w)
}

func (s *Server) handleAddGoalFunds(w http.ResponseWriter, r *http.Request, userID string) {
	var req fundsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	view, err := s.svc.Goals.AddFunds(r.Context(), userID, r.PathValue("id"), req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(view).Write(w)
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request, userID string) {
	if err := s.svc.Goals.Delete(r.Context(), userID, r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}
