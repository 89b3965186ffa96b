package http

import "net/http"

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request, userID string) {
	if m, ok := s.dashboards.Get(userID); ok {
		NewJSONResponse().Header("X-Cache", "HIT").Body(m).Write(w)
		return
	}

	m, err := s.svc.Dashboard.GetDashboardMetrics(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.dashboards.Set(userID, m)
	NewJSONResponse().Header("X-Cache", "MISS").Body(m).Write(w)
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request, userID string) {
	params, err := parseListParams(r.URL.Query(), s.loc)
	if err != nil {
		writeError(w, r, err)
		return
	}
	page, err := s.svc.Transactions.List(r.Context(), userID, params)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(page).Write(w)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request, userID string) {
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	tx, err := req.toTransaction(userID, s.loc)
	if err != nil {
		writeError(w, r, err)
		return
	}

	saved, err := s.svc.Transactions.Create(r.Context(), tx)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateUser(userID)
	NewJSONResponse().Status(http.StatusCreated).Body(saved).Write(w)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request, userID string) {
	tx, err := s.svc.Transactions.Get(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(tx).Write(w)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request, userID string) {
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	tx, err := req.toTransaction(userID, s.loc)
	if err != nil {
		writeError(w, r, err)
		return
	}
	tx.ID = r.PathValue("id")

	updated, err := s.svc.Transactions.Update(r.Context(), tx)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateUser(userID)
	NewJSONResponse().Body(updated).Write(w)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request, userID string) {
	if err := s.svc.Transactions.Delete(r.Context(), userID, r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateUser(userID)
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request, userID string) {
	u, err := s.svc.Users.Profile(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(u).Write(w)
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request, userID string) {
	var req profileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	u, err := s.svc.Users.UpdateProfile(r.Context(), userID, req.toUpdate())
	if err != nil {
		writeError(w, r, err)
		return
	}
	// Declared income feeds the balance.
	s.dashboards.Delete(userID)
	NewJSONResponse().Body(u).Write(w)
}
