package http

import (
	"net/http"
	"strings"

	"fintrack/internal/auth"
	applog "fintrack/internal/log"
)

// authedHandler receives the user resolved from the bearer token.
type authedHandler func(w http.ResponseWriter, r *http.Request, userID string)

// requireAuth resolves "Authorization: Bearer <token>" to a user ID.
func (s *Server) requireAuth(next authedHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			UnauthorizedError("missing bearer token").Write(w)
			return
		}

		userID, err := s.svc.Tokens.Parse(strings.TrimSpace(token))
		if err != nil {
			applog.FromContext(r.Context()).WithComponent(applog.ComponentAuth).DebugContext(r.Context(),
				"Token rejected", applog.FieldError, err.Error())
			writeError(w, r, err)
			return
		}

		logger := applog.FromContext(r.Context()).With(applog.NewFields().WithUser(userID).ToSlice()...)
		next(w, r.WithContext(applog.WithLogger(r.Context(), logger)), userID)
	})
}

type tokenResponse struct {
	Token  string `json:"token"`
	UserID string `json:"userId"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	u, err := s.svc.Auth.Register(r.Context(), auth.Registration{
		Email:         req.Email,
		Password:      req.Password,
		Firstname:     req.Firstname,
		Lastname:      req.Lastname,
		MonthlyIncome: req.MonthlyIncome,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	token, err := s.svc.Tokens.Issue(u.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Body(tokenResponse{Token: token, UserID: u.ID}).Write(w)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	logger := applog.FromContext(r.Context()).WithComponent(applog.ComponentAuth)
	userID, ok, err := s.svc.Auth.VerifyCredentials(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !ok {
		logger.WarnContext(r.Context(), "Login failed", applog.FieldOperation, applog.OpLogin)
		UnauthorizedError("invalid email or password").Write(w)
		return
	}

	token, err := s.svc.Tokens.Issue(userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	logger.InfoContext(r.Context(), "Login succeeded", applog.FieldOperation, applog.OpLogin, applog.FieldUserID, userID)
	NewJSONResponse().Body(tokenResponse{Token: token, UserID: userID}).Write(w)
}
