package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/mental-buddy/backend/internal/middleware"
	authservice "github.com/zhouzirui/mental-buddy/backend/internal/service/auth"
	"github.com/zhouzirui/mental-buddy/backend/internal/store"
	"github.com/zhouzirui/mental-buddy/backend/pkg/utils"
)

// Accounts is the account surface the handler needs.
type Accounts interface {
	Signup(ctx context.Context, req authservice.SignupRequest) (authservice.Session, error)
	Signin(ctx context.Context, email, password string) (authservice.Session, error)
}

// Handler 注册、登录与令牌校验的HTTP处理器
type Handler struct {
	accounts Accounts
	guard    *middleware.Auth
}

func New(accounts Accounts, guard *middleware.Auth) *Handler {
	return &Handler{accounts: accounts, guard: guard}
}

// RegisterRoutes 注册 /auth 路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/auth", func(ar chi.Router) {
		ar.Post("/signup", h.handleSignup)
		ar.Post("/signin", h.handleSignin)
		ar.Group(func(pr chi.Router) {
			pr.Use(h.guard.RequireAuth)
			pr.Post("/verify", h.handleVerify)
			pr.Post("/logout", h.handleLogout)
		})
	})
}

func (h *Handler) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req authservice.SignupRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, err := h.accounts.Signup(r.Context(), req)
	var fieldErr *authservice.FieldError
	switch {
	case errors.As(err, &fieldErr):
		utils.RespondError(w, http.StatusBadRequest, fieldErr.Error())
		return
	case errors.Is(err, store.ErrUserExists), errors.Is(err, store.ErrEmailExists):
		utils.RespondError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		slog.Error("signup failed", "component", "auth", "error", err)
		utils.RespondError(w, http.StatusInternalServerError, "registration failed")
		return
	}

	slog.Info("user registered", "component", "auth", "username", session.User.Username)
	utils.RespondJSON(w, http.StatusCreated, map[string]any{
		"success":   true,
		"message":   "Account created successfully",
		"token":     session.Token,
		"expiresAt": session.ExpiresAt,
		"user":      session.User,
	})
}

func (h *Handler) handleSignin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		utils.RespondError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	session, err := h.accounts.Signin(r.Context(), req.Email, req.Password)
	switch {
	case errors.Is(err, authservice.ErrInvalidCredentials):
		utils.RespondError(w, http.StatusUnauthorized, err.Error())
		return
	case err != nil:
		slog.Error("signin failed", "component", "auth", "error", err)
		utils.RespondError(w, http.StatusInternalServerError, "sign in failed")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"message":   "Signed in successfully",
		"token":     session.Token,
		"expiresAt": session.ExpiresAt,
		"user":      session.User,
	})
}

func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	u, _ := middleware.UserFromContext(r.Context())
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"valid": true,
		"user":  u,
	})
}

// handleLogout 令牌无状态，客户端丢弃即可。
func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	u, _ := middleware.UserFromContext(r.Context())
	slog.Info("user signed out", "component", "auth", "username", u.Username)
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Signed out successfully",
	})
}
