package handler

import (
	"context"  // provides context with cancellation for DB calls
	"errors"   // sentinel comparison on repository errors
	"net/http" // HTTP status codes and primitives
	"strconv"  // path id parsing
	"strings"  // string manipulation utilities
	"time"     // timeouts for DB calls

	"github.com/labstack/echo/v4" // Echo framework for HTTP routing

	"github.com/Shine-Infosolutions/eventbackend/internal/config"     // app configuration
	"github.com/Shine-Infosolutions/eventbackend/internal/domain"     // error kinds
	"github.com/Shine-Infosolutions/eventbackend/internal/logger"     // structured logging
	"github.com/Shine-Infosolutions/eventbackend/internal/middleware" // caller identity
	"github.com/Shine-Infosolutions/eventbackend/internal/model"      // staff roles
	"github.com/Shine-Infosolutions/eventbackend/internal/repository" // DB repositories
	"github.com/Shine-Infosolutions/eventbackend/internal/service"    // capability checks
	"github.com/Shine-Infosolutions/eventbackend/internal/utils"      // token issuing
)

// UserStore is the account persistence the auth endpoints need.
type UserStore interface {
	Create(ctx context.Context, name, email, password string, role model.Role, cost int) (uint64, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
	List(ctx context.Context) ([]model.User, error)
	CountByRole(ctx context.Context, role model.Role) (int, error)
	Update(ctx context.Context, u model.User) error
	SetPassword(ctx context.Context, id uint64, password string, cost int) error
	Delete(ctx context.Context, id uint64) error
}

// RefreshStore keeps hashed refresh tokens.
type RefreshStore interface {
	StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error
	ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error)
	RevokeByHash(ctx context.Context, tokenHash string) error
	RevokeAllForUser(ctx context.Context, userID uint64) error
}

// AuthHandler bundles dependencies for auth and staff account endpoints.
type AuthHandler struct {
	Cfg    config.Config
	Users  UserStore
	Tokens RefreshStore
	Log    *logger.Logger
}

func NewAuthHandler(cfg config.Config, u UserStore, t RefreshStore, log *logger.Logger) *AuthHandler {
	if log == nil {
		log = logger.Discard()
	}
	return &AuthHandler{Cfg: cfg, Users: u, Tokens: t, Log: log}
}

// ----- DTOs -----

type registerAdminReq struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}
type loginReq struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}
type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}
type createUserReq struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"required,oneof=Admin 'Sales Staff' 'Gate Staff'"`
}
type updateUserReq struct {
	Name     *string `json:"name"`
	Role     *string `json:"role" validate:"omitempty,oneof=Admin 'Sales Staff' 'Gate Staff'"`
	IsActive *bool   `json:"is_active"`
	Password *string `json:"password" validate:"omitempty,min=8"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}
type userPart struct {
	ID    uint64     `json:"id"`
	Name  string     `json:"name"`
	Email string     `json:"email"`
	Role  model.Role `json:"role"`
}
type authResp struct {
	User    userPart  `json:"user"`
	Access  tokenPart `json:"access"`
	Refresh tokenPart `json:"refresh"`
}

// issue signs an access token and stores a new refresh token for u.
func (h *AuthHandler) issue(ctx context.Context, u model.User) (authResp, error) {
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, string(u.Role), u.Name, h.Cfg.AccessTTLMin)
	if err != nil {
		return authResp{}, err
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return authResp{}, err
	}
	if err := h.Tokens.StoreRefresh(ctx, u.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return authResp{}, err
	}
	return authResp{
		User:    userPart{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role},
		Access:  tokenPart{Token: access.Token, Expires: access.Exp},
		Refresh: tokenPart{Token: refresh.Raw, Expires: refresh.Exp}, // raw back to client
	}, nil
}

// RegisterAdmin bootstraps the first Admin.  Once an Admin exists the
// endpoint refuses and further accounts are created through /v1/users.
func (h *AuthHandler) RegisterAdmin(c echo.Context) error {
	var req registerAdminReq
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, h.Log, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	n, err := h.Users.CountByRole(ctx, model.RoleAdmin)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	if n > 0 {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "an admin already exists", "code": "forbidden"})
	}
	uid, err := h.Users.Create(ctx, req.Name, req.Email, req.Password, model.RoleAdmin, h.Cfg.BcryptCost)
	if errors.Is(err, repository.ErrEmailExists) {
		return respondError(c, h.Log, domain.ConflictError{Resource: "user", Msg: "email already exists", Err: err})
	}
	if err != nil {
		return respondError(c, h.Log, err)
	}
	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	resp, err := h.issue(ctx, u)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, resp)
}

// Login verifies credentials and returns a new token pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, h.Log, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	if err != nil {
		return respondError(c, h.Log, err)
	}
	if !u.IsActive || !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	resp, err := h.issue(ctx, u)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// Refresh validates by hash, revokes the old token and issues a new pair.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
	}
	hash := utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	userID, err := h.Tokens.ValidateRefresh(ctx, hash)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
	}
	_ = h.Tokens.RevokeByHash(ctx, hash)

	u, err := h.Users.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
	}
	if err != nil {
		return respondError(c, h.Log, err)
	}
	resp, err := h.issue(ctx, u)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// Logout revokes the refresh token in the body, or every refresh token of
// the caller when the body carries none.  The route sits behind JWTAuth.
func (h *AuthHandler) Logout(c echo.Context) error {
	actor, _ := middleware.CurrentActor(c)
	var req refreshReq
	_ = c.Bind(&req)
	raw := strings.TrimSpace(req.RefreshToken)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if raw == "" {
		if err := h.Tokens.RevokeAllForUser(ctx, actor.UserID); err != nil {
			return respondError(c, h.Log, err)
		}
		return c.NoContent(http.StatusNoContent)
	}
	hash := utils.HashRefreshRaw(raw)
	owner, err := h.Tokens.ValidateRefresh(ctx, hash)
	if err != nil || owner != actor.UserID {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
	}
	if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
		return respondError(c, h.Log, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Me returns the account behind the access token.
func (h *AuthHandler) Me(c echo.Context) error {
	actor, _ := middleware.CurrentActor(c)
	u, err := h.Users.GetByID(c.Request().Context(), actor.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "account no longer exists"})
	}
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, u)
}

// ----- staff accounts (Admin) -----

func (h *AuthHandler) authorizeUsers(c echo.Context) (service.Actor, error) {
	actor, _ := middleware.CurrentActor(c)
	return actor, service.Authorize(actor.Role, service.CapManageUsers)
}

func parseUserID(c echo.Context) (uint64, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, domain.ValidationError{Field: "id", Msg: "must be a positive integer"}
	}
	return id, nil
}

func userError(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return domain.NotFoundError{Resource: "user", Err: err}
	case errors.Is(err, repository.ErrEmailExists):
		return domain.ConflictError{Resource: "user", Msg: "email already exists", Err: err}
	}
	return err
}

// ListUsers returns every staff account.
func (h *AuthHandler) ListUsers(c echo.Context) error {
	if _, err := h.authorizeUsers(c); err != nil {
		return respondError(c, h.Log, err)
	}
	users, err := h.Users.List(c.Request().Context())
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, users)
}

// CreateUser adds a staff account with the given role.
func (h *AuthHandler) CreateUser(c echo.Context) error {
	if _, err := h.authorizeUsers(c); err != nil {
		return respondError(c, h.Log, err)
	}
	var req createUserReq
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, h.Log, err)
	}
	ctx := c.Request().Context()
	id, err := h.Users.Create(ctx, req.Name, req.Email, req.Password, model.Role(req.Role), h.Cfg.BcryptCost)
	if err != nil {
		return respondError(c, h.Log, userError(err))
	}
	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		return respondError(c, h.Log, userError(err))
	}
	return c.JSON(http.StatusCreated, u)
}

// GetUser returns one staff account.
func (h *AuthHandler) GetUser(c echo.Context) error {
	if _, err := h.authorizeUsers(c); err != nil {
		return respondError(c, h.Log, err)
	}
	id, err := parseUserID(c)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	u, err := h.Users.GetByID(c.Request().Context(), id)
	if err != nil {
		return respondError(c, h.Log, userError(err))
	}
	return c.JSON(http.StatusOK, u)
}

// UpdateUser changes name, role, active flag or password.  Deactivating an
// account also revokes its refresh tokens.
func (h *AuthHandler) UpdateUser(c echo.Context) error {
	actor, err := h.authorizeUsers(c)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	id, err := parseUserID(c)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	var req updateUserReq
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, h.Log, err)
	}
	ctx := c.Request().Context()
	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		return respondError(c, h.Log, userError(err))
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return respondError(c, h.Log, domain.ValidationError{Field: "name", Msg: "is required"})
		}
		u.Name = name
	}
	if req.Role != nil {
		u.Role = model.Role(*req.Role)
	}
	if req.IsActive != nil {
		u.IsActive = *req.IsActive
	}
	if id == actor.UserID && (u.Role != model.RoleAdmin || !u.IsActive) {
		return respondError(c, h.Log, domain.ConflictError{Resource: "user", Msg: "admins cannot demote or deactivate themselves"})
	}
	if err := h.Users.Update(ctx, u); err != nil {
		return respondError(c, h.Log, userError(err))
	}
	if req.Password != nil {
		if err := h.Users.SetPassword(ctx, id, *req.Password, h.Cfg.BcryptCost); err != nil {
			return respondError(c, h.Log, err)
		}
	}
	if !u.IsActive || req.Password != nil {
		_ = h.Tokens.RevokeAllForUser(ctx, id)
	}
	return c.JSON(http.StatusOK, u)
}

// DeleteUser removes a staff account other than the caller's own.
func (h *AuthHandler) DeleteUser(c echo.Context) error {
	actor, err := h.authorizeUsers(c)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	id, err := parseUserID(c)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	if id == actor.UserID {
		return respondError(c, h.Log, domain.ConflictError{Resource: "user", Msg: "admins cannot delete themselves"})
	}
	if err := h.Users.Delete(c.Request().Context(), id); err != nil {
		return respondError(c, h.Log, userError(err))
	}
	return c.NoContent(http.StatusNoContent)
}
