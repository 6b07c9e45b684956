package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"schoolmedia/internal/common"
	"schoolmedia/internal/logging"
	"schoolmedia/internal/server/auth"
	"schoolmedia/internal/server/repositories/users"
)

// AuthHandler exchanges admin credentials for an access token.
type AuthHandler struct {
	users    users.Repository
	secret   []byte
	validity time.Duration
	logger   logging.Logger
}

func NewAuthHandler(users users.Repository, secret string, validity time.Duration, logger logging.Logger) *AuthHandler {
	return &AuthHandler{
		users:    users,
		secret:   []byte(secret),
		validity: validity,
		logger:   logger.With("handler", "auth"),
	}
}

func (h *AuthHandler) Register(e *echo.Echo) {
	e.POST("/api/login", h.Login)
}

type loginRequest struct {
	UserName string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.UserName == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "username and password are required")
	}

	ctx := c.Request().Context()
	user, err := h.users.GetByUserName(ctx, req.UserName)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !auth.CheckPassword(user.PasswordHash, []byte(req.Password)) {
		h.logger.Warn(ctx, "failed login attempt", "username", req.UserName)
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	}

	token, err := auth.GenerateToken(user.ID, user.UserName, h.secret, h.validity)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, loginResponse{Token: token})
}
