package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Adityakbr01/sheryians-Clone-FullStack-sub000/internal/middleware"
	"github.com/Adityakbr01/sheryians-Clone-FullStack-sub000/internal/profile"
	"github.com/Adityakbr01/sheryians-Clone-FullStack-sub000/internal/service"
	"github.com/Adityakbr01/sheryians-Clone-FullStack-sub000/internal/session"
)

const requestTimeout = 5 * time.Second

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Svc     *service.AuthService
	Cookies session.CookieOptions
}

func NewAuthHandler(svc *service.AuthService, cookies session.CookieOptions) *AuthHandler {
	return &AuthHandler{Svc: svc, Cookies: cookies}
}

// ----- DTOs -----

type registerReq struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
	Phone       string `json:"phone"`
	Role        string `json:"role"` // STUDENT | INSTRUCTOR
}
type verifyOTPReq struct {
	Email string `json:"email"`
	Code  string `json:"otp"`
}
type emailReq struct {
	Email string `json:"email"`
}
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}
type profileReq struct {
	DisplayName string `json:"display_name"`
	Phone       string `json:"phone"`
}

type accessResp struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}
type loginResp struct {
	accessResp
	User profile.Snapshot `json:"user"`
}

// device describes where a request came from.
func device(c echo.Context) string {
	return c.Request().UserAgent() + " @ " + c.RealIP()
}

func withTimeout(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

// Register: create an unverified account and send its OTP.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	res, err := h.Svc.Register(ctx, service.RegisterInput{
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.DisplayName,
		Phone:       req.Phone,
		Role:        req.Role,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"id":      res.PrincipalID,
		"email":   res.Email,
		"message": "verification code sent",
	})
}

func (h *AuthHandler) VerifyOTP(c echo.Context) error {
	var req verifyOTPReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	if err := h.Svc.VerifyOTP(ctx, req.Email, req.Code); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "email verified"})
}

func (h *AuthHandler) ResendOTP(c echo.Context) error {
	var req emailReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	if err := h.Svc.ResendOTP(ctx, req.Email); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusAccepted, echo.Map{"message": "verification code sent"})
}

// Login: start the only session for the principal and set both cookies.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	res, err := h.Svc.Login(ctx, service.LoginInput{Email: req.Email, Password: req.Password, Device: device(c)})
	if err != nil {
		return respondError(c, err)
	}

	w := c.Response()
	session.SetAccessCookie(w, res.Access.Raw, res.Access.ExpiresAt, h.Cookies)
	session.SetRefreshCookie(w, res.Refresh.Raw, res.Refresh.ExpiresAt, h.Cookies)
	return c.JSON(http.StatusOK, loginResp{
		accessResp: accessResp{AccessToken: res.Access.Raw, ExpiresAt: res.Access.ExpiresAt},
		User:       res.Profile,
	})
}

// Refresh: exchange the refresh token for a new access token.  The token is
// read from the refresh cookie, then the Authorization header, then the body.
func (h *AuthHandler) Refresh(c echo.Context) error {
	raw := refreshToken(c)
	if raw == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	access, err := h.Svc.Refresh(ctx, raw, device(c))
	if err != nil {
		return respondError(c, err)
	}
	session.SetAccessCookie(c.Response(), access.Raw, access.ExpiresAt, h.Cookies)
	return c.JSON(http.StatusOK, accessResp{AccessToken: access.Raw, ExpiresAt: access.ExpiresAt})
}

func refreshToken(c echo.Context) string {
	if ck, err := c.Cookie(session.RefreshCookie); err == nil && ck.Value != "" {
		return ck.Value
	}
	if auth := c.Request().Header.Get("Authorization"); len(auth) > 7 && strings.EqualFold(auth[:7], "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	var req refreshReq
	if err := c.Bind(&req); err == nil {
		return strings.TrimSpace(req.RefreshToken)
	}
	return ""
}

// Logout: revoke the caller's session (protected).
func (h *AuthHandler) Logout(c echo.Context) error {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	if err := h.Svc.Logout(ctx, id.PrincipalID); err != nil {
		return respondError(c, err)
	}
	session.ClearCookies(c.Response(), h.Cookies)
	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}

// Profile returns the caller's snapshot (protected).
func (h *AuthHandler) Profile(c echo.Context) error {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	snap, err := h.Svc.GetProfile(ctx, id.PrincipalID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, snap)
}

// UpdateProfile edits personal info and returns the fresh snapshot (protected).
func (h *AuthHandler) UpdateProfile(c echo.Context) error {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req profileReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	snap, err := h.Svc.UpdatePersonalInfo(ctx, id.PrincipalID, service.PersonalInfo{
		DisplayName: req.DisplayName,
		Phone:       req.Phone,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, snap)
}
