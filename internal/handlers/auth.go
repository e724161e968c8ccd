package handlers

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/careerhub/careerhub/internal/auth"
	"github.com/careerhub/careerhub/internal/middleware"
	"github.com/careerhub/careerhub/internal/services"
	apperrors "github.com/careerhub/careerhub/pkg/errors"
	"github.com/careerhub/careerhub/pkg/response"
)

type AuthHandler struct {
	users *services.UserService
	jwt   *auth.JWTService
	sso   *auth.OIDCAuthenticator
	state *auth.StateCodec
}

func NewAuthHandler(db *gorm.DB, jwtSvc *auth.JWTService, lockout services.LockoutPolicy) (*AuthHandler, error) {
	if jwtSvc == nil {
		return nil, errors.New("auth handler: jwt service is required")
	}
	users, err := services.NewUserService(db, lockout)
	if err != nil {
		return nil, err
	}
	return &AuthHandler{users: users, jwt: jwtSvc}, nil
}

// WithSSO enables the OIDC login flow. Without it the SSO endpoints report
// that single sign-on is not configured.
func (h *AuthHandler) WithSSO(authenticator *auth.OIDCAuthenticator, codec *auth.StateCodec) *AuthHandler {
	h.sso = authenticator
	h.state = codec
	return h
}

type loginRequest struct {
	Login    string `json:"login" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token string `json:"token"`
	User  any    `json:"user"`
}

// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindAndValidate(c, &req) {
		return
	}

	user, err := h.users.Authenticate(requestContext(c), req.Login, req.Password)
	if err != nil {
		response.Error(c, err)
		return
	}

	token, err := h.jwt.GenerateAccessToken(auth.AccessTokenInput{
		UserID:  user.ID,
		Email:   user.Email,
		IsAdmin: user.IsAdmin,
	})
	if err != nil {
		response.Error(c, apperrors.ErrInternalServer.WithInternal(err))
		return
	}

	response.Success(c, http.StatusOK, loginResponse{Token: token, User: user})
}

// GET /api/auth/sso
func (h *AuthHandler) BeginSSO(c *gin.Context) {
	if h.sso == nil {
		response.Error(c, apperrors.NewBadRequest("single sign-on is not configured"))
		return
	}

	nonce, err := auth.NewNonce()
	if err != nil {
		response.Error(c, apperrors.ErrInternalServer.WithInternal(err))
		return
	}

	state, err := h.state.Encode(auth.StatePayload{
		Nonce:     nonce,
		ReturnURL: sanitizeReturnURL(c.Query("return_url")),
	})
	if err != nil {
		response.Error(c, apperrors.ErrInternalServer.WithInternal(err))
		return
	}

	redirect, err := h.sso.AuthCodeURL(state, nonce)
	if err != nil {
		response.Error(c, apperrors.ErrInternalServer.WithInternal(err))
		return
	}

	c.Redirect(http.StatusFound, redirect)
}

// GET /api/auth/sso/callback
func (h *AuthHandler) SSOCallback(c *gin.Context) {
	if h.sso == nil {
		response.Error(c, apperrors.NewBadRequest("single sign-on is not configured"))
		return
	}

	if msg := c.Query("error"); msg != "" {
		response.Error(c, apperrors.ErrUnauthorized.WithMessage("identity provider rejected the login"))
		return
	}

	payload, err := h.state.Decode(c.Query("state"))
	if err != nil {
		response.Error(c, apperrors.ErrUnauthorized.WithMessage("login state is invalid or expired"))
		return
	}

	identity, err := h.sso.Exchange(requestContext(c), c.Query("code"), payload.Nonce)
	if err != nil {
		if errors.Is(err, auth.ErrEmailUnverified) {
			response.Error(c, apperrors.ErrForbidden.WithMessage("email address is not verified"))
			return
		}
		response.Error(c, apperrors.ErrUnauthorized.WithInternal(err))
		return
	}

	user, err := h.users.ResolveByEmail(requestContext(c), identity.Email)
	if err != nil {
		response.Error(c, err)
		return
	}

	token, err := h.jwt.GenerateAccessToken(auth.AccessTokenInput{
		UserID:  user.ID,
		Email:   user.Email,
		IsAdmin: user.IsAdmin,
	})
	if err != nil {
		response.Error(c, apperrors.ErrInternalServer.WithInternal(err))
		return
	}

	if payload.ReturnURL != "" {
		c.Redirect(http.StatusFound, payload.ReturnURL+"#token="+url.QueryEscape(token))
		return
	}
	response.Success(c, http.StatusOK, loginResponse{Token: token, User: user})
}

// GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserIDKey)
	if userID == "" {
		response.Error(c, apperrors.ErrUnauthorized)
		return
	}

	user, err := h.users.GetUser(requestContext(c), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, user)
}

// sanitizeReturnURL keeps the post-login redirect on the same site. Absolute
// and scheme-relative URLs are dropped to avoid open redirects.
func sanitizeReturnURL(raw string) string {
	if raw == "" || raw[0] != '/' {
		return ""
	}
	if len(raw) > 1 && raw[1] == '/' {
		return ""
	}
	return raw
}
