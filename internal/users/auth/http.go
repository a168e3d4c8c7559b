// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/vidtube/internal/platform/constants"
	requestutil "github.com/taibuivan/vidtube/internal/platform/request"
	"github.com/taibuivan/vidtube/internal/platform/respond"
	"github.com/taibuivan/vidtube/internal/users/identity"
)

// # Definitions & Constructors

// CookieConfig controls the token cookies.
type CookieConfig struct {
	Secure bool
	Domain string
}

// Handler implements the session HTTP endpoints.
//
// Cookies are only written after the service call succeeded, so a failed
// login, refresh or logout never leaves a half-updated pair behind.
type Handler struct {
	authService *Service
	requireAuth func(http.Handler) http.Handler
	cookies     CookieConfig
}

// NewHandler constructs a [Handler].
//
// requireAuth guards the session-bound routes; pass the Guard's RequireAuth.
func NewHandler(service *Service, requireAuth func(http.Handler) http.Handler, cookies CookieConfig) *Handler {
	return &Handler{authService: service, requireAuth: requireAuth, cookies: cookies}
}

// Routes returns a [chi.Router] with the session routes.
//
// # Endpoints
//   - POST /register        : Creates a new identity.
//   - POST /login           : Opens a session, sets both cookies.
//   - POST /refresh-token   : Rotates the session, resets both cookies.
//   - POST /logout          : Ends the session (guarded).
//   - POST /change-password : Changes the secret and ends the session (guarded).
//   - GET  /current-user    : Returns the authenticated identity (guarded).
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/register", handler.register)
	router.Post("/login", handler.login)
	router.Post("/refresh-token", handler.refresh)

	router.Group(func(r chi.Router) {
		r.Use(handler.requireAuth)
		r.Post("/logout", handler.logout)
		r.Post("/change-password", handler.changePassword)
		r.Get("/current-user", handler.currentUser)
	})

	return router
}

// # Request & Response Payloads

type registerRequest struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

type loginRequest struct {
	Identifier string `json:"identifier"`
	Secret     string `json:"secret"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type changePasswordRequest struct {
	OldSecret string `json:"old_secret"`
	NewSecret string `json:"new_secret"`
}

type tokenResponse struct {
	AccessToken      string    `json:"access_token"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshToken     string    `json:"refresh_token"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

type loginResponse struct {
	User identity.Public `json:"user"`
	tokenResponse
}

func newTokenResponse(pair TokenPair) tokenResponse {
	return tokenResponse{
		AccessToken:      pair.AccessToken,
		AccessExpiresAt:  pair.AccessExpiresAt,
		RefreshToken:     pair.RefreshToken,
		RefreshExpiresAt: pair.RefreshExpiresAt,
	}
}

/*
Register handles the creation of a new identity.

POST /api/v1/users/register

Response:
  - 201: identity.Public
  - 400: VALIDATION_ERROR
  - 409: CONFLICT: Username or email already exists
*/
func (handler *Handler) register(writer http.ResponseWriter, request *http.Request) {
	var input registerRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.authService.Register(request.Context(), RegisterInput(input))
	if err != nil {
		respond.Error(writer, request, ToAppError(err))
		return
	}

	respond.Created(writer, user)
}

/*
Login authenticates an identity and opens a session.

POST /api/v1/users/login

Response:
  - 200: loginResponse, plus accessToken and refreshToken cookies
  - 401: INVALID_CREDENTIALS (unknown identifier or wrong secret alike)
  - 429: RATE_LIMITED
*/
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	var input loginRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	session, err := handler.authService.Login(request.Context(), LoginInput(input))
	if err != nil {
		respond.Error(writer, request, ToAppError(err))
		return
	}

	handler.setTokenCookies(writer, session.Tokens)
	respond.OK(writer, loginResponse{User: session.User, tokenResponse: newTokenResponse(session.Tokens)})
}

/*
Refresh rotates the session.

POST /api/v1/users/refresh-token

Description: The refresh token is read from the cookie, or from the
"refresh_token" body field for non-cookie clients.

Response:
  - 200: tokenResponse, plus rotated cookies
  - 401: UNAUTHORIZED (no token) or INVALID_TOKEN (invalid, expired or reused)
*/
func (handler *Handler) refresh(writer http.ResponseWriter, request *http.Request) {
	presented := requestutil.Cookie(request, constants.RefreshTokenCookieName)
	if presented == "" {
		var input refreshRequest
		if err := requestutil.DecodeOptionalJSON(request, &input); err != nil {
			respond.Error(writer, request, err)
			return
		}
		presented = input.RefreshToken
	}

	pair, err := handler.authService.Refresh(request.Context(), presented)
	if err != nil {
		respond.Error(writer, request, ToAppError(err))
		return
	}

	handler.setTokenCookies(writer, *pair)
	respond.OK(writer, newTokenResponse(*pair))
}

/*
Logout ends the current session.

POST /api/v1/users/logout

Response:
  - 204: Session ended, both cookies cleared
*/
func (handler *Handler) logout(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.authService.Logout(request.Context(), userID); err != nil {
		respond.Error(writer, request, ToAppError(err))
		return
	}

	handler.clearTokenCookies(writer)
	respond.NoContent(writer)
}

/*
ChangePassword replaces the secret of the authenticated identity.

POST /api/v1/users/change-password

Response:
  - 204: Secret changed, session ended, both cookies cleared
  - 401: INVALID_CREDENTIALS: Old secret is wrong
*/
func (handler *Handler) changePassword(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input changePasswordRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	err = handler.authService.ChangeSecret(request.Context(), ChangeSecretInput{
		IdentityID: userID,
		OldSecret:  input.OldSecret,
		NewSecret:  input.NewSecret,
	})
	if err != nil {
		respond.Error(writer, request, ToAppError(err))
		return
	}

	handler.clearTokenCookies(writer)
	respond.NoContent(writer)
}

/*
CurrentUser returns the authenticated identity.

GET /api/v1/users/current-user
*/
func (handler *Handler) currentUser(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.authService.CurrentIdentity(request.Context(), userID)
	if err != nil {
		respond.Error(writer, request, ToAppError(err))
		return
	}

	respond.OK(writer, user)
}

// # Cookies

func (handler *Handler) setTokenCookies(writer http.ResponseWriter, pair TokenPair) {
	http.SetCookie(writer, handler.cookie(constants.AccessTokenCookieName, pair.AccessToken, pair.AccessExpiresAt))
	http.SetCookie(writer, handler.cookie(constants.RefreshTokenCookieName, pair.RefreshToken, pair.RefreshExpiresAt))
}

func (handler *Handler) clearTokenCookies(writer http.ResponseWriter) {
	for _, name := range []string{constants.AccessTokenCookieName, constants.RefreshTokenCookieName} {
		cookie := handler.cookie(name, "", time.Unix(0, 0))
		cookie.MaxAge = -1
		http.SetCookie(writer, cookie)
	}
}

func (handler *Handler) cookie(name, value string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     constants.AuthCookiePath,
		Domain:   handler.cookies.Domain,
		Expires:  expires,
		Secure:   handler.cookies.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}
