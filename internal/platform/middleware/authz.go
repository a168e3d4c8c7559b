// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/taibuivan/vidtube/internal/platform/apperr"
	"github.com/taibuivan/vidtube/internal/platform/constants"
	"github.com/taibuivan/vidtube/internal/platform/ctxutil"
	"github.com/taibuivan/vidtube/internal/platform/respond"
	"github.com/taibuivan/vidtube/internal/platform/sec"
	"github.com/taibuivan/vidtube/internal/users/identity"
)

// TokenVerifier verifies a token for a given purpose.
//
// [*sec.TokenCodec] satisfies it.
type TokenVerifier interface {
	Verify(token string, purpose sec.Purpose) (sec.Verified, error)
}

// IdentityFinder resolves the subject of a verified token.
//
// Implementations must return [identity.ErrNotFound] when the identity no
// longer exists; any other error is treated as a store outage.
type IdentityFinder interface {
	FindByID(ctx context.Context, id string) (*identity.Identity, error)
}

// Guard protects routes that require a valid access token.
type Guard struct {
	verifier TokenVerifier
	finder   IdentityFinder
}

// NewGuard builds a [Guard].
func NewGuard(verifier TokenVerifier, finder IdentityFinder) *Guard {
	return &Guard{verifier: verifier, finder: finder}
}

// RequireAuth rejects requests without a valid access token.
//
// # Flow
//  1. Read the token from the access cookie, falling back to "Authorization: Bearer".
//  2. Verify it as an access token.
//  3. Load the identity it names.
//  4. Attach the public identity to the context and continue.
//
// No token is UNAUTHORIZED. Any token failure, or a subject that no longer
// exists, is INVALID_TOKEN. A store failure is SERVICE_UNAVAILABLE.
func (guard *Guard) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		ctx := request.Context()

		// 1. Extraction
		token := ExtractAccessToken(request)
		if token == "" {
			respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
			return
		}
		if len(token) > constants.MaxTokenLength {
			respond.Error(writer, request, apperr.InvalidToken("Invalid or expired token"))
			return
		}

		// 2. Verification
		verified, err := guard.verifier.Verify(token, sec.PurposeAccess)
		if err != nil {
			ctxutil.GetLogger(ctx).DebugContext(ctx, "auth_access_token_rejected", slog.String("reason", err.Error()))
			respond.Error(writer, request, apperr.InvalidToken("Invalid or expired token"))
			return
		}

		// 3. Identity lookup
		user, err := guard.finder.FindByID(ctx, verified.SubjectID)
		if err != nil {
			if errors.Is(err, identity.ErrNotFound) {
				respond.Error(writer, request, apperr.InvalidToken("Invalid or expired token"))
				return
			}
			respond.Error(writer, request, apperr.ServiceUnavailable(err))
			return
		}

		// 4. Context injection
		recordPrincipal(ctx, user.ID)
		ctx = ctxutil.WithIdentity(ctx, user.Public())
		next.ServeHTTP(writer, request.WithContext(ctx))
	})
}

// ExtractAccessToken returns the access token carried by request.
// The cookie takes precedence over the Authorization header.
func ExtractAccessToken(request *http.Request) string {
	if cookie, err := request.Cookie(constants.AccessTokenCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	header := request.Header.Get(constants.HeaderAuthorization)
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
