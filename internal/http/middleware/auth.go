package middleware

import (
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"github.com/JeevaSuryaWorks/emergentiq-advisor/internal/auth"
)

// DefaultUserID is the caller assumed when neither a token nor an X-User-ID
// header is present and authentication is not required.
const DefaultUserID = "demo-user"

const maxHeaderUserIDRunes = 64

// AuthOptions configures Authenticate.
type AuthOptions struct {
	// Verifier resolves bearer tokens. Nil disables token authentication.
	Verifier auth.Verifier
	// Require rejects requests without a verified bearer token. When false,
	// the X-User-ID header and then DefaultUserID are accepted.
	Require bool
}

// Authenticate establishes the caller identity and stores it both under the
// "userID" Gin key and on the request context (auth.WithIdentity), where the
// session controller's profile lookup reads it.
//
// A bearer token that fails verification is always rejected, even when
// Require is false.
func Authenticate(opts AuthOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := identify(c, opts)
		if !ok {
			return
		}
		c.Set(UserIDKey, id.UserID)
		c.Request = c.Request.WithContext(auth.WithIdentity(c.Request.Context(), id))
		c.Next()
	}
}

func identify(c *gin.Context, opts AuthOptions) (auth.Identity, bool) {
	if token, found := bearerToken(c.GetHeader("Authorization")); found && opts.Verifier != nil {
		id, err := opts.Verifier.Verify(c.Request.Context(), token)
		if err != nil || id.UserID == "" {
			LoggerFrom(c).Debug().Err(err).Msg("bearer token rejected")
			c.Header("WWW-Authenticate", `Bearer realm="advisor"`)
			abortJSON(c, http.StatusUnauthorized, "unauthorized", "invalid or expired token")
			return auth.Identity{}, false
		}
		return id, true
	}

	if opts.Require {
		c.Header("WWW-Authenticate", `Bearer realm="advisor"`)
		abortJSON(c, http.StatusUnauthorized, "unauthorized", "authentication required")
		return auth.Identity{}, false
	}

	if h := strings.TrimSpace(c.GetHeader("X-User-ID")); h != "" {
		if utf8.RuneCountInString(h) > maxHeaderUserIDRunes {
			abortJSON(c, http.StatusBadRequest, "bad_request", "X-User-ID too long")
			return auth.Identity{}, false
		}
		return auth.Identity{UserID: h}, true
	}
	return auth.Identity{UserID: DefaultUserID}, true
}

// bearerToken extracts the token from an "Authorization: Bearer <t>" value.
func bearerToken(h string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(h), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
