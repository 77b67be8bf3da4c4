package auth

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/BuzzLyutic/taskboard-api/internal/model"
	"github.com/BuzzLyutic/taskboard-api/internal/repo"
	"github.com/BuzzLyutic/taskboard-api/pkg/respond"
)

// Middleware проверяет токен из куки либо из заголовка Authorization
// и кладет принципала в контекст запроса.
type Middleware struct {
	tokens *TokenManager
	users  repo.UserRepository
	cookie CookieConfig
	logger *zap.Logger
}

func NewMiddleware(tokens *TokenManager, users repo.UserRepository, cookie CookieConfig, logger *zap.Logger) *Middleware {
	return &Middleware{
		tokens: tokens,
		users:  users,
		cookie: cookie,
		logger: logger,
	}
}

func (m *Middleware) tokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(m.cookie.Name); err == nil && c.Value != "" {
		return c.Value
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return ""
}

func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenStr := m.tokenFromRequest(r)
		if tokenStr == "" {
			respond.TypedError(w, r, http.StatusUnauthorized, "Authentication required. Please login.", "UNAUTHORIZED")
			return
		}

		userID, err := m.tokens.Verify(tokenStr)
		if err != nil {
			respond.TypedError(w, r, http.StatusUnauthorized, "Invalid or expired token. Please login again.", "UNAUTHORIZED")
			return
		}

		user, err := m.users.GetByID(r.Context(), userID)
		if err != nil {
			if errors.Is(err, repo.ErrorNotFound) {
				respond.TypedError(w, r, http.StatusUnauthorized, "Invalid or expired token. Please login again.", "UNAUTHORIZED")
				return
			}
			m.logger.Error("failed to load user for token", zap.Int64("user_id", userID), zap.Error(err))
			respond.Error(w, r, http.StatusInternalServerError, "Something went wrong!")
			return
		}

		if !user.IsActive {
			respond.TypedError(w, r, http.StatusForbidden, "Your account has been deactivated. Please contact support.", "ACCOUNT_DEACTIVATED")
			return
		}

		ctx := WithPrincipal(r.Context(), model.Principal{ID: user.ID, Role: user.Role})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin пускает дальше только администраторов. Вешается после Authenticate.
func (m *Middleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := PrincipalFromContext(r.Context())
		if !ok || p.Role != model.RoleAdmin {
			respond.TypedError(w, r, http.StatusForbidden, "Access denied. Admin privileges required.", "FORBIDDEN")
			return
		}
		next.ServeHTTP(w, r)
	})
}
