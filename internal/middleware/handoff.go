package middleware

import (
	"errors"
	"net/http"

	"github.com/rahul4469/crisis-analyzer/context"
	"github.com/rahul4469/crisis-analyzer/internal/models"
	"go.uber.org/zap"
)

type HandoffMiddleware struct {
	store      models.HandoffStore
	cookieName string
	secure     bool
	logger     *zap.Logger
}

func NewHandoffMiddleware(store models.HandoffStore, cookieName string, secure bool, logger *zap.Logger) *HandoffMiddleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HandoffMiddleware{
		store:      store,
		cookieName: cookieName,
		secure:     secure,
		logger:     logger,
	}
}

// SetHandoff takes the handoff named by the cookie and stores it in the
// request context. Taking deletes it, so a reload of the page finds nothing.
// It does not block requests; use RequireHandoff for that.
func (m *HandoffMiddleware) SetHandoff(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(m.cookieName)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		// the cookie is single-use whatever the outcome
		http.SetCookie(w, &http.Cookie{
			Name:     m.cookieName,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   m.secure,
			SameSite: http.SameSiteLaxMode,
		})

		h, err := m.store.Take(r.Context(), cookie.Value)
		if err != nil {
			if !errors.Is(err, models.ErrHandoffNotFound) && !errors.Is(err, models.ErrHandoffExpired) {
				m.logger.Error("failed to take handoff", zap.Error(err))
			}
			next.ServeHTTP(w, r)
			return
		}

		ctx := context.ContextSetHandoff(r.Context(), h)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireHandoff sends requests without a handoff back to the landing page.
func (m *HandoffMiddleware) RequireHandoff(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if context.ContextGetHandoff(r.Context()) == nil {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// CurrentHandoff returns the handoff taken for this request, or nil.
func CurrentHandoff(r *http.Request) *models.Handoff {
	return context.ContextGetHandoff(r.Context())
}

// MustCurrentHandoff is like CurrentHandoff but panics if there is none.
// Only use this in handlers protected by RequireHandoff.
func MustCurrentHandoff(r *http.Request) *models.Handoff {
	h := context.ContextGetHandoff(r.Context())
	if h == nil {
		panic("MustCurrentHandoff called without RequireHandoff middleware")
	}
	return h
}
