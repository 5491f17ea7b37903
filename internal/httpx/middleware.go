package httpx

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/ariefcatur/venue-booking/internal/apperr"
	"github.com/ariefcatur/venue-booking/internal/auth"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

func RequestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())))
		})
	}
}

// Capability decides whether a request may use perm.
type Capability func(r *http.Request, perm auth.Permission) (auth.Principal, error)

// BearerJWT accepts HS256 tokens whose perms claim grants the permission.
func BearerJWT(secret []byte) Capability {
	return func(r *http.Request, perm auth.Permission) (auth.Principal, error) {
		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || raw == "" {
			return auth.Principal{}, apperr.ErrUnauthorized.WithDetails("missing bearer token")
		}
		p, err := auth.ParseValidate(secret, raw)
		if err != nil {
			return auth.Principal{}, apperr.ErrUnauthorized.WithDetails("%v", err)
		}
		if !p.Has(perm) {
			return auth.Principal{}, apperr.ErrForbidden.WithDetails("missing permission %s", perm)
		}
		return p, nil
	}
}

type principalKey struct{}

func PrincipalFrom(ctx context.Context) (auth.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(auth.Principal)
	return p, ok
}

// Require returns middleware that admits requests c grants perm.
func Require(c Capability, perm auth.Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, err := c(r, perm)
			if err != nil {
				writeError(w, r, nil, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), principalKey{}, p)))
		})
	}
}
