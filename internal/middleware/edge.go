package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/agencyhub/backend/internal/identity"
	"github.com/agencyhub/backend/pkg/response"
)

// HeaderOriginalPath carries the client-visible path into rewritten requests.
const HeaderOriginalPath = "X-Original-Path"

// Edge runs the access gate and then the tenant resolver in front of next.
// The gate always runs first, so protected tenant pages are never rewritten for anonymous callers.
func Edge(next http.Handler, gate *Gate, resolver *TenantResolver, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// CORS preflights carry no credentials; the engine's CORS middleware answers them.
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}
		session, err := gate.Check(r)
		if err != nil {
			gate.Reject(w, r)
			return
		}
		if session != nil {
			r = r.WithContext(identity.WithSession(r.Context(), session))
		}

		out := resolver.Resolve(r.Host, r.URL.Path, r.URL.RawQuery)
		switch out.Action {
		case ActionRedirect:
			http.Redirect(w, r, out.Path, http.StatusTemporaryRedirect)
			return
		case ActionRewrite:
			r = rewrite(r, out.Path)
			logger.Debug("request rewritten",
				zap.String("host", r.Host),
				zap.String("from", r.Header.Get(HeaderOriginalPath)),
				zap.String("to", out.Path),
			)
		}
		next.ServeHTTP(w, r)
	})
}

func rewrite(r *http.Request, target string) *http.Request {
	r2 := r.Clone(r.Context())
	r2.Header.Set(HeaderOriginalPath, r.URL.RequestURI())
	path, query, _ := strings.Cut(target, "?")
	r2.URL.Path = path
	r2.URL.RawPath = ""
	r2.URL.RawQuery = query
	r2.RequestURI = r2.URL.RequestURI()
	return r2
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(response.Body{Success: false, Error: msg})
}
