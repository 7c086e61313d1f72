package router

import (
	"net/http"
	"slices"
	"strings"

	"RestQueryAPI/internal/config"
)

const (
	corsMethods = "GET, POST, PUT, DELETE, OPTIONS"
	corsHeaders = "Content-Type, " + requestIDHeader
)

// corsPolicy is the parsed CORS_* configuration.
type corsPolicy struct {
	origins     []string // пусто или "*" = любой origin
	credentials bool
}

func newCORSPolicy(cfg config.CORSConfig) corsPolicy {
	p := corsPolicy{credentials: cfg.AllowCredentials}
	for _, o := range strings.Split(cfg.AllowOrigin, ",") {
		if o = strings.TrimSpace(o); o != "" {
			p.origins = append(p.origins, o)
		}
	}
	return p
}

// allowOrigin returns the Access-Control-Allow-Origin value for the request
// origin ("" to omit it) and whether the answer depends on that origin.
func (p corsPolicy) allowOrigin(origin string) (string, bool) {
	if len(p.origins) == 0 || slices.Contains(p.origins, "*") {
		// с credentials браузер не принимает "*"
		if p.credentials && origin != "" {
			return origin, true
		}
		return "*", false
	}
	if origin != "" && slices.Contains(p.origins, origin) {
		return origin, true
	}
	return "", true
}

// wrap sets the CORS headers and answers preflight requests itself.
func (p corsPolicy) wrap(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		hdr := w.Header()
		value, vary := p.allowOrigin(r.Header.Get("Origin"))
		if value != "" {
			hdr.Set("Access-Control-Allow-Origin", value)
		}
		if vary {
			hdr.Add("Vary", "Origin")
		}
		if p.credentials {
			hdr.Set("Access-Control-Allow-Credentials", "true")
		}
		hdr.Set("Access-Control-Expose-Headers", requestIDHeader)

		if r.Method != http.MethodOptions {
			h(w, r)
			return
		}
		hdr.Set("Access-Control-Allow-Methods", corsMethods)
		hdr.Set("Access-Control-Allow-Headers", corsHeaders)
		hdr.Set("Access-Control-Max-Age", "86400")
		w.WriteHeader(http.StatusNoContent)
	}
}
