package httpserver

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"agora/internal/errs"
)

// requireOrganizer guards organizer routes with an HS256 bearer token.
// Voter-facing session handling lives in the web layer, not here.
func (s *Server) requireOrganizer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if raw == "" || raw == r.Header.Get("Authorization") {
			writeError(w, errs.ErrUnauthorized)
			return
		}
		tok, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return s.signKey, nil
		}, jwt.WithValidMethods([]string{"HS256"}))
		if err != nil || !tok.Valid {
			writeError(w, errs.ErrUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
