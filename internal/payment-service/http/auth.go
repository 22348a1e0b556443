package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

type ctxKey int

const identityKey ctxKey = iota

// Identity é quem fez a chamada, extraído do JWT
type Identity struct {
	UserID string
	Admin  bool
}

func identityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}

// Authenticate valida o Bearer HS256 e coloca a identidade no contexto.
// O id vem de `sub` ou, na falta dele, de `user_id`.
func Authenticate(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || strings.TrimSpace(raw) == "" {
				writeMessage(w, http.StatusUnauthorized, "authorization header required")
				return
			}
			id, err := parseIdentity(strings.TrimSpace(raw), secret)
			if err != nil {
				writeMessage(w, http.StatusUnauthorized, "invalid token")
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), identityKey, id)))
		})
	}
}

// RequireAdmin só deixa passar tokens com role=admin
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := identityFrom(r.Context())
		if !ok {
			writeMessage(w, http.StatusUnauthorized, "authorization header required")
			return
		}
		if !id.Admin {
			writeMessage(w, http.StatusForbidden, "admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func parseIdentity(raw string, secret []byte) (Identity, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return Identity{}, err
	}

	userID, _ := claims.GetSubject()
	if userID == "" {
		switch v := claims["user_id"].(type) {
		case string:
			userID = v
		case float64:
			userID = fmt.Sprintf("%.0f", v)
		}
	}
	if userID == "" {
		return Identity{}, fmt.Errorf("token without subject")
	}
	role, _ := claims["role"].(string)
	return Identity{UserID: userID, Admin: strings.EqualFold(role, "admin")}, nil
}

// cors libera o front-end (qualquer origem) e responde o preflight
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
