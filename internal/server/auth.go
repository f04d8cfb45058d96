package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

type AuthConfig struct {
	// JWTSecret enables bearer-token authentication; empty disables it.
	JWTSecret string
	// AllowActorHeader accepts X-Actor-Id / X-Actor-Address headers from
	// trusted front-ends that already validated the caller.
	AllowActorHeader bool
	Logger           *slog.Logger
}

// Principal is the validated acting party attached to a request. The core
// does not authorize; it only attributes mutations to this identity.
type Principal struct {
	IndividualID int64
	OrgID        *int64
	Address      string
	Source       string
}

type principalKey struct{}

func (c AuthConfig) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

func withPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func principalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

type jwtClaims struct {
	jwt.RegisteredClaims
	OrgID   int64  `json:"org_id,omitempty"`
	Address string `json:"address,omitempty"`
}

func authenticateJWT(token, secret string) (Principal, error) {
	if strings.TrimSpace(secret) == "" {
		return Principal{}, errors.New("jwt secret not configured")
	}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	claims := &jwtClaims{}
	parsed, err := parser.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return Principal{}, err
	}
	if !parsed.Valid {
		return Principal{}, errors.New("invalid token")
	}
	individualID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || individualID <= 0 {
		return Principal{}, errors.New("subject claim must be an individual id")
	}
	p := Principal{IndividualID: individualID, Address: claims.Address, Source: "jwt"}
	if claims.OrgID > 0 {
		org := claims.OrgID
		p.OrgID = &org
	}
	return p, nil
}

func bearerToken(authz string) (string, bool) {
	parts := strings.Fields(authz)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	return parts[1], true
}

// newAuthMiddleware attaches a Principal when credentials are present.
// Requests without credentials pass through; mutations then fail the
// engine's own actor validation instead of a blanket 401.
func newAuthMiddleware(cfg AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if token, ok := bearerToken(req.Header.Get("Authorization")); ok {
				p, err := authenticateJWT(token, cfg.JWTSecret)
				if err != nil {
					cfg.logger().Warn("jwt rejected", "error", err)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusUnauthorized)
					w.Write([]byte(`{"error":{"code":"unauthorized","message":"invalid bearer token"}}`))
					return
				}
				next.ServeHTTP(w, req.WithContext(withPrincipal(req.Context(), p)))
				return
			}
			if cfg.AllowActorHeader {
				p := Principal{Source: "header", Address: req.Header.Get("X-Actor-Address")}
				if v := req.Header.Get("X-Actor-Id"); v != "" {
					if id, err := strconv.ParseInt(v, 10, 64); err == nil && id > 0 {
						p.IndividualID = id
					}
				}
				if v := req.Header.Get("X-Actor-Org-Id"); v != "" {
					if id, err := strconv.ParseInt(v, 10, 64); err == nil && id > 0 {
						p.OrgID = &id
					}
				}
				if p.IndividualID > 0 || p.Address != "" {
					next.ServeHTTP(w, req.WithContext(withPrincipal(req.Context(), p)))
					return
				}
			}
			next.ServeHTTP(w, req)
		})
	}
}
