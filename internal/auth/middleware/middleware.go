package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/mind-engage/mindengage-extract/internal/rbac"
)

type AuthService struct {
	hmac          []byte
	adminUser     string
	adminPassHash []byte
}

func NewAuthService(secret string) *AuthService { return &AuthService{hmac: []byte(secret)} }

// WithAdmin enables the admin login checked against a bcrypt hash.
func (a *AuthService) WithAdmin(user, passHash string) *AuthService {
	a.adminUser, a.adminPassHash = user, []byte(passHash)
	return a
}

type Claims struct {
	Sub  string `json:"sub"`
	Role string `json:"role"` // "reviewer", "student" or "admin"
	jwt.RegisteredClaims
}

func (a *AuthService) IssueJWT(sub, role string) (string, error) {
	now := time.Now()
	claims := &Claims{
		Sub:  sub,
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "examextract-offline",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(8 * time.Hour)),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(a.hmac)
}

func (a *AuthService) Parse(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return a.hmac, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	c, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	return c, nil
}

// checkAdmin compares against the configured bcrypt hash.
func (a *AuthService) checkAdmin(user, pass string) bool {
	if a.adminUser == "" || user != a.adminUser || len(a.adminPassHash) == 0 {
		return false
	}
	return bcrypt.CompareHashAndPassword(a.adminPassHash, []byte(pass)) == nil
}

// POST /auth/login  { "username": "...", "password": "...", "role": "reviewer|student" }
func LoginHandler(a *AuthService) http.HandlerFunc {
	// dev logins: username == password for reviewer/student; admin is bcrypt-checked
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Username string `json:"username"`
			Password string `json:"password"`
			Role     string `json:"role"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		role := req.Role
		switch {
		case a.checkAdmin(req.Username, req.Password):
			role = "admin"
		case req.Username != "" && req.Username == req.Password && (role == "reviewer" || role == "student"):
		default:
			http.Error(w, "invalid credentials", http.StatusUnauthorized)
			return
		}
		tok, err := a.IssueJWT(req.Username, role)
		if err != nil {
			http.Error(w, "issue token", 500)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": tok, "role": role})
	}
}

// JWTMiddleware validates the bearer token and puts subject and role in the
// request context.
func JWTMiddleware(a *AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := r.Header.Get("Authorization")
			if !strings.HasPrefix(h, "Bearer ") {
				http.Error(w, "missing bearer", http.StatusUnauthorized)
				return
			}
			c, err := a.Parse(strings.TrimPrefix(h, "Bearer "))
			if err != nil {
				http.Error(w, "bad token", http.StatusUnauthorized)
				return
			}
			ctx := WithSubject(r.Context(), c.Sub)
			ctx = rbac.WithRole(ctx, c.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
