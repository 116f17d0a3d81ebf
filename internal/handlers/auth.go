package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/craftday/craftday-api/internal/authz"
	"github.com/craftday/craftday-api/internal/models"
	"github.com/craftday/craftday-api/internal/repository"
	"github.com/golang-jwt/jwt/v4"
	"github.com/rs/zerolog"
)

type AuthHandler struct {
	userRepo  repository.UserRepository
	jwtSecret string
	logger    zerolog.Logger
}

type signupRequest struct {
	TenantID  string `json:"tenant_id"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func NewAuthHandler(userRepo repository.UserRepository, jwtSecret string, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		userRepo:  userRepo,
		jwtSecret: jwtSecret,
		logger:    logger,
	}
}

func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		http.Error(w, "Email and password are required", http.StatusBadRequest)
		return
	}

	user, err := h.userRepo.CreateUser(req.TenantID, req.Email, req.Password, req.FirstName, req.LastName, []models.UserRole{models.RoleOwner})
	if err != nil {
		if strings.Contains(err.Error(), "duplicate") {
			http.Error(w, "User already exists", http.StatusConflict)
			return
		}
		http.Error(w, "Failed to create user: "+err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(models.User{ID: user.ID, Email: user.Email, TenantID: user.TenantID, Roles: user.Roles, IsActive: user.IsActive})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.userRepo.AuthenticateUser(req.Email, req.Password)
	if err != nil {
		http.Error(w, "Authentication failed", http.StatusUnauthorized)
		return
	}

	rolesClaim := make([]string, 0, len(user.Roles))
	for _, role := range user.Roles {
		rolesClaim = append(rolesClaim, string(role))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   user.ID,
		"tid":   user.TenantID,
		"role":  string(models.HighestRole(user.Roles)),
		"roles": rolesClaim,
		"exp":   time.Now().Add(24 * time.Hour).Unix(),
	})
	tokenString, err := token.SignedString([]byte(h.jwtSecret))
	if err != nil {
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"token": tokenString})
}

// JWTMiddleware authenticates requests and stashes tenant, user, and
// role identity on the context.
func (h *AuthHandler) JWTMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if auth == "" {
			http.Error(w, "Authorization header required", http.StatusUnauthorized)
			return
		}
		parts := strings.SplitN(auth, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			http.Error(w, "Invalid authorization format", http.StatusUnauthorized)
			return
		}
		token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(h.jwtSecret), nil
		})
		if err != nil || !token.Valid {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}
		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok || !claims.VerifyExpiresAt(time.Now().Unix(), true) {
			http.Error(w, "Token expired", http.StatusUnauthorized)
			return
		}
		tenantID, ok := claims["tid"].(string)
		if !ok || tenantID == "" {
			http.Error(w, "Missing token claim", http.StatusUnauthorized)
			return
		}
		userID, _ := claims["sub"].(string)
		roles, ok := rolesFromClaims(claims)
		if !ok {
			http.Error(w, "Missing role claim", http.StatusUnauthorized)
			return
		}

		ctx := authz.WithIdentity(r.Context(), tenantID, userID, roles)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func rolesFromClaims(claims jwt.MapClaims) ([]models.UserRole, bool) {
	var roles []models.UserRole
	switch v := claims["roles"].(type) {
	case []interface{}:
		for _, val := range v {
			str, ok := val.(string)
			if !ok {
				return nil, false
			}
			roles = append(roles, models.UserRole(str))
		}
	case string:
		roles = []models.UserRole{models.UserRole(v)}
	default:
		if single, ok := claims["role"].(string); ok && single != "" {
			roles = []models.UserRole{models.UserRole(single)}
		}
	}
	roles = models.EnsureDefaultRole(models.NormalizeRoles(roles))
	if !models.IsValidRoleList(roles) {
		return nil, false
	}
	return roles, true
}
