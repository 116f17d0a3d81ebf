package repository

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/craftday/craftday-api/internal/models"
	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"
)

type UserRepository interface {
	CreateUser(tenantID, email, password, firstName, lastName string, roles []models.UserRole) (models.User, error)
	AuthenticateUser(email, password string) (models.User, error)
	GetUserByID(userID string) (models.User, error)
	ListUsersByTenant(tenantID string) ([]models.User, error)
}

type userRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{db: db}
}

func (u *userRepository) CreateUser(tenantID, email, password, firstName, lastName string, roles []models.UserRole) (models.User, error) {
	roles = models.EnsureDefaultRole(models.NormalizeRoles(roles))
	if !models.IsValidRoleList(roles) {
		return models.User{}, errors.New("invalid roles")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, err
	}

	user := models.User{
		TenantID:     tenantID,
		Email:        strings.ToLower(strings.TrimSpace(email)),
		FirstName:    strings.TrimSpace(firstName),
		LastName:     strings.TrimSpace(lastName),
		PasswordHash: string(hash),
		IsActive:     true,
		Roles:        roles,
	}

	const query = `
		INSERT INTO tenant.users (tenant_id, email, first_name, last_name, password_hash, is_active, roles)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`
	err = u.db.QueryRow(query, user.TenantID, user.Email, user.FirstName, user.LastName,
		user.PasswordHash, user.IsActive, pq.Array(rolesToStrings(user.Roles))).Scan(&user.ID)
	if err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (u *userRepository) AuthenticateUser(email, password string) (models.User, error) {
	user, err := u.getUser("email = $1", strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, errors.New("invalid credentials")
		}
		return models.User{}, err
	}
	if !user.IsActive {
		return models.User{}, errors.New("user is inactive")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return models.User{}, errors.New("invalid credentials")
	}
	return user, nil
}

func (u *userRepository) GetUserByID(userID string) (models.User, error) {
	return u.getUser("id = $1", userID)
}

func (u *userRepository) ListUsersByTenant(tenantID string) ([]models.User, error) {
	const query = `
		SELECT id, tenant_id, email, first_name, last_name, password_hash, is_active, roles
		FROM tenant.users
		WHERE tenant_id = $1 AND deleted_at IS NULL
		ORDER BY email`
	rows, err := u.db.Query(query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var user models.User
		var roles pq.StringArray
		if err := rows.Scan(&user.ID, &user.TenantID, &user.Email, &user.FirstName,
			&user.LastName, &user.PasswordHash, &user.IsActive, &roles); err != nil {
			return nil, err
		}
		user.Roles = models.EnsureDefaultRole(models.NormalizeRoles(stringsToRoles(roles)))
		users = append(users, user)
	}
	return users, rows.Err()
}

func (u *userRepository) getUser(where string, arg interface{}) (models.User, error) {
	query := `
		SELECT id, tenant_id, email, first_name, last_name, password_hash, is_active, roles
		FROM tenant.users
		WHERE deleted_at IS NULL AND ` + where
	var user models.User
	var roles pq.StringArray
	err := u.db.QueryRow(query, arg).Scan(&user.ID, &user.TenantID, &user.Email,
		&user.FirstName, &user.LastName, &user.PasswordHash, &user.IsActive, &roles)
	if err != nil {
		return models.User{}, err
	}
	user.Roles = models.EnsureDefaultRole(models.NormalizeRoles(stringsToRoles(roles)))
	if !models.IsValidRoleList(user.Roles) {
		return models.User{}, errors.New("user has invalid roles")
	}
	return user, nil
}

func rolesToStrings(roles []models.UserRole) []string {
	out := make([]string, len(roles))
	for i, r := range roles {
		out[i] = string(r)
	}
	return out
}

func stringsToRoles(raw []string) []models.UserRole {
	out := make([]models.UserRole, len(raw))
	for i, r := range raw {
		out[i] = models.UserRole(r)
	}
	return out
}
