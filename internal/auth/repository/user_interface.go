package repository

import (
	authdomain "rolodex-backend/internal/auth/domain"
)

// UserRepository defines data access methods for users
type UserRepository interface {
	Create(user *authdomain.User) error
	Update(user *authdomain.User) error
	FindByEmail(email string) (*authdomain.User, error)
	FindByID(id string) (*authdomain.User, error)
	SaveRefreshToken(token *authdomain.RefreshToken) error
	FindRefreshToken(token string) (*authdomain.RefreshToken, error)
	DeleteRefreshToken(token string) error
}
