package usecase

import (
	authdomain "rolodex-backend/internal/auth/domain"
	authdto "rolodex-backend/internal/auth/dto"
)

// AuthUsecase defines authentication operations
type AuthUsecase interface {
	Register(req *authdto.RegisterRequest) (*authdto.TokenResponse, error)
	Login(req *authdto.LoginRequest) (*authdto.TokenResponse, error)
	RefreshToken(refreshToken string) (*authdto.TokenResponse, error)
	Logout(refreshToken string) error
	ValidateToken(tokenString string) (*authdomain.User, error)
}
