package service

import (
	"errors"
	"strings"

	"github.com/gmatprep/internal/db"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AuthService 校验后台管理员的用户名与密码。
type AuthService struct {
	db *gorm.DB
}

// NewAuthService 构造 AuthService。
func NewAuthService(gdb *gorm.DB) *AuthService {
	return &AuthService{db: gdb}
}

// Authenticate returns the user when password matches its bcrypt hash.
func (s *AuthService) Authenticate(username, password string) (*db.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	var user db.User
	if err := s.db.Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}
