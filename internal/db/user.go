package db

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// User 是后台管理员账号
type User struct {
	gorm.Model
	Username string `gorm:"unique;not null"`
	Password string `gorm:"not null"`
}

// ErrEmptyCredentials 表示用户名或密码为空。
var ErrEmptyCredentials = errors.New("username and password are required")

// EnsureUser 若提供的用户名与密码均非空且账号不存在，则创建一个 bcrypt 哈希的用户。
func EnsureUser(username, password string) error {
	trimmedUser := strings.TrimSpace(username)
	trimmedPassword := strings.TrimSpace(password)
	if trimmedUser == "" || trimmedPassword == "" {
		return nil
	}

	if DB == nil {
		return errors.New("database not initialized")
	}

	var existing User
	if err := DB.Where("username = ?", trimmedUser).First(&existing).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		return SetPassword(DB, trimmedUser, trimmedPassword)
	}

	return nil
}

// SetPassword 创建账号，或重置已有账号的密码。
func SetPassword(gdb *gorm.DB, username, password string) error {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return ErrEmptyCredentials
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	var user User
	err = gdb.Where("username = ?", username).First(&user).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return gdb.Create(&User{Username: username, Password: string(hashed)}).Error
	case err != nil:
		return err
	}
	return gdb.Model(&user).Update("password", string(hashed)).Error
}
