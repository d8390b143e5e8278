package users

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

type User struct {
	UserID        int64      `json:"user_id" gorm:"primaryKey;autoIncrement"`
	Email         string     `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash  string     `json:"-" gorm:"not null"`
	PasswordPlain *string    `json:"-"` // hackathon posture, load-test accounts only
	FirstName     string     `json:"first_name" gorm:"not null"`
	Surname       string     `json:"surname" gorm:"not null"`
	Birthday      *time.Time `json:"birthday,omitempty"`
	RegisteredAt  time.Time  `json:"registered_at" gorm:"autoCreateTime"`
	IsActive      bool       `json:"is_active" gorm:"not null;default:true"`
	LastLoggedIn  time.Time  `json:"last_logged_in"`
}

func (User) TableName() string { return "users" }

// CheckPassword verifies a presented password. Plain-text comparison is
// tried first; accounts without a plain password fall back to bcrypt.
func (u *User) CheckPassword(password string) bool {
	if u.PasswordPlain != nil {
		return *u.PasswordPlain == password
	}
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// Principal is the authenticated identity attached to request context.
type Principal struct {
	UserID    int64  `json:"user_id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	Surname   string `json:"surname"`
}
