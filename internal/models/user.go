package models

import "time"

// User represents an account holder. Password always holds a bcrypt hash.
type User struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name      string    `json:"name" gorm:"type:varchar(100);not null"`
	Email     string    `json:"email" gorm:"uniqueIndex;type:varchar(255);not null"`
	Age       int       `json:"age" gorm:"not null;default:0"`
	Password  string    `json:"-" gorm:"type:varchar(255);not null"`
	Avatar    []byte    `json:"-"`
	Tokens    []Token   `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Tasks     []Task    `json:"-" gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Token is one active session of a user. A user holds one per logged-in device.
type Token struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID    string    `json:"-" gorm:"index;type:varchar(36);not null"`
	Token     string    `json:"token" gorm:"index;type:varchar(512);not null"`
	CreatedAt time.Time `json:"createdAt"`
}

// TableName keeps the token list next to users in the schema.
func (Token) TableName() string {
	return "user_tokens"
}

// HasToken reports whether raw is one of the user's loaded session tokens.
func (u *User) HasToken(raw string) bool {
	for _, t := range u.Tokens {
		if t.Token == raw {
			return true
		}
	}
	return false
}
