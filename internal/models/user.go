package models

import "time"

// User represents an account holder. Transactions and budgets hang off
// the user and are removed together with it.
type User struct {
	Base
	Username           string     `gorm:"not null" json:"username"`
	Email              string     `gorm:"uniqueIndex;not null" json:"email"`
	Password           string     `gorm:"not null" json:"-"`
	ResetTokenHash     string     `gorm:"size:64" json:"-"`
	ResetTokenExpires  *time.Time `json:"-"`

	Transactions []Transaction `gorm:"foreignKey:UserID" json:"transactions,omitempty"`
	Budgets      []Budget      `gorm:"foreignKey:UserID" json:"budgets,omitempty"`
}
