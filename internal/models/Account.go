package models

import "gorm.io/gorm"

// Account is a registered user. AccountID is the public login identifier and never
// changes after registration.
type Account struct {
	gorm.Model
	AccountID    string `json:"account_id" gorm:"size:80;not null;unique"`
	PasswordHash string `json:"-" gorm:"size:120;not null"`
	Nickname     string `json:"nickname" gorm:"size:80;index"`
	Gender       string `json:"gender" gorm:"size:10"`
}
