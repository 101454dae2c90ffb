package models

import (
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type Role string

const (
	RoleStudent Role = "student"
	RoleAdmin   Role = "admin"
)

type AdminType string

const (
	AdminTypeChecking      AdminType = "checking"
	AdminTypeDriver        AdminType = "driver"
	AdminTypeAdministrator AdminType = "administrator"
)

// ValidAdminType reports whether t is one of the known admin subtypes.
func ValidAdminType(t string) bool {
	switch AdminType(t) {
	case AdminTypeChecking, AdminTypeDriver, AdminTypeAdministrator:
		return true
	}
	return false
}

type User struct {
	gorm.Model
	Name         string `gorm:"column:name;not null"`
	Email        string `gorm:"column:email;unique;not null"`
	Phone        string `gorm:"column:phone"`
	Password     string `gorm:"-"` // Temporary field for password handling
	PasswordHash string `gorm:"column:password_hash;not null"`
	Role         string `gorm:"column:role;not null"`
}

// TableName specifies the table name
func (User) TableName() string {
	return "users"
}

func (u *User) HashPassword() error {
	if u.Password == "" {
		return nil
	}
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hashedPassword)
	return nil
}

func (u *User) CheckPassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
}

// Admin is the subtype row created alongside a user registered with the admin
// role. AdminType distinguishes checking staff, drivers and administrators.
type Admin struct {
	gorm.Model
	UserID    uint   `json:"userId" gorm:"column:user_id;not null;index"`
	AdminType string `json:"adminType" gorm:"column:admin_type;not null"`
	Name      string `json:"name" gorm:"column:name;not null"`
	Phone     string `json:"phone" gorm:"column:phone"`
	User      *User  `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

// TableName specifies the table name
func (Admin) TableName() string {
	return "admins"
}
