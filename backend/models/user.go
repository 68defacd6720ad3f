package models

import "gorm.io/gorm"

// System roles. The role names are fixed strings shared with the web frontend.
const (
	RoleAdmin   = "Admin"
	RoleTeacher = "Docente"
	RoleStudent = "Estudiante"
)

type User struct {
	gorm.Model
	Email        string `gorm:"unique;not null"`
	PasswordHash string `gorm:"not null"`
	FirstName    string
	LastName     string
	Address      string
	City         string
	Role         string `gorm:"default:Estudiante"` // Admin, Docente, Estudiante
}

func (u *User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}
