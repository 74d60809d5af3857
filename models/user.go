package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

// Role enum
type Role string

const (
	Citizen   Role = "citizen"
	Volunteer Role = "volunteer"
	Admin     Role = "admin"
)

// SignupAllowed reports whether r may be chosen at signup. Admins are provisioned out of band.
func (r Role) SignupAllowed() bool {
	return r == Citizen || r == Volunteer
}

type User struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name           string             `bson:"name" json:"name"`
	Email          string             `bson:"email" json:"email"`
	Password       string             `bson:"password,omitempty" json:"-"`
	Role           Role               `bson:"role" json:"role"`
	TotalReports   int64              `bson:"totalReports" json:"totalReports"`
	LastReportDate *time.Time         `bson:"lastReportDate,omitempty" json:"lastReportDate,omitempty"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
}

func (u *User) HashPassword() error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hashed)
	return nil
}

func (u *User) ComparePassword(candidate string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(candidate))
	return err == nil
}
