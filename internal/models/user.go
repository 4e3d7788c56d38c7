package models

import (
	"time"

	"github.com/campusrate/backend/internal/roles"
	"github.com/golang-jwt/jwt/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is the account document. At most one of the role account references is
// set; the others stay nil.
type User struct {
	ID                   primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Email                string               `bson:"email" json:"email"`
	HashedPassword       string               `bson:"hashedPassword" json:"-"`
	AdminAccount         *primitive.ObjectID  `bson:"adminAccount" json:"admin_account,omitempty"`
	ProfessorAccount     *primitive.ObjectID  `bson:"professorAccount" json:"professor_account,omitempty"`
	StudentAccount       *primitive.ObjectID  `bson:"studentAccount" json:"student_account,omitempty"`
	BookmarkedProfessors []primitive.ObjectID `bson:"bookMarkedProfessor,omitempty" json:"bookmarked_professors,omitempty"`
	CreatedAt            time.Time            `bson:"createdAt" json:"created_at"`
	UpdatedAt            time.Time            `bson:"updatedAt" json:"updated_at"`
}

// Role derives the caller's role from which account reference is set.
func (u *User) Role() roles.Role {
	switch {
	case u.AdminAccount != nil:
		return roles.Admin
	case u.ProfessorAccount != nil:
		return roles.Professor
	default:
		return roles.Student
	}
}

// JwtCustomClaims are custom claims extending standard jwt.RegisteredClaims.
// AccountID is the role account (student/professor/admin) the user acts as.
type JwtCustomClaims struct {
	UserID    string     `json:"user_id"`
	AccountID string     `json:"account_id"`
	Role      roles.Role `json:"role"`
	jwt.RegisteredClaims
}
