package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
)

type UserRole string

const (
	RoleStudent    UserRole = "student"
	RoleAlumni     UserRole = "alumni"
	RoleAdmin      UserRole = "admin"
	RoleSuperAdmin UserRole = "superadmin"
)

// HasAdminRights reports whether the role may use the admin panel operations.
func (r UserRole) HasAdminRights() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// AlumniProfile is the alumni-only payload. It is stored as a JSONB
// side-structure on the users row and is nil for every other role.
type AlumniProfile struct {
	Profile    string `json:"profile"`
	University string `json:"university"`
	Occupation string `json:"occupation"`
	Industry   string `json:"industry"`
	Employer   string `json:"employer"`
}

type User struct {
	ID           uint     `json:"id" gorm:"primaryKey"`
	Name         string   `json:"name" gorm:"not null;size:100" validate:"required,max=100"`
	Email        string   `json:"email" gorm:"uniqueIndex;not null;size:255" validate:"required,email"`
	PasswordHash string   `json:"-" gorm:"not null;size:255"`
	Role         UserRole `json:"role" gorm:"not null;index;size:20"`
	Approved     bool     `json:"approved" gorm:"not null;default:false;index"`

	SchoolID uint `json:"school_id" gorm:"not null;index"`

	// Alumni-only payload, null for other roles.
	Alumni datatypes.JSONType[*AlumniProfile] `json:"alumni,omitempty" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	School School  `json:"school,omitempty" gorm:"foreignKey:SchoolID"`
	Videos []Video `json:"videos,omitempty" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

func (User) TableName() string {
	return "users"
}

// SetPassword hashes pwd with bcrypt and stores the hash. The plaintext is
// never persisted.
func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	return nil
}

// CheckPassword compares pwd against the stored hash.
func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(pwd))
}

// AlumniPayload returns the alumni side-structure, or nil for non-alumni users.
func (u *User) AlumniPayload() *AlumniProfile {
	if u.Role != RoleAlumni {
		return nil
	}
	return u.Alumni.Data()
}
