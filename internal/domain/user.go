package domain

import "time"

// Roles
const (
	RoleUser  = "user"  // Regular customer
	RoleAdmin = "admin" // Administrator
)

// User Model
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`                                   // Primary key
	Username     string    `gorm:"size:30;uniqueIndex;not null" json:"username"`           // Unique username
	Email        string    `gorm:"size:255;uniqueIndex;not null" json:"email"`             // Unique email
	Password     string    `gorm:"not null" json:"-"`                                      // Hashed password, never serialized
	Name         string    `json:"name"`                                                   // Display name
	ProfileImage string    `json:"profile_image"`                                          // URL of the profile image
	Role         string    `gorm:"size:16;default:user" json:"role"`                       // Role: user or admin
	Cart         *Cart     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"` // One-to-one relationship with Cart
	CreatedAt    time.Time `json:"created_at"`                                             // Creation time
	UpdatedAt    time.Time `json:"updated_at"`                                             // Last update time
}

// IsAdmin reports whether the user has the admin role
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// Identity returns a copy of the user without secret fields, suitable for
// attaching to a request
func (u User) Identity() *User {
	u.Password = "" // Drop the password hash
	u.Cart = nil    // Do not carry relations
	return &u
}
