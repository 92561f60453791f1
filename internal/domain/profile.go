package domain

import "time"

// Profile Model
type Profile struct {
	ID          uint        `gorm:"primaryKey" json:"id"`                            // Primary key
	UserID      uint        `gorm:"uniqueIndex;not null" json:"user_id"`             // One profile per user
	Bio         string      `gorm:"type:text" json:"bio"`                            // Free text
	PhoneNumber string      `gorm:"size:32" json:"phone_number"`                     // Phone number
	Address     Address     `gorm:"embedded;embeddedPrefix:address_" json:"address"` // Postal address
	Birthdate   *time.Time  `json:"birthdate,omitempty"`                             // Birth date
	Preferences Preferences `gorm:"type:json;serializer:json" json:"preferences"`    // User preferences
	CreatedAt   time.Time   `json:"created_at"`                                      // Creation time
	UpdatedAt   time.Time   `json:"updated_at"`                                      // Last update time
}

// Preferences holds shopping and notification preferences
type Preferences struct {
	FavoriteCategories []string      `json:"favorite_categories"` // Preferred categories
	Notifications      Notifications `json:"notifications"`       // Notification channels
}

// Notifications toggles notification channels
type Notifications struct {
	Email bool `json:"email"` // Email notifications
	Push  bool `json:"push"`  // Push notifications
}

// DefaultPreferences returns the preferences of a fresh profile
func DefaultPreferences() Preferences {
	return Preferences{
		FavoriteCategories: []string{},
		Notifications:      Notifications{Email: true, Push: true},
	}
}
