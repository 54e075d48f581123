package users

import "time"

// User is the public projection of an account. It never carries the password hash.
type User struct {
	ID        int64     `json:"id,string"`
	Name      string    `json:"name"`
	Email     *string   `json:"email"`
	PhoneE164 string    `json:"phone_e164"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}
