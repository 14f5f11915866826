package domain

import "time"

type User struct {
	ID           string    `bson:"_id" json:"id"`
	Name         string    `bson:"name" json:"name"`
	Email        string    `bson:"email" json:"email"`
	PasswordHash string    `bson:"password_hash" json:"-"`
	IsAdmin      bool      `bson:"is_admin" json:"isAdmin"`
	CreatedAt    time.Time `bson:"created_at" json:"createdAt"`
}

func (u *User) Contact() *OwnerContact {
	return &OwnerContact{ID: u.ID, Name: u.Name, Email: u.Email}
}

// Caller is the authenticated identity behind a request.
type Caller struct {
	UserID  string
	IsAdmin bool
}
