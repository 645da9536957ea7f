package model

import "time"

// User mirrors the `users` table.  ID is provider-prefixed
// ("google:1093...", "local:<uuid>", "dev:developer") so identities from
// different providers never collide.  Rows are upserted on every login.
type User struct {
	ID              string    `db:"id" json:"id"`
	Email           *string   `db:"email" json:"email"`
	FirstName       *string   `db:"first_name" json:"firstName"`
	LastName        *string   `db:"last_name" json:"lastName"`
	ProfileImageURL *string   `db:"profile_image_url" json:"profileImageUrl"`
	AuthProvider    string    `db:"auth_provider" json:"authProvider"`
	CreatedAt       time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time `db:"updated_at" json:"updatedAt"`
}
