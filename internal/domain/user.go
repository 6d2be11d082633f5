package domain

import "github.com/google/uuid"

// User is the authenticated identity a session is scoped to.
type User struct {
	ID         uuid.UUID `json:"id"`
	Username   string    `json:"username"`
	AvatarName string    `json:"avatar_name"`
	Email      string    `json:"email"`
}
