package auth

import (
	"context"
	"log"

	"github.com/ZClee128/xieka/internal/domain"
	"github.com/google/uuid"
)

const (
	testEmail = "test@crabgift.com"
	testCode  = "888888"
)

var testUserID = uuid.MustParse("e621e1f8-c36c-495a-93fc-0c247a3e6e5f")

// MockVerifier accepts a single fixed test account. It stands in for a real
// verification service during development and demos.
type MockVerifier struct{}

func NewMockVerifier() *MockVerifier {
	return &MockVerifier{}
}

func (v *MockVerifier) RequestCode(_ context.Context, email string) error {
	log.Printf("sending verification code to %s", email)
	return nil
}

func (v *MockVerifier) Verify(_ context.Context, email, code string) (domain.User, error) {
	if email != testEmail || code != testCode {
		return domain.User{}, ErrInvalidCode
	}
	return domain.User{
		ID:         testUserID,
		Username:   "Crab Gift Expert 88",
		AvatarName: "person.crop.circle.fill",
		Email:      email,
	}, nil
}
