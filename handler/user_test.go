package handler

import (
	"context"
	"crm/entity"
	"crm/pkg/errutil"
	"crm/pkg/goutil"
	"crm/repo"
	"net/http"
	"testing"
)

func TestSignUp(t *testing.T) {
	var createdUser *entity.User

	userRepo := &mockUserRepo{
		getByEmail: func(_ context.Context, _ string) (*entity.User, error) {
			return nil, repo.ErrUserNotFound
		},
		create: func(_ context.Context, user *entity.User) (uint64, error) {
			createdUser = user
			return 1, nil
		},
	}

	sessionRepo := &mockSessionRepo{
		create: func(_ context.Context, _ *entity.Session) (uint64, error) {
			return 1, nil
		},
	}

	h := NewUserHandler(userRepo, sessionRepo)

	req := &SignUpRequest{
		Email:    goutil.String("Jane@Example.com"),
		Password: goutil.String("secret-password"),
	}
	res := new(SignUpResponse)

	if err := h.SignUp(context.Background(), req, res); err != nil {
		t.Fatalf("sign up error: %v", err)
	}

	if createdUser.GetEmail() != "jane@example.com" {
		t.Errorf("email should be lowercased, got %s", createdUser.GetEmail())
	}

	// display name defaults to the email local part
	if createdUser.GetDisplayName() != "jane" {
		t.Errorf("unexpected display name: %s", createdUser.GetDisplayName())
	}

	if createdUser.GetPassword() == "secret-password" {
		t.Errorf("password should be hashed")
	}

	if res.Session.GetToken() == "" {
		t.Errorf("sign up should open a session")
	}
}

func TestSignUpExistingEmail(t *testing.T) {
	userRepo := &mockUserRepo{
		getByEmail: func(_ context.Context, _ string) (*entity.User, error) {
			return &entity.User{ID: goutil.Uint64(1)}, nil
		},
	}

	h := NewUserHandler(userRepo, &mockSessionRepo{})

	req := &SignUpRequest{
		Email:    goutil.String("jane@example.com"),
		Password: goutil.String("secret-password"),
	}

	err := h.SignUp(context.Background(), req, new(SignUpResponse))
	if code, _ := errutil.ParseHttpError(err); code != http.StatusConflict {
		t.Errorf("got code %d, want %d", code, http.StatusConflict)
	}
}

func TestLogIn(t *testing.T) {
	user, err := entity.NewUser("jane@example.com", "secret-password", "Jane")
	if err != nil {
		t.Fatalf("new user error: %v", err)
	}
	user.ID = goutil.Uint64(1)

	userRepo := &mockUserRepo{
		getByEmail: func(_ context.Context, email string) (*entity.User, error) {
			if email != "jane@example.com" {
				return nil, repo.ErrUserNotFound
			}
			return user, nil
		},
	}

	sessionRepo := &mockSessionRepo{
		create: func(_ context.Context, _ *entity.Session) (uint64, error) {
			return 1, nil
		},
	}

	h := NewUserHandler(userRepo, sessionRepo)

	req := &LogInRequest{
		Email:    goutil.String("Jane@Example.com"),
		Password: goutil.String("secret-password"),
	}
	res := new(LogInResponse)

	if err := h.LogIn(context.Background(), req, res); err != nil {
		t.Fatalf("log in error: %v", err)
	}

	if res.Session.GetToken() == "" {
		t.Errorf("log in should open a session")
	}
}

func TestLogInBadCredentials(t *testing.T) {
	user, err := entity.NewUser("jane@example.com", "secret-password", "Jane")
	if err != nil {
		t.Fatalf("new user error: %v", err)
	}

	userRepo := &mockUserRepo{
		getByEmail: func(_ context.Context, email string) (*entity.User, error) {
			if email != "jane@example.com" {
				return nil, repo.ErrUserNotFound
			}
			return user, nil
		},
	}

	h := NewUserHandler(userRepo, &mockSessionRepo{})

	// wrong password and unknown email surface identically
	for _, req := range []*LogInRequest{
		{
			Email:    goutil.String("jane@example.com"),
			Password: goutil.String("wrong-password"),
		},
		{
			Email:    goutil.String("ghost@example.com"),
			Password: goutil.String("secret-password"),
		},
	} {
		err := h.LogIn(context.Background(), req, new(LogInResponse))
		if code, _ := errutil.ParseHttpError(err); code != http.StatusUnauthorized {
			t.Errorf("got code %d, want %d", code, http.StatusUnauthorized)
		}
	}
}

func TestLogOut(t *testing.T) {
	var deletedUserID uint64

	sessionRepo := &mockSessionRepo{
		deleteByUserID: func(_ context.Context, userID uint64) error {
			deletedUserID = userID
			return nil
		},
	}

	h := NewUserHandler(&mockUserRepo{}, sessionRepo)

	req := &LogOutRequest{
		ContextInfo: testContextInfo(7),
	}

	if err := h.LogOut(context.Background(), req, new(LogOutResponse)); err != nil {
		t.Fatalf("log out error: %v", err)
	}

	if deletedUserID != 7 {
		t.Errorf("unexpected user id: %d", deletedUserID)
	}
}
