package handler

import (
	"context"
	"crm/entity"
	"crm/pkg/errutil"
	"crm/pkg/goutil"
	"crm/pkg/validator"
	"crm/repo"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"
)

type UserHandler interface {
	SignUp(ctx context.Context, req *SignUpRequest, res *SignUpResponse) error
	LogIn(ctx context.Context, req *LogInRequest, res *LogInResponse) error
	LogOut(ctx context.Context, req *LogOutRequest, res *LogOutResponse) error
}

type userHandler struct {
	userRepo    repo.UserRepo
	sessionRepo repo.SessionRepo
}

func NewUserHandler(userRepo repo.UserRepo, sessionRepo repo.SessionRepo) UserHandler {
	return &userHandler{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
	}
}

type SignUpRequest struct {
	Email       *string `json:"email,omitempty"`
	Password    *string `json:"password,omitempty"`
	DisplayName *string `json:"display_name,omitempty"`
}

func (r *SignUpRequest) GetEmail() string {
	if r != nil && r.Email != nil {
		return *r.Email
	}
	return ""
}

func (r *SignUpRequest) GetPassword() string {
	if r != nil && r.Password != nil {
		return *r.Password
	}
	return ""
}

func (r *SignUpRequest) GetDisplayName() string {
	if r != nil && r.DisplayName != nil {
		return *r.DisplayName
	}
	return ""
}

type SignUpResponse struct {
	User    *entity.User    `json:"user,omitempty"`
	Session *entity.Session `json:"session,omitempty"`
}

var SignUpValidator = validator.MustForm(map[string]validator.Validator{
	"email":        EmailValidator(false),
	"password":     PasswordValidator(false),
	"display_name": DisplayNameValidator(true),
})

func (h *userHandler) SignUp(ctx context.Context, req *SignUpRequest, res *SignUpResponse) error {
	if err := SignUpValidator.Validate(req); err != nil {
		return errutil.ValidationError(err)
	}

	email := strings.ToLower(req.GetEmail())

	_, err := h.userRepo.GetByEmail(ctx, email)
	if err == nil {
		return errutil.ConflictError(errors.New("user already exists"))
	}

	if !errors.Is(err, repo.ErrUserNotFound) {
		log.Ctx(ctx).Error().Msgf("get user error: %v", err)
		return err
	}

	displayName := req.GetDisplayName()
	if displayName == "" {
		displayName = strings.Split(email, "@")[0]
	}

	user, err := entity.NewUser(email, req.GetPassword(), displayName)
	if err != nil {
		log.Ctx(ctx).Error().Msgf("new user error: %v", err)
		return err
	}

	id, err := h.userRepo.Create(ctx, user)
	if err != nil {
		log.Ctx(ctx).Error().Msgf("create user error: %v", err)
		return err
	}
	user.ID = goutil.Uint64(id)

	sess, err := entity.NewSession(user.GetID())
	if err != nil {
		log.Ctx(ctx).Error().Msgf("new session error: %v", err)
		return err
	}

	sessID, err := h.sessionRepo.Create(ctx, sess)
	if err != nil {
		log.Ctx(ctx).Error().Msgf("create session error: %v", err)
		return err
	}
	sess.ID = goutil.Uint64(sessID)

	res.User = user
	res.Session = sess

	return nil
}

type LogInRequest struct {
	Email    *string `json:"email,omitempty"`
	Password *string `json:"password,omitempty"`
}

func (r *LogInRequest) GetEmail() string {
	if r != nil && r.Email != nil {
		return *r.Email
	}
	return ""
}

func (r *LogInRequest) GetPassword() string {
	if r != nil && r.Password != nil {
		return *r.Password
	}
	return ""
}

type LogInResponse struct {
	User    *entity.User    `json:"user,omitempty"`
	Session *entity.Session `json:"session,omitempty"`
}

var LogInValidator = validator.MustForm(map[string]validator.Validator{
	"email":    &validator.String{},
	"password": &validator.String{},
})

func (h *userHandler) LogIn(ctx context.Context, req *LogInRequest, res *LogInResponse) error {
	if err := LogInValidator.Validate(req); err != nil {
		return errutil.ValidationError(err)
	}

	stdErr := errutil.UnauthorizedError(errors.New("incorrect email or password"))

	user, err := h.userRepo.GetByEmail(ctx, strings.ToLower(req.GetEmail()))
	if err != nil {
		log.Ctx(ctx).Error().Msgf("get user error: %v", err)
		return stdErr
	}

	if !user.ComparePassword(req.GetPassword()) {
		return stdErr
	}

	sess, err := entity.NewSession(user.GetID())
	if err != nil {
		log.Ctx(ctx).Error().Msgf("new session error: %v", err)
		return err
	}

	id, err := h.sessionRepo.Create(ctx, sess)
	if err != nil {
		log.Ctx(ctx).Error().Msgf("create session error: %v", err)
		return err
	}
	sess.ID = goutil.Uint64(id)

	res.User = user
	res.Session = sess

	return nil
}

type LogOutRequest struct {
	ContextInfo
}

type LogOutResponse struct{}

var LogOutValidator = validator.MustForm(map[string]validator.Validator{
	"ContextInfo": ContextInfoValidator,
})

func (h *userHandler) LogOut(ctx context.Context, req *LogOutRequest, _ *LogOutResponse) error {
	if err := LogOutValidator.Validate(req); err != nil {
		return errutil.ValidationError(err)
	}

	if err := h.sessionRepo.DeleteByUserID(ctx, req.GetUserID()); err != nil {
		log.Ctx(ctx).Error().Msgf("delete session err: %v", err)
		return err
	}

	return nil
}
