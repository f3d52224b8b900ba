package repo

import (
	"context"
	"crm/entity"
	"crm/pkg/errutil"
	"crm/pkg/goutil"
	"errors"

	"gorm.io/gorm"
)

var (
	ErrUserNotFound = errutil.NotFoundError(errors.New("user not found"))
)

type User struct {
	ID          *uint64 `json:"id,omitempty"`
	Email       *string `json:"email,omitempty"`
	Password    *string `json:"password,omitempty"`
	DisplayName *string `json:"display_name,omitempty"`
	Status      *uint32 `json:"status,omitempty"`
	CreateTime  *uint64 `json:"create_time,omitempty"`
	UpdateTime  *uint64 `json:"update_time,omitempty"`
}

func (m *User) TableName() string {
	return "user_tab"
}

func (m *User) GetID() uint64 {
	if m != nil && m.ID != nil {
		return *m.ID
	}
	return 0
}

func (m *User) GetStatus() uint32 {
	if m != nil && m.Status != nil {
		return *m.Status
	}
	return 0
}

type UserRepo interface {
	Create(ctx context.Context, user *entity.User) (uint64, error)
	GetByID(ctx context.Context, userID uint64) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
}

type userRepo struct {
	baseRepo BaseRepo
}

func NewUserRepo(_ context.Context, baseRepo BaseRepo) UserRepo {
	return &userRepo{baseRepo: baseRepo}
}

func (r *userRepo) Create(ctx context.Context, user *entity.User) (uint64, error) {
	userModel := ToUserModel(user)

	if err := r.baseRepo.Create(ctx, userModel); err != nil {
		return 0, err
	}

	return userModel.GetID(), nil
}

func (r *userRepo) GetByID(ctx context.Context, userID uint64) (*entity.User, error) {
	return r.get(ctx, []*Condition{
		{
			Field: "id",
			Value: userID,
			Op:    OpEq,
		},
	})
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.get(ctx, []*Condition{
		{
			Field: "email",
			Value: email,
			Op:    OpEq,
		},
	})
}

func (r *userRepo) get(ctx context.Context, conditions []*Condition) (*entity.User, error) {
	user := new(User)

	conditions = append(conditions, &Condition{
		Field: "status",
		Value: uint32(entity.UserStatusDeleted),
		Op:    OpNotEq,
	})

	if err := r.baseRepo.Get(ctx, user, &Filter{
		Conditions: conditions,
	}); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return ToUser(user), nil
}

func ToUser(user *User) *entity.User {
	return &entity.User{
		ID:          user.ID,
		Email:       user.Email,
		Password:    user.Password,
		DisplayName: user.DisplayName,
		Status:      entity.UserStatus(user.GetStatus()),
		CreateTime:  user.CreateTime,
		UpdateTime:  user.UpdateTime,
	}
}

func ToUserModel(user *entity.User) *User {
	return &User{
		ID:          user.ID,
		Email:       user.Email,
		Password:    user.Password,
		DisplayName: user.DisplayName,
		Status:      goutil.Uint32(uint32(user.GetStatus())),
		CreateTime:  user.CreateTime,
		UpdateTime:  user.UpdateTime,
	}
}
