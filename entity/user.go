package entity

import (
	"crm/pkg/goutil"
	"time"
)

type UserStatus uint32

const (
	UserStatusUnknown UserStatus = iota
	UserStatusNormal
	UserStatusDeleted
)

type User struct {
	ID          *uint64    `json:"id,omitempty"`
	Email       *string    `json:"email,omitempty"`
	Password    *string    `json:"-"`
	DisplayName *string    `json:"display_name,omitempty"`
	Status      UserStatus `json:"status,omitempty"`
	CreateTime  *uint64    `json:"create_time,omitempty"`
	UpdateTime  *uint64    `json:"update_time,omitempty"`
}

// NewUser hashes the password when one is given. Federated identities
// carry no credential.
func NewUser(email, password, displayName string) (*User, error) {
	now := uint64(time.Now().Unix())

	var passwordHash string
	if password != "" {
		var err error
		passwordHash, err = goutil.BCrypt(password)
		if err != nil {
			return nil, err
		}
	}

	return &User{
		Email:       goutil.String(email),
		Password:    goutil.String(passwordHash),
		DisplayName: goutil.String(displayName),
		Status:      UserStatusNormal,
		CreateTime:  goutil.Uint64(now),
		UpdateTime:  goutil.Uint64(now),
	}, nil
}

func (e *User) ComparePassword(input string) bool {
	return goutil.CompareBCrypt(e.GetPassword(), input) == nil
}

func (e *User) GetID() uint64 {
	if e != nil && e.ID != nil {
		return *e.ID
	}
	return 0
}

func (e *User) GetEmail() string {
	if e != nil && e.Email != nil {
		return *e.Email
	}
	return ""
}

func (e *User) GetPassword() string {
	if e != nil && e.Password != nil {
		return *e.Password
	}
	return ""
}

func (e *User) GetDisplayName() string {
	if e != nil && e.DisplayName != nil {
		return *e.DisplayName
	}
	return ""
}

func (e *User) GetStatus() UserStatus {
	if e != nil {
		return e.Status
	}
	return UserStatusUnknown
}
