package handler

import (
	"crm/entity"
	"crm/pkg/validator"
	"errors"
)

type ContextInfo struct {
	User *entity.User
}

func (c *ContextInfo) SetUser(u *entity.User) {
	c.User = u
}

func (c *ContextInfo) GetUserID() uint64 {
	return c.User.GetID()
}

type contextInfoValidator struct{}

func (v *contextInfoValidator) Validate(value interface{}) error {
	contextInfo, ok := value.(ContextInfo)
	if !ok {
		return errors.New("expect ContextInfo")
	}

	if contextInfo.User == nil || contextInfo.User.GetID() == 0 {
		return errors.New("missing user in context")
	}

	return nil
}

var ContextInfoValidator validator.Validator = new(contextInfoValidator)
