package repo

import (
	"context"
	"crm/entity"
	"crm/pkg/errutil"
	"errors"
	"time"

	"gorm.io/gorm"
)

var (
	ErrSessionNotFound = errutil.UnauthorizedError(errors.New("session not found"))
)

const sessionCachePrefix = "session"

type Session struct {
	ID         *uint64 `json:"id,omitempty"`
	UserID     *uint64 `json:"user_id,omitempty"`
	TokenHash  *string `json:"token_hash,omitempty"`
	ExpireTime *uint64 `json:"expire_time,omitempty"`
	CreateTime *uint64 `json:"create_time,omitempty"`
}

func (m *Session) TableName() string {
	return "session_tab"
}

func (m *Session) GetID() uint64 {
	if m != nil && m.ID != nil {
		return *m.ID
	}
	return 0
}

type SessionRepo interface {
	Create(ctx context.Context, session *entity.Session) (uint64, error)
	GetByTokenHash(ctx context.Context, tokenHash string) (*entity.Session, error)
	DeleteByUserID(ctx context.Context, userID uint64) error
}

type sessionRepo struct {
	baseRepo  BaseRepo
	baseCache BaseCache
}

func NewSessionRepo(_ context.Context, baseRepo BaseRepo, baseCache BaseCache) SessionRepo {
	return &sessionRepo{
		baseRepo:  baseRepo,
		baseCache: baseCache,
	}
}

func (r *sessionRepo) Create(ctx context.Context, session *entity.Session) (uint64, error) {
	sessionModel := ToSessionModel(session)

	if err := r.baseRepo.Create(ctx, sessionModel); err != nil {
		return 0, err
	}

	return sessionModel.GetID(), nil
}

func (r *sessionRepo) GetByTokenHash(ctx context.Context, tokenHash string) (*entity.Session, error) {
	if v, ok := r.baseCache.Get(ctx, sessionCachePrefix, tokenHash); ok {
		session := v.(*entity.Session)
		if session.GetExpireTime() > uint64(time.Now().Unix()) {
			return session, nil
		}
		r.baseCache.Del(ctx, sessionCachePrefix, tokenHash)
	}

	sessionModel := new(Session)
	if err := r.baseRepo.Get(ctx, sessionModel, &Filter{
		Conditions: []*Condition{
			{
				Field:         "token_hash",
				Value:         tokenHash,
				Op:            OpEq,
				NextLogicalOp: And,
			},
			{
				Field: "expire_time",
				Value: uint64(time.Now().Unix()),
				Op:    OpGt,
			},
		},
	}); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	session := ToSession(sessionModel)
	r.baseCache.Set(ctx, sessionCachePrefix, tokenHash, session)

	return session, nil
}

func (r *sessionRepo) DeleteByUserID(ctx context.Context, userID uint64) error {
	if err := r.baseRepo.Delete(ctx, new(Session), &Filter{
		Conditions: []*Condition{
			{
				Field: "user_id",
				Value: userID,
				Op:    OpEq,
			},
		},
	}); err != nil {
		return err
	}

	// Cached sessions are keyed by token hash, not user ID.
	r.baseCache.Flush(ctx)

	return nil
}

func ToSession(session *Session) *entity.Session {
	return &entity.Session{
		ID:         session.ID,
		UserID:     session.UserID,
		TokenHash:  session.TokenHash,
		ExpireTime: session.ExpireTime,
		CreateTime: session.CreateTime,
	}
}

func ToSessionModel(session *entity.Session) *Session {
	return &Session{
		ID:         session.ID,
		UserID:     session.UserID,
		TokenHash:  session.TokenHash,
		ExpireTime: session.ExpireTime,
		CreateTime: session.CreateTime,
	}
}
