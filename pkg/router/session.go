package router

import (
	"context"
	"crm/entity"
	"crm/pkg/errutil"
	"crm/pkg/goutil"
	"crm/pkg/httputil"
	"crm/repo"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"
)

type ContextInfo interface {
	SetUser(user *entity.User)
}

type contextKey string

const (
	userKey contextKey = "user"
)

type sessionMiddleware struct {
	userRepo    repo.UserRepo
	sessionRepo repo.SessionRepo
}

func NewSessionMiddleware(userRepo repo.UserRepo, sessionRepo repo.SessionRepo) Middleware {
	return &sessionMiddleware{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
	}
}

func (m *sessionMiddleware) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		token := r.Header.Get("X-Session-ID")
		if token == "" {
			log.Ctx(ctx).Error().Msg("token is empty")
			m.returnErr(w)
			return
		}

		decodedToken, err := goutil.Base64Decode(token)
		if err != nil {
			log.Ctx(ctx).Error().Msgf("decode token error, err: %v", err)
			m.returnErr(w)
			return
		}

		session, err := m.sessionRepo.GetByTokenHash(ctx, goutil.Sha256(decodedToken))
		if err != nil {
			log.Ctx(ctx).Error().Msgf("get session error, err: %v", err)
			m.returnErr(w)
			return
		}

		user, err := m.userRepo.GetByID(ctx, session.GetUserID())
		if err != nil {
			log.Ctx(ctx).Error().Msgf("get user error, err: %v, userID: %v", err, session.GetUserID())
			m.returnErr(w)
			return
		}

		ctx = context.WithValue(ctx, userKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *sessionMiddleware) returnErr(w http.ResponseWriter) {
	// abstract all errors as invalid session
	httputil.ReturnServerResponse(w, nil, errutil.UnauthorizedError(errors.New("invalid session")))
}

func GetUserFromContext(ctx context.Context) (*entity.User, bool) {
	val := ctx.Value(userKey)
	if user, ok := val.(*entity.User); ok {
		return user, true
	}
	return nil, false
}
