package middleware

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

func Log(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// init log_id
		ctx := log.With().Str("log_id", uuid.New().String()).Logger().WithContext(r.Context())

		start := time.Now()
		next.ServeHTTP(w, r.WithContext(ctx))

		log.Ctx(ctx).Info().Msgf("path: %s, method: %s, proctm: %vms",
			r.URL.Path, r.Method, time.Since(start).Milliseconds())
	})
}
