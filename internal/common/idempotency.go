package common

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// IdemStore is the part of go-redis Idem needs.
type IdemStore interface {
	SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// Idem guards write endpoints with the Idempotency-Key header. A key is
// claimed for TTL on first use and later requests with it get 409. When the
// guarded handler answers with a 5xx the claim is dropped so the shopper can
// retry the same payment.
type Idem struct {
	R      IdemStore
	TTL    time.Duration
	Prefix string
}

func (i Idem) storageKey(r *http.Request, key string) string {
	prefix := i.Prefix
	if prefix == "" {
		prefix = "idem:"
	}
	sum := sha256.Sum256([]byte(r.Method + " " + r.URL.Path + " " + key))
	return prefix + hex.EncodeToString(sum[:])
}

func (i Idem) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get("Idempotency-Key")
		if key == "" || i.R == nil {
			next.ServeHTTP(w, r)
			return
		}
		ttl := i.TTL
		if ttl <= 0 {
			ttl = 24 * time.Hour
		}

		skey := i.storageKey(r, key)
		claimed, err := i.R.SetNX(r.Context(), skey, time.Now().UTC().Format(time.RFC3339), ttl).Result()
		if err != nil {
			WriteError(w, r, NewError(http.StatusServiceUnavailable, "IDEMPOTENCY_UNAVAILABLE", "idempotency store unavailable", err))
			return
		}
		if !claimed {
			JSONError(w, http.StatusConflict, "IDEMPOTENT_REPLAY", "duplicate request", nil)
			return
		}

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		if ww.Status() >= http.StatusInternalServerError {
			if err := i.R.Del(context.WithoutCancel(r.Context()), skey).Err(); err != nil {
				zerolog.Ctx(r.Context()).Warn().Err(err).Msg("release idempotency key")
			}
		}
	})
}
