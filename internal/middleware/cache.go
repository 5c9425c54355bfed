package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
)

const defaultCacheTTL = 30 * time.Second

// ResponseCache caches successful GET responses in Redis.
//
// KEYS:
//
//	<prefix>:<path>:<sha256 of the raw query>
//
// The path stays readable in the key so Invalidate can drop every cached
// page of one restaurant with a single SCAN pattern.
//
// Redis trouble never fails a request: a read error is a miss, a write error
// is logged and the response goes out uncached.
type ResponseCache struct {
	rdb    redis.UniversalClient
	prefix string
	ttl    time.Duration
	logger *slog.Logger
}

// NewResponseCache creates a ResponseCache. A non-positive ttl selects 30s.
func NewResponseCache(rdb redis.UniversalClient, prefix string, ttl time.Duration, logger *slog.Logger) *ResponseCache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &ResponseCache{rdb: rdb, prefix: prefix, ttl: ttl, logger: logger}
}

// captureWriter forwards the response to the client and keeps a copy.
type captureWriter struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
}

func (cw *captureWriter) WriteHeader(code int) {
	cw.status = code
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *captureWriter) Write(b []byte) (int, error) {
	cw.buf.Write(b)
	return cw.ResponseWriter.Write(b)
}

// Middleware serves GET requests from the cache and stores 200 responses.
// Only mount it on routes whose body does not depend on the caller.
func (c *ResponseCache) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			next.ServeHTTP(w, r)
			return
		}

		key := c.key(r.URL.Path, r.URL.RawQuery)
		cached, err := c.rdb.Get(r.Context(), key).Bytes()
		switch {
		case err == nil:
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("X-Cache", "HIT")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write(cached)
			return
		case !errors.Is(err, redis.Nil):
			c.logger.Warn("response cache read failed", slog.String("key", key), slog.String("error", err.Error()))
		}

		w.Header().Set("X-Cache", "MISS")
		cw := &captureWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(cw, r)

		if cw.status != http.StatusOK || cw.buf.Len() == 0 {
			return
		}
		if err := c.rdb.Set(r.Context(), key, cw.buf.Bytes(), c.ttl).Err(); err != nil {
			c.logger.Warn("response cache write failed", slog.String("key", key), slog.String("error", err.Error()))
		}
	})
}

// InvalidateRestaurant returns middleware for the comment mutation routes:
// after a successful write it drops the cached pages of the restaurant named
// by the {id} URL parameter.
func (c *ResponseCache) InvalidateRestaurant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		wrapped := wrap(w)
		next.ServeHTTP(wrapped, r)

		if wrapped.statusCode >= 300 {
			return
		}
		id := chi.URLParam(r, "id")
		if id == "" {
			return
		}
		if err := c.Invalidate(r.Context(), "/api/restaurants/"+id); err != nil {
			c.logger.Warn("response cache invalidation failed",
				slog.String("restaurantID", id),
				slog.String("error", err.Error()),
			)
		}
	})
}

// Invalidate deletes every cached response whose path starts with path.
func (c *ResponseCache) Invalidate(ctx context.Context, path string) error {
	iter := c.rdb.Scan(ctx, 0, c.prefix+":"+path+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return c.rdb.Del(ctx, keys...).Err()
}

func (c *ResponseCache) key(path, rawQuery string) string {
	sum := sha256.Sum256([]byte(rawQuery))
	return c.prefix + ":" + path + ":" + hex.EncodeToString(sum[:8])
}
