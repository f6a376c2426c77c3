package auth

import (
	"context"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// RevocationRegistry is the set of revoked token ids. An entry lives exactly
// as long as the token it revokes would have, after which expiry alone keeps
// the token out and the entry is evicted.
type RevocationRegistry struct {
	mu    sync.Mutex
	cache *ttlcache.Cache[string, struct{}]
	now   func() time.Time
}

func NewRevocationRegistry() *RevocationRegistry {
	return &RevocationRegistry{
		cache: ttlcache.New[string, struct{}](
			ttlcache.WithDisableTouchOnHit[string, struct{}](),
		),
		now: time.Now,
	}
}

// Revoke marks jti as revoked until expiresAt and reports whether this call
// revoked it. Of concurrent calls for one jti exactly one gets true.
// Revoking the same jti again never shortens its lifetime. Already expired
// tokens are not stored and report false.
func (r *RevocationRegistry) Revoke(jti string, expiresAt time.Time) bool {
	ttl := expiresAt.Sub(r.now())
	if ttl <= 0 {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	item, found := r.cache.GetOrSet(jti, struct{}{}, ttlcache.WithTTL[string, struct{}](ttl))
	if !found {
		return true
	}
	if item.ExpiresAt().Before(expiresAt) {
		r.cache.Set(jti, struct{}{}, ttl)
	}
	return false
}

func (r *RevocationRegistry) IsRevoked(jti string) bool {
	return r.cache.Get(jti) != nil
}

// Len evicts expired entries and returns how many remain.
func (r *RevocationRegistry) Len() int {
	r.cache.DeleteExpired()
	return r.cache.Len()
}

// Run evicts expired entries in the background until ctx is done.
func (r *RevocationRegistry) Run(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.cache.Start()
		close(done)
	}()

	<-ctx.Done()
	r.cache.Stop()
	<-done
	return nil
}
