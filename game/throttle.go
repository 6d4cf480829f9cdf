package game

import (
	"time"

	cache "github.com/go-pkgz/expirable-cache/v3"
)

const (
	loginAttemptInterval = 10 * time.Second
	loginThrottleMaxKeys = 65536
)

// loginThrottle refuses password attempts for a username right after a
// failed one. The cache expires entries by itself, so even an attacker
// spamming unique usernames can't grow it past the key cap.
type loginThrottle struct {
	failures cache.Cache[string, time.Time]
}

func newLoginThrottle() *loginThrottle {
	return &loginThrottle{
		failures: cache.NewCache[string, time.Time]().
			WithTTL(loginAttemptInterval).
			WithLRU().
			WithMaxKeys(loginThrottleMaxKeys),
	}
}

// throttled reports whether a failed attempt for name is still fresh.
func (l *loginThrottle) throttled(name string) bool {
	_, found := l.failures.Get(name)
	return found
}

func (l *loginThrottle) recordFailure(name string) {
	l.failures.Set(name, time.Now(), 0)
}

func (l *loginThrottle) clear(name string) {
	l.failures.Invalidate(name)
}
