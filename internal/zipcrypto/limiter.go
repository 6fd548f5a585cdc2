package zipcrypto

import (
	"context"

	"golang.org/x/time/rate"
)

// DefaultRetryRate paces at most one password attempt per 200ms, enough to keep an interactive retry loop from
// spinning the CPU while still feeling responsive to a human re-typing a password.
const DefaultRetryRate = 5 // attempts per second

// PasswordLimiter paces repeated password attempts against one entry (spec §4.6 BadPassword retry policy),
// grounded on golang.org/x/time/rate, which the teacher already imports (there, for S3 request throttling).
type PasswordLimiter struct {
	limiter *rate.Limiter
}

// NewPasswordLimiter returns a limiter allowing attemptsPerSecond password attempts, bursting by one.
func NewPasswordLimiter(attemptsPerSecond float64) *PasswordLimiter {
	if attemptsPerSecond <= 0 {
		attemptsPerSecond = DefaultRetryRate
	}
	return &PasswordLimiter{limiter: rate.NewLimiter(rate.Limit(attemptsPerSecond), 1)}
}

// Wait blocks until the next attempt is permitted or ctx is done.
func (l *PasswordLimiter) Wait(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}
