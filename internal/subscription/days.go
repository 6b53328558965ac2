package subscription

import (
	"math"
	"time"
)

const day = 24 * time.Hour

// DaysRemaining is ceil((expiry - now) / 24h). It is negative once the
// expiry has passed and is never clamped.
func DaysRemaining(expiry, now time.Time) int {
	return int(math.Ceil(float64(expiry.Sub(now)) / float64(day)))
}
