// Package server generates display names for visitors that connect without
// an identity.
package server

import (
	"fmt"
	"math/rand"
	"time"
)

// generateGuestUsername builds a display name of the form Guest-HHMM####,
// combining the current wall-clock minute with a random four digit suffix.
// Uniqueness is not guaranteed; presence and private delivery tolerate
// duplicate usernames.
func generateGuestUsername() string {
	timestamp := time.Now().Format("1504")
	return fmt.Sprintf("Guest-%s%d", timestamp, 1000+rand.Intn(9000))
}
