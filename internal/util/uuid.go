package util

import (
	"time"

	"github.com/google/uuid"
)

func GenerateUUID() string {
	return uuid.NewString()
}

// Now returns the current UTC time at the precision PostgreSQL stores.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
