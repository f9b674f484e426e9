package db

import (
	"fmt"
	"time"
)

// NewProtocolCode derives the short load code shown to operators: "C"
// followed by the last six digits of the unix millisecond clock.
func NewProtocolCode(t time.Time) string {
	return fmt.Sprintf("C%06d", t.UnixMilli()%1_000_000)
}
