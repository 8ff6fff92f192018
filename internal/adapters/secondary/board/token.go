// Package board holds helpers shared by the pin board adapters.
package board

import (
	"time"

	"github.com/google/uuid"
)

// NewVersionToken mints an addressable version token. The timestamp prefix
// makes lexical order match write order; the uuid suffix disambiguates
// same-second writes.
func NewVersionToken() string {
	return time.Now().UTC().Format("20060102T150405Z") + "-" + uuid.NewString()[:8]
}
