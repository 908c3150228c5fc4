package identifier

import (
	"strings"

	uuid "github.com/satori/go.uuid"
)

// New returns a fresh entity id.
func New() string {
	return uuid.NewV4().String()
}

// NewMatchCode returns a short, human-shareable match code.
func NewMatchCode() string {
	raw := strings.ReplaceAll(uuid.NewV4().String(), "-", "")
	return strings.ToUpper(raw[:6])
}
