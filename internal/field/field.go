package field

import (
	"crypto/rand"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/hpungsan/fieldmark/internal/geom"
)

// Field is a named rectangular region anchored to one page of a document.
type Field struct {
	// ID is a ULID generated when the field is created; never reused
	ID string `json:"id"`

	// Page is the 1-based page number the field belongs to
	Page int `json:"page"`

	// Rect is the field's extent in percentage space (0-100, top-left origin)
	geom.Rect

	// VariableName is the display name; not required to be unique
	VariableName string `json:"variableName"`
}

// Move is a positional update for one field. X and Y must already be clamped.
type Move struct {
	ID string  `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

// DefaultName returns the generated name for the field at 1-based position n.
func DefaultName(n int) string {
	return fmt.Sprintf("variable_%d", n)
}

// CleanName trims surrounding whitespace from a user supplied name.
func CleanName(name string) string {
	return strings.TrimSpace(name)
}

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// NewID generates a new field identifier.
func NewID() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}
