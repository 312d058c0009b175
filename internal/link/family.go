package link

import (
	"strings"

	"github.com/hurttlocker/vdlink/internal/normalize"
)

// Registry family ranks. Higher means the registry covers a later time
// period; vd18 is preferred over vd17 over vd16 when scores are close.
const (
	familyUnknown = 0
	familyVD16    = 1
	familyVD17    = 2
	familyVD18    = 3
)

// familyRank maps a record identifier to its registry family rank by
// prefix, tolerating punctuation and case variants in the identifier.
func familyRank(recordID string) int {
	id := normalize.CanonicalID(recordID)
	switch {
	case strings.HasPrefix(id, "vd18"):
		return familyVD18
	case strings.HasPrefix(id, "vd17"):
		return familyVD17
	case strings.HasPrefix(id, "vd16"):
		return familyVD16
	default:
		return familyUnknown
	}
}
