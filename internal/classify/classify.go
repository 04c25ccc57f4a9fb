// Package classify tags free text with the emergency category sent to the
// analysis backend.
package classify

import (
	"strings"

	"github.com/rahul4469/crisis-analyzer/internal/models"
)

type rule struct {
	kind     models.EmergencyType
	keywords []string
}

// rules are checked in order; the first category with a matching keyword wins.
var rules = []rule{
	{models.EmergencyFire, []string{"fire", "smoke", "burn"}},
	{models.EmergencyHurricane, []string{"hurricane", "storm", "wind"}},
	{models.EmergencyFlood, []string{"flood", "water", "rain"}},
}

// Classify returns the first category whose keywords appear in text,
// ignoring case, or EmergencyNone.
func Classify(text string) models.EmergencyType {
	return classifyWith(rules, text)
}

func classifyWith(rules []rule, text string) models.EmergencyType {
	lower := strings.ToLower(text)
	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(lower, kw) {
				return r.kind
			}
		}
	}
	return models.EmergencyNone
}

// Keywords returns the keyword set for kind, nil for EmergencyNone.
func Keywords(kind models.EmergencyType) []string {
	for _, r := range rules {
		if r.kind == kind {
			return append([]string(nil), r.keywords...)
		}
	}
	return nil
}
