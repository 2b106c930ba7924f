package governance

import (
	"fmt"
	"strings"
)

// ShadowGate is the shadow-AI gating check: a pure query over discovered
// assets with no state of its own. A system is blocked while any confirmed
// shadow asset is linked to it.
type ShadowGate struct {
	assets *ShadowAssetStore
}

// NewShadowGate creates a shadow gate over the given asset store.
func NewShadowGate(assets *ShadowAssetStore) *ShadowGate {
	return &ShadowGate{assets: assets}
}

// IsBlocked reports whether confirmed shadow assets block the system, with a
// human-readable reason enumerating the assets.
func (g *ShadowGate) IsBlocked(systemID string) (bool, string, error) {
	confirmed, err := g.assets.ListConfirmedForSystem(systemID)
	if err != nil {
		return false, "", err
	}
	if len(confirmed) == 0 {
		return false, "", nil
	}
	names := make([]string, len(confirmed))
	for i, a := range confirmed {
		names[i] = a.Name
	}
	reason := fmt.Sprintf("%d confirmed shadow AI asset(s) linked to this system: %s",
		len(names), strings.Join(names, ", "))
	return true, reason, nil
}
