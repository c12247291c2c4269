// Package pricing resolves item prices for purchase orders.
package pricing

// Policy resolves speech prices. Legacy speeches carry no stored price;
// those fall back to a tier keyed by the speech's position within its flow,
// with the last tier covering every later position. Tier values come from
// configuration, not code.
type Policy struct {
	tiers []int
}

func NewPolicy(tiers []int) Policy {
	return Policy{tiers: tiers}
}

// SpeechPrice returns the stored price when present, otherwise the tier for
// the speech's zero-based position.
func (p Policy) SpeechPrice(stored *int, position int) int {
	if stored != nil {
		return *stored
	}
	if len(p.tiers) == 0 {
		return 0
	}
	if position >= 0 && position < len(p.tiers)-1 {
		return p.tiers[position]
	}
	return p.tiers[len(p.tiers)-1]
}
