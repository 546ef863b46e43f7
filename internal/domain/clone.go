package domain

import "math/big"

// The entity store hands out clones so mutations only become durable through
// an explicit save. Slices and big.Int pointers are copied too: a caller may
// mutate its clone freely without reaching into stored state.

func cloneBig(v *big.Int) *big.Int {
	if v == nil {
		return nil
	}
	return new(big.Int).Set(v)
}

func (p *Protocol) Clone() *Protocol {
	cp := *p
	return &cp
}

func (m *Market) Clone() *Market {
	cm := *m
	cm.LiquidityIndex = cloneBig(m.LiquidityIndex)
	if m.RewardSlots != nil {
		cm.RewardSlots = make([]RewardSlot, len(m.RewardSlots))
		copy(cm.RewardSlots, m.RewardSlots)
		for i := range cm.RewardSlots {
			cm.RewardSlots[i].EmissionAmount = cloneBig(cm.RewardSlots[i].EmissionAmount)
		}
	}
	return &cm
}

func (t *Token) Clone() *Token {
	ct := *t
	return &ct
}

func (s *ExecutionStrategy) Clone() *ExecutionStrategy {
	cs := *s
	return &cs
}

func (e *EventRecord) Clone() *EventRecord {
	ce := *e
	ce.TokenID = cloneBig(e.TokenID)
	ce.Amount = cloneBig(e.Amount)
	return &ce
}

func (s *ProtocolDailySnapshot) Clone() *ProtocolDailySnapshot {
	cs := *s
	return &cs
}

func (s *MarketDailySnapshot) Clone() *MarketDailySnapshot {
	cs := *s
	return &cs
}

func (s *MarketHourlySnapshot) Clone() *MarketHourlySnapshot {
	cs := *s
	return &cs
}
