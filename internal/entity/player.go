package entity

const HandSize = 5

// Player carries both the account fields and the in-game view (hand, placed
// cards, score). The in-game fields are owned by the game for its duration
// and mutated only through the rule engine.
type Player struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`

	CurrentDeckID  string `json:"currentDeckId,omitempty"`
	OriginalDeckID string `json:"originalDeckId,omitempty"`

	Hand          []Card          `json:"hand"`
	PlacedCards   map[string]Card `json:"placedCards"` // position key -> card
	Score         int             `json:"score"`
	LifetimeScore int             `json:"lifetimeScore"`
}

// HasCardInHand matches by card id, not by power or name.
func (that *Player) HasCardInHand(cardID string) bool {
	for _, card := range that.Hand {
		if card.ID == cardID {
			return true
		}
	}
	return false
}

// RemoveFromHand removes the card with the given id from the hand,
// preserving the order of the remaining cards.
func (that *Player) RemoveFromHand(cardID string) (Card, bool) {
	for i, card := range that.Hand {
		if card.ID == cardID {
			that.Hand = append(that.Hand[:i], that.Hand[i+1:]...)
			return card, true
		}
	}
	return Card{}, false
}

func (that *Player) HasPlacedCards() bool {
	return len(that.PlacedCards) > 0
}

// OwnsPlacedCard reports whether the card with the given id is among this
// player's placements.
func (that *Player) OwnsPlacedCard(cardID string) bool {
	for _, card := range that.PlacedCards {
		if card.ID == cardID {
			return true
		}
	}
	return false
}

// RecordPlacement stores the card under the position's canonical key and
// recomputes the running score as the sum of all placed powers.
func (that *Player) RecordPlacement(pos Position, card Card) {
	if that.PlacedCards == nil {
		that.PlacedCards = make(map[string]Card)
	}
	that.PlacedCards[pos.Key()] = card

	score := 0
	for _, placed := range that.PlacedCards {
		score += placed.Power
	}
	that.Score = score
}

// ResetGameState clears the per-game fields and restores the original deck
// reference after a game ends.
func (that *Player) ResetGameState() {
	if that.OriginalDeckID != "" {
		that.CurrentDeckID = that.OriginalDeckID
		that.OriginalDeckID = ""
	}

	that.Hand = nil
	that.PlacedCards = make(map[string]Card)
	that.Score = 0
}
