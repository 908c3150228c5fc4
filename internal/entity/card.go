package entity

// Card identity is by id only; two cards may share power and name.
type Card struct {
	ID       string `json:"id"`
	Power    int    `json:"power"`
	Name     string `json:"name"`
	ImageURL string `json:"imageUrl,omitempty"`
}

const DeckSize = 15

// Deck is a player-built list of exactly DeckSize cards.
type Deck struct {
	ID             string `json:"id"`
	OwnerID        string `json:"ownerId"`
	Cards          []Card `json:"cards"`
	RemainingCards int    `json:"remainingCards"`
}

func (that *Deck) IsComplete() bool {
	return len(that.Cards) == DeckSize
}

// Draw removes and returns the first n cards of the deck.
func (that *Deck) Draw(n int) []Card {
	if n > len(that.Cards) {
		n = len(that.Cards)
	}

	drawn := make([]Card, n)
	copy(drawn, that.Cards[:n])
	that.Cards = that.Cards[n:]
	that.RemainingCards = len(that.Cards)

	return drawn
}
