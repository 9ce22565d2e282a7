package game

import "math/rand"

// Role is one of the five Coup characters.
type Role string

const (
	RoleDuke       Role = "Duke"
	RoleCaptain    Role = "Captain"
	RoleAssassin   Role = "Assassin"
	RoleAmbassador Role = "Ambassador"
	RoleContessa   Role = "Contessa"
)

// Roles lists every character in the court deck.
var Roles = []Role{RoleDuke, RoleCaptain, RoleAssassin, RoleAmbassador, RoleContessa}

// copiesPerRole is the number of copies of each character in a fresh deck.
const copiesPerRole = 3

// ValidRole reports whether s names a character.
func ValidRole(s string) bool {
	for _, r := range Roles {
		if string(r) == s {
			return true
		}
	}
	return false
}

// Deck is the court deck: an ordered pile of role cards that is reshuffled
// whenever a card is returned to it. Cards in the revealed discard never
// re-enter the deck; only hands cycle through it.
type Deck struct {
	cards []Role
	rng   *rand.Rand
}

// NewDeck creates the full 15-card court deck, shuffled with the given
// random number generator. The deck keeps the generator for reshuffles.
func NewDeck(rng *rand.Rand) *Deck {
	d := &Deck{
		cards: make([]Role, 0, len(Roles)*copiesPerRole),
		rng:   rng,
	}
	for _, r := range Roles {
		for i := 0; i < copiesPerRole; i++ {
			d.cards = append(d.cards, r)
		}
	}
	d.Shuffle()
	return d
}

// Shuffle randomizes the order of the remaining cards.
func (d *Deck) Shuffle() {
	d.rng.Shuffle(len(d.cards), func(i, j int) {
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	})
}

// Draw removes and returns the top card.
func (d *Deck) Draw() (Role, bool) {
	if len(d.cards) == 0 {
		return "", false
	}
	card := d.cards[0]
	d.cards = d.cards[1:]
	return card, true
}

// Return puts a card back into the deck and reshuffles.
func (d *Deck) Return(r Role) {
	d.cards = append(d.cards, r)
	d.Shuffle()
}

// ReturnAll puts several cards back into the deck with a single reshuffle.
func (d *Deck) ReturnAll(rs []Role) {
	if len(rs) == 0 {
		return
	}
	d.cards = append(d.cards, rs...)
	d.Shuffle()
}

// Size returns the number of cards remaining.
func (d *Deck) Size() int {
	return len(d.cards)
}
