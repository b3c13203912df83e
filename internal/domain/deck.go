package domain

import (
	"math/rand"
	"sort"
	"strings"
)

// Rank orders card ranks from Two (0) to Ace (12).
type Rank int

const (
	Two Rank = iota
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
	Ace
)

const (
	DeckSize = 52
	HandSize = 13
)

const rankSymbols = "23456789TJQKA"

func (r Rank) String() string {
	if r < Two || r > Ace {
		return "?"
	}
	return rankSymbols[r : r+1]
}

// Card is a playing card. Suit is one of Clubs..Spades; NoTrump never appears.
type Card struct {
	Suit Strain
	Rank Rank
}

func (c Card) String() string {
	return c.Rank.String() + c.Suit.String()
}

// Hands holds the four dealt hands indexed by seat.
type Hands [NumSeats][]Card

// NewDeck returns an ordered 52-card deck.
func NewDeck() []Card {
	deck := make([]Card, 0, DeckSize)
	for _, s := range []Strain{Clubs, Diamonds, Hearts, Spades} {
		for r := Two; r <= Ace; r++ {
			deck = append(deck, Card{Suit: s, Rank: r})
		}
	}
	return deck
}

// ShuffleDeck returns a shuffled copy of the given deck.
func ShuffleDeck(deck []Card, rng *rand.Rand) []Card {
	out := make([]Card, len(deck))
	copy(out, deck)
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// Deal splits a full deck into four hands of 13, North first.
func Deal(deck []Card) Hands {
	var hands Hands
	for i, seat := range Seats() {
		hand := append([]Card{}, deck[i*HandSize:(i+1)*HandSize]...)
		SortHand(hand)
		hands[seat] = hand
	}
	return hands
}

// SortHand orders a hand by suit (spades first) and descending rank.
func SortHand(cards []Card) {
	sort.Slice(cards, func(i, j int) bool {
		if cards[i].Suit != cards[j].Suit {
			return cards[i].Suit > cards[j].Suit
		}
		return cards[i].Rank > cards[j].Rank
	})
}

// FormatHand renders a hand as "spades.hearts.diamonds.clubs" with ranks high
// to low, e.g. "AK72.QJ5.T84.962". An empty suit renders as an empty segment.
func FormatHand(hand []Card) string {
	sorted := append([]Card{}, hand...)
	SortHand(sorted)

	var groups [4]strings.Builder
	for _, c := range sorted {
		groups[Spades-c.Suit].WriteString(c.Rank.String())
	}
	parts := make([]string, len(groups))
	for i := range groups {
		parts[i] = groups[i].String()
	}
	return strings.Join(parts, ".")
}
