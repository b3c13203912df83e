package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Strain is the denomination of a bid, ordered Clubs < Diamonds < Hearts < Spades < NoTrump.
type Strain int

const (
	Clubs Strain = iota
	Diamonds
	Hearts
	Spades
	NoTrump
)

// NumStrains is the number of denominations at each level.
const NumStrains = 5

const (
	MinLevel = 1
	MaxLevel = 7
)

var ErrMalformedCall = errors.New("malformed call")

var strainSymbols = [NumStrains]string{"C", "D", "H", "S", "NT"}

// Strains returns every denomination in rank order.
func Strains() [NumStrains]Strain {
	return [NumStrains]Strain{Clubs, Diamonds, Hearts, Spades, NoTrump}
}

func (s Strain) String() string {
	if s < Clubs || s > NoTrump {
		return fmt.Sprintf("Strain(%d)", int(s))
	}
	return strainSymbols[s]
}

// ParseStrain accepts the short denomination symbols C, D, H, S and NT.
func ParseStrain(raw string) (Strain, error) {
	token := strings.ToUpper(strings.TrimSpace(raw))
	for i, sym := range strainSymbols {
		if token == sym {
			return Strain(i), nil
		}
	}
	return Clubs, fmt.Errorf("%w: unknown strain %q", ErrMalformedCall, raw)
}

// Bid is a contract call: a level from 1 to 7 and a strain. The zero value is
// not a valid bid; use NewBid.
type Bid struct {
	level  int
	strain Strain
}

// NewBid validates level and strain and returns the bid.
func NewBid(level int, strain Strain) (Bid, error) {
	if level < MinLevel || level > MaxLevel {
		return Bid{}, fmt.Errorf("%w: level %d out of range", ErrMalformedCall, level)
	}
	if strain < Clubs || strain > NoTrump {
		return Bid{}, fmt.Errorf("%w: unknown strain %d", ErrMalformedCall, int(strain))
	}
	return Bid{level: level, strain: strain}, nil
}

// MustBid is NewBid for literals known to be valid.
func MustBid(level int, strain Strain) Bid {
	b, err := NewBid(level, strain)
	if err != nil {
		panic(err)
	}
	return b
}

// AllBids returns the 35 bids in ascending rank.
func AllBids() []Bid {
	bids := make([]Bid, 0, MaxLevel*NumStrains)
	for level := MinLevel; level <= MaxLevel; level++ {
		for _, strain := range Strains() {
			bids = append(bids, Bid{level: level, strain: strain})
		}
	}
	return bids
}

func (b Bid) Level() int     { return b.level }
func (b Bid) Strain() Strain { return b.strain }

// Rank places the bid on a single total order: (level-1)*5 + strain index.
func (b Bid) Rank() int {
	return (b.level-1)*NumStrains + int(b.strain)
}

// Outranks reports whether b is a strictly higher bid than other.
func (b Bid) Outranks(other Bid) bool {
	return b.Rank() > other.Rank()
}

func (b Bid) String() string {
	return strconv.Itoa(b.level) + b.strain.String()
}

// CallKind tags the variant held by a Call.
type CallKind int

const (
	KindPass CallKind = iota
	KindDouble
	KindRedouble
	KindBid
)

func (k CallKind) String() string {
	switch k {
	case KindPass:
		return "pass"
	case KindDouble:
		return "double"
	case KindRedouble:
		return "redouble"
	case KindBid:
		return "bid"
	default:
		return fmt.Sprintf("CallKind(%d)", int(k))
	}
}

// Call is one action in an auction: a bid, Pass, Double or Redouble.
// The zero value is Pass.
type Call struct {
	kind CallKind
	bid  Bid
}

func PassCall() Call     { return Call{kind: KindPass} }
func DoubleCall() Call   { return Call{kind: KindDouble} }
func RedoubleCall() Call { return Call{kind: KindRedouble} }
func BidCall(b Bid) Call { return Call{kind: KindBid, bid: b} }

func (c Call) Kind() CallKind { return c.kind }
func (c Call) IsPass() bool   { return c.kind == KindPass }
func (c Call) IsBid() bool    { return c.kind == KindBid }

// Bid returns the contract call held by c, if any.
func (c Call) Bid() (Bid, bool) {
	if c.kind != KindBid {
		return Bid{}, false
	}
	return c.bid, true
}

// String renders the short form used on the wire: 1C..7NT, P, X, XX.
func (c Call) String() string {
	switch c.kind {
	case KindDouble:
		return "X"
	case KindRedouble:
		return "XX"
	case KindBid:
		return c.bid.String()
	default:
		return "P"
	}
}

// ParseCall reads the short form (1NT, P, X, XX) as well as the long tokens
// Pass, Double and Redouble in any case.
func ParseCall(raw string) (Call, error) {
	token := strings.ToUpper(strings.TrimSpace(raw))
	switch token {
	case "P", "PASS":
		return PassCall(), nil
	case "X", "DOUBLE":
		return DoubleCall(), nil
	case "XX", "REDOUBLE":
		return RedoubleCall(), nil
	}
	if len(token) < 2 {
		return Call{}, fmt.Errorf("%w: %q", ErrMalformedCall, raw)
	}
	level, err := strconv.Atoi(token[:1])
	if err != nil {
		return Call{}, fmt.Errorf("%w: %q", ErrMalformedCall, raw)
	}
	strain, err := ParseStrain(token[1:])
	if err != nil {
		return Call{}, err
	}
	bid, err := NewBid(level, strain)
	if err != nil {
		return Call{}, err
	}
	return BidCall(bid), nil
}

// ParseCalls parses a whole call history in order.
func ParseCalls(raw []string) ([]Call, error) {
	calls := make([]Call, 0, len(raw))
	for i, r := range raw {
		c, err := ParseCall(r)
		if err != nil {
			return nil, fmt.Errorf("call %d: %w", i, err)
		}
		calls = append(calls, c)
	}
	return calls, nil
}

// FormatCalls renders calls in short form.
func FormatCalls(calls []Call) []string {
	out := make([]string, len(calls))
	for i, c := range calls {
		out[i] = c.String()
	}
	return out
}
