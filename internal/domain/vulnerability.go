package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Vulnerability records which partnerships are vulnerable on a board.
type Vulnerability int

const (
	VulNone Vulnerability = iota
	VulNorthSouth
	VulEastWest
	VulBoth
)

var ErrUnknownVulnerability = errors.New("unknown vulnerability")

// Vulnerabilities lists every vulnerability setting.
func Vulnerabilities() []Vulnerability {
	return []Vulnerability{VulNone, VulNorthSouth, VulEastWest, VulBoth}
}

// IsVulnerable reports whether the partnership of seat is vulnerable.
func (v Vulnerability) IsVulnerable(seat Seat) bool {
	switch v {
	case VulBoth:
		return true
	case VulNorthSouth:
		return seat.SameSide(North)
	case VulEastWest:
		return seat.SameSide(East)
	default:
		return false
	}
}

func (v Vulnerability) String() string {
	switch v {
	case VulNone:
		return "None"
	case VulNorthSouth:
		return "NS"
	case VulEastWest:
		return "EW"
	case VulBoth:
		return "Both"
	default:
		return fmt.Sprintf("Vulnerability(%d)", int(v))
	}
}

// ParseVulnerability accepts None, NS, N-S, EW, E-W, Both and All.
func ParseVulnerability(raw string) (Vulnerability, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "NONE", "-":
		return VulNone, nil
	case "NS", "N-S":
		return VulNorthSouth, nil
	case "EW", "E-W":
		return VulEastWest, nil
	case "BOTH", "ALL":
		return VulBoth, nil
	default:
		return VulNone, fmt.Errorf("%w: %q", ErrUnknownVulnerability, raw)
	}
}

// boardVulnerabilities is the standard 16-board duplicate cycle.
var boardVulnerabilities = [16]Vulnerability{
	VulNone, VulNorthSouth, VulEastWest, VulBoth,
	VulNorthSouth, VulEastWest, VulBoth, VulNone,
	VulEastWest, VulBoth, VulNone, VulNorthSouth,
	VulBoth, VulNone, VulNorthSouth, VulEastWest,
}

// BoardDealer returns the dealer of a 1-based board number.
func BoardDealer(board int) Seat {
	return SeatOnTurn(North, boardIndex(board))
}

// BoardVulnerability returns the vulnerability of a 1-based board number.
func BoardVulnerability(board int) Vulnerability {
	return boardVulnerabilities[boardIndex(board)%len(boardVulnerabilities)]
}

func boardIndex(board int) int {
	if board < 1 {
		board = 1
	}
	return board - 1
}
