// Package locale decodes the sigil prefix on schedule opponent tokens.
package locale

import "fmt"

// Code is where a game is played relative to the schedule's own team. The
// values are stored verbatim and weighted downstream.
type Code int

const (
	// Away is the opponent's home field.
	Away Code = -2
	// Far is a field closer to the opponent's home than to the team's.
	Far Code = -1
	// Neutral is a neutral site. Bye weeks also carry this code.
	Neutral Code = 0
	// Near is a field closer to the team's home than to the opponent's.
	Near Code = 1
	// Home is the team's home field.
	Home Code = 2
)

// Decode splits a schedule token into an opponent name and a locale code.
// Only the first byte is inspected; tokens without a sigil are home games.
func Decode(token string) (string, Code) {
	if token == "" {
		return "", Home
	}
	switch token[0] {
	case '@':
		return token[1:], Away
	case '>':
		return token[1:], Far
	case '!':
		return token[1:], Neutral
	case '<':
		return token[1:], Near
	default:
		return token, Home
	}
}

// IsBye reports whether token marks a bye week.
func IsBye(token string) bool {
	return token == ""
}

// Sigil returns the prefix that encodes c.
func (c Code) Sigil() string {
	switch c {
	case Away:
		return "@"
	case Far:
		return ">"
	case Neutral:
		return "!"
	case Near:
		return "<"
	default:
		return ""
	}
}

func (c Code) String() string {
	switch c {
	case Away:
		return "away"
	case Far:
		return "far"
	case Neutral:
		return "neutral"
	case Near:
		return "near"
	case Home:
		return "home"
	default:
		return fmt.Sprintf("locale(%d)", int(c))
	}
}
