package dice

import (
	"math"

	"github.com/jsamuelsen/dice-roller/internal/domain"
)

// maxModifier bounds the magnitude of a single modifier so totals cannot overflow.
const maxModifier = math.MaxInt32

// Scan tokenizes input into dice groups and modifiers.
//
// Groups are the leftmost maximal "digits d digits" runs. A modifier is a
// '+' or '-' immediately followed by digits, where the sign is not directly
// after a 'd' and the digits are not the count of a group. Scan does not
// validate bounds.
func Scan(input string) (domain.Expression, error) {
	expr := domain.Expression{Input: input}

	s := scanner{src: input}
	expr.Groups = s.groups()

	mods, err := s.modifiers(expr.Groups)
	if err != nil {
		return expr, err
	}

	expr.Modifiers = mods

	return expr, nil
}

type scanner struct {
	src string
}

func (s *scanner) groups() []domain.DiceGroup {
	var groups []domain.DiceGroup

	for i := 0; i < len(s.src); {
		if !isDigit(s.src[i]) {
			i++
			continue
		}

		countEnd := s.digitsEnd(i)
		if countEnd >= len(s.src) || s.src[countEnd] != 'd' {
			i = countEnd
			continue
		}

		sidesEnd := s.digitsEnd(countEnd + 1)
		if sidesEnd == countEnd+1 {
			// "3d" with no sides; resume after the 'd'.
			i = sidesEnd
			continue
		}

		groups = append(groups, domain.DiceGroup{
			Count: atoiSaturating(s.src[i:countEnd]),
			Sides: atoiSaturating(s.src[countEnd+1 : sidesEnd]),
			Span:  domain.Span{Start: i, End: sidesEnd},
		})
		i = sidesEnd
	}

	return groups
}

func (s *scanner) modifiers(groups []domain.DiceGroup) ([]domain.Modifier, error) {
	var mods []domain.Modifier

	for i := 0; i < len(s.src); i++ {
		c := s.src[i]
		if c != '+' && c != '-' {
			continue
		}

		if i > 0 && s.src[i-1] == 'd' {
			continue
		}

		end := s.digitsEnd(i + 1)
		if end == i+1 {
			continue
		}

		digits := domain.Span{Start: i + 1, End: end}
		if insideGroup(digits, groups) {
			i = end - 1
			continue
		}

		v := atoiSaturating(s.src[i+1 : end])
		if v > maxModifier {
			return nil, domain.NewRangeError(s.src[i:end], domain.MsgModifierRange)
		}

		if c == '-' {
			v = -v
		}

		mods = append(mods, domain.Modifier{
			Value: v,
			Span:  domain.Span{Start: i, End: end},
		})
		i = end - 1
	}

	return mods, nil
}

// digitsEnd returns the index just past the digit run starting at i.
func (s *scanner) digitsEnd(i int) int {
	for i < len(s.src) && isDigit(s.src[i]) {
		i++
	}

	return i
}

func insideGroup(span domain.Span, groups []domain.DiceGroup) bool {
	for _, g := range groups {
		if span.Overlaps(g.Span) {
			return true
		}
	}

	return false
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// atoiSaturating parses an ASCII digit run, clamping at math.MaxInt.
func atoiSaturating(digits string) int {
	n := 0
	for i := 0; i < len(digits); i++ {
		d := int(digits[i] - '0')
		if n > (math.MaxInt-d)/10 {
			return math.MaxInt
		}

		n = n*10 + d
	}

	return n
}
