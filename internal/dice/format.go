package dice

import (
	"strconv"
	"strings"

	"github.com/jsamuelsen/dice-roller/internal/domain"
)

// FormatGroup renders one breakdown line for a rolled group.
//
//	1d20: 14
//	3d6: [2, 5, 6] = 13
func FormatGroup(r domain.GroupRoll) string {
	var b strings.Builder

	b.WriteString(r.Group.String())
	b.WriteString(": ")

	if len(r.Rolls) == 1 {
		b.WriteString(strconv.Itoa(r.Subtotal))
		return b.String()
	}

	b.WriteByte('[')
	for i, v := range r.Rolls {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(strconv.Itoa(v))
	}
	b.WriteString("] = ")
	b.WriteString(strconv.Itoa(r.Subtotal))

	return b.String()
}

// JoinBreakdown joins breakdown lines for single-line display.
func JoinBreakdown(lines []string) string {
	return strings.Join(lines, " ")
}
