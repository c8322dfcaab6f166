package emulator

import (
	"fmt"
	"strings"

	"github.com/mgutz/ansi"

	"github.com/ezrec/ls8/cpu"
)

var chSame = ansi.ColorCode("default:default")
var chNew = ansi.ColorCode("default+bu:default")

// Change is a single named field of the machine state.
type Change struct {
	Name     string
	Old, New int
	Width    int // Hex digits.
}

// Changed returns true if the field differs between snapshots.
func (c *Change) Changed() bool {
	return c.Old != c.New
}

// String renders the field, coloured when requested and changed.
func (c *Change) String(color bool) string {
	value := fmt.Sprintf("%0*X", c.Width, c.New)
	if color {
		code := chSame
		if c.Changed() {
			code = chNew
		}
		value = code + value + ansi.Reset
	} else if c.Changed() {
		value += "*"
	} else {
		value += " "
	}

	return c.Name + ":" + value
}

// Changes lists the program counter, flags and registers of two snapshots.
func Changes(before, after cpu.Snapshot) (changes []*Change) {
	changes = append(changes,
		&Change{Name: "pc", Old: before.Pc, New: after.Pc, Width: 2},
		&Change{Name: "fl", Old: int(before.Flags), New: int(after.Flags), Width: 2},
	)
	for n := range after.Register {
		changes = append(changes, &Change{
			Name:  fmt.Sprintf("r%d", n),
			Old:   int(before.Register[n]),
			New:   int(after.Register[n]),
			Width: 2,
		})
	}

	return
}

// Diff renders the state of after, marking everything that changed since
// before. Without color, changed fields are suffixed with '*'.
func Diff(before, after cpu.Snapshot, color bool) string {
	var fields []string
	for _, change := range Changes(before, after) {
		fields = append(fields, change.String(color))
	}

	return strings.Join(fields, " ")
}
