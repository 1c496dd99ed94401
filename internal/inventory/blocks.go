// Package inventory defines the fixed room-number space of the property.
// Rooms are addressed by whole numbers grouped into inclusive blocks (one
// block per wing/floor section).  The blocks are configuration supplied at
// startup; everything else in this package is pure logic so that number
// validation can be exercised without a database.
package inventory

import (
	"fmt"
	"strconv"
	"strings"
)

// Block is one inclusive range of valid room numbers, e.g. 100–115.
type Block struct {
	Lo int // first room number in the block
	Hi int // last room number in the block (inclusive)
}

// Blocks is the full set of inclusive ranges that make up the inventory.
type Blocks []Block

// Default returns the property's built-in room blocks.  These match the
// physical building and are used when the ROOM_BLOCKS variable is not set.
func Default() Blocks {
	return Blocks{
		{100, 115},
		{300, 313},
		{400, 413},
		{500, 513},
		{600, 613},
		{700, 710},
		{800, 810},
		{900, 910},
		{1000, 1010},
		{1100, 1110},
		{1200, 1210},
		{1300, 1310},
		{1400, 1410},
		{1500, 1510},
		{1600, 1610},
		{1700, 1705},
	}
}

// Parse reads a comma-separated list of inclusive ranges ("100-115,300-313")
// into Blocks.  Whitespace around entries is ignored.  An empty string,
// a malformed range or a range with hi < lo is an error.
func Parse(s string) (Blocks, error) {
	var blocks Blocks
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		lo, hi, ok := strings.Cut(part, "-")
		if !ok {
			return nil, fmt.Errorf("invalid room block %q: expected lo-hi", part)
		}
		l, err := strconv.Atoi(strings.TrimSpace(lo))
		if err != nil {
			return nil, fmt.Errorf("invalid room block %q: %w", part, err)
		}
		h, err := strconv.Atoi(strings.TrimSpace(hi))
		if err != nil {
			return nil, fmt.Errorf("invalid room block %q: %w", part, err)
		}
		if h < l {
			return nil, fmt.Errorf("invalid room block %q: upper bound below lower", part)
		}
		blocks = append(blocks, Block{Lo: l, Hi: h})
	}
	if len(blocks) == 0 {
		return nil, fmt.Errorf("no room blocks configured")
	}
	return blocks, nil
}

// Contains reports whether n falls inside any block.
func (b Blocks) Contains(n int) bool {
	for _, blk := range b {
		if n >= blk.Lo && n <= blk.Hi {
			return true
		}
	}
	return false
}

// String renders the blocks as "100-115, 300-313, ..." for error messages.
func (b Blocks) String() string {
	parts := make([]string, 0, len(b))
	for _, blk := range b {
		parts = append(parts, fmt.Sprintf("%d-%d", blk.Lo, blk.Hi))
	}
	return strings.Join(parts, ", ")
}

// Numbers expands the blocks into every valid room number, in block order.
// Used to seed the rooms table on startup.
func (b Blocks) Numbers() []string {
	var out []string
	for _, blk := range b {
		for n := blk.Lo; n <= blk.Hi; n++ {
			out = append(out, strconv.Itoa(n))
		}
	}
	return out
}

// Normalize validates a raw room-number input against the blocks and returns
// its canonical form: the plain integer string with no leading zeros and no
// decimal point.  It rejects empty input, anything containing a decimal
// point (room "105.0" is a spreadsheet artifact, not a room), anything that
// does not parse as a whole number, and numbers outside every block.  The
// returned error text is written for front-desk staff and names the valid
// ranges on the out-of-range case.
func (b Blocks) Normalize(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", fmt.Errorf("room number cannot be empty")
	}
	if strings.Contains(trimmed, ".") {
		return "", fmt.Errorf("room number cannot have decimals, use whole numbers only")
	}
	n, err := strconv.Atoi(trimmed)
	if err != nil {
		return "", fmt.Errorf("room number must be a valid whole number")
	}
	if !b.Contains(n) {
		return "", fmt.Errorf("room %d not in valid ranges: %s", n, b.String())
	}
	return strconv.Itoa(n), nil
}
