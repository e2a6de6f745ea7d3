package layout

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
)

// Unit is the unit of a Size.
type Unit string

const (
	UnitPx      Unit = "px"
	UnitPercent Unit = "%"
	UnitAuto    Unit = "auto"
	// UnitNone marks a value that could not be parsed; Raw holds it verbatim.
	UnitNone Unit = ""
)

// pxPerCell approximates how many CSS pixels one terminal column covers.
const pxPerCell = 8

const floatPattern = `[-+]?[0-9]*\.?[0-9]+`

var sizePatterns = []struct {
	unit Unit
	re   *regexp.Regexp
}{
	{UnitPx, regexp.MustCompile(`^` + floatPattern + `px$`)},
	{UnitPercent, regexp.MustCompile(`^` + floatPattern + `%$`)},
	// A bare number is taken as pixels
	{UnitPx, regexp.MustCompile(`^` + floatPattern + `$`)},
}

var leadingFloat = regexp.MustCompile(`^` + floatPattern)

// Size is a parsed width descriptor.
type Size struct {
	Unit  Unit
	Value float64
	// Raw is the original input when Unit is UnitNone.
	Raw string
}

// ParseSize parses a width. Numbers are pixels; strings may carry a "px"
// or "%" suffix or be the literal "auto". Anything else is passed
// through with UnitNone rather than rejected.
func ParseSize(v any) Size {
	switch n := v.(type) {
	case int:
		return Size{Unit: UnitPx, Value: float64(n)}
	case int32:
		return Size{Unit: UnitPx, Value: float64(n)}
	case int64:
		return Size{Unit: UnitPx, Value: float64(n)}
	case uint64:
		return Size{Unit: UnitPx, Value: float64(n)}
	case float32:
		return Size{Unit: UnitPx, Value: float64(n)}
	case float64:
		return Size{Unit: UnitPx, Value: n}
	case string:
		return parseSizeString(n)
	case nil:
		return Size{Unit: UnitNone}
	default:
		return Size{Unit: UnitNone, Raw: fmt.Sprint(v)}
	}
}

func parseSizeString(s string) Size {
	if s == string(UnitAuto) {
		return Size{Unit: UnitAuto}
	}
	for _, p := range sizePatterns {
		if !p.re.MatchString(s) {
			continue
		}
		f, err := strconv.ParseFloat(leadingFloat.FindString(s), 64)
		if err != nil {
			break
		}
		return Size{Unit: p.unit, Value: f}
	}
	return Size{Unit: UnitNone, Raw: s}
}

// String renders the size as a CSS length.
func (s Size) String() string {
	switch s.Unit {
	case UnitAuto:
		return string(UnitAuto)
	case UnitNone:
		return s.Raw
	default:
		return strconv.FormatFloat(s.Value, 'f', -1, 64) + string(s.Unit)
	}
}

// Cells maps the size onto a terminal that is total columns wide.
// Auto and unparsable sizes return fallback.
func (s Size) Cells(total, fallback int) int {
	var cells int
	switch s.Unit {
	case UnitPx:
		cells = int(math.Round(s.Value / pxPerCell))
	case UnitPercent:
		cells = int(math.Round(float64(total) * s.Value / 100))
	default:
		cells = fallback
	}
	if cells <= 0 {
		cells = fallback
	}
	if total > 0 && cells > total {
		cells = total
	}
	return cells
}
