package describe

import (
	"fmt"
	"math"
	"slices"
	"strconv"
)

// Sentinels used in statements.
const (
	Empty        = "EMPTY"
	NotAvailable = "N/A"
)

//nolint:gochecknoglobals // Lookup table
var sizeUnits = []string{"bytes", "KB", "MB", "GB", "TB", "PB", "EB", "ZB", "YB"}

// FormatSize renders a byte count with 1024-based units. The unit is chosen
// so the unrounded magnitude lies in [1, 1024); the magnitude is then
// rounded half away from zero.
func FormatSize(size int64) string {
	if size <= 0 {
		return "0 bytes"
	}

	unit := int64(1)
	i := 0

	for i < len(sizeUnits)-1 && size/unit >= 1024 {
		unit *= 1024
		i++
	}

	magnitude := math.Round(float64(size) / float64(unit))

	return strconv.FormatFloat(magnitude, 'f', -1, 64) + " " + sizeUnits[i]
}

// Extent renders the extent statement for count files totalling size bytes.
func Extent(count, size int64) string {
	switch count {
	case 0:
		return Empty
	case 1:
		return fmt.Sprintf("1 digital file (%s)", FormatSize(size))
	default:
		return fmt.Sprintf("%d digital files (%s)", count, FormatSize(size))
	}
}

// DateRange holds the date fields of a description.
type DateRange struct {
	// Earliest is the YYYY-MM-DD of the oldest modification.
	Earliest string `json:"earliest" yaml:"earliest"`
	// Latest is the YYYY-MM-DD of the newest modification.
	Latest string `json:"latest" yaml:"latest"`
	// Statement is "<year>" or "<year> - <year>".
	Statement string `json:"statement" yaml:"statement"`
}

// Dates builds the date range from rendered modification timestamps. The
// timestamps must be zero-padded ISO strings so that lexicographic order is
// chronological order.
func Dates(modTimes []string) DateRange {
	if len(modTimes) == 0 {
		return DateRange{Earliest: NotAvailable, Latest: NotAvailable, Statement: NotAvailable}
	}

	earliest := prefix(slices.Min(modTimes), 10)
	latest := prefix(slices.Max(modTimes), 10)

	statement := prefix(earliest, 4)
	if prefix(latest, 4) != statement {
		statement = statement + " - " + prefix(latest, 4)
	}

	return DateRange{Earliest: earliest, Latest: latest, Statement: statement}
}

func prefix(s string, n int) string {
	if len(s) < n {
		return s
	}

	return s[:n]
}
