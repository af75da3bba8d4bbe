package questrade

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

// DateLayout is the calendar date format accepted by ParseDate.
const DateLayout = "2006-01-02"

// marketZone is the fixed UTC-05:00 offset Questrade date ranges are
// expressed in.
var marketZone = time.FixedZone("EST", -5*60*60)

// ParseDate parses a YYYY-MM-DD date as midnight at UTC-05:00.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), marketZone)
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "invalid date %q (want YYYY-MM-DD)", s)
	}
	return t, nil
}

// FormatMoney formats a price or amount with two decimals.
func FormatMoney(v float64) string {
	if v < 0 {
		return fmt.Sprintf("-$%.2f", -v)
	}
	return fmt.Sprintf("$%.2f", v)
}

// FormatGainLoss formats a gain/loss value with +/- prefix.
// Returns "$0.00" for zero.
func FormatGainLoss(v float64) string {
	if v == 0 {
		return "$0.00"
	}
	if v > 0 {
		return fmt.Sprintf("+$%.2f", v)
	}
	return fmt.Sprintf("-$%.2f", -v)
}

// FormatQuantity formats a share quantity without trailing zeros.
func FormatQuantity(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// FormatVolume formats a volume number with thousand separators.
// Returns "-" for zero values.
func FormatVolume(vol int64) string {
	if vol == 0 {
		return "-"
	}

	neg := vol < 0
	if neg {
		vol = -vol
	}
	str := strconv.FormatInt(vol, 10)
	n := len(str)

	var result strings.Builder
	if neg {
		result.WriteString("-")
	}
	remainder := n % 3
	if remainder > 0 {
		result.WriteString(str[:remainder])
	}
	for i := remainder; i < n; i += 3 {
		if i > 0 {
			result.WriteString(",")
		}
		result.WriteString(str[i : i+3])
	}

	return result.String()
}
