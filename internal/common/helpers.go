package common

import (
	"fmt"
	"strconv"
	"strings"
)

// LumenDecimals is the native precision of the ledger: 1 XLM = 10^7 stroops.
const LumenDecimals = 7

// StroopsToLumens converts stroops to a lumen string without float precision loss.
func StroopsToLumens(stroops int64) string {
	return formatWithDecimals(stroops, LumenDecimals)
}

// LumensToStroops converts a lumen string to stroops without float precision loss.
// More than 7 fractional digits is an error, not a silent truncation: the
// ledger cannot represent the remainder.
func LumensToStroops(lumens string) (int64, error) {
	return parseWithDecimals(lumens, LumenDecimals)
}

// ValidatePaymentAmount checks that amount is a positive decimal the ledger
// can represent exactly.
func ValidatePaymentAmount(amount string) error {
	stroops, err := LumensToStroops(amount)
	if err != nil {
		return err
	}
	if stroops <= 0 {
		return fmt.Errorf("amount must be positive")
	}
	return nil
}

// CompareAmounts compares two lumen decimal strings without float precision
// loss. Returns -1 if a < b, 0 if a == b, 1 if a > b.
func CompareAmounts(a, b string) (int, error) {
	aVal, err := parseWithDecimals(a, LumenDecimals)
	if err != nil {
		return 0, fmt.Errorf("failed to parse amount '%s': %w", a, err)
	}
	bVal, err := parseWithDecimals(b, LumenDecimals)
	if err != nil {
		return 0, fmt.Errorf("failed to parse amount '%s': %w", b, err)
	}
	if aVal < bVal {
		return -1, nil
	}
	if aVal > bVal {
		return 1, nil
	}
	return 0, nil
}

// formatWithDecimals converts an integer to a decimal string by inserting
// the decimal point. Example: formatWithDecimals(100000000, 7) = "10.0000000"
func formatWithDecimals(value int64, decimals int) string {
	sign := ""
	if value < 0 {
		sign = "-"
		value = -value
	}
	s := strconv.FormatInt(value, 10)

	for len(s) <= decimals {
		s = "0" + s
	}

	pos := len(s) - decimals
	return sign + s[:pos] + "." + s[pos:]
}

// parseWithDecimals converts a decimal string to an integer by removing the
// decimal point. Example: parseWithDecimals("10.0000000", 7) = 100000000
func parseWithDecimals(s string, decimals int) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty string")
	}
	if strings.HasPrefix(s, "-") {
		return 0, fmt.Errorf("negative amount")
	}

	parts := strings.Split(s, ".")

	if len(parts) == 1 {
		n, err := strconv.ParseInt(parts[0], 10, 64)
		if err != nil {
			return 0, err
		}
		for i := 0; i < decimals; i++ {
			n *= 10
		}
		return n, nil
	}

	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid decimal format")
	}

	whole := parts[0]
	frac := parts[1]
	if whole == "" {
		whole = "0"
	}
	if frac == "" {
		return 0, fmt.Errorf("invalid decimal format")
	}

	if len(frac) > decimals {
		return 0, fmt.Errorf("more than %d decimal places", decimals)
	}
	if len(frac) < decimals {
		frac += strings.Repeat("0", decimals-len(frac))
	}

	return strconv.ParseInt(whole+frac, 10, 64)
}
