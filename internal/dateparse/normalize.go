// Package dateparse normalizes the date encodings found on invoices into the
// canonical YYYY-MM-DD form.
//
// Recognized encodings, in priority order:
//   - 2025-06-13  ISO date, returned unchanged
//   - 2025/10/14  slash separated, slashes replaced by hyphens
//   - 9/14/25     US month/day/two-digit-year
//   - 1141014     Republic of China (Minguo) year + month + day, as printed in e-invoice QR codes
//
// Two-digit years follow Go's "06" layout rule: 69-99 map to 1969-1999 and
// 00-68 map to 2000-2068.
package dateparse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"invoicehub/internal/logger"
)

// ROCYearOffset converts a Minguo year to a Gregorian year.
const ROCYearOffset = 1911

var (
	isoPattern   = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	slashPattern = regexp.MustCompile(`^\d{4}/\d{2}/\d{2}$`)
	usPattern    = regexp.MustCompile(`^\d{1,2}/\d{1,2}/\d{2}$`)
	rocPattern   = regexp.MustCompile(`^\d{7}$`)
)

// NormalizeISO converts raw into YYYY-MM-DD. It returns nil when raw is nil,
// blank, in an unknown shape, or fails to parse. It never panics.
func NormalizeISO(raw *string) *string {
	if raw == nil {
		return nil
	}
	out, err := Normalize(*raw)
	if err != nil {
		return nil
	}
	return &out
}

// Normalize is NormalizeISO for plain strings; the error explains why the
// value could not be normalized.
func Normalize(raw string) (result string, err error) {
	defer func() {
		if r := recover(); r != nil {
			result, err = "", fmt.Errorf("dateparse: panic normalizing %q: %v", raw, r)
		}
	}()

	value := strings.TrimSpace(raw)
	if value == "" {
		return "", ErrEmpty
	}

	switch {
	case isoPattern.MatchString(value):
		return value, nil

	case slashPattern.MatchString(value):
		return strings.ReplaceAll(value, "/", "-"), nil

	case usPattern.MatchString(value):
		t, err := time.Parse("1/2/06", value)
		if err != nil {
			log := logger.WithComponent("dateparse")
			log.Debug().Err(err).Str("raw", value).Msg("Two-digit-year date failed to parse")
			return "", fmt.Errorf("dateparse: %q: %w", value, err)
		}
		return t.Format("2006-01-02"), nil

	case rocPattern.MatchString(value):
		return fromROC(value), nil
	}

	return "", fmt.Errorf("dateparse: %q: %w", value, ErrUnknownFormat)
}

// fromROC expands a 7-digit RRRMMDD Minguo date. Month and day are copied
// verbatim, so out-of-range values come through unchanged (e.g. 2025-13-01).
func fromROC(value string) string {
	rocYear, _ := strconv.Atoi(value[0:3])
	month, _ := strconv.Atoi(value[3:5])
	day, _ := strconv.Atoi(value[5:7])
	return fmt.Sprintf("%04d-%02d-%02d", rocYear+ROCYearOffset, month, day)
}
