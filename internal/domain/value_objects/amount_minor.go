package valueobjects

import (
	"regexp"
	"strconv"
	"strings"

	apperrors "invokesigned/internal/shared_kernel/errors"
)

var amountMinorPattern = regexp.MustCompile(`^[0-9]{1,20}$`)

// ParseAmountMinor parses an exact lamport amount. Floats, signs and values
// above the uint64 range are rejected.
func ParseAmountMinor(field, raw string) (uint64, *apperrors.AppError) {
	value := strings.TrimSpace(raw)
	if !amountMinorPattern.MatchString(value) {
		return 0, apperrors.NewValidation(
			"invalid_request",
			field+" must be an integer string with 1 to 20 digits",
			map[string]any{"field": field},
		)
	}

	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, apperrors.NewValidation(
			"invalid_request",
			field+" exceeds the maximum lamport amount",
			map[string]any{"field": field},
		)
	}

	return parsed, nil
}

func FormatAmountMinor(amount uint64) string {
	return strconv.FormatUint(amount, 10)
}
