package cli

import (
	"encoding/json"
	"fmt"
	"io"

	apperrors "invokesigned/internal/shared_kernel/errors"
)

// field is one line of text output. JSON output uses the same keys.
type field struct {
	key   string
	value any
}

func writeResult(w io.Writer, format string, fields []field) error {
	if format == "json" {
		out := make(map[string]any, len(fields))
		for _, f := range fields {
			out[f.key] = f.value
		}
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(out)
	}

	for _, f := range fields {
		if _, err := fmt.Fprintf(w, "%s: %v\n", f.key, f.value); err != nil {
			return err
		}
	}
	return nil
}

// ledgerError turns a ledger response into a command error that keeps the
// error code visible.
func ledgerError(action string, appErr *apperrors.AppError) error {
	if hash, ok := appErr.Details["call_hash"]; ok {
		return fmt.Errorf("%s: %s (%s, call %v)", action, appErr.Message, appErr.Code, hash)
	}
	return fmt.Errorf("%s: %s (%s)", action, appErr.Message, appErr.Code)
}
