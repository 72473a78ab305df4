package web

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
)

// ParamValidator reports whether a parsed path parameter is acceptable.
type ParamValidator func(v int64) bool

func gte(min int64) ParamValidator {
	return func(v int64) bool { return v >= min }
}

// parsePathValidate parses the path parameter key as a 32-bit integer and checks it
// against every validator. The first failure answers 400.
func parsePathValidate(r *http.Request, w http.ResponseWriter, logger *slog.Logger, key string, validators ...ParamValidator) (int, bool) {
	raw := r.PathValue(key)
	n, err := strconv.ParseInt(raw, 10, 32)
	if err == nil {
		for _, ok := range validators {
			if !ok(n) {
				err = strconv.ErrRange
				break
			}
		}
	}
	if err != nil {
		RespondError(w, logger, http.StatusBadRequest, fmt.Sprintf("Invalid %s number: %s", key, raw))
		return 0, false
	}
	return int(n), true
}
