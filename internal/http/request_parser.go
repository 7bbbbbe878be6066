package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"bluemoon/internal/core"
)

// errBadRequest marks malformed client input that never reached the domain.
var errBadRequest = errors.New("bad request")

func badRequest(msg string) error {
	return fmt.Errorf("%s: %w", msg, errBadRequest)
}

const maxBodyBytes = 1 << 20

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return badRequest("malformed JSON body")
	}
	return nil
}

// pathParts splits the request path after prefix: "/fees/12/active" with
// prefix "/fees/" yields ["12", "active"].
func pathParts(r *http.Request, prefix string) []string {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, prefix), "/")
	if rest == "" {
		return nil
	}
	return strings.Split(rest, "/")
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, badRequest("invalid id")
	}
	return id, nil
}

// queryInt reads an optional integer query parameter.
func queryInt(r *http.Request, name string) (int, bool, error) {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return 0, false, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false, badRequest("invalid " + name + " parameter")
	}
	return n, true, nil
}

// parseWindow builds the reporting window from year and month query
// parameters. Both given: that calendar month. Year alone: that calendar
// year. Neither: the zero window, which reporting treats as all time.
func parseWindow(r *http.Request) (core.Window, error) {
	year, hasYear, err := queryInt(r, "year")
	if err != nil {
		return core.Window{}, err
	}
	month, hasMonth, err := queryInt(r, "month")
	if err != nil {
		return core.Window{}, err
	}
	if hasMonth && (month < 1 || month > 12) {
		return core.Window{}, badRequest("month out of range")
	}
	switch {
	case hasYear && hasMonth:
		return core.MonthWindow(year, month), nil
	case hasYear:
		return core.YearWindow(year), nil
	case hasMonth:
		return core.MonthWindow(time.Now().UTC().Year(), month), nil
	default:
		return core.Window{}, nil
	}
}

const dateLayout = "2006-01-02"

func parseDate(field, s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, badRequest("invalid " + field + ", want YYYY-MM-DD")
	}
	return t, nil
}
