package httpapi

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Parthiban1805/Campus-visitor-pass/internal/gatepass/store"
	"github.com/Parthiban1805/Campus-visitor-pass/internal/gatepass/visit"
)

// ── Scan history filter ──────────────────────────────────────────────────────

func scanFilterFromQuery(q url.Values) (store.ScanLogFilter, error) {
	f := store.ScanLogFilter{
		RequestID: strings.TrimSpace(q.Get("request_id")),
		Agent:     strings.TrimSpace(q.Get("agent")),
		Gate:      strings.TrimSpace(q.Get("gate")),
	}

	if v := q.Get("action"); v != "" {
		a := visit.Action(strings.ToLower(v))
		if !a.Valid() {
			return store.ScanLogFilter{}, fmt.Errorf("unknown action %q", v)
		}
		f.Action = a
	}
	if v := q.Get("outcome"); v != "" {
		o := visit.Outcome(strings.ToLower(v))
		if o != visit.OutcomeSuccess && o != visit.OutcomeFailed {
			return store.ScanLogFilter{}, fmt.Errorf("unknown outcome %q", v)
		}
		f.Outcome = o
	}

	var err error
	if f.From, err = parseTimeParam(q, "from"); err != nil {
		return store.ScanLogFilter{}, err
	}
	if f.To, err = parseTimeParam(q, "to"); err != nil {
		return store.ScanLogFilter{}, err
	}
	if !f.From.IsZero() && !f.To.IsZero() && !f.From.Before(f.To) {
		return store.ScanLogFilter{}, errors.New("from must be before to")
	}
	if f.Limit, err = parseIntParam(q, "limit"); err != nil {
		return store.ScanLogFilter{}, err
	}
	if f.Offset, err = parseIntParam(q, "offset"); err != nil {
		return store.ScanLogFilter{}, err
	}
	return f, nil
}

// ── Summary window ───────────────────────────────────────────────────────────

// sinceFromQuery defaults to the start of the current UTC day.
func sinceFromQuery(q url.Values, now time.Time) (time.Time, error) {
	since, err := parseTimeParam(q, "since")
	if err != nil {
		return time.Time{}, err
	}
	if since.IsZero() {
		now = now.UTC()
		since = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	}
	return since, nil
}

// ── Params ───────────────────────────────────────────────────────────────────

// parseTimeParam accepts RFC 3339 timestamps or a bare YYYY-MM-DD (UTC
// midnight). A missing parameter is the zero time.
func parseTimeParam(q url.Values, name string) (time.Time, error) {
	v := strings.TrimSpace(q.Get(name))
	if v == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(time.DateOnly, v); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("%s: %q is not an RFC 3339 time or YYYY-MM-DD date", name, v)
}

func parseIntParam(q url.Values, name string) (int, error) {
	v := strings.TrimSpace(q.Get(name))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer", name)
	}
	return n, nil
}
