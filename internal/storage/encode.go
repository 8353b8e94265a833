package storage

import (
	"database/sql"
	"encoding/json"
	"time"

	"cloud.google.com/go/civil"

	"github.com/wagnerlima/memory-cloud/archimodel/internal/errors"
)

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "parse timestamp %q", s)
	}
	return t.UTC(), nil
}

func formatDate(d *civil.Date) sql.NullString {
	if d == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

func parseDate(ns sql.NullString) (*civil.Date, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	d, err := civil.ParseDate(ns.String)
	if err != nil {
		return nil, errors.Wrapf(err, "parse date %q", ns.String)
	}
	return &d, nil
}

func encodeMap(m map[string]string) (string, error) {
	if len(m) == 0 {
		return "{}", nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return "", errors.Wrap(err, "encode map")
	}
	return string(data), nil
}

func decodeMap(s string) (map[string]string, error) {
	m := map[string]string{}
	if s == "" {
		return m, nil
	}
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil, errors.Wrap(err, "decode map")
	}
	return m, nil
}

func copyMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// checkInterval rejects valid_from after valid_to.
func checkInterval(from, to *civil.Date) error {
	if from != nil && to != nil && from.After(*to) {
		return errors.Validationf("valid_from", "%s is after valid_to %s", from, to)
	}
	return nil
}
