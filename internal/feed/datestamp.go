// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package feed

import (
	"regexp"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jinzhu/now"
)

// datestampPattern accepts the two OAI-PMH UTC granularities.
var datestampPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}(T\d{2}:\d{2}:\d{2}Z)?$`)

const (
	dayLayout    = "2006-01-02"
	secondLayout = "2006-01-02T15:04:05Z"
)

var (
	// ErrBadDatestamp is returned for a from/until value that is not a
	// UTC datestamp.
	ErrBadDatestamp = errors.New("malformed datestamp")

	// ErrInvertedRange is returned when from is after until.
	ErrInvertedRange = errors.New("from datestamp is after until datestamp")
)

// ParseDatestamp parses s in either granularity. dayOnly reports whether
// s carried a date without a time.
func ParseDatestamp(s string) (t time.Time, dayOnly bool, err error) {
	if !datestampPattern.MatchString(s) {
		return time.Time{}, false, errors.Wrapf(ErrBadDatestamp, "%q", s)
	}
	layout := secondLayout
	if len(s) == len(dayLayout) {
		layout = dayLayout
		dayOnly = true
	}
	t, err = time.Parse(layout, s)
	if err != nil {
		return time.Time{}, false, errors.Wrapf(ErrBadDatestamp, "%q: %v", s, err)
	}
	return t.UTC(), dayOnly, nil
}

// ValidateRange checks the optional from/until filter. Empty values are
// unbounded. A day-granular until covers the whole of that day, so
// from=until=2020-01-01 is a valid one-day window.
func ValidateRange(from, until string) error {
	var lo, hi time.Time
	var err error
	if from != "" {
		if lo, _, err = ParseDatestamp(from); err != nil {
			return err
		}
	}
	if until != "" {
		var dayOnly bool
		if hi, dayOnly, err = ParseDatestamp(until); err != nil {
			return err
		}
		if dayOnly {
			hi = now.New(hi).EndOfDay()
		}
	}
	if from != "" && until != "" && lo.After(hi) {
		return errors.Wrapf(ErrInvertedRange, "from=%s until=%s", from, until)
	}
	return nil
}
