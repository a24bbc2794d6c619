package services

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrRangeFromDateInvalid = errors.New("invalid from date")
	ErrRangeToDateInvalid   = errors.New("invalid to date")
	ErrRangeOrderInvalid    = errors.New("to date before from date")
)

// ParseDayRange reads optional YYYY-MM-DD bounds. Blank bounds stay nil.
func ParseDayRange(rawFrom string, rawTo string, location *time.Location) (*time.Time, *time.Time, error) {
	var from *time.Time
	if fromRaw := strings.TrimSpace(rawFrom); fromRaw != "" {
		parsed, err := ParseDayKey(fromRaw, location)
		if err != nil {
			return nil, nil, ErrRangeFromDateInvalid
		}
		from = &parsed
	}

	var to *time.Time
	if toRaw := strings.TrimSpace(rawTo); toRaw != "" {
		parsed, err := ParseDayKey(toRaw, location)
		if err != nil {
			return nil, nil, ErrRangeToDateInvalid
		}
		to = &parsed
	}

	if from != nil && to != nil && to.Before(*from) {
		return nil, nil, ErrRangeOrderInvalid
	}
	return from, to, nil
}
