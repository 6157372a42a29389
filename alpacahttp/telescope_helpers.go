package alpacahttp

import (
	"time"

	"github.com/nasa-jpl/alpacahub/alpacaerr"
	"github.com/nasa-jpl/alpacahub/registry"
)

// trackingRateFromInt maps the wire-level TrackingRate integer to the
// typed enum. Values outside {0,1,2,3} pass through unchanged; the
// device driver's SetTrackingRate rejects them with InvalidValue.
func trackingRateFromInt(v int32) registry.TrackingRate {
	switch v {
	case 0:
		return registry.TrackSidereal
	case 1:
		return registry.TrackSolar
	case 2:
		return registry.TrackLunar
	case 3:
		return registry.TrackKing
	default:
		return registry.TrackingRate(v)
	}
}

// parseUTCDateParam accepts the ISO-8601 timestamp forms Alpaca clients
// send for PUT utcdate: RFC 3339 with or without fractional seconds.
func parseUTCDateParam(raw string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05"} {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, alpacaerr.InvalidValuef("UTCDate %q is not an ISO-8601 timestamp", raw)
}
