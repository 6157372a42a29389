package mount

import "time"

// utcOffsetQuirk computes the wire-level timezone write spec.md §4.4
// describes: the driver inverts the sign of the host's UTC offset (a
// documented quirk of the mount's encoding) and, separately, subtracts
// one hour from the local time it sends when DST is active.
func utcOffsetQuirk(t time.Time) (sign byte, hh, mm int, dstActive bool) {
	_, offsetSeconds := t.Zone()
	// Invert: the mount expects the sign flipped relative to the
	// standard civil convention (UTC-5 is sent as +5).
	inverted := -offsetSeconds
	sign = byte('+')
	if inverted < 0 {
		sign = '-'
		inverted = -inverted
	}
	hh = inverted / 3600
	mm = (inverted % 3600) / 60

	std := time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, t.Location())
	_, stdOffset := std.Zone()
	_, curOffset := t.Zone()
	dstActive = curOffset != stdOffset
	return sign, hh, mm, dstActive
}

// localSendTime applies the DST quirk: subtract one hour from the local
// time before it is written to the mount when DST is active.
func localSendTime(t time.Time, dstActive bool) time.Time {
	if dstActive {
		return t.Add(-time.Hour)
	}
	return t
}

// longitudeQuirk inverts the sign of the site longitude on both write
// and read, per spec.md §4.4's "site-longitude field is likewise
// sign-inverted on both write and read".
func longitudeQuirk(deg float64) float64 { return -deg }

// utcFromMountClock reverses the write-side clock encoding: the stored
// timezone offset's sign is inverted back to the civil convention, and
// the hour subtracted when DST was active is restored. The mount itself
// carries no DST indicator, so the host timezone database decides
// whether the restoration applies -- symmetric with utcOffsetQuirk on
// the write side.
func utcFromMountClock(year, month, day, hh, mm, ss int, sign byte, tzHH, tzMM int) time.Time {
	offset := time.Duration(tzHH)*time.Hour + time.Duration(tzMM)*time.Minute
	if sign == '+' {
		// '+' on the wire means the civil offset was negative; inverting
		// back makes the subtraction below an addition.
		offset = -offset
	}
	local := time.Date(year, time.Month(month), day, hh, mm, ss, 0, time.UTC)
	utc := local.Add(-offset)
	if _, _, _, dst := utcOffsetQuirk(time.Now()); dst {
		utc = utc.Add(time.Hour)
	}
	return utc
}
