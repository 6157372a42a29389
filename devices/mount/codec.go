// Package mount implements registry.Telescope over the fixed-width
// ASCII command/response protocol spec.md §4.4 specifies, built on the
// serialport transport the way pi.Controller builds GCS2 over a TCP
// pool: a write/query pair serializes every exchange under the port's
// own mutex, and responses are decoded with strict, shape-specific
// regexes instead of a general-purpose tokenizer.
package mount

import (
	"fmt"
	"math"
	"regexp"
	"strconv"

	"github.com/nasa-jpl/alpacahub/alpacaerr"
)

// --- Command builders (spec.md §4.4 table) ---

func cmdSetDate(month, day, year int) string {
	return fmt.Sprintf(":SC%02d/%02d/%02d#", month, day, year%100)
}

func cmdSetTime(hh, mm, ss int) string {
	return fmt.Sprintf(":SL%02d:%02d:%02d#", hh, mm, ss)
}

func cmdSetTimezone(sign byte, hh, mm int) string {
	return fmt.Sprintf(":SG%c%02d:%02d#", sign, hh, mm)
}

func cmdSetLatitude(sign byte, dd, mm, ss int) string {
	return fmt.Sprintf(":St%c%02d*%02d:%02d#", sign, dd, mm, ss)
}

func cmdSetLongitude(sign byte, ddd, mm, ss int) string {
	return fmt.Sprintf(":Sg%c%03d*%02d:%02d#", sign, ddd, mm, ss)
}

func cmdSetTargetRA(hh, mm, ss int) string {
	return fmt.Sprintf(":Sr%02d:%02d:%02d#", hh, mm, ss)
}

func cmdSetTargetDec(sign byte, dd, mm, ss int) string {
	return fmt.Sprintf(":Sd%c%02d:%02d:%02d#", sign, dd, mm, ss)
}

// cmdSetAndGoto is the composite set+goto command spec.md §4.4 lists.
func cmdSetAndGoto(raHH, raMM, raSS int, decSign byte, decDD, decMM, decSS int) string {
	return fmt.Sprintf(":SMeq%02d:%02d:%02d&%c%02d*%02d:%02d#",
		raHH, raMM, raSS, decSign, decDD, decMM, decSS)
}

func cmdMoveAtRate(rate float64) string {
	return fmt.Sprintf(":Rv%07.2f#", rate)
}

func cmdPulseGuide(direction byte, ms int) string {
	return fmt.Sprintf(":Mg%c%04d#", direction, ms)
}

const (
	cmdGoto              = ":MS#"
	cmdGotoHorizontal    = ":MA#"
	cmdStopMoving        = ":Q#"
	cmdGetRA             = ":GR#"
	cmdGetDec            = ":GD#"
	cmdGetAzimuth        = ":GZ#"
	cmdGetAltitude       = ":GA#"
	cmdGetTargetRA       = ":Gr#"
	cmdGetTargetDec      = ":Gd#"
	cmdGetLatitude       = ":Gt#"
	cmdGetLongitude      = ":Gg#"
	cmdStartTracking     = ":Te#"
	cmdStopTracking      = ":Td#"
	cmdSetRateSidereal   = ":TQ#"
	cmdSetRateSolar      = ":TS#"
	cmdSetRateLunar      = ":TL#"
	cmdSetRateKing       = ":TK#"
	cmdGetTrackingStatus = ":GAT#"
	cmdSync              = ":CM#"
	cmdHomePosition      = ":hC#"
	cmdPark              = ":hP#"
	cmdRestoreParked     = ":hR#"
	cmdMoveEast          = ":Me#"
	cmdStopEast          = ":Qe#"
	cmdMoveWest          = ":Mw#"
	cmdStopWest          = ":Qw#"
	cmdMoveNorth         = ":Mn#"
	cmdStopNorth         = ":Qn#"
	cmdMoveSouth         = ":Ms#"
	cmdStopSouth         = ":Qs#"
	cmdGetStatus         = ":GU#"
	cmdGetDate           = ":GC#"
	cmdGetLocalTime      = ":GL#"
	cmdGetTimezone       = ":GG#"
)

func cmdSetGuideRate(rate float64) string {
	return fmt.Sprintf(":Rg%04.2f#", rate)
}

// cmdSwitchToEquatorialMode is the classic LX200 ":AP#" polar-alignment
// command, sent once at connect as a best-effort nudge out of Alt/Az
// mode -- many mounts never answer it at all.
const cmdSwitchToEquatorialMode = ":AP#"

// cmdSetMeridianFlipPolicy encodes the flip-enabled flag, the
// continue-tracking-after-flip flag, and the limit angle in degrees,
// grounded on zwo_am5_commands.hpp's cmd_set_act_of_crossing_meridian.
func cmdSetMeridianFlipPolicy(performFlip, continueTracking bool, limitAngleDeg float64) string {
	pf, ct := 0, 0
	if performFlip {
		pf = 1
	}
	if continueTracking {
		ct = 1
	}
	return fmt.Sprintf(":SMF%d%d%03d#", pf, ct, int(limitAngleDeg))
}

// --- Response decoding ---

var (
	reStandard = regexp.MustCompile(`^e?([0-9])#`)
	reHHMMSS   = regexp.MustCompile(`^([0-9]{2}):([0-9]{2}):([0-9]{2})#`)
	reDDMMSS   = regexp.MustCompile(`^([0-9]{2})\*([0-9]{2}):([0-9]{2})#`)
	reSDDMMSS  = regexp.MustCompile(`^([+-])([0-9]{2})\*([0-9]{2}):([0-9]{2})#`)
	reSDDDMMSS = regexp.MustCompile(`^([+-])([0-9]{3})\*([0-9]{2}):([0-9]{2})#`)
	reSHHMM    = regexp.MustCompile(`^([+-])([0-9]{2}):([0-9]{2})#`)
	reMMDDYY   = regexp.MustCompile(`^([0-9]{2})/([0-9]{2})/([0-9]{2})#`)
)

// parseStandardResponse decodes the single-digit (or e-prefixed
// single-digit) acknowledgement shape.
func parseStandardResponse(resp string) (int, error) {
	m := reStandard.FindStringSubmatch(resp)
	if m == nil {
		return 0, alpacaerr.DriverErrorf("could not parse mount response %q", resp)
	}
	n, _ := strconv.Atoi(m[1])
	return n, nil
}

// hms holds an hh:mm:ss triple and converts to decimal hours, carrying a
// seconds-round-up into minutes and minutes into hours (spec.md §4.4).
type hms struct{ hh, mm, ss int }

func (h hms) toDecimal() float64 {
	return float64(h.hh) + float64(h.mm)/60 + float64(h.ss)/3600
}

func hmsFromDecimal(val float64) hms {
	hh := int(val)
	mm := int((val - float64(hh)) * 60)
	ss := int(math.Round((val - float64(hh) - float64(mm)/60) * 3600))
	if ss == 60 {
		ss = 0
		mm++
	}
	if mm == 60 {
		mm = 0
		hh++
	}
	return hms{hh, mm, ss}
}

func parseHMS(resp string) (hms, error) {
	m := reHHMMSS.FindStringSubmatch(resp)
	if m == nil {
		return hms{}, alpacaerr.DriverErrorf("could not parse hh:mm:ss response %q", resp)
	}
	hh, _ := strconv.Atoi(m[1])
	mm, _ := strconv.Atoi(m[2])
	ss, _ := strconv.Atoi(m[3])
	return hms{hh, mm, ss}, nil
}

// sdms holds a signed degrees:minutes:seconds triple (latitude-width:
// 2-digit degrees).
type sdms struct {
	sign       byte
	dd, mm, ss int
}

func (d sdms) toDecimal() float64 {
	v := float64(d.dd) + float64(d.mm)/60 + float64(d.ss)/3600
	if d.sign == '-' {
		v = -v
	}
	return v
}

func sdmsFromDecimal(val float64) sdms {
	sign := byte('+')
	if val < 0 {
		sign = '-'
		val = -val
	}
	dd := int(val)
	mm := int((val - float64(dd)) * 60)
	ss := int(math.Round((val - float64(dd) - float64(mm)/60) * 3600))
	if ss == 60 {
		ss = 0
		mm++
	}
	if mm == 60 {
		mm = 0
		dd++
	}
	return sdms{sign, dd, mm, ss}
}

func parseSDDMMSS(resp string) (sdms, error) {
	m := reSDDMMSS.FindStringSubmatch(resp)
	if m == nil {
		return sdms{}, alpacaerr.DriverErrorf("could not parse sdd*mm:ss response %q", resp)
	}
	dd, _ := strconv.Atoi(m[2])
	mm, _ := strconv.Atoi(m[3])
	ss, _ := strconv.Atoi(m[4])
	return sdms{m[1][0], dd, mm, ss}, nil
}

func parseSDDDMMSS(resp string) (sdms, error) {
	m := reSDDDMMSS.FindStringSubmatch(resp)
	if m == nil {
		return sdms{}, alpacaerr.DriverErrorf("could not parse sddd*mm:ss response %q", resp)
	}
	ddd, _ := strconv.Atoi(m[2])
	mm, _ := strconv.Atoi(m[3])
	ss, _ := strconv.Atoi(m[4])
	return sdms{m[1][0], ddd, mm, ss}, nil
}

func parseDDMMSS(resp string) (sdms, error) {
	m := reDDMMSS.FindStringSubmatch(resp)
	if m == nil {
		return sdms{}, alpacaerr.DriverErrorf("could not parse dd*mm:ss response %q", resp)
	}
	dd, _ := strconv.Atoi(m[1])
	mm, _ := strconv.Atoi(m[2])
	ss, _ := strconv.Atoi(m[3])
	return sdms{'+', dd, mm, ss}, nil
}

// parseDate decodes the mm/dd/yy calendar response shape. The two-digit
// year is anchored to 2000; the mount has no notion of earlier dates.
func parseDate(resp string) (month, day, year int, err error) {
	m := reMMDDYY.FindStringSubmatch(resp)
	if m == nil {
		return 0, 0, 0, alpacaerr.DriverErrorf("could not parse mm/dd/yy response %q", resp)
	}
	month, _ = strconv.Atoi(m[1])
	day, _ = strconv.Atoi(m[2])
	yy, _ := strconv.Atoi(m[3])
	return month, day, 2000 + yy, nil
}

// parseSignedHHMM decodes the ±hh:mm timezone-offset response shape.
func parseSignedHHMM(resp string) (sign byte, hh, mm int, err error) {
	m := reSHHMM.FindStringSubmatch(resp)
	if m == nil {
		return 0, 0, 0, alpacaerr.DriverErrorf("could not parse ±hh:mm response %q", resp)
	}
	h, _ := strconv.Atoi(m[2])
	mn, _ := strconv.Atoi(m[3])
	return m[1][0], h, mn, nil
}
