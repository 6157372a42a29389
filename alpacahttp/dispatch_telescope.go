package alpacahttp

import (
	"net/http"
	"time"

	"github.com/nasa-jpl/alpacahub/alpacaerr"
)

func (s *Server) dispatchTelescopeGet(w http.ResponseWriter, r *http.Request, res resolved, op string) {
	t, err := s.Reg.AsTelescope(res.index)
	if err != nil {
		writeDomainError(w, res.scaffold, err)
		return
	}
	if err := requireConnected(t.Connected()); err != nil {
		writeDomainError(w, res.scaffold, err)
		return
	}

	switch op {
	case "tracking":
		writeValue(w, res.scaffold, t.Tracking())
	case "trackingrate":
		writeValue(w, res.scaffold, int(t.TrackingRate()))
	case "guideratedeclination":
		writeValue(w, res.scaffold, t.GuideRateDeclination())
	case "guideraterightascension":
		writeValue(w, res.scaffold, t.GuideRateRightAscension())
	case "rightascension":
		writeValue(w, res.scaffold, t.RightAscension())
	case "declination":
		writeValue(w, res.scaffold, t.Declination())
	case "altitude":
		writeValue(w, res.scaffold, t.Altitude())
	case "azimuth":
		writeValue(w, res.scaffold, t.Azimuth())
	case "targetrightascension":
		v, err := t.TargetRightAscension()
		respondFloatOp(w, res, v, err)
	case "targetdeclination":
		v, err := t.TargetDeclination()
		respondFloatOp(w, res, v, err)
	case "sitelatitude":
		v, err := t.SiteLatitude()
		respondFloatOp(w, res, v, err)
	case "sitelongitude":
		v, err := t.SiteLongitude()
		respondFloatOp(w, res, v, err)
	case "siteelevation":
		v, err := t.SiteElevation()
		respondFloatOp(w, res, v, err)
	case "sideofpier":
		writeValue(w, res.scaffold, int(t.SideOfPier()))
	case "slewing":
		writeValue(w, res.scaffold, t.Slewing())
	case "ispulseguiding":
		writeValue(w, res.scaffold, t.IsPulseGuiding())
	case "atpark":
		writeValue(w, res.scaffold, t.AtPark())
	case "athome":
		writeValue(w, res.scaffold, t.AtHome())
	case "alignmentmode":
		writeValue(w, res.scaffold, 1) // polar, fixed per spec.md §3
	case "equatorialsystem":
		writeValue(w, res.scaffold, 1) // topocentric
	case "trackingrates":
		writeValue(w, res.scaffold, []int{0, 1, 2, 3})
	case "declinationrate", "rightascensionrate":
		writeValue(w, res.scaffold, 0.0)
	case "doesrefraction":
		writeValue(w, res.scaffold, false)
	case "canmoveaxis":
		axis, err := requireInt32(r, "Axis")
		if err != nil {
			writeDomainError(w, res.scaffold, err)
			return
		}
		writeValue(w, res.scaffold, axis == 0 || axis == 1)
	case "canpulseguide", "canslew", "canslewasync", "cansync", "canpark", "canunpark",
		"cansettracking", "cansetguiderates", "cansetpark", "canfindhome":
		writeValue(w, res.scaffold, true)
	case "cansetdeclinationrate", "cansetrightascensionrate", "cansetpierside", "canslewaltaz", "canslewaltazasync", "cansyncaltaz":
		writeValue(w, res.scaffold, false)
	case "utcdate":
		v, err := t.UTCDate()
		if err != nil {
			writeDomainError(w, res.scaffold, err)
			return
		}
		writeValue(w, res.scaffold, v.UTC().Format(time.RFC3339))
	default:
		writeDomainError(w, res.scaffold, alpacaerr.NotImplementedf("unknown telescope operation %s", op))
	}
}

func (s *Server) dispatchTelescopePut(w http.ResponseWriter, r *http.Request, res resolved, op string) {
	t, err := s.Reg.AsTelescope(res.index)
	if err != nil {
		writeDomainError(w, res.scaffold, err)
		return
	}
	if err := requireConnected(t.Connected()); err != nil {
		writeDomainError(w, res.scaffold, err)
		return
	}

	switch op {
	case "tracking":
		var v bool
		if v, err = requireBool(r, "Tracking"); err == nil {
			err = t.SetTracking(v)
		}
	case "trackingrate":
		var v int32
		if v, err = requireInt32(r, "TrackingRate"); err == nil {
			err = t.SetTrackingRate(trackingRateFromInt(v))
		}
	case "guideratedeclination":
		var v float64
		if v, err = requireFloat64(r, "GuideRateDeclination"); err == nil {
			err = t.SetGuideRateDeclination(v)
		}
	case "guideraterightascension":
		var v float64
		if v, err = requireFloat64(r, "GuideRateRightAscension"); err == nil {
			err = t.SetGuideRateRightAscension(v)
		}
	case "targetrightascension":
		var v float64
		if v, err = requireFloat64(r, "TargetRightAscension"); err == nil {
			err = t.SetTargetRightAscension(v)
		}
	case "targetdeclination":
		var v float64
		if v, err = requireFloat64(r, "TargetDeclination"); err == nil {
			err = t.SetTargetDeclination(v)
		}
	case "sitelatitude":
		var v float64
		if v, err = requireFloat64(r, "SiteLatitude"); err == nil {
			err = t.SetSiteLatitude(v)
		}
	case "sitelongitude":
		var v float64
		if v, err = requireFloat64(r, "SiteLongitude"); err == nil {
			err = t.SetSiteLongitude(v)
		}
	case "siteelevation":
		var v float64
		if v, err = requireFloat64(r, "SiteElevation"); err == nil {
			err = t.SetSiteElevation(v)
		}
	case "slewtocoordinates":
		var ra, dec float64
		if ra, err = requireFloat64(r, "RightAscension"); err == nil {
			if dec, err = requireFloat64(r, "Declination"); err == nil {
				err = t.SlewToCoordinates(ra, dec)
			}
		}
	case "slewtocoordinatesasync":
		var ra, dec float64
		if ra, err = requireFloat64(r, "RightAscension"); err == nil {
			if dec, err = requireFloat64(r, "Declination"); err == nil {
				err = t.SlewToCoordinatesAsync(ra, dec)
			}
		}
	case "slewtotarget":
		err = t.SlewToTarget()
	case "slewtotargetasync":
		err = t.SlewToTargetAsync()
	case "synctocoordinates":
		var ra, dec float64
		if ra, err = requireFloat64(r, "RightAscension"); err == nil {
			if dec, err = requireFloat64(r, "Declination"); err == nil {
				err = t.SyncToCoordinates(ra, dec)
			}
		}
	case "abortslew":
		err = t.AbortSlew()
	case "findhome":
		err = t.FindHome()
	case "park":
		err = t.Park()
	case "unpark":
		err = t.Unpark()
	case "moveaxis":
		var axis int32
		var rate float64
		if axis, err = requireInt32(r, "Axis"); err == nil {
			if rate, err = requireFloat64(r, "Rate"); err == nil {
				err = t.MoveAxis(axis, rate)
			}
		}
	case "pulseguide":
		var direction, duration int32
		if direction, err = requireInt32(r, "Direction"); err == nil {
			if duration, err = requireInt32(r, "Duration"); err == nil {
				err = t.PulseGuide(direction, duration)
			}
		}
	case "utcdate":
		var raw string
		if raw, err = requireString(r, "UTCDate"); err == nil {
			var ts time.Time
			if ts, err = parseUTCDateParam(raw); err == nil {
				err = t.SetUTCDateTime(ts)
			}
		}
	default:
		err = alpacaerr.NotImplementedf("unknown telescope operation %s", op)
	}

	if err != nil {
		writeDomainError(w, res.scaffold, err)
		return
	}
	writeJSON(w, res.scaffold)
}
