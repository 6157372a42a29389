package camera

// sensorQuirks lists sensor names whose effective y-dimension must be
// halved after the overscan-cropped sub-rect is computed. The original
// driver applied this via an ad-hoc condition on a handful of sensor
// models; this hub keeps the behavior but gates it by sensor identifier
// instead of applying it to every camera (spec.md §9, Open Question b).
var sensorQuirks = map[string]bool{}

// halvesEffectiveHeight reports whether sensorName needs the y-halving
// quirk. Absent from the table means off.
func halvesEffectiveHeight(sensorName string) bool {
	return sensorQuirks[sensorName]
}
