package alpacahttp

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/nasa-jpl/alpacahub/alpacaerr"
)

// values returns the request's query parameters (GET) or parsed form
// values (PUT, form-encoded body) -- net/http's ParseForm already merges
// both, which is what we want since some clients send PUT parameters on
// the query string too.
func values(r *http.Request) url.Values {
	_ = r.ParseForm()
	return r.Form
}

// lookup performs a case-insensitive key match against v, as spec.md
// §4.1 requires ("Parses the query string ... case-insensitively on
// keys").
func lookup(v url.Values, key string) (string, bool) {
	key = strings.ToLower(key)
	for k, vals := range v {
		if strings.ToLower(k) == key && len(vals) > 0 {
			return vals[0], true
		}
	}
	return "", false
}

func stringParam(r *http.Request, key string) (string, bool) {
	return lookup(values(r), key)
}

func uint32Param(r *http.Request, key string) (uint32, bool) {
	s, ok := stringParam(r, key)
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint32(n), true
}

// requireBool coerces a PUT parameter to bool. Alpaca accepts exactly
// the literals "True" and "False" (spec.md §4.1, invariant I6); anything
// else, including absence, is InvalidValue.
func requireBool(r *http.Request, key string) (bool, error) {
	s, ok := stringParam(r, key)
	if !ok {
		return false, alpacaerr.InvalidValuef("missing required parameter %s", key)
	}
	switch s {
	case "True":
		return true, nil
	case "False":
		return false, nil
	default:
		return false, alpacaerr.InvalidValuef("%s must be the literal True or False, got %q", key, s)
	}
}

// requireFloat64 coerces a PUT parameter to a double.
func requireFloat64(r *http.Request, key string) (float64, error) {
	s, ok := stringParam(r, key)
	if !ok {
		return 0, alpacaerr.InvalidValuef("missing required parameter %s", key)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, alpacaerr.InvalidValuef("%s must be numeric, got %q", key, s)
	}
	return f, nil
}

// requireInt32 coerces a PUT parameter to int32.
func requireInt32(r *http.Request, key string) (int32, error) {
	s, ok := stringParam(r, key)
	if !ok {
		return 0, alpacaerr.InvalidValuef("missing required parameter %s", key)
	}
	n, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, alpacaerr.InvalidValuef("%s must be an integer, got %q", key, s)
	}
	return int32(n), nil
}

// requireUint32 coerces a PUT parameter to uint32.
func requireUint32(r *http.Request, key string) (uint32, error) {
	s, ok := stringParam(r, key)
	if !ok {
		return 0, alpacaerr.InvalidValuef("missing required parameter %s", key)
	}
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, alpacaerr.InvalidValuef("%s must be an unsigned integer, got %q", key, s)
	}
	return uint32(n), nil
}

// requireString coerces a PUT parameter to string (void/no coercion
// failure possible beyond absence).
func requireString(r *http.Request, key string) (string, error) {
	s, ok := stringParam(r, key)
	if !ok {
		return "", alpacaerr.InvalidValuef("missing required parameter %s", key)
	}
	return s, nil
}
