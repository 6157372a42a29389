package alpacahttp

import (
	"net/http"
	"strings"

	"github.com/nasa-jpl/alpacahub/alpacaerr"
	"github.com/nasa-jpl/alpacahub/registry"
)

// dispatchGet performs stage 2 for a GET request: common ops are handled
// uniformly for every category, then control passes to the
// category-specific dispatcher.
func (s *Server) dispatchGet(w http.ResponseWriter, r *http.Request, res resolved) {
	op := strings.ToLower(res.op)

	d, err := s.Reg.Get(res.category, res.index)
	if err != nil {
		// index validity was already confirmed in resolve(); this can't
		// fail in practice, but stage 2 never trusts stage 1 blindly.
		writeDomainError(w, res.scaffold, err)
		return
	}

	switch op {
	case "connected":
		writeValue(w, res.scaffold, d.Connected())
		return
	case "description":
		writeValue(w, res.scaffold, d.Description())
		return
	case "driverinfo":
		writeValue(w, res.scaffold, d.DriverInfo())
		return
	case "driverversion":
		writeValue(w, res.scaffold, d.DriverVersion())
		return
	case "interfaceversion":
		writeValue(w, res.scaffold, d.InterfaceVersion())
		return
	case "name":
		writeValue(w, res.scaffold, d.Name())
		return
	case "supportedactions":
		actions := d.SupportedActions()
		if actions == nil {
			actions = []string{}
		}
		writeValue(w, res.scaffold, actions)
		return
	case "action", "commandblind", "commandbool", "commandstring":
		writeDomainError(w, res.scaffold, alpacaerr.NotImplementedf("%s is not supported by this device", op))
		return
	}

	switch res.category {
	case registry.CategoryCamera:
		s.dispatchCameraGet(w, r, res, op)
	case registry.CategoryTelescope:
		s.dispatchTelescopeGet(w, r, res, op)
	case registry.CategoryFocuser:
		s.dispatchFocuserGet(w, r, res, op)
	case registry.CategoryFilterWheel:
		s.dispatchFilterWheelGet(w, r, res, op)
	case registry.CategoryRotator:
		s.dispatchRotatorGet(w, r, res, op)
	case registry.CategorySwitch:
		s.dispatchSwitchGet(w, r, res, op)
	default:
		writeDomainError(w, res.scaffold, alpacaerr.NotImplementedf("unknown operation %s", op))
	}
}

// dispatchPut performs stage 2 for a PUT request.
func (s *Server) dispatchPut(w http.ResponseWriter, r *http.Request, res resolved) {
	op := strings.ToLower(res.op)

	d, err := s.Reg.Get(res.category, res.index)
	if err != nil {
		writeDomainError(w, res.scaffold, err)
		return
	}

	if op == "connected" {
		connected, err := requireBool(r, "Connected")
		if err != nil {
			writeDomainError(w, res.scaffold, err)
			return
		}
		if err := d.SetConnected(connected); err != nil {
			writeDomainError(w, res.scaffold, err)
			return
		}
		writeJSON(w, res.scaffold)
		return
	}

	switch op {
	case "action":
		s.handleAction(w, r, res, d)
		return
	case "commandblind", "commandbool", "commandstring":
		writeDomainError(w, res.scaffold, alpacaerr.NotImplementedf("%s is not supported by this device", op))
		return
	}

	switch res.category {
	case registry.CategoryCamera:
		s.dispatchCameraPut(w, r, res, op)
	case registry.CategoryTelescope:
		s.dispatchTelescopePut(w, r, res, op)
	case registry.CategoryFocuser:
		s.dispatchFocuserPut(w, r, res, op)
	case registry.CategoryFilterWheel:
		s.dispatchFilterWheelPut(w, r, res, op)
	case registry.CategoryRotator:
		s.dispatchRotatorPut(w, r, res, op)
	case registry.CategorySwitch:
		s.dispatchSwitchPut(w, r, res, op)
	default:
		writeDomainError(w, res.scaffold, alpacaerr.NotImplementedf("unknown operation %s", op))
	}
}

// handleAction routes PUT /action to the device, but only for action
// names the device advertises in SupportedActions (spec.md §4.1:
// everything else stays NotImplemented).
func (s *Server) handleAction(w http.ResponseWriter, r *http.Request, res resolved, d registry.Common) {
	name, err := requireString(r, "Action")
	if err != nil {
		writeDomainError(w, res.scaffold, err)
		return
	}
	handler, ok := d.(registry.ActionHandler)
	if !ok || !advertisesAction(d.SupportedActions(), name) {
		writeDomainError(w, res.scaffold, alpacaerr.NotImplementedf("action %q is not supported by this device", name))
		return
	}
	params, _ := stringParam(r, "Parameters")
	result, err := handler.Action(name, params)
	if err != nil {
		writeDomainError(w, res.scaffold, err)
		return
	}
	writeValue(w, res.scaffold, result)
}

func advertisesAction(actions []string, name string) bool {
	for _, a := range actions {
		if strings.EqualFold(a, name) {
			return true
		}
	}
	return false
}

// requireConnected is used by every non-identity operation to raise
// NotConnected uniformly (spec.md §7).
func requireConnected(connected bool) error {
	if !connected {
		return alpacaerr.NotConnectedf("device is not connected")
	}
	return nil
}
