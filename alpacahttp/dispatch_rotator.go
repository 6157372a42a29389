package alpacahttp

import (
	"net/http"

	"github.com/nasa-jpl/alpacahub/alpacaerr"
)

func (s *Server) dispatchRotatorGet(w http.ResponseWriter, r *http.Request, res resolved, op string) {
	rt, err := s.Reg.AsRotator(res.index)
	if err != nil {
		writeDomainError(w, res.scaffold, err)
		return
	}
	if err := requireConnected(rt.Connected()); err != nil {
		writeDomainError(w, res.scaffold, err)
		return
	}

	switch op {
	case "position":
		writeValue(w, res.scaffold, rt.Position())
	case "mechanicalposition":
		writeValue(w, res.scaffold, rt.MechanicalPosition())
	case "targetposition":
		writeValue(w, res.scaffold, rt.TargetPosition())
	case "ismoving":
		writeValue(w, res.scaffold, rt.IsMoving())
	case "reversed":
		writeValue(w, res.scaffold, rt.Reversed())
	case "canreverse":
		writeValue(w, res.scaffold, rt.CanReverse())
	default:
		writeDomainError(w, res.scaffold, alpacaerr.NotImplementedf("unknown rotator operation %s", op))
	}
}

func (s *Server) dispatchRotatorPut(w http.ResponseWriter, r *http.Request, res resolved, op string) {
	rt, err := s.Reg.AsRotator(res.index)
	if err != nil {
		writeDomainError(w, res.scaffold, err)
		return
	}
	if err := requireConnected(rt.Connected()); err != nil {
		writeDomainError(w, res.scaffold, err)
		return
	}

	switch op {
	case "move":
		var v float64
		if v, err = requireFloat64(r, "Position"); err == nil {
			err = rt.Move(v)
		}
	case "moveabsolute":
		var v float64
		if v, err = requireFloat64(r, "Position"); err == nil {
			err = rt.MoveAbsolute(v)
		}
	case "movemechanical":
		var v float64
		if v, err = requireFloat64(r, "Position"); err == nil {
			err = rt.MoveMechanical(v)
		}
	case "reversed":
		var v bool
		if v, err = requireBool(r, "Reversed"); err == nil {
			err = rt.SetReversed(v)
		}
	case "halt":
		err = rt.Halt()
	default:
		err = alpacaerr.NotImplementedf("unknown rotator operation %s", op)
	}

	if err != nil {
		writeDomainError(w, res.scaffold, err)
		return
	}
	writeJSON(w, res.scaffold)
}
