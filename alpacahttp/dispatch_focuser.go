package alpacahttp

import (
	"net/http"

	"github.com/nasa-jpl/alpacahub/alpacaerr"
)

func (s *Server) dispatchFocuserGet(w http.ResponseWriter, r *http.Request, res resolved, op string) {
	f, err := s.Reg.AsFocuser(res.index)
	if err != nil {
		writeDomainError(w, res.scaffold, err)
		return
	}
	if err := requireConnected(f.Connected()); err != nil {
		writeDomainError(w, res.scaffold, err)
		return
	}

	switch op {
	case "absolute":
		writeValue(w, res.scaffold, f.Absolute())
	case "ismoving":
		writeValue(w, res.scaffold, f.IsMoving())
	case "position":
		writeValue(w, res.scaffold, f.Position())
	case "temperature":
		v, err := f.Temperature()
		respondFloatOp(w, res, v, err)
	case "maxstep":
		writeValue(w, res.scaffold, f.MaxStep())
	case "maxincrement":
		writeValue(w, res.scaffold, f.MaxIncrement())
	case "tempcomp":
		writeValue(w, res.scaffold, false)
	case "tempcompavailable":
		writeValue(w, res.scaffold, false)
	default:
		writeDomainError(w, res.scaffold, alpacaerr.NotImplementedf("unknown focuser operation %s", op))
	}
}

func (s *Server) dispatchFocuserPut(w http.ResponseWriter, r *http.Request, res resolved, op string) {
	f, err := s.Reg.AsFocuser(res.index)
	if err != nil {
		writeDomainError(w, res.scaffold, err)
		return
	}
	if err := requireConnected(f.Connected()); err != nil {
		writeDomainError(w, res.scaffold, err)
		return
	}

	switch op {
	case "move":
		var v int32
		if v, err = requireInt32(r, "Position"); err == nil {
			err = f.Move(v)
		}
	case "halt":
		err = f.Halt()
	case "tempcomp":
		_, err = requireBool(r, "TempComp")
		if err == nil {
			err = alpacaerr.NotImplementedf("temperature compensation is not supported")
		}
	default:
		err = alpacaerr.NotImplementedf("unknown focuser operation %s", op)
	}

	if err != nil {
		writeDomainError(w, res.scaffold, err)
		return
	}
	writeJSON(w, res.scaffold)
}
