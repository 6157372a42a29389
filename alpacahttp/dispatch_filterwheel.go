package alpacahttp

import (
	"net/http"

	"github.com/nasa-jpl/alpacahub/alpacaerr"
)

func (s *Server) dispatchFilterWheelGet(w http.ResponseWriter, r *http.Request, res resolved, op string) {
	fw, err := s.Reg.AsFilterWheel(res.index)
	if err != nil {
		writeDomainError(w, res.scaffold, err)
		return
	}
	if err := requireConnected(fw.Connected()); err != nil {
		writeDomainError(w, res.scaffold, err)
		return
	}

	switch op {
	case "position":
		writeValue(w, res.scaffold, fw.Position())
	case "names":
		writeValue(w, res.scaffold, fw.Names())
	case "focusoffsets":
		writeValue(w, res.scaffold, fw.FocusOffsets())
	default:
		writeDomainError(w, res.scaffold, alpacaerr.NotImplementedf("unknown filterwheel operation %s", op))
	}
}

func (s *Server) dispatchFilterWheelPut(w http.ResponseWriter, r *http.Request, res resolved, op string) {
	fw, err := s.Reg.AsFilterWheel(res.index)
	if err != nil {
		writeDomainError(w, res.scaffold, err)
		return
	}
	if err := requireConnected(fw.Connected()); err != nil {
		writeDomainError(w, res.scaffold, err)
		return
	}

	switch op {
	case "position":
		var v int32
		if v, err = requireInt32(r, "Position"); err == nil {
			err = fw.SetPosition(v)
		}
	default:
		err = alpacaerr.NotImplementedf("unknown filterwheel operation %s", op)
	}

	if err != nil {
		writeDomainError(w, res.scaffold, err)
		return
	}
	writeJSON(w, res.scaffold)
}
