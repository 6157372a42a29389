package alpacahttp

import (
	"net/http"

	"github.com/nasa-jpl/alpacahub/alpacaerr"
)

func (s *Server) dispatchSwitchGet(w http.ResponseWriter, r *http.Request, res resolved, op string) {
	sb, err := s.Reg.AsSwitchBank(res.index)
	if err != nil {
		writeDomainError(w, res.scaffold, err)
		return
	}
	if err := requireConnected(sb.Connected()); err != nil {
		writeDomainError(w, res.scaffold, err)
		return
	}

	switch op {
	case "maxswitch":
		writeValue(w, res.scaffold, sb.MaxSwitch())
		return
	}

	idx, err := requireInt32(r, "Id")
	if err != nil {
		writeDomainError(w, res.scaffold, err)
		return
	}

	switch op {
	case "getswitchname":
		ch, err := sb.ChannelInfo(idx)
		if err != nil {
			writeDomainError(w, res.scaffold, err)
			return
		}
		writeValue(w, res.scaffold, ch.Name)
	case "getswitchdescription":
		ch, err := sb.ChannelInfo(idx)
		if err != nil {
			writeDomainError(w, res.scaffold, err)
			return
		}
		writeValue(w, res.scaffold, ch.Description)
	case "canwrite":
		ch, err := sb.ChannelInfo(idx)
		if err != nil {
			writeDomainError(w, res.scaffold, err)
			return
		}
		writeValue(w, res.scaffold, ch.Writable)
	case "minswitchvalue":
		ch, err := sb.ChannelInfo(idx)
		if err != nil {
			writeDomainError(w, res.scaffold, err)
			return
		}
		writeValue(w, res.scaffold, ch.Min)
	case "maxswitchvalue":
		ch, err := sb.ChannelInfo(idx)
		if err != nil {
			writeDomainError(w, res.scaffold, err)
			return
		}
		writeValue(w, res.scaffold, ch.Max)
	case "switchstep":
		ch, err := sb.ChannelInfo(idx)
		if err != nil {
			writeDomainError(w, res.scaffold, err)
			return
		}
		writeValue(w, res.scaffold, ch.Step)
	case "getswitchvalue":
		v, err := sb.GetSwitchValue(idx)
		respondFloatOp(w, res, v, err)
	case "getswitch":
		v, err := sb.GetSwitch(idx)
		if err != nil {
			writeDomainError(w, res.scaffold, err)
			return
		}
		writeValue(w, res.scaffold, v)
	default:
		writeDomainError(w, res.scaffold, alpacaerr.NotImplementedf("unknown switch operation %s", op))
	}
}

func (s *Server) dispatchSwitchPut(w http.ResponseWriter, r *http.Request, res resolved, op string) {
	sb, err := s.Reg.AsSwitchBank(res.index)
	if err != nil {
		writeDomainError(w, res.scaffold, err)
		return
	}
	if err := requireConnected(sb.Connected()); err != nil {
		writeDomainError(w, res.scaffold, err)
		return
	}

	idx, err := requireInt32(r, "Id")
	if err != nil {
		writeDomainError(w, res.scaffold, err)
		return
	}

	switch op {
	case "setswitchvalue":
		var v float64
		if v, err = requireFloat64(r, "Value"); err == nil {
			err = sb.SetSwitchValue(idx, v)
		}
	case "setswitch":
		var v bool
		if v, err = requireBool(r, "State"); err == nil {
			err = sb.SetSwitch(idx, v)
		}
	default:
		err = alpacaerr.NotImplementedf("unknown switch operation %s", op)
	}

	if err != nil {
		writeDomainError(w, res.scaffold, err)
		return
	}
	writeJSON(w, res.scaffold)
}
