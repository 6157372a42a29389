package alpacahttp

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/nasa-jpl/alpacahub/alpacaerr"
	"github.com/nasa-jpl/alpacahub/registry"
)

// imageArrayScaffold is the JSON shape for a successful imagearray GET:
// the standard envelope plus the Type/Rank tags spec.md §4.1 specifies
// for the 2D-array JSON path.
type imageArrayScaffold struct {
	Scaffold
	Type int `json:"Type,omitempty"`
	Rank int `json:"Rank,omitempty"`
}

func (s *Server) dispatchCameraGet(w http.ResponseWriter, r *http.Request, res resolved, op string) {
	cam, err := s.Reg.AsCamera(res.index)
	if err != nil {
		writeDomainError(w, res.scaffold, err)
		return
	}

	if op == "imagearray" {
		s.handleImageArray(w, r, res, cam)
		return
	}

	if err := requireConnected(cam.Connected()); err != nil {
		writeDomainError(w, res.scaffold, err)
		return
	}

	switch op {
	case "binx":
		writeValue(w, res.scaffold, cam.BinX())
	case "biny":
		writeValue(w, res.scaffold, cam.BinY())
	case "camerastate":
		writeValue(w, res.scaffold, int(cam.CameraState()))
	case "cameraxsize":
		writeValue(w, res.scaffold, cam.CameraXSize())
	case "cameraysize":
		writeValue(w, res.scaffold, cam.CameraYSize())
	case "canabortexposure":
		writeValue(w, res.scaffold, cam.CanAbortExposure())
	case "canasymmetricbin":
		writeValue(w, res.scaffold, cam.CanAsymmetricBin())
	case "canfastreadout":
		writeValue(w, res.scaffold, cam.CanFastReadout())
	case "cangetcoolerpower":
		writeValue(w, res.scaffold, cam.CanGetCoolerPower())
	case "canpulseguide":
		writeValue(w, res.scaffold, cam.CanPulseGuide())
	case "cansetccdtemperature":
		writeValue(w, res.scaffold, cam.CanSetCCDTemperature())
	case "canstopexposure":
		writeValue(w, res.scaffold, cam.CanStopExposure())
	case "ccdtemperature":
		writeValue(w, res.scaffold, cam.CCDTemperature())
	case "cooleron":
		writeValue(w, res.scaffold, cam.CoolerOn())
	case "coolerpower":
		writeValue(w, res.scaffold, cam.CoolerPower())
	case "electronsperadu":
		writeValue(w, res.scaffold, cam.ElectronsPerADU())
	case "exposuremax":
		writeValue(w, res.scaffold, cam.ExposureMax())
	case "exposuremin":
		writeValue(w, res.scaffold, cam.ExposureMin())
	case "exposureresolution":
		writeValue(w, res.scaffold, cam.ExposureResolution())
	case "fastreadout":
		writeValue(w, res.scaffold, cam.FastReadout())
	case "fullwellcapacity":
		writeValue(w, res.scaffold, cam.FullWellCapacity())
	case "gain":
		v, err := cam.Gain()
		respondFloatOp(w, res, v, err)
	case "gainmax":
		v, err := cam.GainMax()
		respondFloatOp(w, res, v, err)
	case "gainmin":
		v, err := cam.GainMin()
		respondFloatOp(w, res, v, err)
	case "gains":
		labels, err := cam.Gains()
		respondSliceOp(w, res, labels, err)
	case "hasshutter":
		writeValue(w, res.scaffold, cam.HasShutter())
	case "heatsinktemperature":
		writeValue(w, res.scaffold, cam.HeatSinkTemperature())
	case "imagearrayvariant":
		writeValue(w, res.scaffold, cam.ImageArrayVariant())
	case "imageready":
		writeValue(w, res.scaffold, cam.ImageReady())
	case "ispulseguiding":
		writeValue(w, res.scaffold, cam.IsPulseGuiding())
	case "lastexposureduration":
		v, err := cam.LastExposureDuration()
		respondFloatOp(w, res, v, err)
	case "lastexposurestarttime":
		t, err := cam.LastExposureStartTime()
		if err != nil {
			writeDomainError(w, res.scaffold, err)
			return
		}
		writeValue(w, res.scaffold, t.UTC().Format(time.RFC3339))
	case "maxadu":
		writeValue(w, res.scaffold, cam.MaxADU())
	case "maxbinx":
		writeValue(w, res.scaffold, cam.MaxBinX())
	case "maxbiny":
		writeValue(w, res.scaffold, cam.MaxBinY())
	case "numx":
		writeValue(w, res.scaffold, cam.NumX())
	case "numy":
		writeValue(w, res.scaffold, cam.NumY())
	case "offset":
		v, err := cam.Offset()
		respondFloatOp(w, res, v, err)
	case "offsetmax":
		v, err := cam.OffsetMax()
		respondFloatOp(w, res, v, err)
	case "offsetmin":
		v, err := cam.OffsetMin()
		respondFloatOp(w, res, v, err)
	case "offsets":
		labels, err := cam.Offsets()
		respondSliceOp(w, res, labels, err)
	case "percentcompleted":
		v, err := cam.PercentCompleted()
		respondInt32Op(w, res, v, err)
	case "pixelsizex":
		writeValue(w, res.scaffold, cam.PixelSizeX())
	case "pixelsizey":
		writeValue(w, res.scaffold, cam.PixelSizeY())
	case "readoutmode":
		writeValue(w, res.scaffold, cam.ReadoutMode())
	case "readoutmodes":
		writeValue(w, res.scaffold, cam.ReadoutModes())
	case "sensorname":
		writeValue(w, res.scaffold, cam.SensorName())
	case "sensortype":
		// spec.md §9 Open Question (c): SensorType always reports
		// monochrome even on cameras whose BayerOffset getters raise
		// NotImplemented below -- the inconsistency is preserved, not
		// papered over.
		writeValue(w, res.scaffold, int(cam.SensorType()))
	case "setccdtemperature":
		writeValue(w, res.scaffold, cam.SetCCDTemperature())
	case "startx":
		writeValue(w, res.scaffold, cam.StartX())
	case "starty":
		writeValue(w, res.scaffold, cam.StartY())
	case "bayeroffsetx":
		v, err := cam.BayerOffsetX()
		respondInt32Op(w, res, v, err)
	case "bayeroffsety":
		v, err := cam.BayerOffsetY()
		respondInt32Op(w, res, v, err)
	case "subexposureduration":
		writeDomainError(w, res.scaffold, alpacaerr.NotImplementedf("subexposureduration is not supported"))
	default:
		writeDomainError(w, res.scaffold, alpacaerr.NotImplementedf("unknown camera operation %s", op))
	}
}

func (s *Server) handleImageArray(w http.ResponseWriter, r *http.Request, res resolved, cam registry.Camera) {
	if err := requireConnected(cam.Connected()); err != nil {
		writeDomainError(w, res.scaffold, err)
		return
	}
	if !cam.ImageReady() {
		writeDomainError(w, res.scaffold, alpacaerr.InvalidOperationf("no image is ready"))
		return
	}
	pixels, err := cam.ImageArray()
	if err != nil {
		writeDomainError(w, res.scaffold, err)
		return
	}

	bpp := 16
	if cam.ImageArrayVariant() == "Int8" {
		bpp = 8
	}

	if strings.Contains(r.Header.Get("Accept"), "application/imagebytes") {
		w.Header().Set("Content-Type", "application/imagebytes")
		w.WriteHeader(http.StatusOK)
		_ = writeImageBytes(w, res.scaffold, pixels, bpp)
		return
	}

	ias := imageArrayScaffold{Scaffold: res.scaffold, Type: 2, Rank: 2}
	ias.Value = pixels
	writeJSON2(w, ias)
}

// writeJSON2 is writeJSON generalized to any envelope shape.
func writeJSON2(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) dispatchCameraPut(w http.ResponseWriter, r *http.Request, res resolved, op string) {
	cam, err := s.Reg.AsCamera(res.index)
	if err != nil {
		writeDomainError(w, res.scaffold, err)
		return
	}
	if err := requireConnected(cam.Connected()); err != nil {
		writeDomainError(w, res.scaffold, err)
		return
	}

	switch op {
	case "abortexposure":
		err = cam.AbortExposure()
	case "stopexposure":
		err = cam.StopExposure()
	case "binx":
		var v int32
		if v, err = requireInt32(r, "BinX"); err == nil {
			err = cam.SetBinX(v)
		}
	case "biny":
		var v int32
		if v, err = requireInt32(r, "BinY"); err == nil {
			err = cam.SetBinY(v)
		}
	case "cooleron":
		var v bool
		if v, err = requireBool(r, "CoolerOn"); err == nil {
			err = cam.SetCoolerOn(v)
		}
	case "fastreadout":
		var v bool
		if v, err = requireBool(r, "FastReadout"); err == nil {
			err = cam.SetFastReadout(v)
		}
	case "gain":
		var v float64
		if v, err = requireFloat64(r, "Gain"); err == nil {
			err = cam.SetGain(v)
		}
	case "numx":
		var v int32
		if v, err = requireInt32(r, "NumX"); err == nil {
			err = cam.SetNumX(v)
		}
	case "numy":
		var v int32
		if v, err = requireInt32(r, "NumY"); err == nil {
			err = cam.SetNumY(v)
		}
	case "offset":
		var v float64
		if v, err = requireFloat64(r, "Offset"); err == nil {
			err = cam.SetOffset(v)
		}
	case "readoutmode":
		var v int32
		if v, err = requireInt32(r, "ReadoutMode"); err == nil {
			err = cam.SetReadoutMode(v)
		}
	case "setccdtemperature":
		var v float64
		if v, err = requireFloat64(r, "SetCCDTemperature"); err == nil {
			err = cam.SetSetCCDTemperature(v)
		}
	case "startx":
		var v int32
		if v, err = requireInt32(r, "StartX"); err == nil {
			err = cam.SetStartX(v)
		}
	case "starty":
		var v int32
		if v, err = requireInt32(r, "StartY"); err == nil {
			err = cam.SetStartY(v)
		}
	case "subexposureduration":
		err = alpacaerr.NotImplementedf("subexposureduration is not supported")
	case "startexposure":
		var duration float64
		var light bool
		if duration, err = requireFloat64(r, "Duration"); err == nil {
			if light, err = requireBool(r, "Light"); err == nil {
				err = cam.StartExposure(duration, light)
			}
		}
	default:
		err = alpacaerr.NotImplementedf("unknown camera operation %s", op)
	}

	if err != nil {
		writeDomainError(w, res.scaffold, err)
		return
	}
	writeJSON(w, res.scaffold)
}

func respondFloatOp(w http.ResponseWriter, res resolved, v float64, err error) {
	if err != nil {
		writeDomainError(w, res.scaffold, err)
		return
	}
	writeValue(w, res.scaffold, v)
}

func respondInt32Op(w http.ResponseWriter, res resolved, v int32, err error) {
	if err != nil {
		writeDomainError(w, res.scaffold, err)
		return
	}
	writeValue(w, res.scaffold, v)
}

func respondSliceOp(w http.ResponseWriter, res resolved, v []string, err error) {
	if err != nil {
		writeDomainError(w, res.scaffold, err)
		return
	}
	writeValue(w, res.scaffold, v)
}
