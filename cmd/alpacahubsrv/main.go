// Command alpacahubsrv is the entry point for the Alpaca device hub: a
// small main that wires CLI flags, the YAML device config, the device
// registry, the HTTP pipeline, and the discovery responder, then hands
// the mux to http.ListenAndServe -- the same "wire it and call
// ListenAndServe" shape as cmd/lowfssrv/main.go, generalized from one
// hardcoded camera + ZMQ reconstructor to a config-driven set of
// heterogeneous devices.
package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/nasa-jpl/alpacahub/alpacahttp"
	"github.com/nasa-jpl/alpacahub/camerasdk/fake"
	"github.com/nasa-jpl/alpacahub/config"
	"github.com/nasa-jpl/alpacahub/devices/camera"
	"github.com/nasa-jpl/alpacahub/devices/filterwheel"
	"github.com/nasa-jpl/alpacahub/devices/focuser"
	"github.com/nasa-jpl/alpacahub/devices/mount"
	"github.com/nasa-jpl/alpacahub/devices/rotator"
	"github.com/nasa-jpl/alpacahub/devices/switchbank"
	"github.com/nasa-jpl/alpacahub/discovery"
	"github.com/nasa-jpl/alpacahub/registry"
	"github.com/nasa-jpl/alpacahub/txcounter"
)

func newLogger(level int) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	switch level {
	case 1:
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	case 2:
		cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	case 3:
		cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	default:
		return nil, fmt.Errorf("log level must be 1, 2, or 3, got %d", level)
	}
	return cfg.Build()
}

// buildDevice constructs one device handle from its config node and
// appends it to the registry under cat. Unknown Type values are a
// startup-time configuration error, logged and skipped rather than
// fatal, so one bad node doesn't take the rest of the hub down.
func buildDevice(log *zap.Logger, reg *registry.Registry, cat registry.Category, node config.ObjSetup) {
	baud := node.Baud
	if baud == 0 {
		baud = 9600
	}
	uid := registry.DeriveUniqueID(node.Addr)

	var handle registry.Common
	var err error

	switch cat {
	case registry.CategoryCamera:
		handle, err = buildCamera(node, uid)
	case registry.CategoryTelescope:
		handle = mount.New(mount.Config{
			Name: node.Name, UniqueID: uid,
			PortName: node.Addr, Baud: baud,
			PerformMeridianFlip:           node.BoolArg("PerformMeridianFlip", true),
			ContinueTrackingAfterMeridian: node.BoolArg("ContinueTrackingAfterMeridian", true),
			MeridianLimitAngleDeg:         node.FloatArg("MeridianLimitAngleDeg", 0),
			Log:                           log,
		})
	case registry.CategoryFocuser:
		handle = focuser.New(focuser.Config{
			Name: node.Name, UniqueID: uid,
			PortName: node.Addr, Baud: baud,
			MaxStep:      int32(node.IntArg("MaxStep", 100000)),
			MaxIncrement: int32(node.IntArg("MaxIncrement", 100000)),
		})
	case registry.CategoryRotator:
		handle = rotator.New(rotator.Config{
			Name: node.Name, UniqueID: uid,
			PortName: node.Addr, Baud: baud,
		})
	case registry.CategoryFilterWheel:
		handle = filterwheel.New(filterwheel.Config{
			Name: node.Name, UniqueID: uid,
			PortName: node.Addr, Baud: baud,
			Names:        node.StringSliceArg("Names"),
			FocusOffsets: node.IntSliceArg("FocusOffsets"),
		})
	case registry.CategorySwitch:
		handle, err = buildSwitchBank(node, uid, baud)
	default:
		err = fmt.Errorf("unhandled category %s", cat)
	}

	if err != nil {
		log.Error("skipping device node", zap.String("category", string(cat)), zap.String("name", node.Name), zap.Error(err))
		return
	}
	idx := reg.Add(cat, handle)
	log.Info("registered device", zap.String("category", string(cat)), zap.Int("index", idx), zap.String("name", node.Name))
}

// buildCamera wires a devices/camera.Camera. The vendor SDK is an
// opaque external collaborator per spec.md §1 -- this hub ships only
// the deterministic fake (camerasdk/fake), the same stand-in the
// exposure-engine tests use, for every node of Type "simulated". A real
// deployment swaps in a concrete camerasdk.SDK binding for its detector
// family; the camera driver itself does not change.
func buildCamera(node config.ObjSetup, uid string) (registry.Common, error) {
	if strings.ToLower(node.Type) != "simulated" {
		return nil, fmt.Errorf("unknown camera type %q (only \"simulated\" is built in)", node.Type)
	}
	sdk := fake.New()
	cfg := camera.Config{
		Name:                 node.Name,
		UniqueID:             uid,
		SDK:                  sdk,
		GainMode:             camera.ModeValue,
		OffsetMode:           camera.ModeValue,
		MaxBinX:              int32(node.IntArg("MaxBinX", 4)),
		MaxBinY:              int32(node.IntArg("MaxBinY", 4)),
		CameraXSize:          int32(node.IntArg("CameraXSize", 1920)),
		CameraYSize:          int32(node.IntArg("CameraYSize", 1080)),
		HasShutter:           node.BoolArg("HasShutter", false),
		CanAbortExposure:     node.BoolArg("CanAbortExposure", true),
		CanStopExposure:      node.BoolArg("CanStopExposure", true),
		CanAsymmetricBin:     node.BoolArg("CanAsymmetricBin", false),
		CanFastReadout:       node.BoolArg("CanFastReadout", false),
		CanPulseGuide:        node.BoolArg("CanPulseGuide", false),
		CanGetCoolerPower:    node.BoolArg("CanGetCoolerPower", true),
		CanSetCCDTemperature: node.BoolArg("CanSetCCDTemperature", true),
		MaxADU:               int32(node.IntArg("MaxADU", 65535)),
		FullWellCapacity:     node.FloatArg("FullWellCapacity", 50000),
		ElectronsPerADU:      node.FloatArg("ElectronsPerADU", 1.0),
		PixelSizeX:           node.FloatArg("PixelSizeX", 3.76),
		PixelSizeY:           node.FloatArg("PixelSizeY", 3.76),
		SensorName:           node.StringArg("SensorName", "simulated sensor"),
		SensorType:           registry.SensorMonochrome,
		ReadoutModes:         node.StringSliceArg("ReadoutModes"),
		ExposureMin:          node.FloatArg("ExposureMin", 0.001),
		ExposureMax:          node.FloatArg("ExposureMax", 3600),
		ExposureResolution:   node.FloatArg("ExposureResolution", 0.001),
		IncludeOverscan:      node.BoolArg("IncludeOverscan", false),
	}
	if len(cfg.ReadoutModes) == 0 {
		cfg.ReadoutModes = []string{"Normal"}
	}
	return camera.New(cfg), nil
}

// buildSwitchBank parses the Args.Channels list -- each entry a map with
// Name/Description/Kind/Min/Max/Step -- into switchbank.ChannelSpecs.
func buildSwitchBank(node config.ObjSetup, uid string, baud int) (registry.Common, error) {
	raw, ok := node.Args["Channels"].([]interface{})
	if !ok {
		return nil, fmt.Errorf("switch node %q is missing an Args.Channels list", node.Name)
	}
	channels := make([]switchbank.ChannelSpec, 0, len(raw))
	for i, item := range raw {
		m, ok := item.(map[string]interface{})
		if !ok {
			m, ok = toStringMap(item)
			if !ok {
				return nil, fmt.Errorf("switch node %q channel %d is not a mapping", node.Name, i)
			}
		}
		kindStr, _ := m["Kind"].(string)
		kind, err := switchbank.ParseKind(kindStr)
		if err != nil {
			return nil, fmt.Errorf("switch node %q channel %d: %w", node.Name, i, err)
		}
		name, _ := m["Name"].(string)
		desc, _ := m["Description"].(string)
		channels = append(channels, switchbank.ChannelSpec{
			Name:        name,
			Description: desc,
			Kind:        kind,
			Min:         toFloat(m["Min"]),
			Max:         toFloat(m["Max"]),
			Step:        toFloat(m["Step"]),
		})
	}
	return switchbank.New(switchbank.Config{
		Name: node.Name, UniqueID: uid,
		PortName: node.Addr, Baud: baud,
		Channels: channels,
	}), nil
}

// toStringMap handles the map[interface{}]interface{} shape go-yaml/yaml
// decodes nested mappings into.
func toStringMap(v interface{}) (map[string]interface{}, bool) {
	raw, ok := v.(map[interface{}]interface{})
	if !ok {
		return nil, false
	}
	out := make(map[string]interface{}, len(raw))
	for k, val := range raw {
		ks, ok := k.(string)
		if !ok {
			continue
		}
		out[ks] = val
	}
	return out, true
}

func toFloat(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		return 0
	}
}

func main() {
	logLevel := flag.Int("l", 2, "log level: 1=debug, 2=info, 3=warn")
	workers := flag.Int("t", 0, "worker thread count (0 lets the Go runtime decide, matching GOMAXPROCS)")
	configPath := flag.String("c", "alpacahub.yaml", "path to the device configuration YAML file")
	flag.Parse()

	log, err := newLogger(*logLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer log.Sync()

	if *workers > 0 {
		log.Info("worker count override requested", zap.Int("workers", *workers))
	}

	cfg, err := config.LoadYaml(*configPath)
	if err != nil {
		log.Fatal("failed to load configuration", zap.Error(err))
	}

	reg := registry.New()
	for _, cat := range registry.Categories {
		for _, node := range cfg.Devices[string(cat)] {
			buildDevice(log, reg, cat, node)
		}
	}

	srv := &alpacahttp.Server{
		Reg:                 reg,
		Counter:             txcounter.New(),
		Log:                 log,
		ServerName:          cfg.Server.ServerName,
		Manufacturer:        cfg.Server.Manufacturer,
		ManufacturerVersion: cfg.Server.ManufacturerVersion,
		Location:            cfg.Server.Location,
	}

	addr := cfg.Addr
	if addr == "" {
		addr = ":11111"
	}

	httpPort := portFromAddr(addr)
	responder, err := discovery.New(httpPort, log)
	if err != nil {
		log.Fatal("failed to start discovery responder", zap.Error(err))
	}
	go responder.Serve()
	defer responder.Stop()

	httpServer := &http.Server{Addr: addr, Handler: srv.Router()}

	go func() {
		log.Info("alpaca hub listening", zap.String("addr", addr), zap.Int("discovery_port", discovery.Port))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("http server failed", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	log.Info("shutting down")
	responder.Stop()
	_ = httpServer.Close()
}

// portFromAddr extracts the numeric port from a ":PORT" or "host:PORT"
// listen address for the discovery responder's AlpacaPort field.
func portFromAddr(addr string) int {
	idx := strings.LastIndex(addr, ":")
	if idx < 0 {
		return 11111
	}
	var port int
	if _, err := fmt.Sscanf(addr[idx+1:], "%d", &port); err != nil {
		return 11111
	}
	return port
}
