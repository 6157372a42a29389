package alpacahttp

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/nasa-jpl/alpacahub/registry"
	"github.com/nasa-jpl/alpacahub/txcounter"
)

// Server bundles everything the pipeline needs to resolve a request:
// the device registry, the process-wide transaction counter, and a
// logger. It owns no HTTP server itself -- Router returns a handler a
// caller (cmd/alpacahubsrv) plugs into http.ListenAndServe, matching the
// teacher's cmd/lowfssrv/main.go shape of building a mux and handing it
// to the standard library.
type Server struct {
	Reg     *registry.Registry
	Counter *txcounter.Counter
	Log     *zap.Logger

	// ServerName, Manufacturer, ManufacturerVersion, Location populate
	// /management/v1/description.
	ServerName          string
	Manufacturer        string
	ManufacturerVersion string
	Location            string
}

// Router builds the chi mux implementing spec.md §6's HTTP surface.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/api/v1/{device_type}/{device_index}/{op}", s.handleGet)
	r.Put("/api/v1/{device_type}/{device_index}/{op}", s.handlePut)

	r.Get("/management/apiversions", s.handleAPIVersions)
	r.Get("/management/v1/description", s.handleDescription)
	r.Get("/management/v1/configureddevices", s.handleConfiguredDevices)

	return r
}

// resolved carries the stage-1 outcome for a single request.
type resolved struct {
	category registry.Category
	index    int
	op       string
	scaffold Scaffold
}

// resolve implements stage 1 of the pipeline: parse device_type/index,
// validate them, and build the response scaffold. ServerTransactionID
// is always assigned, even when resolution goes on to fail later in
// stage 2, because it's drawn from the counter before any validation
// happens beyond the category/index themselves.
func (s *Server) resolve(w http.ResponseWriter, r *http.Request) (resolved, bool) {
	cat, err := registry.ParseCategory(chi.URLParam(r, "device_type"))
	if err != nil {
		write400(w, err)
		return resolved{}, false
	}
	idx, err := registry.ParseIndex(chi.URLParam(r, "device_index"))
	if err != nil {
		write400(w, err)
		return resolved{}, false
	}
	if _, err := s.Reg.Get(cat, idx); err != nil {
		write400(w, err)
		return resolved{}, false
	}
	return resolved{
		category: cat,
		index:    idx,
		op:       chi.URLParam(r, "op"),
		scaffold: buildScaffold(r, s.Counter),
	}, true
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	res, ok := s.resolve(w, r)
	if !ok {
		return
	}
	s.dispatchGet(w, r, res)
}

func (s *Server) handlePut(w http.ResponseWriter, r *http.Request) {
	res, ok := s.resolve(w, r)
	if !ok {
		return
	}
	s.dispatchPut(w, r, res)
}
