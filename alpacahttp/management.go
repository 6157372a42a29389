package alpacahttp

import (
	"encoding/json"
	"net/http"

	"github.com/nasa-jpl/alpacahub/txcounter"
)

// managementScaffold wraps a management API response body the same way
// Scaffold wraps a device API response, but management endpoints carry
// no ErrorNumber/ErrorMessage pair in spec.md §6 -- they either succeed
// or the server doesn't come up.
type managementScaffold struct {
	ClientTransactionID *uint32     `json:"ClientTransactionID,omitempty"`
	ServerTransactionID uint32      `json:"ServerTransactionID"`
	Value               interface{} `json:"Value"`
}

func writeManagement(w http.ResponseWriter, r *http.Request, counter *txcounter.Counter, value interface{}) {
	s := managementScaffold{ServerTransactionID: counter.Next(), Value: value}
	if v, ok := uint32Param(r, "clienttransactionid"); ok {
		s.ClientTransactionID = &v
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(s)
}

// handleAPIVersions serves /management/apiversions: the list of Alpaca
// API versions this hub implements.
func (s *Server) handleAPIVersions(w http.ResponseWriter, r *http.Request) {
	writeManagement(w, r, s.Counter, []int{1})
}

// descriptionValue is the body of /management/v1/description.
type descriptionValue struct {
	ServerName          string `json:"ServerName"`
	Manufacturer        string `json:"Manufacturer"`
	ManufacturerVersion string `json:"ManufacturerVersion"`
	Location            string `json:"Location"`
}

// handleDescription serves /management/v1/description.
func (s *Server) handleDescription(w http.ResponseWriter, r *http.Request) {
	writeManagement(w, r, s.Counter, descriptionValue{
		ServerName:          s.ServerName,
		Manufacturer:        s.Manufacturer,
		ManufacturerVersion: s.ManufacturerVersion,
		Location:            s.Location,
	})
}

// handleConfiguredDevices serves /management/v1/configureddevices,
// enumerating every registered device across every category.
func (s *Server) handleConfiguredDevices(w http.ResponseWriter, r *http.Request) {
	writeManagement(w, r, s.Counter, s.Reg.ConfiguredDevices())
}
