// Package service exposes a read-only HTTP API over the running gateway:
// session stats, the three roster generations, and per-node reading history.
package service

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync"

	"github.com/fieldmesh/muster/src/gateway"
	"github.com/fieldmesh/muster/src/roster"
	"github.com/fieldmesh/muster/src/telemetry"
	"github.com/sirupsen/logrus"
)

// Service serves the gateway API.
type Service struct {
	sync.Mutex

	bindAddress string
	session     *gateway.Session
	rost        *roster.Roster
	store       telemetry.Store
	logger      *logrus.Entry
}

// NewService creates the service and registers its handlers with the
// DefaultServeMux of the http package, so another server in the same process
// can share the endpoint.
func NewService(bindAddress string, session *gateway.Session, rost *roster.Roster, store telemetry.Store, logger *logrus.Entry) *Service {
	service := Service{
		bindAddress: bindAddress,
		session:     session,
		rost:        rost,
		store:       store,
		logger:      logger,
	}

	service.registerHandlers()

	return &service
}

func (s *Service) registerHandlers() {
	s.logger.Debug("Registering API handlers")
	http.HandleFunc("/stats", s.makeHandler(s.GetStats))
	http.HandleFunc("/nodes", s.makeHandler(s.GetNodes))
	http.HandleFunc("/new", s.makeHandler(s.GetNewNodes))
	http.HandleFunc("/previous", s.makeHandler(s.GetPreviousNodes))
	http.HandleFunc("/readings/", s.makeHandler(s.GetReadings))
}

func (s *Service) makeHandler(fn func(http.ResponseWriter, *http.Request)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.Lock()
		defer s.Unlock()

		// enable CORS
		w.Header().Set("Access-Control-Allow-Origin", "*")

		fn(w, r)
	}
}

// Serve calls ListenAndServe. This is a blocking call.
func (s *Service) Serve() {
	s.logger.WithField("bind_address", s.bindAddress).Debug("Serving API")

	// Use the DefaultServeMux
	err := http.ListenAndServe(s.bindAddress, nil)
	if err != nil {
		s.logger.Error(err)
	}
}

// GetStats returns the session counters.
func (s *Service) GetStats(w http.ResponseWriter, r *http.Request) {
	returnJSON(w, s.session.Stats())
}

// GetNodes returns the current generation in admission order.
func (s *Service) GetNodes(w http.ResponseWriter, r *http.Request) {
	returnJSON(w, s.rost.Entries())
}

// GetNewNodes returns the nodes admitted this cycle that were absent from the
// previous generation.
func (s *Service) GetNewNodes(w http.ResponseWriter, r *http.Request) {
	returnJSON(w, s.rost.NewEntries())
}

// GetPreviousNodes returns the snapshot taken at the last cycle reset.
func (s *Service) GetPreviousNodes(w http.ResponseWriter, r *http.Request) {
	returnJSON(w, s.rost.PreviousEntries())
}

// GetReadings returns the archived readings of one node.
func (s *Service) GetReadings(w http.ResponseWriter, r *http.Request) {
	param := r.URL.Path[len("/readings/"):]

	nodeID, err := strconv.ParseUint(param, 10, 8)
	if err != nil {
		s.logger.WithError(err).Errorf("Parsing node_id parameter %s", param)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	readings, err := s.store.Readings(uint8(nodeID))
	if err != nil {
		s.logger.WithError(err).Errorf("Retrieving readings for node %d", nodeID)
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	returnJSON(w, readings)
}

func returnJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")

	json.NewEncoder(w).Encode(v)
}
