// Package rpc defines the governance node's HTTP API: the query surface
// consumed by the fund and reward subsystems, and the cast surface used by
// voters and the registrar.
package rpc

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/stratafi/governance/voting/poolballot"
	"github.com/stratafi/governance/voting/rateballot"
	"github.com/stratafi/governance/voting/relweight"
)

var log = logrus.WithField("prefix", "rpc")

// Config options for the rpc service.
type Config struct {
	Host       string
	Port       string
	RateBallot *rateballot.Ballot
	PoolBallot *poolballot.Ballot
	Controller *relweight.Controller
	// Registrar is the only caller allowed to grow the pool registry.
	Registrar common.Address
}

// Service defining an HTTP server for the governance engine.
type Service struct {
	cfg        *Config
	server     *http.Server
	listener   net.Listener
	failStatus error
}

// NewService instantiates a new rpc service from configuration.
func NewService(cfg *Config) *Service {
	s := &Service{cfg: cfg}

	r := mux.NewRouter()
	r.HandleFunc("/v1/governance/rate", s.rateHandler).Methods(http.MethodGet)
	r.HandleFunc("/v1/governance/rate/votes", s.castRateHandler).Methods(http.MethodPost)
	r.HandleFunc("/v1/governance/rate/options", s.rateOptionsHandler).Methods(http.MethodGet)
	r.HandleFunc("/v1/governance/voters/{account}/rate-receipt", s.rateReceiptHandler).Methods(http.MethodGet)
	r.HandleFunc("/v1/governance/pools", s.poolsHandler).Methods(http.MethodGet)
	r.HandleFunc("/v1/governance/pools", s.addPoolHandler).Methods(http.MethodPost)
	r.HandleFunc("/v1/governance/pools/weights", s.poolWeightsHandler).Methods(http.MethodGet)
	r.HandleFunc("/v1/governance/pools/votes", s.castPoolHandler).Methods(http.MethodPost)
	r.HandleFunc("/v1/governance/funds/{fund}/weight", s.fundWeightHandler).Methods(http.MethodGet)

	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s
}

// Router returns the service's handler for tests.
func (s *Service) Router() http.Handler {
	return s.server.Handler
}

// Start the HTTP server.
func (s *Service) Start() {
	lis, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		log.WithError(err).Errorf("Could not listen on %s", s.server.Addr)
		s.failStatus = err
		return
	}
	s.listener = lis
	log.WithField("endpoint", s.server.Addr).Info("Starting service")
	go func() {
		if err := s.server.Serve(lis); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("Could not serve HTTP")
			s.failStatus = err
		}
	}()
}

// Stop the service gracefully.
func (s *Service) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// Status checks for any service failure conditions.
func (s *Service) Status() error {
	return s.failStatus
}
