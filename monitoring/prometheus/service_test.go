package prometheus

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stratafi/governance/runtime"
)

type healthyService struct{}

func (h *healthyService) Start()        {}
func (h *healthyService) Stop() error   { return nil }
func (h *healthyService) Status() error { return nil }

type failingService struct{}

func (f *failingService) Start()        {}
func (f *failingService) Stop() error   { return nil }
func (f *failingService) Status() error { return errors.New("service in bad state") }

func TestHealthz_OK(t *testing.T) {
	registry := runtime.NewServiceRegistry()
	require.NoError(t, registry.RegisterService(&healthyService{}))
	s := NewService(":0", registry)

	rec := httptest.NewRecorder()
	s.healthzHandler(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "OK")
}

func TestHealthz_Failing(t *testing.T) {
	registry := runtime.NewServiceRegistry()
	require.NoError(t, registry.RegisterService(&failingService{}))
	s := NewService(":0", registry)

	rec := httptest.NewRecorder()
	s.healthzHandler(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "service in bad state")
}
