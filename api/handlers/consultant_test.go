package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/busanbank/live-support-api/api/handlers"
	"github.com/busanbank/live-support-api/coordination"
	coordmocks "github.com/busanbank/live-support-api/coordination/mocks"
)

func TestConsultant_ReadyHandler(t *testing.T) {
	pool := &coordmocks.ConsultantPool{}
	c := handlers.Consultant{Pool: pool}

	pool.On("MarkReady", mock.Anything, "agent-1").Return(nil)

	req, _ := http.NewRequest("POST", "/api/v1/consultants/agent-1/ready", nil)
	req = mux.SetURLVars(req, map[string]string{"consultant_id": "agent-1"})
	rr := httptest.NewRecorder()
	http.HandlerFunc(c.ReadyHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	pool.AssertExpectations(t)
}

func TestConsultant_ConsultantByIDHandler(t *testing.T) {
	pool := &coordmocks.ConsultantPool{}
	c := handlers.Consultant{Pool: pool}

	pool.On("Status", mock.Anything, "agent-1").Return(coordination.ConsultantBusy, nil)
	pool.On("Load", mock.Anything, "agent-1").Return(int64(2), nil)

	req, _ := http.NewRequest("GET", "/api/v1/consultants/agent-1", nil)
	req = mux.SetURLVars(req, map[string]string{"consultant_id": "agent-1"})
	rr := httptest.NewRecorder()
	http.HandlerFunc(c.ConsultantByIDHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp map[string]interface{}
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, coordination.ConsultantBusy, resp["status"])
	assert.Equal(t, float64(2), resp["load"])
}

func TestConsultant_ReadyConsultantsHandler(t *testing.T) {
	pool := &coordmocks.ConsultantPool{}
	c := handlers.Consultant{Pool: pool}

	pool.On("Ready", mock.Anything, int64(50)).Return([]string{"agent-1", "agent-2"}, nil)

	req, _ := http.NewRequest("GET", "/api/v1/consultants/ready", nil)
	rr := httptest.NewRecorder()
	http.HandlerFunc(c.ReadyConsultantsHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	var got []string
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, []string{"agent-1", "agent-2"}, got)
}
