package config

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	os.Setenv("DB_URI", "mongodb://127.0.0.1:27017")
	os.Setenv("DB_NAME", "test")
	conf := New()

	assert.NotEmpty(t, conf)
	assert.Equal(t, "test", conf.DatabaseName)
	assert.Equal(t, "8080", conf.Port)
	assert.Equal(t, 150*time.Millisecond, conf.AssignInterval)
	assert.Equal(t, 15*time.Second, conf.AssignedTimeout)
	assert.Equal(t, 3, conf.MaxAssignRetries)
	assert.True(t, conf.AssignEnabled)
}

func TestErrorStatus(t *testing.T) {

	ErrorStatus("error it borked", http.StatusBadRequest, httptest.NewRecorder(), errors.New("bad request"))
	assert.True(t, true)
}

func TestGetIntFallsBackOnGarbage(t *testing.T) {
	os.Setenv("TEST_INT", "not-a-number")
	defer os.Unsetenv("TEST_INT")

	assert.Equal(t, 7, getInt("TEST_INT", 7))
}

func TestGetDuration(t *testing.T) {
	os.Setenv("TEST_DUR", "250ms")
	defer os.Unsetenv("TEST_DUR")

	assert.Equal(t, 250*time.Millisecond, getDuration("TEST_DUR", time.Second))
	assert.Equal(t, time.Second, getDuration("TEST_DUR_MISSING", time.Second))
}

func TestGetBool(t *testing.T) {
	os.Setenv("TEST_BOOL", "false")
	defer os.Unsetenv("TEST_BOOL")

	assert.False(t, getBool("TEST_BOOL", true))
	assert.True(t, getBool("TEST_BOOL_MISSING", true))
}

func TestGetList(t *testing.T) {
	os.Setenv("TEST_LIST", "deposit, card ,loan,")
	defer os.Unsetenv("TEST_LIST")

	assert.Equal(t, []string{"deposit", "card", "loan"}, getList("TEST_LIST"))
	assert.Nil(t, getList("TEST_LIST_MISSING"))
}
