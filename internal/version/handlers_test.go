package version

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/viamover/moverd/pkg/mover"
)

func TestCurrent(t *testing.T) {
	rec := httptest.NewRecorder()
	NewService(mover.NetworkPolygon).Current(rec, httptest.NewRequest(http.MethodGet, "/version", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"response_type":"object","object":{"version":"`+mover.Version+`","network":"polygon"}}`, rec.Body.String())
}
