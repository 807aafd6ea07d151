package version

import (
	"net/http"

	com "github.com/viamover/moverd/internal/common"
	"github.com/viamover/moverd/pkg/mover"
)

type Service struct {
	network mover.Network
}

func NewService(network mover.Network) *Service {
	return &Service{network: network}
}

type response struct {
	Version string        `json:"version"`
	Network mover.Network `json:"network"`
}

// Current returns the current version of the API
func (s *Service) Current(w http.ResponseWriter, r *http.Request) {
	err := com.Body(w, &response{Version: mover.Version, Network: s.network}, nil)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}
}
