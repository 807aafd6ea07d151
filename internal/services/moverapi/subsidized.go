package moverapi

import (
	"context"
	"net/http"

	"github.com/viamover/moverd/pkg/mover"
)

type relayRequest struct {
	Action       string `json:"action"`
	ChainID      int64  `json:"chainId"`
	Address      string `json:"address"`
	ActionString string `json:"actionString"`
	Signature    string `json:"signature"`
}

// Relay hands a signed action to the relay, which executes it with sponsored gas
func (c *Client) Relay(ctx context.Context, req mover.RelayRequest) (*mover.RelayResult, error) {
	network := req.Network
	if network == "" {
		network = c.network
	}

	chainID, err := c.chainID(network)
	if err != nil {
		return nil, err
	}

	body := relayRequest{
		Action:       req.Action,
		ChainID:      chainID,
		Address:      req.Address.Hex(),
		ActionString: req.ActionString,
		Signature:    req.Signature,
	}

	var res mover.RelayResult
	if err := c.do(ctx, http.MethodPost, c.baseURL+"/subsidized/execute", body, &res); err != nil {
		return nil, err
	}

	return &res, nil
}
