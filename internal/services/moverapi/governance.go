package moverapi

import (
	"context"
	"net/http"
	"net/url"

	"github.com/ethereum/go-ethereum/common"
)

type votingPower struct {
	Power float64 `json:"power"`
}

func (c *Client) GetVotingPower(ctx context.Context, address common.Address) (float64, error) {
	var res votingPower
	if err := c.do(ctx, http.MethodGet, c.baseURL+"/governance/power/"+address.Hex(), nil, &res); err != nil {
		return 0, err
	}
	return res.Power, nil
}

// GetCommunityVotingPower returns the power of the community at snapshot, the current one when empty
func (c *Client) GetCommunityVotingPower(ctx context.Context, snapshot string) (float64, error) {
	u := c.baseURL + "/governance/power/community"
	if snapshot != "" {
		u += "?" + url.Values{"snapshot": {snapshot}}.Encode()
	}

	var res votingPower
	if err := c.do(ctx, http.MethodGet, u, nil, &res); err != nil {
		return 0, err
	}
	return res.Power, nil
}
