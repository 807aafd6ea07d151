package snapshot

import (
	"context"
	"strconv"
	"strings"

	"github.com/viamover/moverd/pkg/governance"
)

type scoresParams struct {
	Space      string                `json:"space"`
	Network    string                `json:"network"`
	Snapshot   any                   `json:"snapshot"`
	Strategies []governance.Strategy `json:"strategies"`
	Addresses  []string              `json:"addresses"`
}

type scoresRequest struct {
	Params scoresParams `json:"params"`
}

type scoresResponse struct {
	Result struct {
		Scores []map[string]float64 `json:"scores"`
	} `json:"result"`
}

// snapshotParam sends block numbers as numbers and anything else as is
func snapshotParam(snapshot string) any {
	if snapshot == "" {
		return governance.SnapshotLatest
	}

	if n, err := strconv.ParseUint(snapshot, 10, 64); err == nil {
		return n
	}

	return snapshot
}

// GetScores returns the power of addresses per strategy at snapshot. Keys are lower cased.
func (c *Client) GetScores(ctx context.Context, space string, strategies []governance.Strategy, network string, addresses []string, snapshot string) (governance.Scores, error) {
	if len(addresses) == 0 {
		return governance.EmptyScores(len(strategies)), nil
	}

	req := scoresRequest{
		Params: scoresParams{
			Space:      space,
			Network:    network,
			Snapshot:   snapshotParam(snapshot),
			Strategies: strategies,
			Addresses:  addresses,
		},
	}

	var resp scoresResponse
	if err := c.post(ctx, c.scoreURL+"/api/scores", req, &resp); err != nil {
		return nil, err
	}

	scores := governance.EmptyScores(len(strategies))
	for i, m := range resp.Result.Scores {
		if i >= len(scores) {
			break
		}
		for addr, v := range m {
			scores[i][strings.ToLower(addr)] = v
		}
	}

	return scores, nil
}
