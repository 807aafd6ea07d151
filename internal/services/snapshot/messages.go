package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/viamover/moverd/pkg/governance"
	"github.com/viamover/moverd/pkg/mover"
)

var domain = apitypes.TypedDataDomain{
	Name:    "snapshot",
	Version: "0.1.4",
}

var domainType = []apitypes.Type{
	{Name: "name", Type: "string"},
	{Name: "version", Type: "string"},
}

var proposalType = []apitypes.Type{
	{Name: "from", Type: "address"},
	{Name: "space", Type: "string"},
	{Name: "timestamp", Type: "uint64"},
	{Name: "type", Type: "string"},
	{Name: "title", Type: "string"},
	{Name: "body", Type: "string"},
	{Name: "discussion", Type: "string"},
	{Name: "choices", Type: "string[]"},
	{Name: "start", Type: "uint64"},
	{Name: "end", Type: "uint64"},
	{Name: "snapshot", Type: "uint64"},
	{Name: "plugins", Type: "string"},
	{Name: "app", Type: "string"},
}

func voteType(proposalID string) []apitypes.Type {
	// ipfs style ids are plain strings, newer ones are bytes32
	proposal := "string"
	if strings.HasPrefix(proposalID, "0x") && len(proposalID) == 66 {
		proposal = "bytes32"
	}

	return []apitypes.Type{
		{Name: "from", Type: "address"},
		{Name: "space", Type: "string"},
		{Name: "timestamp", Type: "uint64"},
		{Name: "proposal", Type: proposal},
		{Name: "choice", Type: "uint32"},
		{Name: "reason", Type: "string"},
		{Name: "app", Type: "string"},
		{Name: "metadata", Type: "string"},
	}
}

// envelope is the body of a message submission
type envelope struct {
	Address string      `json:"address"`
	Sig     string      `json:"sig"`
	Data    messageData `json:"data"`
}

type messageData struct {
	Domain  apitypes.TypedDataDomain `json:"domain"`
	Types   apitypes.Types           `json:"types"`
	Message map[string]any           `json:"message"`
}

type messageResponse struct {
	ID      string `json:"id"`
	IPFS    string `json:"ipfs"`
	Relayer struct {
		Address string `json:"address"`
	} `json:"relayer"`
}

// typedMessage converts plain json values to what the EIP-712 encoder expects
func typedMessage(fields []apitypes.Type, msg map[string]any) apitypes.TypedDataMessage {
	typed := apitypes.TypedDataMessage{}

	for _, f := range fields {
		v := msg[f.Name]

		switch {
		case strings.HasPrefix(f.Type, "uint"):
			typed[f.Name] = math.NewHexOrDecimal256(v.(int64))
		case f.Type == "string[]":
			items := []interface{}{}
			for _, s := range v.([]string) {
				items = append(items, s)
			}
			typed[f.Name] = items
		default:
			typed[f.Name] = v
		}
	}

	return typed
}

// send signs msg as primaryType with the wallet and submits it to the hub
func (c *Client) send(ctx context.Context, w mover.Wallet, address common.Address, primaryType string, fields []apitypes.Type, msg map[string]any) (*governance.Receipt, error) {
	data := apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": domainType,
			primaryType:    fields,
		},
		PrimaryType: primaryType,
		Domain:      domain,
		Message:     typedMessage(fields, msg),
	}

	sig, err := w.SignTypedData(ctx, address, data)
	if err != nil {
		return nil, fmt.Errorf("sign %s: %w", strings.ToLower(primaryType), err)
	}

	body := envelope{
		Address: address.Hex(),
		Sig:     sig,
		Data: messageData{
			Domain:  domain,
			Types:   apitypes.Types{primaryType: fields},
			Message: msg,
		},
	}

	var resp messageResponse
	if err := c.post(ctx, c.hubURL+"/api/msg", body, &resp); err != nil {
		return nil, err
	}

	return &governance.Receipt{
		ID:      resp.ID,
		IPFS:    resp.IPFS,
		Relayer: resp.Relayer.Address,
	}, nil
}

func metadataString(metadata map[string]any) (string, error) {
	if metadata == nil {
		return "{}", nil
	}

	b, err := json.Marshal(metadata)
	if err != nil {
		return "", err
	}

	return string(b), nil
}

func (c *Client) CreateProposal(ctx context.Context, w mover.Wallet, address common.Address, space string, params governance.CreateProposalParams) (*governance.Receipt, error) {
	plugins, err := metadataString(params.Metadata)
	if err != nil {
		return nil, err
	}

	msg := map[string]any{
		"from":       address.Hex(),
		"space":      space,
		"timestamp":  c.clock.Now().Unix(),
		"type":       "single-choice",
		"title":      params.Name,
		"body":       params.Body,
		"discussion": "",
		"choices":    params.Choices,
		"start":      params.Start,
		"end":        params.End,
		"snapshot":   int64(params.Snapshot),
		"plugins":    plugins,
		"app":        appName,
	}

	return c.send(ctx, w, address, "Proposal", proposalType, msg)
}

func (c *Client) Vote(ctx context.Context, w mover.Wallet, address common.Address, space string, params governance.VoteParams) (*governance.Receipt, error) {
	metadata, err := metadataString(params.Metadata)
	if err != nil {
		return nil, err
	}

	msg := map[string]any{
		"from":      address.Hex(),
		"space":     space,
		"timestamp": c.clock.Now().Unix(),
		"proposal":  params.Proposal,
		"choice":    int64(params.Choice),
		"reason":    "",
		"app":       appName,
		"metadata":  metadata,
	}

	return c.send(ctx, w, address, "Vote", voteType(params.Proposal), msg)
}
