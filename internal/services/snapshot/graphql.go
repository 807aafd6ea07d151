package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/viamover/moverd/pkg/governance"
)

const proposalFields = `
	id
	title
	body
	choices
	start
	end
	snapshot
	state
	author
	created
	network
	strategies { name network params }
	space { id name }
`

const proposalQuery = `query Proposal($id: String!) {
	proposal(id: $id) {` + proposalFields + `}
}`

const votesQuery = `query Votes($id: String!, $first: Int!, $skip: Int!) {
	votes(first: $first, skip: $skip, where: { proposal: $id }, orderBy: "created", orderDirection: asc) {
		id
		voter
		created
		choice
	}
}`

const proposalIDsQuery = `query Proposals($space: String!, $first: Int!, $skip: Int!) {
	proposals(first: $first, skip: $skip, where: { space_in: [$space] }, orderBy: "created", orderDirection: desc) {
		id
	}
}`

const spaceQuery = `query Space($id: String!) {
	space(id: $id) {
		id
		name
		network
		symbol
		strategies { name network params }
		filters { minScore onlyMembers }
		members
	}
}`

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type graphqlError struct {
	Message string `json:"message"`
}

func (c *Client) query(ctx context.Context, query string, vars map[string]any, dest any) error {
	var resp struct {
		Data   json.RawMessage `json:"data"`
		Errors []graphqlError  `json:"errors"`
	}

	err := c.post(ctx, c.hubURL+"/graphql", graphqlRequest{Query: query, Variables: vars}, &resp)
	if err != nil {
		return err
	}

	if len(resp.Errors) > 0 {
		msgs := make([]string, 0, len(resp.Errors))
		for _, e := range resp.Errors {
			msgs = append(msgs, e.Message)
		}
		return errors.New("snapshot graphql: " + strings.Join(msgs, "; "))
	}

	return json.Unmarshal(resp.Data, dest)
}

// GetProposal returns the proposal with all its votes. Proposal is nil when the id is unknown.
func (c *Client) GetProposal(ctx context.Context, id string) (*governance.ProposalWithVotes, error) {
	var data struct {
		Proposal *governance.Proposal `json:"proposal"`
	}

	if err := c.query(ctx, proposalQuery, map[string]any{"id": id}, &data); err != nil {
		return nil, err
	}

	if data.Proposal == nil {
		return &governance.ProposalWithVotes{}, nil
	}

	votes := []governance.Vote{}
	for skip := 0; ; skip += pageSize {
		var page struct {
			Votes []governance.Vote `json:"votes"`
		}

		err := c.query(ctx, votesQuery, map[string]any{"id": id, "first": pageSize, "skip": skip}, &page)
		if err != nil {
			return nil, err
		}

		votes = append(votes, page.Votes...)
		if len(page.Votes) < pageSize {
			break
		}
	}

	return &governance.ProposalWithVotes{
		Proposal: data.Proposal,
		Votes:    votes,
	}, nil
}

func (c *Client) proposalIDs(ctx context.Context, space string, first, skip int) ([]string, error) {
	var data struct {
		Proposals []struct {
			ID string `json:"id"`
		} `json:"proposals"`
	}

	err := c.query(ctx, proposalIDsQuery, map[string]any{"space": space, "first": first, "skip": skip}, &data)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(data.Proposals))
	for _, p := range data.Proposals {
		ids = append(ids, p.ID)
	}
	return ids, nil
}

// GetProposalIDs lists the ids of every proposal of the space, newest first
func (c *Client) GetProposalIDs(ctx context.Context, space string) ([]string, error) {
	ids := []string{}
	for skip := 0; ; skip += pageSize {
		page, err := c.proposalIDs(ctx, space, pageSize, skip)
		if err != nil {
			return nil, err
		}

		ids = append(ids, page...)
		if len(page) < pageSize {
			return ids, nil
		}
	}
}

var ErrNoProposals = errors.New("space has no proposals")

func (c *Client) GetLastProposalID(ctx context.Context, space string) (string, error) {
	ids, err := c.proposalIDs(ctx, space, 1, 0)
	if err != nil {
		return "", err
	}

	if len(ids) == 0 {
		return "", ErrNoProposals
	}

	return ids[0], nil
}

var ErrSpaceNotFound = errors.New("space not found")

func (c *Client) GetSpace(ctx context.Context, space string) (*governance.Space, error) {
	var data struct {
		Space *governance.Space `json:"space"`
	}

	if err := c.query(ctx, spaceQuery, map[string]any{"id": space}, &data); err != nil {
		return nil, err
	}

	if data.Space == nil {
		return nil, ErrSpaceNotFound
	}

	return data.Space, nil
}
