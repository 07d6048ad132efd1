// Package subgraph fetches pool, tick and position state from a Uniswap v3
// subgraph over its GraphQL endpoint.
package subgraph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"
	"go.uber.org/zap"

	"rangeScope/internal/model"
)

const defaultPageSize = 1000

// Client talks to one subgraph deployment.
type Client struct {
	url        string
	httpClient *http.Client
	attempts   uint
	baseDelay  time.Duration
	pageSize   int
	logger     *zap.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRetry sets the attempt count and base backoff delay for each request.
func WithRetry(attempts uint, baseDelay time.Duration) Option {
	return func(c *Client) {
		c.attempts = attempts
		c.baseDelay = baseDelay
	}
}

// WithPageSize sets the page size used by paginated queries.
func WithPageSize(size int) Option {
	return func(c *Client) {
		if size > 0 {
			c.pageSize = size
		}
	}
}

// WithLogger attaches a logger. The default is a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient builds a subgraph client for the given endpoint URL.
func NewClient(url string, opts ...Option) *Client {
	c := &Client{
		url:        url,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		attempts:   3,
		baseDelay:  500 * time.Millisecond,
		pageSize:   defaultPageSize,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLError struct {
	Message string `json:"message"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphQLError  `json:"errors"`
}

// query posts one GraphQL request and decodes the data payload into out,
// retrying transient failures with exponential backoff.
func (c *Client) query(ctx context.Context, query string, variables map[string]any, out any) error {
	body, err := json.Marshal(graphQLRequest{Query: query, Variables: variables})
	if err != nil {
		return fmt.Errorf("encode query: %w", err)
	}

	data, err := retry.DoWithData(func() (json.RawMessage, error) {
		return c.post(ctx, body)
	},
		retry.Attempts(c.attempts),
		retry.Delay(c.baseDelay),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Warn("subgraph query retry",
				zap.Uint("attempt", n+1),
				zap.Error(err))
		}),
	)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) post(ctx context.Context, body []byte) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post query: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("subgraph returned status %d", resp.StatusCode)
	}

	var decoded graphQLResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	if len(decoded.Errors) > 0 {
		return nil, fmt.Errorf("subgraph error: %s", decoded.Errors[0].Message)
	}
	if len(decoded.Data) == 0 {
		return nil, fmt.Errorf("subgraph returned no data")
	}
	return decoded.Data, nil
}

const poolQuery = `query pool($poolId: ID!) {
  pool(id: $poolId) {
    tick
    sqrtPrice
    liquidity
    feeTier
    token0 { symbol decimals }
    token1 { symbol decimals }
  }
}`

// Pool fetches the current state of one pool.
func (c *Client) Pool(ctx context.Context, poolID string) (model.Pool, error) {
	var payload struct {
		Pool *model.PoolRecord `json:"pool"`
	}
	if err := c.query(ctx, poolQuery, map[string]any{"poolId": poolID}, &payload); err != nil {
		return model.Pool{}, fmt.Errorf("fetch pool %s: %w", poolID, err)
	}
	if payload.Pool == nil {
		return model.Pool{}, fmt.Errorf("pool %s not found", poolID)
	}
	return model.ParsePool(poolID, *payload.Pool)
}

const ticksQuery = `query ticks($poolId: ID!, $first: Int!, $skip: Int!) {
  ticks(where: {poolAddress: $poolId}, orderBy: tickIdx, first: $first, skip: $skip) {
    tickIdx
    liquidityNet
  }
}`

// Ticks fetches every initialized tick of a pool, paging with skip until a
// short page signals the end.
func (c *Client) Ticks(ctx context.Context, poolID string) ([]model.TickRecord, error) {
	var all []model.TickRecord
	for skip := 0; ; skip += c.pageSize {
		var payload struct {
			Ticks []model.TickRecord `json:"ticks"`
		}
		vars := map[string]any{"poolId": poolID, "first": c.pageSize, "skip": skip}
		if err := c.query(ctx, ticksQuery, vars, &payload); err != nil {
			return nil, fmt.Errorf("fetch ticks for pool %s at skip %d: %w", poolID, skip, err)
		}
		all = append(all, payload.Ticks...)
		c.logger.Debug("fetched tick page",
			zap.String("pool", poolID),
			zap.Int("skip", skip),
			zap.Int("count", len(payload.Ticks)))
		if len(payload.Ticks) < c.pageSize {
			return all, nil
		}
	}
}

const positionsQuery = `query positions($poolId: ID!, $first: Int!, $skip: Int!) {
  positions(where: {pool: $poolId, liquidity_gt: 0}, first: $first, skip: $skip) {
    id
    liquidity
    tickLower { tickIdx }
    tickUpper { tickIdx }
  }
}`

// Positions fetches every open position in a pool.
func (c *Client) Positions(ctx context.Context, poolID string) ([]model.PositionRecord, error) {
	var all []model.PositionRecord
	for skip := 0; ; skip += c.pageSize {
		var payload struct {
			Positions []model.PositionRecord `json:"positions"`
		}
		vars := map[string]any{"poolId": poolID, "first": c.pageSize, "skip": skip}
		if err := c.query(ctx, positionsQuery, vars, &payload); err != nil {
			return nil, fmt.Errorf("fetch positions for pool %s at skip %d: %w", poolID, skip, err)
		}
		all = append(all, payload.Positions...)
		c.logger.Debug("fetched position page",
			zap.String("pool", poolID),
			zap.Int("skip", skip),
			zap.Int("count", len(payload.Positions)))
		if len(payload.Positions) < c.pageSize {
			return all, nil
		}
	}
}

const positionQuery = `query position($positionId: ID!) {
  position(id: $positionId) {
    id
    liquidity
    tickLower { tickIdx }
    tickUpper { tickIdx }
    pool { id }
    token0 { symbol decimals }
    token1 { symbol decimals }
  }
}`

// Position fetches one position by id, including its pool and token
// metadata.
func (c *Client) Position(ctx context.Context, positionID string) (model.Position, error) {
	var payload struct {
		Position *model.PositionRecord `json:"position"`
	}
	if err := c.query(ctx, positionQuery, map[string]any{"positionId": positionID}, &payload); err != nil {
		return model.Position{}, fmt.Errorf("fetch position %s: %w", positionID, err)
	}
	if payload.Position == nil {
		return model.Position{}, fmt.Errorf("position %s not found", positionID)
	}
	return model.ParsePosition(*payload.Position)
}

const poolDayQuery = `query poolDayDatas($poolId: ID!, $first: Int!) {
  poolDayDatas(where: {pool: $poolId}, orderBy: date, orderDirection: desc, first: $first) {
    date
    volumeUSD
  }
}`

// PoolDayData fetches the most recent daily summaries for a pool, newest
// first.
func (c *Client) PoolDayData(ctx context.Context, poolID string, days int) ([]model.PoolDayRecord, error) {
	var payload struct {
		PoolDayDatas []model.PoolDayRecord `json:"poolDayDatas"`
	}
	vars := map[string]any{"poolId": poolID, "first": days}
	if err := c.query(ctx, poolDayQuery, vars, &payload); err != nil {
		return nil, fmt.Errorf("fetch day data for pool %s: %w", poolID, err)
	}
	return payload.PoolDayDatas, nil
}
