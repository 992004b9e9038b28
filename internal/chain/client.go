package chain

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"
)

// RetryPolicy controls how transport calls are retried.
type RetryPolicy struct {
	MaxRetries int
	Backoff    time.Duration
}

// Client wraps go-ethereum RPC and retries failed calls.
type Client struct {
	rpcClient *rpc.Client
	ethClient *ethclient.Client
	retry     RetryPolicy
	logger    *zap.Logger
}

// NewClient creates a new chain client from the RPC URL.
func NewClient(ctx context.Context, rpcURL string, retry RetryPolicy, logger *zap.Logger) (*Client, error) {
	rpcClient, err := rpc.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		rpcClient: rpcClient,
		ethClient: ethclient.NewClient(rpcClient),
		retry:     retry,
		logger:    logger,
	}, nil
}

// Close closes the underlying RPC client.
func (c *Client) Close() {
	if c.rpcClient != nil {
		c.rpcClient.Close()
	}
}

// GetChainID returns the chain ID.
func (c *Client) GetChainID(ctx context.Context) (*big.Int, error) {
	var id *big.Int
	err := c.do(ctx, "chain id", func(ctx context.Context) error {
		var err error
		id, err = c.ethClient.ChainID(ctx)
		return err
	})
	return id, err
}

// LatestBlockNumber returns the latest block number.
func (c *Client) LatestBlockNumber(ctx context.Context) (uint64, error) {
	var number uint64
	err := c.do(ctx, "block number", func(ctx context.Context) error {
		var err error
		number, err = c.ethClient.BlockNumber(ctx)
		return err
	})
	return number, err
}

// FilterLogs returns logs matching the query.
func (c *Client) FilterLogs(ctx context.Context, query ethereum.FilterQuery) ([]types.Log, error) {
	var logs []types.Log
	err := c.do(ctx, "filter logs", func(ctx context.Context) error {
		var err error
		logs, err = c.ethClient.FilterLogs(ctx, query)
		return err
	})
	return logs, err
}

// CallContract performs an eth_call for a contract method.
func (c *Client) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	var out []byte
	err := c.do(ctx, "call contract", func(ctx context.Context) error {
		var err error
		out, err = c.ethClient.CallContract(ctx, msg, blockNumber)
		return err
	})
	return out, err
}

func (c *Client) do(ctx context.Context, op string, fn func(context.Context) error) error {
	attempt := 0
	return withRetry(ctx, c.retry.MaxRetries, c.retry.Backoff, func(ctx context.Context) error {
		attempt++
		err := fn(ctx)
		if err != nil {
			c.logger.Warn("rpc call failed", zap.String("op", op), zap.Int("attempt", attempt), zap.Error(err))
		}
		return err
	})
}
