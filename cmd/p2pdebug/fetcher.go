package main

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
)

// BlockFetcher is the network-facing collaborator this command issues
// retrying requests against. It is narrowed to the two lookups the
// header/body subcommands need, so tests can substitute a fake instead of
// dialing a real peer.
type BlockFetcher interface {
	HeaderByNumber(ctx context.Context, number int64) (*types.Header, error)
	HeaderByHash(ctx context.Context, hash common.Hash) (*types.Header, error)
	BlockByHash(ctx context.Context, hash common.Hash) (*types.Block, error)
}

// rpcFetcher adapts go-ethereum's ethclient.Client to BlockFetcher.
type rpcFetcher struct {
	client *ethclient.Client
}

func dialFetcher(rawurl string) (BlockFetcher, error) {
	client, err := ethclient.Dial(rawurl)
	if err != nil {
		return nil, err
	}
	return &rpcFetcher{client: client}, nil
}

func (f *rpcFetcher) HeaderByNumber(ctx context.Context, number int64) (*types.Header, error) {
	if number < 0 {
		return f.client.HeaderByNumber(ctx, nil)
	}
	return f.client.HeaderByNumber(ctx, bigFromInt64(number))
}

func (f *rpcFetcher) HeaderByHash(ctx context.Context, hash common.Hash) (*types.Header, error) {
	return f.client.HeaderByHash(ctx, hash)
}

func (f *rpcFetcher) BlockByHash(ctx context.Context, hash common.Hash) (*types.Block, error) {
	return f.client.BlockByHash(ctx, hash)
}
