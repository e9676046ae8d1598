// Command p2pdebug issues retrying header and body lookups against a
// running node, for debugging what a peer actually serves for a given
// block id.
package main

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"
)

const debugCategory = "P2P DEBUG"

var (
	rpcFlag = &cli.StringFlag{
		Name:     "rpc",
		Usage:    "JSON-RPC endpoint of the node to query",
		Value:    "http://127.0.0.1:8545",
		Category: debugCategory,
	}
	retriesFlag = &cli.IntFlag{
		Name:     "retries",
		Usage:    "Maximum number of attempts per request (at least 1)",
		Value:    5,
		Category: debugCategory,
	}
)

func main() {
	app := &cli.App{
		Name:  "p2pdebug",
		Usage: "Download a block header or body from a running node, with retries",
		Flags: []cli.Flag{rpcFlag, retriesFlag},
		Commands: []*cli.Command{
			headerCommand,
			bodyCommand,
		},
	}
	if err := app.Run(os.Args); err != nil {
		log.Error("p2pdebug failed", "err", err)
		os.Exit(1)
	}
}

var headerCommand = &cli.Command{
	Name:      "header",
	Usage:     "Download block header",
	ArgsUsage: "<number or hash>",
	Action:    runHeader,
}

var bodyCommand = &cli.Command{
	Name:      "body",
	Usage:     "Download block body",
	ArgsUsage: "<number or hash>",
	Action:    runBody,
}

// blockID is either a block number or a block hash, mirroring the
// original command's BlockHashOrNumber id argument.
type blockID struct {
	number int64
	hash   common.Hash
	isHash bool
}

func parseBlockID(s string) (blockID, error) {
	if s == "" {
		return blockID{}, errors.New("missing block id argument")
	}
	if len(s) == 66 && s[:2] == "0x" {
		return blockID{hash: common.HexToHash(s), isHash: true}, nil
	}
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return blockID{}, fmt.Errorf("invalid block id %q: neither a 32-byte hash nor a decimal number", s)
	}
	return blockID{number: n.Int64()}, nil
}

func resolveHeader(ctx context.Context, client BlockFetcher, id blockID) (*types.Header, error) {
	if id.isHash {
		return client.HeaderByHash(ctx, id.hash)
	}
	return client.HeaderByNumber(ctx, id.number)
}

func runHeader(cctx *cli.Context) error {
	if cctx.NArg() != 1 {
		return errors.New("expected exactly one argument: <number or hash>")
	}
	id, err := parseBlockID(cctx.Args().Get(0))
	if err != nil {
		return err
	}
	client, err := dialFetcher(cctx.String(rpcFlag.Name))
	if err != nil {
		return fmt.Errorf("dialing %s: %w", cctx.String(rpcFlag.Name), err)
	}
	retries := cctx.Int(retriesFlag.Name)
	ctx := context.Background()

	var header *types.Header
	err = withRetries(retries, func() error {
		h, err := resolveHeader(ctx, client, id)
		if err != nil {
			return err
		}
		header = h
		return nil
	})
	if err != nil {
		return fmt.Errorf("requesting header: %w", err)
	}
	fmt.Printf("Successfully downloaded header: number=%s hash=%s\n", header.Number, header.Hash())
	return nil
}

func runBody(cctx *cli.Context) error {
	if cctx.NArg() != 1 {
		return errors.New("expected exactly one argument: <number or hash>")
	}
	id, err := parseBlockID(cctx.Args().Get(0))
	if err != nil {
		return err
	}
	client, err := dialFetcher(cctx.String(rpcFlag.Name))
	if err != nil {
		return fmt.Errorf("dialing %s: %w", cctx.String(rpcFlag.Name), err)
	}
	retries := cctx.Int(retriesFlag.Name)
	ctx := context.Background()

	hash := id.hash
	if !id.isHash {
		fmt.Println("Block number provided. Downloading header first...")
		var header *types.Header
		err = withRetries(retries, func() error {
			h, err := resolveHeader(ctx, client, id)
			if err != nil {
				return err
			}
			header = h
			return nil
		})
		if err != nil {
			return fmt.Errorf("requesting header: %w", err)
		}
		hash = header.Hash()
	}

	var block *types.Block
	err = withRetries(retries, func() error {
		b, err := client.BlockByHash(ctx, hash)
		if err != nil {
			return err
		}
		block = b
		return nil
	})
	if err != nil {
		return fmt.Errorf("requesting body: %w", err)
	}
	fmt.Printf("Successfully downloaded body: %d transactions, %d withdrawals\n", len(block.Transactions()), len(block.Withdrawals()))
	return nil
}

func bigFromInt64(n int64) *big.Int { return big.NewInt(n) }
