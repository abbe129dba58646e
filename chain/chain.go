// Package chain finds block numbers by timestamp straight from an RPC node,
// for networks that have no blocks subgraph.
package chain

import (
	"context"
	"math/big"
	"time"

	"github.com/gochain-io/explorer/server/utils"
	"github.com/gochain/gochain/v4/goclient"
	"github.com/gochain/gochain/v4/rpc"
	"github.com/treeder/gotils/v2"
)

type Locator struct {
	latest    func(ctx context.Context) (int64, error)
	timestamp func(ctx context.Context, block int64) (time.Time, error)
}

// NewLocator dials the node at rpcURL
func NewLocator(ctx context.Context, rpcURL string) (*Locator, error) {
	rpcClient, err := rpc.Dial(rpcURL)
	if err != nil {
		return nil, gotils.C(ctx).Errorf("failed to dial rpc %q: %v", rpcURL, err)
	}
	client := goclient.NewClient(rpcClient)
	return &Locator{
		latest: func(ctx context.Context) (int64, error) {
			return LatestBlockNumber(ctx, client)
		},
		timestamp: func(ctx context.Context, block int64) (time.Time, error) {
			return GetTimestampByBlockNumber(ctx, client, block)
		},
	}, nil
}

// LatestBlockNumber returns the chain head
func LatestBlockNumber(ctx context.Context, client *goclient.Client) (int64, error) {
	var num *big.Int
	err := utils.Retry(ctx, 5, 2*time.Second, func() (err error) {
		num, err = client.LatestBlockNumber(ctx)
		return err
	})
	if err != nil {
		return 0, gotils.C(ctx).Errorf("failed to get latest block number: %v", err)
	}
	return num.Int64(), nil
}

func GetTimestampByBlockNumber(ctx context.Context, client *goclient.Client, blockNumber int64) (time.Time, error) {
	bln := new(big.Int).SetInt64(blockNumber)
	var t time.Time
	err := utils.Retry(ctx, 5, 2*time.Second, func() error {
		block, err := client.BlockByNumber(ctx, bln)
		if err != nil {
			return err
		}
		t = time.Unix(block.Time().Int64(), 0)
		return nil
	})
	if err != nil {
		return time.Time{}, gotils.C(ctx).Errorf("failed to get block %v: %v", blockNumber, err)
	}
	return t, nil
}

// BlockAt returns the first block with a timestamp at or after t. When t is
// past the head, the head is returned.
func (l *Locator) BlockAt(ctx context.Context, t time.Time) (int64, error) {
	ctx = gotils.With(ctx, "time", t.Unix())
	hi, err := l.latest(ctx)
	if err != nil {
		return 0, err
	}
	headTime, err := l.timestamp(ctx, hi)
	if err != nil {
		return 0, err
	}
	if headTime.Before(t) {
		return hi, nil
	}

	lo := int64(1)
	for lo < hi {
		mid := lo + (hi-lo)/2
		mt, err := l.timestamp(ctx, mid)
		if err != nil {
			return 0, err
		}
		if mt.Before(t) {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo, nil
}

// BlocksAt looks up each timestamp in turn
func (l *Locator) BlocksAt(ctx context.Context, ts []time.Time) ([]int64, error) {
	ret := make([]int64, len(ts))
	for i, t := range ts {
		b, err := l.BlockAt(ctx, t)
		if err != nil {
			return nil, err
		}
		ret[i] = b
	}
	return ret, nil
}
