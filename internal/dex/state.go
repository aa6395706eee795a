package dex

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"

	"poolLedger/internal/chain"
)

// PoolStateReader reads live pool contract state used to refresh
// fee-growth snapshots.
type PoolStateReader struct {
	client *chain.Client
}

func NewPoolStateReader(client *chain.Client) *PoolStateReader {
	return &PoolStateReader{client: client}
}

// FeeGrowthGlobals reads the pool's two global fee-growth accumulators.
func (r *PoolStateReader) FeeGrowthGlobals(ctx context.Context, pool string) (*big.Int, *big.Int, error) {
	growth0, err := r.callBigInt(ctx, pool, "feeGrowthGlobal0X128")
	if err != nil {
		return nil, nil, err
	}
	growth1, err := r.callBigInt(ctx, pool, "feeGrowthGlobal1X128")
	if err != nil {
		return nil, nil, err
	}
	return growth0, growth1, nil
}

// FeeTier reads the pool's immutable fee, in parts per million.
func (r *PoolStateReader) FeeTier(ctx context.Context, pool string) (uint32, error) {
	fee, err := r.callBigInt(ctx, pool, "fee")
	if err != nil {
		return 0, err
	}
	return uint32(fee.Uint64()), nil
}

// TickFeeVars reads feeGrowthOutside{0,1}X128 for one entry of the pool's
// tick table.
func (r *PoolStateReader) TickFeeVars(ctx context.Context, pool string, index int32) (*big.Int, *big.Int, error) {
	if r.client == nil {
		return nil, nil, fmt.Errorf("chain client is nil")
	}
	if !common.IsHexAddress(pool) {
		return nil, nil, fmt.Errorf("invalid pool address: %s", pool)
	}

	poolABI, err := V3PoolABI()
	if err != nil {
		return nil, nil, fmt.Errorf("parse pool abi: %w", err)
	}

	poolAddr := common.HexToAddress(pool)
	data, err := poolABI.Pack("ticks", big.NewInt(int64(index)))
	if err != nil {
		return nil, nil, fmt.Errorf("pack ticks: %w", err)
	}
	msg := ethereum.CallMsg{To: &poolAddr, Data: data}
	resp, err := r.client.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("call ticks: %w", err)
	}
	values, err := poolABI.Unpack("ticks", resp)
	if err != nil {
		return nil, nil, fmt.Errorf("unpack ticks: %w", err)
	}
	if len(values) < 4 {
		return nil, nil, fmt.Errorf("ticks return size %d", len(values))
	}

	outside0, err := asBigInt(values[2])
	if err != nil {
		return nil, nil, fmt.Errorf("feeGrowthOutside0X128: %w", err)
	}
	outside1, err := asBigInt(values[3])
	if err != nil {
		return nil, nil, fmt.Errorf("feeGrowthOutside1X128: %w", err)
	}
	return outside0, outside1, nil
}

func (r *PoolStateReader) callBigInt(ctx context.Context, pool, method string) (*big.Int, error) {
	if r.client == nil {
		return nil, fmt.Errorf("chain client is nil")
	}
	if !common.IsHexAddress(pool) {
		return nil, fmt.Errorf("invalid pool address: %s", pool)
	}

	poolABI, err := V3PoolABI()
	if err != nil {
		return nil, fmt.Errorf("parse pool abi: %w", err)
	}

	poolAddr := common.HexToAddress(pool)
	data, err := poolABI.Pack(method)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	msg := ethereum.CallMsg{To: &poolAddr, Data: data}
	resp, err := r.client.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	values, err := poolABI.Unpack(method, resp)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	if len(values) != 1 {
		return nil, fmt.Errorf("%s return size %d", method, len(values))
	}
	return asBigInt(values[0])
}
