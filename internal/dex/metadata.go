package dex

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"poolLedger/internal/chain"
)

// unknownPlaceholder stands in for a symbol or name the contract refuses
// to report. A failed decimals read has no placeholder; it defers token
// materialization instead.
const unknownPlaceholder = "unknown"

// TokenMetadata is the result of the one-shot ERC20 metadata read.
type TokenMetadata struct {
	Symbol      string
	Name        string
	Decimals    uint8
	TotalSupply *big.Int
}

// TokenReader fetches token metadata through eth_call.
type TokenReader struct {
	client *chain.Client
	logger *zap.Logger
}

func NewTokenReader(client *chain.Client, logger *zap.Logger) *TokenReader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TokenReader{client: client, logger: logger}
}

// TokenMetadata reads decimals, symbol, name, and totalSupply. The error
// return is reserved for an undeterminable decimals value; every other
// field degrades to a placeholder or zero.
func (r *TokenReader) TokenMetadata(ctx context.Context, token string) (TokenMetadata, error) {
	meta := TokenMetadata{TotalSupply: big.NewInt(0)}
	if r.client == nil {
		return meta, fmt.Errorf("chain client is nil")
	}
	if !common.IsHexAddress(token) {
		return meta, fmt.Errorf("invalid token address: %s", token)
	}
	addr := common.HexToAddress(token)

	stringABI, err := erc20ABIStringInstance()
	if err != nil {
		return meta, fmt.Errorf("parse erc20 string abi: %w", err)
	}
	bytes32ABI, err := erc20ABIBytes32Instance()
	if err != nil {
		return meta, fmt.Errorf("parse erc20 bytes32 abi: %w", err)
	}

	values, err := r.call(ctx, addr, stringABI, "decimals")
	if err != nil {
		return meta, fmt.Errorf("decimals: %w", err)
	}
	decimals, err := asUint8(values[0])
	if err != nil {
		return meta, fmt.Errorf("decimals: %w", err)
	}
	meta.Decimals = decimals

	meta.Symbol = r.stringField(ctx, addr, stringABI, bytes32ABI, "symbol")
	meta.Name = r.stringField(ctx, addr, stringABI, bytes32ABI, "name")

	if values, err := r.call(ctx, addr, stringABI, "totalSupply"); err == nil {
		if supply, err := asBigInt(values[0]); err == nil {
			meta.TotalSupply = supply
		}
	} else {
		r.logger.Debug("totalSupply call failed", zap.String("token", token), zap.Error(err))
	}

	return meta, nil
}

func (r *TokenReader) stringField(ctx context.Context, token common.Address, stringABI, bytes32ABI abi.ABI, method string) string {
	if values, err := r.call(ctx, token, stringABI, method); err == nil {
		if text, ok := values[0].(string); ok && text != "" {
			return text
		}
	}
	if values, err := r.call(ctx, token, bytes32ABI, method); err == nil {
		if text, ok := bytes32ToString(values[0]); ok && text != "" {
			return text
		}
	}
	r.logger.Debug("token string field unavailable",
		zap.String("token", token.Hex()),
		zap.String("method", method),
	)
	return unknownPlaceholder
}

func (r *TokenReader) call(ctx context.Context, to common.Address, parsed abi.ABI, method string) ([]interface{}, error) {
	data, err := parsed.Pack(method)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	msg := ethereum.CallMsg{To: &to, Data: data}
	resp, err := r.client.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	values, err := parsed.Unpack(method, resp)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("%s returned no values", method)
	}
	return values, nil
}
