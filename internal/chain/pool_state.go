package chain

import (
	"bytes"
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// PoolState is the live pool state read from the contract.
type PoolState struct {
	SqrtPriceX96 *big.Int
	Tick         int
	Liquidity    *big.Int
	FeeTier      int
	TickSpacing  int
	Token0       common.Address
	Token1       common.Address
}

// TokenState is ERC20 display metadata read from the contract.
type TokenState struct {
	Address  common.Address
	Symbol   string
	Decimals int
}

// FetchPoolState reads slot0, liquidity and the immutable pool parameters
// at the latest block.
func FetchPoolState(ctx context.Context, client *Client, pool common.Address, logger *zap.Logger) (PoolState, error) {
	if client == nil {
		return PoolState{}, fmt.Errorf("chain client is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	poolABI, err := V3PoolABI()
	if err != nil {
		return PoolState{}, fmt.Errorf("parse pool abi: %w", err)
	}

	state := PoolState{}

	values, err := callMethod(ctx, client, pool, poolABI, "slot0")
	if err != nil {
		return PoolState{}, err
	}
	if len(values) < 2 {
		return PoolState{}, fmt.Errorf("slot0 returned %d values", len(values))
	}
	sqrt, err := asBigInt(values[0])
	if err != nil {
		return PoolState{}, fmt.Errorf("sqrtPriceX96: %w", err)
	}
	state.SqrtPriceX96 = sqrt
	tickInt, err := asBigInt(values[1])
	if err != nil {
		return PoolState{}, fmt.Errorf("tick: %w", err)
	}
	tick, err := int24FromBig(tickInt)
	if err != nil {
		return PoolState{}, fmt.Errorf("tick: %w", err)
	}
	state.Tick = tick

	values, err = callMethod(ctx, client, pool, poolABI, "liquidity")
	if err != nil {
		return PoolState{}, err
	}
	liquidity, err := asBigInt(values[0])
	if err != nil {
		return PoolState{}, fmt.Errorf("liquidity: %w", err)
	}
	state.Liquidity = liquidity

	values, err = callMethod(ctx, client, pool, poolABI, "fee")
	if err != nil {
		return PoolState{}, err
	}
	fee, err := asBigInt(values[0])
	if err != nil {
		return PoolState{}, fmt.Errorf("fee: %w", err)
	}
	state.FeeTier = int(fee.Int64())

	values, err = callMethod(ctx, client, pool, poolABI, "tickSpacing")
	if err != nil {
		return PoolState{}, err
	}
	spacingInt, err := asBigInt(values[0])
	if err != nil {
		return PoolState{}, fmt.Errorf("tick spacing: %w", err)
	}
	spacing, err := int24FromBig(spacingInt)
	if err != nil {
		return PoolState{}, fmt.Errorf("tick spacing: %w", err)
	}
	state.TickSpacing = spacing

	values, err = callMethod(ctx, client, pool, poolABI, "token0")
	if err != nil {
		return PoolState{}, err
	}
	state.Token0, err = asAddress(values[0])
	if err != nil {
		return PoolState{}, fmt.Errorf("token0: %w", err)
	}

	values, err = callMethod(ctx, client, pool, poolABI, "token1")
	if err != nil {
		return PoolState{}, err
	}
	state.Token1, err = asAddress(values[0])
	if err != nil {
		return PoolState{}, fmt.Errorf("token1: %w", err)
	}

	logger.Debug("fetched pool state",
		zap.String("pool", pool.Hex()),
		zap.Int("tick", state.Tick),
		zap.String("liquidity", state.Liquidity.String()))

	return state, nil
}

// FetchTokenState loads token metadata via ERC20 calls, falling back to the
// bytes32 symbol variant used by a few older tokens.
func FetchTokenState(ctx context.Context, client *Client, token common.Address, logger *zap.Logger) (TokenState, error) {
	state := TokenState{Address: token}
	if client == nil {
		return state, fmt.Errorf("chain client is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	stringABI, err := erc20ABIStringInstance()
	if err != nil {
		return state, fmt.Errorf("parse erc20 string abi: %w", err)
	}
	bytes32ABI, err := erc20ABIBytes32Instance()
	if err != nil {
		return state, fmt.Errorf("parse erc20 bytes32 abi: %w", err)
	}

	values, err := callMethod(ctx, client, token, stringABI, "decimals")
	if err != nil {
		return state, err
	}
	decimals, err := asBigInt(values[0])
	if err != nil {
		return state, fmt.Errorf("decimals: %w", err)
	}
	state.Decimals = int(decimals.Int64())

	if values, err := callMethod(ctx, client, token, stringABI, "symbol"); err == nil {
		if symbol, ok := values[0].(string); ok {
			state.Symbol = symbol
		}
	} else if values, err := callMethod(ctx, client, token, bytes32ABI, "symbol"); err == nil {
		if symbol, ok := bytes32ToString(values[0]); ok {
			state.Symbol = symbol
		}
	} else {
		logger.Debug("symbol call failed", zap.String("token", token.Hex()), zap.Error(err))
	}

	return state, nil
}

func callMethod(ctx context.Context, client *Client, contract common.Address, parsed abi.ABI, method string) ([]interface{}, error) {
	data, err := parsed.Pack(method)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	msg := ethereum.CallMsg{To: &contract, Data: data}
	resp, err := client.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	values, err := parsed.Unpack(method, resp)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	return values, nil
}

func bytes32ToString(value interface{}) (string, bool) {
	switch v := value.(type) {
	case [32]byte:
		return string(bytes.TrimRight(v[:], "\x00")), true
	case []byte:
		return string(bytes.TrimRight(v, "\x00")), true
	default:
		return "", false
	}
}

func asAddress(value interface{}) (common.Address, error) {
	switch v := value.(type) {
	case common.Address:
		return v, nil
	case *common.Address:
		return *v, nil
	default:
		return common.Address{}, fmt.Errorf("unsupported address type %T", value)
	}
}

func asBigInt(value interface{}) (*big.Int, error) {
	switch v := value.(type) {
	case *big.Int:
		return new(big.Int).Set(v), nil
	case big.Int:
		return new(big.Int).Set(&v), nil
	case uint8:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint16:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint32:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint64:
		return new(big.Int).SetUint64(v), nil
	case int8:
		return big.NewInt(int64(v)), nil
	case int16:
		return big.NewInt(int64(v)), nil
	case int32:
		return big.NewInt(int64(v)), nil
	case int64:
		return big.NewInt(v), nil
	default:
		return nil, fmt.Errorf("unsupported integer type %T", value)
	}
}

func int24FromBig(value *big.Int) (int, error) {
	if value == nil {
		return 0, fmt.Errorf("nil int24")
	}
	if !value.IsInt64() {
		return 0, fmt.Errorf("int24 out of range: %s", value)
	}
	v := value.Int64()
	if v < -8388608 || v > 8388607 {
		return 0, fmt.Errorf("int24 out of range: %d", v)
	}
	return int(v), nil
}
