package dex

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"poolLedger/internal/event"
)

// Decoder converts raw pool and factory logs into typed events.
type Decoder struct {
	poolABI     abi.ABI
	factoryABI  abi.ABI
	topicToName map[string]string
}

// NewDecoder builds a decoder covering the factory PoolCreated event and
// the pool lifecycle events.
func NewDecoder() (*Decoder, error) {
	poolABI, err := V3PoolABI()
	if err != nil {
		return nil, err
	}
	factoryABI, err := FactoryABI()
	if err != nil {
		return nil, err
	}

	topicToName := map[string]string{
		strings.ToLower(factoryABI.Events["PoolCreated"].ID.Hex()): "PoolCreated",
		strings.ToLower(poolABI.Events["Initialize"].ID.Hex()):     "Initialize",
		strings.ToLower(poolABI.Events["Swap"].ID.Hex()):           "Swap",
		strings.ToLower(poolABI.Events["Mint"].ID.Hex()):           "Mint",
		strings.ToLower(poolABI.Events["Burn"].ID.Hex()):           "Burn",
		strings.ToLower(poolABI.Events["Collect"].ID.Hex()):        "Collect",
		strings.ToLower(poolABI.Events["Flash"].ID.Hex()):          "Flash",
	}

	return &Decoder{
		poolABI:     poolABI,
		factoryABI:  factoryABI,
		topicToName: topicToName,
	}, nil
}

// Topics returns every topic0 this decoder understands, for log filtering.
func (d *Decoder) Topics() []common.Hash {
	topics := make([]common.Hash, 0, len(d.topicToName))
	for topic := range d.topicToName {
		topics = append(topics, common.HexToHash(topic))
	}
	return topics
}

// CanDecode checks if the topic0 is supported.
func (d *Decoder) CanDecode(topic0 string) bool {
	if topic0 == "" {
		return false
	}
	_, ok := d.topicToName[strings.ToLower(topic0)]
	return ok
}

// Decode converts a LogRecord into one of the event package types.
func (d *Decoder) Decode(log event.LogRecord) (interface{}, error) {
	if len(log.Topics) == 0 {
		return nil, fmt.Errorf("missing topics")
	}
	name, ok := d.topicToName[strings.ToLower(log.Topics[0])]
	if !ok {
		return nil, fmt.Errorf("unsupported topic0: %s", log.Topics[0])
	}
	if !common.IsHexAddress(log.Address) {
		return nil, fmt.Errorf("invalid emitter address: %s", log.Address)
	}

	meta := event.Meta{
		PoolAddress: strings.ToLower(common.HexToAddress(log.Address).Hex()),
		BlockNumber: log.BlockNumber,
		Timestamp:   log.Timestamp,
		TxHash:      log.TxHash,
		TxOrigin:    log.TxOrigin,
		LogIndex:    log.LogIndex,
	}

	switch name {
	case "PoolCreated":
		return d.decodePoolCreated(log, meta)
	case "Initialize":
		return d.decodeInitialize(log, meta)
	case "Swap":
		return d.decodeSwap(log, meta)
	case "Mint":
		return d.decodeMint(log, meta)
	case "Burn":
		return d.decodeBurn(log, meta)
	case "Collect":
		return d.decodeCollect(log, meta)
	case "Flash":
		return &event.Flash{Meta: meta}, nil
	default:
		return nil, fmt.Errorf("unsupported event name: %s", name)
	}
}

func (d *Decoder) decodePoolCreated(log event.LogRecord, meta event.Meta) (*event.PoolCreated, error) {
	ev := d.factoryABI.Events["PoolCreated"]
	indexedTopics, err := parseIndexedTopics(ev, log.Topics)
	if err != nil {
		return nil, err
	}

	var indexed struct {
		Token0 common.Address
		Token1 common.Address
		Fee    *big.Int
	}
	if err := abi.ParseTopics(&indexed, indexedArguments(ev.Inputs), indexedTopics); err != nil {
		return nil, fmt.Errorf("parse topics: %w", err)
	}

	values, err := unpackNonIndexed(ev, log.Data)
	if err != nil {
		return nil, err
	}
	if len(values) != 2 {
		return nil, fmt.Errorf("unexpected pool created values: %d", len(values))
	}
	pool, err := asAddress(values[1])
	if err != nil {
		return nil, fmt.Errorf("pool: %w", err)
	}

	return &event.PoolCreated{
		Meta:    meta,
		Token0:  strings.ToLower(indexed.Token0.Hex()),
		Token1:  strings.ToLower(indexed.Token1.Hex()),
		FeeTier: uint32(indexed.Fee.Uint64()),
		Pool:    strings.ToLower(pool.Hex()),
	}, nil
}

func (d *Decoder) decodeInitialize(log event.LogRecord, meta event.Meta) (*event.Initialize, error) {
	ev := d.poolABI.Events["Initialize"]
	values, err := unpackNonIndexed(ev, log.Data)
	if err != nil {
		return nil, err
	}
	if len(values) != 2 {
		return nil, fmt.Errorf("unexpected initialize values: %d", len(values))
	}

	sqrtPrice, err := asBigInt(values[0])
	if err != nil {
		return nil, err
	}
	tickInt, err := asBigInt(values[1])
	if err != nil {
		return nil, err
	}
	tick, err := int24FromBig(tickInt)
	if err != nil {
		return nil, err
	}

	return &event.Initialize{Meta: meta, SqrtPriceX96: sqrtPrice, Tick: tick}, nil
}

func (d *Decoder) decodeSwap(log event.LogRecord, meta event.Meta) (*event.Swap, error) {
	ev := d.poolABI.Events["Swap"]
	indexedTopics, err := parseIndexedTopics(ev, log.Topics)
	if err != nil {
		return nil, err
	}

	var indexed struct {
		Sender    common.Address
		Recipient common.Address
	}
	if err := abi.ParseTopics(&indexed, indexedArguments(ev.Inputs), indexedTopics); err != nil {
		return nil, fmt.Errorf("parse topics: %w", err)
	}

	values, err := unpackNonIndexed(ev, log.Data)
	if err != nil {
		return nil, err
	}
	if len(values) != 5 {
		return nil, fmt.Errorf("unexpected swap values: %d", len(values))
	}

	amount0, err := asBigInt(values[0])
	if err != nil {
		return nil, err
	}
	amount1, err := asBigInt(values[1])
	if err != nil {
		return nil, err
	}
	sqrtPrice, err := asBigInt(values[2])
	if err != nil {
		return nil, err
	}
	liquidity, err := asBigInt(values[3])
	if err != nil {
		return nil, err
	}
	tickInt, err := asBigInt(values[4])
	if err != nil {
		return nil, err
	}
	tick, err := int24FromBig(tickInt)
	if err != nil {
		return nil, err
	}

	return &event.Swap{
		Meta:         meta,
		Sender:       strings.ToLower(indexed.Sender.Hex()),
		Recipient:    strings.ToLower(indexed.Recipient.Hex()),
		Amount0:      amount0,
		Amount1:      amount1,
		SqrtPriceX96: sqrtPrice,
		Liquidity:    liquidity,
		Tick:         tick,
	}, nil
}

func (d *Decoder) decodeMint(log event.LogRecord, meta event.Meta) (*event.Mint, error) {
	ev := d.poolABI.Events["Mint"]
	indexedTopics, err := parseIndexedTopics(ev, log.Topics)
	if err != nil {
		return nil, err
	}

	var indexed struct {
		Owner     common.Address
		TickLower *big.Int
		TickUpper *big.Int
	}
	if err := abi.ParseTopics(&indexed, indexedArguments(ev.Inputs), indexedTopics); err != nil {
		return nil, fmt.Errorf("parse topics: %w", err)
	}

	values, err := unpackNonIndexed(ev, log.Data)
	if err != nil {
		return nil, err
	}
	if len(values) != 4 {
		return nil, fmt.Errorf("unexpected mint values: %d", len(values))
	}

	sender, err := asAddress(values[0])
	if err != nil {
		return nil, err
	}
	amount, err := asBigInt(values[1])
	if err != nil {
		return nil, err
	}
	amount0, err := asBigInt(values[2])
	if err != nil {
		return nil, err
	}
	amount1, err := asBigInt(values[3])
	if err != nil {
		return nil, err
	}
	tickLower, err := int24FromBig(indexed.TickLower)
	if err != nil {
		return nil, err
	}
	tickUpper, err := int24FromBig(indexed.TickUpper)
	if err != nil {
		return nil, err
	}

	return &event.Mint{
		Meta:      meta,
		Owner:     strings.ToLower(indexed.Owner.Hex()),
		Sender:    strings.ToLower(sender.Hex()),
		TickLower: tickLower,
		TickUpper: tickUpper,
		Amount:    amount,
		Amount0:   amount0,
		Amount1:   amount1,
	}, nil
}

func (d *Decoder) decodeBurn(log event.LogRecord, meta event.Meta) (*event.Burn, error) {
	ev := d.poolABI.Events["Burn"]
	indexedTopics, err := parseIndexedTopics(ev, log.Topics)
	if err != nil {
		return nil, err
	}

	var indexed struct {
		Owner     common.Address
		TickLower *big.Int
		TickUpper *big.Int
	}
	if err := abi.ParseTopics(&indexed, indexedArguments(ev.Inputs), indexedTopics); err != nil {
		return nil, fmt.Errorf("parse topics: %w", err)
	}

	values, err := unpackNonIndexed(ev, log.Data)
	if err != nil {
		return nil, err
	}
	if len(values) != 3 {
		return nil, fmt.Errorf("unexpected burn values: %d", len(values))
	}

	amount, err := asBigInt(values[0])
	if err != nil {
		return nil, err
	}
	amount0, err := asBigInt(values[1])
	if err != nil {
		return nil, err
	}
	amount1, err := asBigInt(values[2])
	if err != nil {
		return nil, err
	}
	tickLower, err := int24FromBig(indexed.TickLower)
	if err != nil {
		return nil, err
	}
	tickUpper, err := int24FromBig(indexed.TickUpper)
	if err != nil {
		return nil, err
	}

	return &event.Burn{
		Meta:      meta,
		Owner:     strings.ToLower(indexed.Owner.Hex()),
		TickLower: tickLower,
		TickUpper: tickUpper,
		Amount:    amount,
		Amount0:   amount0,
		Amount1:   amount1,
	}, nil
}

func (d *Decoder) decodeCollect(log event.LogRecord, meta event.Meta) (*event.Collect, error) {
	ev := d.poolABI.Events["Collect"]
	indexedTopics, err := parseIndexedTopics(ev, log.Topics)
	if err != nil {
		return nil, err
	}

	var indexed struct {
		Owner     common.Address
		TickLower *big.Int
		TickUpper *big.Int
	}
	if err := abi.ParseTopics(&indexed, indexedArguments(ev.Inputs), indexedTopics); err != nil {
		return nil, fmt.Errorf("parse topics: %w", err)
	}

	values, err := unpackNonIndexed(ev, log.Data)
	if err != nil {
		return nil, err
	}
	if len(values) != 3 {
		return nil, fmt.Errorf("unexpected collect values: %d", len(values))
	}

	recipient, err := asAddress(values[0])
	if err != nil {
		return nil, err
	}
	amount0, err := asBigInt(values[1])
	if err != nil {
		return nil, err
	}
	amount1, err := asBigInt(values[2])
	if err != nil {
		return nil, err
	}
	tickLower, err := int24FromBig(indexed.TickLower)
	if err != nil {
		return nil, err
	}
	tickUpper, err := int24FromBig(indexed.TickUpper)
	if err != nil {
		return nil, err
	}

	return &event.Collect{
		Meta:      meta,
		Owner:     strings.ToLower(indexed.Owner.Hex()),
		Recipient: strings.ToLower(recipient.Hex()),
		TickLower: tickLower,
		TickUpper: tickUpper,
		Amount0:   amount0,
		Amount1:   amount1,
	}, nil
}

func parseIndexedTopics(ev abi.Event, topics []string) ([]common.Hash, error) {
	indexedCount := len(indexedArguments(ev.Inputs))
	if len(topics) != indexedCount+1 {
		return nil, fmt.Errorf("expected %d topics, got %d", indexedCount+1, len(topics))
	}
	return parseTopicHashes(topics[1:])
}

func parseTopicHashes(topics []string) ([]common.Hash, error) {
	out := make([]common.Hash, 0, len(topics))
	for _, topic := range topics {
		data, err := hexutil.Decode(topic)
		if err != nil {
			return nil, fmt.Errorf("invalid topic: %w", err)
		}
		if len(data) > 32 {
			return nil, fmt.Errorf("topic length %d", len(data))
		}
		out = append(out, common.BytesToHash(data))
	}
	return out, nil
}

func indexedArguments(args abi.Arguments) abi.Arguments {
	indexed := make(abi.Arguments, 0, len(args))
	for _, arg := range args {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}
	return indexed
}

func unpackNonIndexed(ev abi.Event, dataHex string) ([]interface{}, error) {
	data, err := hexutil.Decode(dataHex)
	if err != nil {
		return nil, fmt.Errorf("invalid data: %w", err)
	}
	values, err := ev.Inputs.NonIndexed().Unpack(data)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", ev.Name, err)
	}
	return values, nil
}
