package dex

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"poolLedger/internal/event"
)

func TestDecodeSwap(t *testing.T) {
	poolABI, err := V3PoolABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}

	decoder, err := NewDecoder()
	if err != nil {
		t.Fatalf("decoder: %v", err)
	}

	pool := common.HexToAddress("0x1111111111111111111111111111111111111111")
	sender := common.HexToAddress("0x2222222222222222222222222222222222222222")
	recipient := common.HexToAddress("0x3333333333333333333333333333333333333333")

	data, err := poolABI.Events["Swap"].Inputs.NonIndexed().Pack(
		big.NewInt(-1000),
		big.NewInt(2000),
		big.NewInt(123456789),
		big.NewInt(987654321),
		big.NewInt(-15),
	)
	if err != nil {
		t.Fatalf("pack swap: %v", err)
	}

	logRecord := buildLogRecord(pool, poolABI.Events["Swap"].ID, data, []common.Hash{
		topicFromAddress(sender),
		topicFromAddress(recipient),
	})

	decoded, err := decoder.Decode(logRecord)
	if err != nil {
		t.Fatalf("decode swap: %v", err)
	}

	swap, ok := decoded.(*event.Swap)
	if !ok {
		t.Fatalf("decoded type mismatch: %T", decoded)
	}

	if swap.Amount0.String() != "-1000" || swap.Amount1.String() != "2000" {
		t.Fatalf("amounts mismatch: %+v", swap)
	}
	if swap.SqrtPriceX96.String() != "123456789" || swap.Liquidity.String() != "987654321" {
		t.Fatalf("price state mismatch: %+v", swap)
	}
	if swap.Tick != -15 {
		t.Fatalf("tick mismatch: %d", swap.Tick)
	}
	if swap.Sender != "0x2222222222222222222222222222222222222222" {
		t.Fatalf("sender mismatch: %s", swap.Sender)
	}
	if swap.PoolAddress != "0x1111111111111111111111111111111111111111" {
		t.Fatalf("pool address mismatch: %s", swap.PoolAddress)
	}
	if swap.BlockNumber != 12345 || swap.Timestamp != 1700000000 {
		t.Fatalf("meta mismatch: %+v", swap.Meta)
	}
}

func TestDecodePoolCreatedAndInitialize(t *testing.T) {
	poolABI, err := V3PoolABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}
	factoryABI, err := FactoryABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}

	decoder, err := NewDecoder()
	if err != nil {
		t.Fatalf("decoder: %v", err)
	}

	factory := common.HexToAddress("0x4444444444444444444444444444444444444444")
	token0 := common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	token1 := common.HexToAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
	pool := common.HexToAddress("0x1111111111111111111111111111111111111111")

	createdData, err := factoryABI.Events["PoolCreated"].Inputs.NonIndexed().Pack(
		big.NewInt(60),
		pool,
	)
	if err != nil {
		t.Fatalf("pack pool created: %v", err)
	}

	createdLog := buildLogRecord(factory, factoryABI.Events["PoolCreated"].ID, createdData, []common.Hash{
		topicFromAddress(token0),
		topicFromAddress(token1),
		common.BigToHash(big.NewInt(3000)),
	})

	decoded, err := decoder.Decode(createdLog)
	if err != nil {
		t.Fatalf("decode pool created: %v", err)
	}

	created, ok := decoded.(*event.PoolCreated)
	if !ok {
		t.Fatalf("decoded type mismatch: %T", decoded)
	}
	if created.Token0 != "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa" ||
		created.Token1 != "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb" {
		t.Fatalf("token mismatch: %+v", created)
	}
	if created.FeeTier != 3000 {
		t.Fatalf("fee tier mismatch: %d", created.FeeTier)
	}
	if created.Pool != "0x1111111111111111111111111111111111111111" {
		t.Fatalf("pool mismatch: %s", created.Pool)
	}

	initData, err := poolABI.Events["Initialize"].Inputs.NonIndexed().Pack(
		big.NewInt(123456789),
		big.NewInt(194280),
	)
	if err != nil {
		t.Fatalf("pack initialize: %v", err)
	}

	initLog := buildLogRecord(pool, poolABI.Events["Initialize"].ID, initData, nil)

	decoded, err = decoder.Decode(initLog)
	if err != nil {
		t.Fatalf("decode initialize: %v", err)
	}

	init, ok := decoded.(*event.Initialize)
	if !ok {
		t.Fatalf("decoded type mismatch: %T", decoded)
	}
	if init.SqrtPriceX96.String() != "123456789" || init.Tick != 194280 {
		t.Fatalf("initialize mismatch: %+v", init)
	}
}

func TestDecodeMintBurnCollect(t *testing.T) {
	poolABI, err := V3PoolABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}

	decoder, err := NewDecoder()
	if err != nil {
		t.Fatalf("decoder: %v", err)
	}

	pool := common.HexToAddress("0x9999999999999999999999999999999999999999")
	sender := common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	owner := common.HexToAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
	recipient := common.HexToAddress("0xcccccccccccccccccccccccccccccccccccccccc")

	mintData, err := poolABI.Events["Mint"].Inputs.NonIndexed().Pack(
		sender,
		big.NewInt(5000),
		big.NewInt(100),
		big.NewInt(200),
	)
	if err != nil {
		t.Fatalf("pack mint: %v", err)
	}

	mintLog := buildLogRecord(pool, poolABI.Events["Mint"].ID, mintData, []common.Hash{
		topicFromAddress(owner),
		topicFromInt24(-120),
		topicFromInt24(120),
	})

	decoded, err := decoder.Decode(mintLog)
	if err != nil {
		t.Fatalf("decode mint: %v", err)
	}

	mint, ok := decoded.(*event.Mint)
	if !ok {
		t.Fatalf("mint type mismatch: %T", decoded)
	}
	if mint.TickLower != -120 || mint.TickUpper != 120 {
		t.Fatalf("mint tick mismatch: %+v", mint)
	}
	if mint.Amount.String() != "5000" {
		t.Fatalf("mint amount mismatch: %+v", mint)
	}

	burnData, err := poolABI.Events["Burn"].Inputs.NonIndexed().Pack(
		big.NewInt(7000),
		big.NewInt(300),
		big.NewInt(400),
	)
	if err != nil {
		t.Fatalf("pack burn: %v", err)
	}

	burnLog := buildLogRecord(pool, poolABI.Events["Burn"].ID, burnData, []common.Hash{
		topicFromAddress(owner),
		topicFromInt24(-60),
		topicFromInt24(60),
	})

	decoded, err = decoder.Decode(burnLog)
	if err != nil {
		t.Fatalf("decode burn: %v", err)
	}

	burn, ok := decoded.(*event.Burn)
	if !ok {
		t.Fatalf("burn type mismatch: %T", decoded)
	}
	if burn.Amount.String() != "7000" {
		t.Fatalf("burn amount mismatch: %+v", burn)
	}

	collectData, err := poolABI.Events["Collect"].Inputs.NonIndexed().Pack(
		recipient,
		big.NewInt(900),
		big.NewInt(1000),
	)
	if err != nil {
		t.Fatalf("pack collect: %v", err)
	}

	collectLog := buildLogRecord(pool, poolABI.Events["Collect"].ID, collectData, []common.Hash{
		topicFromAddress(owner),
		topicFromInt24(-10),
		topicFromInt24(10),
	})

	decoded, err = decoder.Decode(collectLog)
	if err != nil {
		t.Fatalf("decode collect: %v", err)
	}

	collect, ok := decoded.(*event.Collect)
	if !ok {
		t.Fatalf("collect type mismatch: %T", decoded)
	}
	if collect.Amount0.String() != "900" || collect.Amount1.String() != "1000" {
		t.Fatalf("collect amount mismatch: %+v", collect)
	}
	if collect.Recipient != "0xcccccccccccccccccccccccccccccccccccccccc" {
		t.Fatalf("collect recipient mismatch: %s", collect.Recipient)
	}
}

func TestDecodeRejectsUnknownTopic(t *testing.T) {
	decoder, err := NewDecoder()
	if err != nil {
		t.Fatalf("decoder: %v", err)
	}

	if decoder.CanDecode("0xdeadbeef") {
		t.Fatalf("unexpected decode support")
	}
	if _, err := decoder.Decode(event.LogRecord{Topics: []string{"0x" + "00"}}); err == nil {
		t.Fatalf("expected error for unknown topic")
	}
}

func buildLogRecord(emitter common.Address, topic0 common.Hash, data []byte, indexed []common.Hash) event.LogRecord {
	topics := make([]string, 0, len(indexed)+1)
	topics = append(topics, topic0.Hex())
	for _, topic := range indexed {
		topics = append(topics, topic.Hex())
	}

	return event.LogRecord{
		ChainID:     56,
		BlockNumber: 12345,
		BlockHash:   "0xabc",
		TxHash:      "0xdef",
		LogIndex:    1,
		Address:     emitter.Hex(),
		Topics:      topics,
		Data:        hexutil.Encode(data),
		Timestamp:   1700000000,
	}
}

func topicFromAddress(addr common.Address) common.Hash {
	return common.BytesToHash(addr.Bytes())
}

func topicFromInt24(value int32) common.Hash {
	bigVal := big.NewInt(int64(value))
	if value < 0 {
		bigVal = new(big.Int).Add(bigVal, new(big.Int).Lsh(big.NewInt(1), 256))
	}
	return common.BigToHash(bigVal)
}
