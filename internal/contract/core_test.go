package contract

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"conditionScope/internal/model"
)

type fakeBackend struct {
	head    uint64
	logs    []types.Log
	callOut []byte
	callErr error
	queries []ethereum.FilterQuery
	calls   []ethereum.CallMsg
}

func (f *fakeBackend) LatestBlockNumber(context.Context) (uint64, error) {
	return f.head, nil
}

func (f *fakeBackend) FilterLogs(_ context.Context, query ethereum.FilterQuery) ([]types.Log, error) {
	f.queries = append(f.queries, query)
	return f.logs, nil
}

func (f *fakeBackend) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	f.calls = append(f.calls, msg)
	return f.callOut, f.callErr
}

var coreAddress = common.HexToAddress("0x1111111111111111111111111111111111111111")

func TestQueryEventsDecodesAndOrders(t *testing.T) {
	coreABI, err := CoreABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}

	backend := &fakeBackend{
		logs: []types.Log{
			buildCreatedLog(t, 120, 4, 2, 77, 1700000200),
			buildCreatedLog(t, 100, 1, 1, 42, 1700000100),
			buildCreatedLog(t, 120, 1, 3, 78, 1700000300),
		},
	}
	removed := buildCreatedLog(t, 130, 0, 9, 99, 1700000400)
	removed.Removed = true
	backend.logs = append(backend.logs, removed)

	core, err := NewCore(backend, coreAddress, 0)
	if err != nil {
		t.Fatalf("core: %v", err)
	}

	events, err := core.QueryEvents(context.Background(), model.BlockRange{From: 100, To: 150})
	if err != nil {
		t.Fatalf("query events: %v", err)
	}

	if len(events) != 3 {
		t.Fatalf("events mismatch: %+v", events)
	}
	gotIDs := []uint64{events[0].ConditionID, events[1].ConditionID, events[2].ConditionID}
	wantIDs := []uint64{42, 78, 77}
	for i := range wantIDs {
		if gotIDs[i] != wantIDs[i] {
			t.Fatalf("order mismatch: %v != %v", gotIDs, wantIDs)
		}
	}
	if events[0].Timestamp != 1700000100 || events[0].OracleConditionID.Int64() != 1 {
		t.Fatalf("payload mismatch: %+v", events[0])
	}

	query := backend.queries[0]
	if query.FromBlock.Uint64() != 100 || query.ToBlock.Uint64() != 150 {
		t.Fatalf("query range mismatch: %v-%v", query.FromBlock, query.ToBlock)
	}
	if query.Topics[0][0] != coreABI.Events["ConditionCreated"].ID {
		t.Fatalf("topic0 mismatch")
	}
}

func TestQueryEventsOpenRangeStartsAtDeployBlock(t *testing.T) {
	backend := &fakeBackend{}
	core, err := NewCore(backend, coreAddress, 5000)
	if err != nil {
		t.Fatalf("core: %v", err)
	}

	if _, err := core.QueryEvents(context.Background(), model.BlockRange{From: 0, To: model.LatestBlock}); err != nil {
		t.Fatalf("query events: %v", err)
	}

	query := backend.queries[0]
	if query.FromBlock.Uint64() != 5000 {
		t.Fatalf("from mismatch: %v", query.FromBlock)
	}
	if query.ToBlock != nil {
		t.Fatalf("open range should leave ToBlock nil")
	}
}

func TestReadCondition(t *testing.T) {
	coreABI, err := CoreABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}

	var ipfs [32]byte
	ipfs[0] = 0xab
	ipfs[31] = 0xcd

	out, err := coreABI.Methods["getCondition"].Outputs.Pack(conditionTuple{
		FundBank:      [2]*big.Int{big.NewInt(1000), big.NewInt(3000)},
		Payouts:       [2]*big.Int{big.NewInt(0), big.NewInt(0)},
		TotalNetBets:  [2]*big.Int{big.NewInt(0), big.NewInt(0)},
		Reinforcement: big.NewInt(4000),
		Margin:        big.NewInt(50_000_000),
		IpfsHash:      ipfs,
		Outcomes:      [2]uint64{29, 30},
		ScopeId:       555,
		OutcomeWin:    0,
		Timestamp:     1900000000,
		State:         uint8(model.ConditionResolved),
		Leaf:          big.NewInt(7),
	})
	if err != nil {
		t.Fatalf("pack condition: %v", err)
	}

	backend := &fakeBackend{callOut: out}
	core, err := NewCore(backend, coreAddress, 0)
	if err != nil {
		t.Fatalf("core: %v", err)
	}

	record, err := core.ReadCondition(context.Background(), 42)
	if err != nil {
		t.Fatalf("read condition: %v", err)
	}

	if record.State != model.ConditionResolved {
		t.Fatalf("state mismatch: %v", record.State)
	}
	if record.ScopeID != 555 || record.TimestampSeconds != 1900000000 {
		t.Fatalf("record mismatch: %+v", record)
	}
	if record.FundBank[0].Int64() != 1000 || record.FundBank[1].Int64() != 3000 {
		t.Fatalf("fund bank mismatch: %v", record.FundBank)
	}
	if record.Margin.Int64() != 50_000_000 {
		t.Fatalf("margin mismatch: %v", record.Margin)
	}
	if len(record.Outcomes) != 2 || record.Outcomes[0] != 29 || record.Outcomes[1] != 30 {
		t.Fatalf("outcomes mismatch: %v", record.Outcomes)
	}
	if record.IPFSHashHex != "0xab000000000000000000000000000000000000000000000000000000000000cd" {
		t.Fatalf("ipfs hash mismatch: %s", record.IPFSHashHex)
	}

	if *backend.calls[0].To != coreAddress {
		t.Fatalf("call target mismatch")
	}
	args, err := coreABI.Methods["getCondition"].Inputs.Unpack(backend.calls[0].Data[4:])
	if err != nil {
		t.Fatalf("unpack call input: %v", err)
	}
	if args[0].(*big.Int).Uint64() != 42 {
		t.Fatalf("condition id mismatch: %v", args[0])
	}
}

func TestReadConditionMalformedResponse(t *testing.T) {
	backend := &fakeBackend{callOut: []byte{0x01, 0x02}}
	core, err := NewCore(backend, coreAddress, 0)
	if err != nil {
		t.Fatalf("core: %v", err)
	}

	if _, err := core.ReadCondition(context.Background(), 1); err == nil {
		t.Fatalf("expected error for malformed response")
	}
}

func TestReadConditionCallError(t *testing.T) {
	boom := errors.New("boom")
	backend := &fakeBackend{callErr: boom}
	core, err := NewCore(backend, coreAddress, 0)
	if err != nil {
		t.Fatalf("core: %v", err)
	}

	if _, err := core.ReadCondition(context.Background(), 1); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
}

func buildCreatedLog(t *testing.T, block uint64, index uint, oracleID, conditionID int64, timestamp uint64) types.Log {
	t.Helper()

	coreABI, err := CoreABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}
	event := coreABI.Events["ConditionCreated"]
	data, err := event.Inputs.NonIndexed().Pack(timestamp)
	if err != nil {
		t.Fatalf("pack event: %v", err)
	}

	return types.Log{
		Address:     coreAddress,
		Topics:      []common.Hash{event.ID, common.BigToHash(big.NewInt(oracleID)), common.BigToHash(big.NewInt(conditionID))},
		Data:        data,
		BlockNumber: block,
		TxHash:      common.BigToHash(big.NewInt(int64(block)*100 + int64(index))),
		Index:       index,
	}
}

func TestParseAddress(t *testing.T) {
	got, err := ParseAddress(" 0x1111111111111111111111111111111111111111 ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != coreAddress {
		t.Fatalf("address mismatch: %s", got.Hex())
	}

	for _, input := range []string{"", "0x123", "0x0000000000000000000000000000000000000000"} {
		if _, err := ParseAddress(input); err == nil {
			t.Fatalf("expected error for %q", input)
		}
	}
}
