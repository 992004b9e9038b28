package contract

import (
	"context"
	"fmt"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"

	"conditionScope/internal/model"
)

const (
	conditionCreatedEvent = "ConditionCreated"
	getConditionMethod    = "getCondition"
)

// Backend is the subset of chain access the core contract needs.
type Backend interface {
	LatestBlockNumber(ctx context.Context) (uint64, error)
	FilterLogs(ctx context.Context, query ethereum.FilterQuery) ([]types.Log, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// conditionTuple mirrors the getCondition return struct.
type conditionTuple struct {
	FundBank      [2]*big.Int
	Payouts       [2]*big.Int
	TotalNetBets  [2]*big.Int
	Reinforcement *big.Int
	Margin        *big.Int
	IpfsHash      [32]byte
	Outcomes      [2]uint64
	ScopeId       uint64
	OutcomeWin    uint64
	Timestamp     uint64
	State         uint8
	Leaf          *big.Int
}

// Core reads condition events and state from the prediction market core contract.
type Core struct {
	backend     Backend
	address     common.Address
	deployBlock uint64
	abi         abi.ABI
}

// NewCore binds the core contract at address. Unranged queries start at deployBlock.
func NewCore(backend Backend, address common.Address, deployBlock uint64) (*Core, error) {
	if backend == nil {
		return nil, fmt.Errorf("chain backend is nil")
	}
	parsed, err := CoreABI()
	if err != nil {
		return nil, fmt.Errorf("parse core abi: %w", err)
	}
	return &Core{
		backend:     backend,
		address:     address,
		deployBlock: deployBlock,
		abi:         parsed,
	}, nil
}

// CurrentBlockNumber returns the chain head.
func (c *Core) CurrentBlockNumber(ctx context.Context) (uint64, error) {
	return c.backend.LatestBlockNumber(ctx)
}

// QueryEvents returns ConditionCreated events in r ordered by block and log index.
// An open range ends at the chain head; the start never precedes the deploy block.
func (c *Core) QueryEvents(ctx context.Context, r model.BlockRange) ([]model.ConditionCreatedEvent, error) {
	event := c.abi.Events[conditionCreatedEvent]

	from := max(r.From, c.deployBlock)
	query := ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(from),
		Addresses: []common.Address{c.address},
		Topics:    [][]common.Hash{{event.ID}},
	}
	if !r.Open() {
		if from > r.To {
			return nil, nil
		}
		query.ToBlock = new(big.Int).SetUint64(r.To)
	}

	logs, err := c.backend.FilterLogs(ctx, query)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(logs, func(i, j int) bool {
		if logs[i].BlockNumber != logs[j].BlockNumber {
			return logs[i].BlockNumber < logs[j].BlockNumber
		}
		return logs[i].Index < logs[j].Index
	})

	events := make([]model.ConditionCreatedEvent, 0, len(logs))
	for _, log := range logs {
		if log.Removed {
			continue
		}
		decoded, err := c.decodeConditionCreated(log)
		if err != nil {
			return nil, fmt.Errorf("decode log %s:%d: %w", log.TxHash.Hex(), log.Index, err)
		}
		events = append(events, decoded)
	}
	return events, nil
}

func (c *Core) decodeConditionCreated(log types.Log) (model.ConditionCreatedEvent, error) {
	event := c.abi.Events[conditionCreatedEvent]
	if len(log.Topics) == 0 || log.Topics[0] != event.ID {
		return model.ConditionCreatedEvent{}, fmt.Errorf("unexpected topic0")
	}
	indexedArgs := indexedArguments(event.Inputs)
	if len(log.Topics) != len(indexedArgs)+1 {
		return model.ConditionCreatedEvent{}, fmt.Errorf("expected %d topics, got %d", len(indexedArgs)+1, len(log.Topics))
	}

	var indexed struct {
		OracleConditionId *big.Int
		ConditionId       *big.Int
	}
	if err := abi.ParseTopics(&indexed, indexedArgs, log.Topics[1:]); err != nil {
		return model.ConditionCreatedEvent{}, fmt.Errorf("parse topics: %w", err)
	}
	if !indexed.ConditionId.IsUint64() {
		return model.ConditionCreatedEvent{}, fmt.Errorf("condition id overflows uint64: %s", indexed.ConditionId)
	}

	values, err := event.Inputs.NonIndexed().Unpack(log.Data)
	if err != nil {
		return model.ConditionCreatedEvent{}, fmt.Errorf("unpack %s: %w", event.Name, err)
	}
	if len(values) != 1 {
		return model.ConditionCreatedEvent{}, fmt.Errorf("unexpected %s values: %d", event.Name, len(values))
	}
	timestamp, ok := values[0].(uint64)
	if !ok {
		return model.ConditionCreatedEvent{}, fmt.Errorf("timestamp unexpected type %T", values[0])
	}

	return model.ConditionCreatedEvent{
		ConditionID:       indexed.ConditionId.Uint64(),
		OracleConditionID: indexed.OracleConditionId,
		Timestamp:         timestamp,
		BlockNumber:       log.BlockNumber,
		TxHash:            log.TxHash.Hex(),
		TxIndex:           uint64(log.TxIndex),
		LogIndex:          uint64(log.Index),
	}, nil
}

// ReadCondition returns the current on-chain record for conditionID.
func (c *Core) ReadCondition(ctx context.Context, conditionID uint64) (model.ConditionRecord, error) {
	data, err := c.abi.Pack(getConditionMethod, new(big.Int).SetUint64(conditionID))
	if err != nil {
		return model.ConditionRecord{}, fmt.Errorf("pack %s: %w", getConditionMethod, err)
	}
	msg := ethereum.CallMsg{To: &c.address, Data: data}
	resp, err := c.backend.CallContract(ctx, msg, nil)
	if err != nil {
		return model.ConditionRecord{}, fmt.Errorf("call %s: %w", getConditionMethod, err)
	}
	values, err := c.abi.Unpack(getConditionMethod, resp)
	if err != nil {
		return model.ConditionRecord{}, fmt.Errorf("unpack %s: %w", getConditionMethod, err)
	}
	if len(values) != 1 {
		return model.ConditionRecord{}, fmt.Errorf("%s return size %d", getConditionMethod, len(values))
	}

	tuple, err := asConditionTuple(values[0])
	if err != nil {
		return model.ConditionRecord{}, err
	}

	return model.ConditionRecord{
		State:            model.ConditionState(tuple.State),
		ScopeID:          tuple.ScopeId,
		TimestampSeconds: tuple.Timestamp,
		FundBank:         tuple.FundBank,
		Margin:           tuple.Margin,
		Outcomes:         []uint64{tuple.Outcomes[0], tuple.Outcomes[1]},
		IPFSHashHex:      hexutil.Encode(tuple.IpfsHash[:]),
	}, nil
}

// asConditionTuple converts the reflected tuple into conditionTuple.
// abi.ConvertType panics on a shape mismatch, which is reported as an error.
func asConditionTuple(value interface{}) (tuple conditionTuple, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s unexpected type %T: %v", getConditionMethod, value, r)
		}
	}()
	converted, ok := abi.ConvertType(value, new(conditionTuple)).(*conditionTuple)
	if !ok {
		return conditionTuple{}, fmt.Errorf("%s unexpected type %T", getConditionMethod, value)
	}
	return *converted, nil
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
