package contract

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const coreABIJSON = `[
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "uint256", "name": "oracleConditionId", "type": "uint256"},
      {"indexed": true, "internalType": "uint256", "name": "conditionId", "type": "uint256"},
      {"indexed": false, "internalType": "uint64", "name": "timestamp", "type": "uint64"}
    ],
    "name": "ConditionCreated",
    "type": "event"
  },
  {
    "inputs": [{"internalType": "uint256", "name": "conditionId", "type": "uint256"}],
    "name": "getCondition",
    "outputs": [
      {
        "components": [
          {"internalType": "uint128[2]", "name": "fundBank", "type": "uint128[2]"},
          {"internalType": "uint128[2]", "name": "payouts", "type": "uint128[2]"},
          {"internalType": "uint128[2]", "name": "totalNetBets", "type": "uint128[2]"},
          {"internalType": "uint128", "name": "reinforcement", "type": "uint128"},
          {"internalType": "uint128", "name": "margin", "type": "uint128"},
          {"internalType": "bytes32", "name": "ipfsHash", "type": "bytes32"},
          {"internalType": "uint64[2]", "name": "outcomes", "type": "uint64[2]"},
          {"internalType": "uint64", "name": "scopeId", "type": "uint64"},
          {"internalType": "uint64", "name": "outcomeWin", "type": "uint64"},
          {"internalType": "uint64", "name": "timestamp", "type": "uint64"},
          {"internalType": "uint8", "name": "state", "type": "uint8"},
          {"internalType": "uint48", "name": "leaf", "type": "uint48"}
        ],
        "internalType": "struct ICondition.Condition",
        "name": "",
        "type": "tuple"
      }
    ],
    "stateMutability": "view",
    "type": "function"
  }
]`

var (
	coreABI     abi.ABI
	coreABIOnce sync.Once
	coreABIErr  error
)

// CoreABI returns the parsed core contract ABI.
func CoreABI() (abi.ABI, error) {
	coreABIOnce.Do(func() {
		coreABI, coreABIErr = abi.JSON(strings.NewReader(coreABIJSON))
	})
	return coreABI, coreABIErr
}
