package contract

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// ParseAddress converts a hex string into common.Address, rejecting the zero address.
func ParseAddress(input string) (common.Address, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return common.Address{}, fmt.Errorf("core address is required")
	}
	if !common.IsHexAddress(input) {
		return common.Address{}, fmt.Errorf("invalid address: %s", input)
	}
	address := common.HexToAddress(input)
	if address == (common.Address{}) {
		return common.Address{}, fmt.Errorf("zero address: %s", input)
	}
	return address, nil
}
