package evmlog

import (
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

var (
	burnDataArgs    abi.Arguments
	burnDataArgsErr error
	burnDataOnce    sync.Once
)

// BurnDataArguments returns the non-indexed layout of the burn event: (uint256, string).
func BurnDataArguments() (abi.Arguments, error) {
	burnDataOnce.Do(func() {
		uint256Ty, err := abi.NewType("uint256", "", nil)
		if err != nil {
			burnDataArgsErr = err
			return
		}
		stringTy, err := abi.NewType("string", "", nil)
		if err != nil {
			burnDataArgsErr = err
			return
		}
		burnDataArgs = abi.Arguments{
			{Name: "tokens", Type: uint256Ty},
			{Name: "externalAddress", Type: stringTy},
		}
	})
	return burnDataArgs, burnDataArgsErr
}
