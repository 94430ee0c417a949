package evmlog

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"burnwatch/internal/model"
)

// ErrDecode matches every *DecodeError.
var ErrDecode = errors.New("decode burn log")

// DecodeError reports a log entry that does not fit the burn layout.
type DecodeError struct {
	TxHash string
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	msg := ErrDecode.Error()
	if e.TxHash != "" {
		msg += " " + e.TxHash
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func (e *DecodeError) Is(target error) bool {
	return target == ErrDecode
}

// DecodeData unpacks the burn payload (uint256 amount, string unwrapAddress).
// The payload must be exactly the canonical encoding length.
func DecodeData(data string) (*big.Int, string, error) {
	raw, err := hexutil.Decode(data)
	if err != nil {
		return nil, "", &DecodeError{Reason: "malformed hex", Err: err}
	}

	args, err := BurnDataArguments()
	if err != nil {
		return nil, "", &DecodeError{Reason: "abi layout", Err: err}
	}

	values, err := args.Unpack(raw)
	if err != nil {
		return nil, "", &DecodeError{Reason: "unpack", Err: err}
	}
	if len(values) != 2 {
		return nil, "", &DecodeError{Reason: fmt.Sprintf("expected 2 values, got %d", len(values))}
	}

	amount, ok := values[0].(*big.Int)
	if !ok {
		return nil, "", &DecodeError{Reason: fmt.Sprintf("amount has type %T", values[0])}
	}
	unwrap, ok := values[1].(string)
	if !ok {
		return nil, "", &DecodeError{Reason: fmt.Sprintf("unwrap address has type %T", values[1])}
	}

	// abi.Unpack tolerates trailing or truncated padding; the layout here is fixed.
	canonical, err := args.Pack(amount, unwrap)
	if err != nil {
		return nil, "", &DecodeError{Reason: "repack", Err: err}
	}
	if len(canonical) != len(raw) {
		return nil, "", &DecodeError{Reason: fmt.Sprintf("payload is %d bytes, layout needs %d", len(raw), len(canonical))}
	}

	return amount, unwrap, nil
}

// DecodeBurn turns a raw log into a BurnEvent for the given network.
func DecodeBurn(log model.RawLog, networkName string) (model.BurnEvent, error) {
	amount, unwrap, err := DecodeData(log.Data)
	if err != nil {
		var decodeErr *DecodeError
		if errors.As(err, &decodeErr) {
			decodeErr.TxHash = log.TransactionHash
		}
		return model.BurnEvent{}, err
	}

	blockNumber, err := hexutil.DecodeUint64(log.BlockNumber)
	if err != nil {
		return model.BurnEvent{}, &DecodeError{TxHash: log.TransactionHash, Reason: "block number", Err: err}
	}

	return model.BurnEvent{
		SourceAddress: log.Address,
		Amount:        amount,
		UnwrapAddress: unwrap,
		BlockNumber:   blockNumber,
		TransactionID: log.TransactionHash,
		NetworkName:   networkName,
	}, nil
}
