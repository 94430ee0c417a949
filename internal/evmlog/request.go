package evmlog

import (
	"github.com/ethereum/go-ethereum/common/hexutil"
)

const (
	MethodBlockNumber = "eth_blockNumber"
	MethodGetLogs     = "eth_getLogs"
)

// Request is a single JSON-RPC 2.0 call.
type Request struct {
	JSONRPC string        `json:"jsonrpc"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
	ID      int           `json:"id"`
}

// LogFilter is the eth_getLogs filter object.
type LogFilter struct {
	FromBlock string   `json:"fromBlock"`
	ToBlock   string   `json:"toBlock"`
	Address   string   `json:"address"`
	Topics    []string `json:"topics"`
}

// BlockRef is either a block number or a symbolic tag such as "finalized".
type BlockRef struct {
	Number uint64
	Tag    string
}

var (
	Latest    = BlockRef{Tag: "latest"}
	Finalized = BlockRef{Tag: "finalized"}
)

// BlockNumber refers to a block by height.
func BlockNumber(n uint64) BlockRef {
	return BlockRef{Number: n}
}

// Encode returns the wire form: the tag verbatim when it names a known
// symbolic block, otherwise the number as a 0x-prefixed quantity.
func (r BlockRef) Encode() string {
	if IsSymbolicTag(r.Tag) {
		return r.Tag
	}
	return hexutil.EncodeUint64(r.Number)
}

// IsSymbolicTag reports whether tag is one of the node's named blocks.
func IsSymbolicTag(tag string) bool {
	switch tag {
	case "latest", "finalized", "safe", "earliest", "pending":
		return true
	default:
		return false
	}
}

// LatestBlockRequest builds an eth_blockNumber call.
func LatestBlockRequest() Request {
	return Request{
		JSONRPC: "2.0",
		Method:  MethodBlockNumber,
		Params:  []interface{}{},
		ID:      1,
	}
}

// LogsFilterRequest builds an eth_getLogs call for one contract and one topic.
func LogsFilterRequest(contractAddress, eventTopic string, fromBlock uint64, toBlock BlockRef) Request {
	filter := LogFilter{
		FromBlock: hexutil.EncodeUint64(fromBlock),
		ToBlock:   toBlock.Encode(),
		Address:   contractAddress,
		Topics:    []string{eventTopic},
	}
	return Request{
		JSONRPC: "2.0",
		Method:  MethodGetLogs,
		Params:  []interface{}{filter},
		ID:      1,
	}
}
