package evmlog

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

var (
	eventNamePattern = regexp.MustCompile(`\w+`)
	eventTypePattern = regexp.MustCompile(`\b(address|uint256|string)\b`)
)

// EventSignature reduces a human readable event definition such as
//
//	WPPCBurned (index_topic_1 address from, index_topic_2 address to, uint256 tokens, string externalAddress)
//
// to its canonical form WPPCBurned(address,address,uint256,string).
// Only address, uint256 and string parameters are recognised.
func EventSignature(definition string) (string, error) {
	definition = strings.TrimSpace(definition)
	name := eventNamePattern.FindString(definition)
	if name == "" {
		return "", fmt.Errorf("event definition has no name: %q", definition)
	}
	types := eventTypePattern.FindAllString(definition[len(name):], -1)
	return name + "(" + strings.Join(types, ",") + ")", nil
}

// EventTopic returns the keccak256 topic of an event definition.
func EventTopic(definition string) (common.Hash, error) {
	sig, err := EventSignature(definition)
	if err != nil {
		return common.Hash{}, err
	}
	return crypto.Keccak256Hash([]byte(sig)), nil
}

// ResolveTopic accepts either a 32-byte topic hex string or an event definition.
func ResolveTopic(input string) (common.Hash, error) {
	input = strings.TrimSpace(input)
	if strings.HasPrefix(input, "0x") || strings.HasPrefix(input, "0X") {
		data, err := hexutil.Decode(input)
		if err != nil {
			return common.Hash{}, fmt.Errorf("invalid topic: %s", input)
		}
		if len(data) != common.HashLength {
			return common.Hash{}, fmt.Errorf("invalid topic length: %s", input)
		}
		return common.BytesToHash(data), nil
	}
	return EventTopic(input)
}

// ParseAddress validates and checksums a contract address.
func ParseAddress(input string) (common.Address, error) {
	input = strings.TrimSpace(input)
	if !common.IsHexAddress(input) {
		return common.Address{}, fmt.Errorf("invalid address: %s", input)
	}
	return common.HexToAddress(input), nil
}
