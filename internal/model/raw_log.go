package model

// RawLog is an eth_getLogs result entry as returned by the node.
// Quantities stay hex-encoded; only the decoder interprets them.
type RawLog struct {
	Address         string   `json:"address"`
	Data            string   `json:"data"`
	Topics          []string `json:"topics"`
	BlockNumber     string   `json:"blockNumber"`
	TransactionHash string   `json:"transactionHash"`
	LogIndex        string   `json:"logIndex,omitempty"`
	Removed         bool     `json:"removed,omitempty"`
}
