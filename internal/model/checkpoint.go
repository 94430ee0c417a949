package model

// Checkpoint is the last block height scanned for a contract.
type Checkpoint struct {
	ContractAddress string `json:"contract" yaml:"contract"`
	BlockHeight     uint64 `json:"block_height" yaml:"block_height"`
	NetworkID       uint64 `json:"network_id" yaml:"network_id"`
}
