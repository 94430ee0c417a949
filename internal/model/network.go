package model

// ScanBound selects the upper bound of each log scan.
type ScanBound string

const (
	ScanFinalized ScanBound = "finalized"
	ScanLatest    ScanBound = "latest"
	// ScanHead scans up to the numeric height observed at the start of the cycle.
	ScanHead ScanBound = "head"
)

// NetworkDescriptor is the immutable watch configuration for one network.
type NetworkDescriptor struct {
	Name             string
	NetworkID        uint64
	RPCEndpoint      string
	RPCAuthKey       string
	RPCRateLimit     float64
	RPCBurst         int
	ContractAddress  string
	EventTopic       string
	StartBlockHeight uint64
	ScanBound        ScanBound
	ExplorerURL      string
	AmountDecimals   uint8
}
