package model

import (
	"encoding/json"
	"fmt"
	"math/big"
)

// BurnEvent is a decoded burn log, ready for notification.
type BurnEvent struct {
	SourceAddress string   `json:"source_address"`
	Amount        *big.Int `json:"amount"`
	UnwrapAddress string   `json:"unwrap_address"`
	BlockNumber   uint64   `json:"block_number"`
	TransactionID string   `json:"transaction_id"`
	NetworkName   string   `json:"network_name"`
}

// MarshalJSON encodes Amount as a decimal string so no precision is lost downstream.
func (e BurnEvent) MarshalJSON() ([]byte, error) {
	type Alias BurnEvent
	amount := "0"
	if e.Amount != nil {
		amount = e.Amount.String()
	}
	return json.Marshal(struct {
		Alias
		Amount string `json:"amount"`
	}{Alias: Alias(e), Amount: amount})
}

// UnmarshalJSON decodes a BurnEvent written by MarshalJSON.
func (e *BurnEvent) UnmarshalJSON(data []byte) error {
	type Alias BurnEvent
	aux := struct {
		*Alias
		Amount string `json:"amount"`
	}{Alias: (*Alias)(e)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.Amount == "" {
		e.Amount = nil
		return nil
	}
	amount, ok := new(big.Int).SetString(aux.Amount, 10)
	if !ok {
		return fmt.Errorf("invalid amount: %q", aux.Amount)
	}
	e.Amount = amount
	return nil
}
