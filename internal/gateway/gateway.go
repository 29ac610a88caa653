// Package gateway talks to the chain: stake and balance queries plus the two
// stake-mutation calls the engine issues. Wallet unlocking, transaction
// construction and consensus are the remote gateway's concern.
package gateway

import (
	"context"
	"errors"
)

// ErrStatus marks a non-2xx response from the gateway endpoint.
var ErrStatus = errors.New("gateway: unexpected status")

// Client is the chain access contract consumed by the engine. All four calls
// may fail with network or consensus errors; callers decide whether a failure
// is retried or read as a zero value.
type Client interface {
	// GetStake returns the stake the coldkey holds with hotkey on netuid.
	GetStake(ctx context.Context, coldkey, hotkey string, netuid int) (float64, error)
	// GetBalance returns the free balance of an address.
	GetBalance(ctx context.Context, address string) (float64, error)
	// IncreaseStake delegates amount to hotkey on netuid.
	IncreaseStake(ctx context.Context, netuid int, hotkey string, amount float64) error
	// DecreaseStake withdraws amount from hotkey on netuid.
	DecreaseStake(ctx context.Context, netuid int, hotkey string, amount float64) error
	Name() string
}
