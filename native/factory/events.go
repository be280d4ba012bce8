package factory

import "math/big"

const (
	EventTypePaused               = "factory.paused"
	EventTypeUnpaused             = "factory.unpaused"
	EventTypeOwnershipTransferred = "factory.ownership_transferred"
	EventTypeCommissionPaid       = "factory.commission_paid"
)

// PausedEvent is emitted when the owner engages the global pause.
type PausedEvent struct{}

func (PausedEvent) EventType() string { return EventTypePaused }

// UnpausedEvent is emitted when the owner releases the global pause.
type UnpausedEvent struct{}

func (UnpausedEvent) EventType() string { return EventTypeUnpaused }

// OwnershipTransferredEvent is emitted on ownership transfer and on
// renouncement, where the new owner is the zero address.
type OwnershipTransferredEvent struct {
	PreviousOwner [20]byte
	NewOwner      [20]byte
}

func (OwnershipTransferredEvent) EventType() string { return EventTypeOwnershipTransferred }

// CommissionPaidEvent is emitted for every commission share routed to an
// active sponsor during a purchase.
type CommissionPaidEvent struct {
	CampaignID [32]byte
	Buyer      [20]byte
	Payee      [20]byte
	Amount     *big.Int
}

func (CommissionPaidEvent) EventType() string { return EventTypeCommissionPaid }
