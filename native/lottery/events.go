package lottery

import "math/big"

const (
	EventTypeCreated   = "lottery.created"
	EventTypePurchased = "lottery.purchased"
	EventTypeCompleted = "lottery.completed"
	EventTypeWithdrawn = "lottery.withdrawn"
)

// CreatedEvent is emitted when a sale instance is registered.
type CreatedEvent struct {
	ID       [32]byte
	Year     uint32
	Sequence uint64
	Name     string
}

func (CreatedEvent) EventType() string { return EventTypeCreated }

// PurchasedEvent is emitted when boxes are minted for a buyer.
type PurchasedEvent struct {
	ID         [32]byte
	Buyer      [20]byte
	Amount     uint64
	FirstBox   uint64
	LastBox    uint64
	NetAmount  *big.Int
	TotalPrice *big.Int
}

func (PurchasedEvent) EventType() string { return EventTypePurchased }

// CompletedEvent is emitted when the winning number is set.
type CompletedEvent struct {
	ID            [32]byte
	WinningNumber uint64
}

func (CompletedEvent) EventType() string { return EventTypeCompleted }

// WithdrawnEvent is emitted when the campaign pool is drained.
type WithdrawnEvent struct {
	ID        [32]byte
	Recipient [20]byte
	Amount    *big.Int
}

func (WithdrawnEvent) EventType() string { return EventTypeWithdrawn }
