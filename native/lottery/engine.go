package lottery

import (
	"fmt"
	"math/big"

	"lottobox/core/events"
	"lottobox/native/token"
	"lottobox/state"
)

// State is the narrow view of the node state the lottery engine depends on.
type State interface {
	KVPut(key []byte, value interface{}) error
	KVGet(key []byte, out interface{}) (bool, error)
}

// Engine owns the sale-and-settlement state of every campaign: capacity,
// pricing, the box/ticket ledger and completion. All mutating entry points
// verify the caller is the configured orchestrator authority.
type Engine struct {
	st      State
	tokens  *token.Registry
	emitter events.Emitter
	factory [20]byte
}

// NewEngine creates a lottery engine over the provided state and token
// registry.
func NewEngine(st State, tokens *token.Registry) *Engine {
	return &Engine{st: st, tokens: tokens, emitter: events.NoopEmitter{}}
}

// SetEmitter configures the event emitter used by the engine. Passing nil
// resets the emitter to a no-op implementation.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetFactory configures the orchestrator address allowed to drive mutating
// entry points.
func (e *Engine) SetFactory(factory [20]byte) { e.factory = factory }

func (e *Engine) authorize(caller [20]byte) error {
	if caller != e.factory || e.factory == ([20]byte{}) {
		return ErrUnauthorizedCaller
	}
	return nil
}

// Get loads a stored lottery record.
func (e *Engine) Get(id [32]byte) (*Lottery, error) {
	lot := new(Lottery)
	exists, err := e.st.KVGet(state.LotteryKey(id), lot)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrNotFound
	}
	return lot, nil
}

func (e *Engine) put(lot *Lottery) error {
	return e.st.KVPut(state.LotteryKey(lot.ID), lot)
}

// Create validates and persists a new sale instance.
func (e *Engine) Create(caller [20]byte, lot *Lottery) error {
	if err := e.authorize(caller); err != nil {
		return err
	}
	if err := lot.Validate(); err != nil {
		return err
	}
	if !e.tokens.Exists(lot.Token) {
		return fmt.Errorf("%w: payment token %q not registered", ErrInvalidConfig, lot.Token)
	}
	exists, err := e.st.KVGet(state.LotteryKey(lot.ID), nil)
	if err != nil {
		return err
	}
	if exists {
		return ErrLotteryExists
	}
	if err := e.put(lot); err != nil {
		return err
	}
	e.emitter.Emit(CreatedEvent{ID: lot.ID, Year: lot.Year, Sequence: lot.Sequence, Name: lot.Name})
	return nil
}

// Purchase mints boxes for the buyer and collects the net payment into the
// campaign vault. The netAmount is the total price minus whatever portion
// the orchestrator already routed to commission payees; it is drawn from
// the buyer's allowance to the campaign vault. A request exceeding the
// remaining capacity is rejected in full.
func (e *Engine) Purchase(caller [20]byte, id [32]byte, amount uint64, buyer [20]byte, netAmount *big.Int) ([]*Box, error) {
	if err := e.authorize(caller); err != nil {
		return nil, err
	}
	if amount == 0 {
		return nil, ErrInvalidAmount
	}
	lot, err := e.Get(id)
	if err != nil {
		return nil, err
	}
	if lot.Completed {
		return nil, ErrAlreadyCompleted
	}
	if amount > lot.TotalBoxes-lot.BoxesSold {
		return nil, ErrCapacityExceeded
	}
	if netAmount == nil || netAmount.Sign() < 0 {
		return nil, ErrInvalidAmount
	}
	ledger, err := e.tokens.Ledger(lot.Token)
	if err != nil {
		return nil, err
	}
	vault := VaultAddress(id)
	if netAmount.Sign() > 0 {
		if err := ledger.TransferFrom(vault, buyer, vault, netAmount); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInsufficientFunds, err)
		}
	}
	boxes := make([]*Box, 0, amount)
	first := lot.BoxesSold + 1
	for index := first; index < first+amount; index++ {
		ticketA, ticketB := ticketPair(index)
		box := &Box{Index: index, Owner: buyer, TicketA: ticketA, TicketB: ticketB}
		if err := e.st.KVPut(state.BoxKey(id, index), box); err != nil {
			return nil, err
		}
		boxes = append(boxes, box)
	}
	owned, err := e.BoxBalance(id, buyer)
	if err != nil {
		return nil, err
	}
	if err := e.st.KVPut(state.BoxCountKey(id, buyer[:]), owned+amount); err != nil {
		return nil, err
	}
	lot.BoxesSold += amount
	if err := e.put(lot); err != nil {
		return nil, err
	}
	total := new(big.Int).Mul(lot.BoxPrice, new(big.Int).SetUint64(amount))
	e.emitter.Emit(PurchasedEvent{
		ID:         id,
		Buyer:      buyer,
		Amount:     amount,
		FirstBox:   first,
		LastBox:    lot.BoxesSold,
		NetAmount:  new(big.Int).Set(netAmount),
		TotalPrice: total,
	})
	return boxes, nil
}

// Info returns a read-only snapshot of a sale instance.
func (e *Engine) Info(id [32]byte) (*Info, error) {
	lot, err := e.Get(id)
	if err != nil {
		return nil, err
	}
	return &Info{
		ID:            lot.ID,
		Name:          lot.Name,
		Symbol:        lot.Symbol,
		Year:          lot.Year,
		Sequence:      lot.Sequence,
		Token:         lot.Token,
		BoxPrice:      new(big.Int).Set(lot.BoxPrice),
		TotalBoxes:    lot.TotalBoxes,
		BoxesSold:     lot.BoxesSold,
		WinningNumber: lot.WinningNumber,
		WinningSet:    lot.WinningSet,
		Completed:     lot.Completed,
		Prizes:        lot.Prizes,
	}, nil
}

// IsCompleted reports whether settlement has been entered.
func (e *Engine) IsCompleted(id [32]byte) (bool, error) {
	lot, err := e.Get(id)
	if err != nil {
		return false, err
	}
	return lot.Completed, nil
}

// SetWinning records the winning number and marks the lottery completed.
// A second call is rejected: completion is a terminal, set-once state.
func (e *Engine) SetWinning(caller [20]byte, id [32]byte, number uint64) error {
	if err := e.authorize(caller); err != nil {
		return err
	}
	lot, err := e.Get(id)
	if err != nil {
		return err
	}
	if lot.Completed {
		return ErrAlreadyCompleted
	}
	lot.WinningNumber = number
	lot.WinningSet = true
	lot.Completed = true
	if err := e.put(lot); err != nil {
		return err
	}
	e.emitter.Emit(CompletedEvent{ID: id, WinningNumber: number})
	return nil
}

// Withdraw transfers the campaign pool's entire payment-token balance to
// the recipient. It fails before settlement.
func (e *Engine) Withdraw(caller [20]byte, id [32]byte, recipient [20]byte) (*big.Int, error) {
	if err := e.authorize(caller); err != nil {
		return nil, err
	}
	lot, err := e.Get(id)
	if err != nil {
		return nil, err
	}
	if !lot.Completed {
		return nil, ErrNotCompleted
	}
	ledger, err := e.tokens.Ledger(lot.Token)
	if err != nil {
		return nil, err
	}
	vault := VaultAddress(id)
	balance, err := ledger.BalanceOf(vault)
	if err != nil {
		return nil, err
	}
	if balance.Sign() > 0 {
		if err := ledger.Transfer(vault, recipient, balance); err != nil {
			return nil, err
		}
	}
	e.emitter.Emit(WithdrawnEvent{ID: id, Recipient: recipient, Amount: new(big.Int).Set(balance)})
	return balance, nil
}

// OwnerOfBox returns the owner of a minted box.
func (e *Engine) OwnerOfBox(id [32]byte, index uint64) ([20]byte, error) {
	box := new(Box)
	exists, err := e.st.KVGet(state.BoxKey(id, index), box)
	if err != nil {
		return [20]byte{}, err
	}
	if !exists {
		return [20]byte{}, fmt.Errorf("%w: box %d", ErrNotFound, index)
	}
	return box.Owner, nil
}

// Box returns a minted box record.
func (e *Engine) Box(id [32]byte, index uint64) (*Box, error) {
	box := new(Box)
	exists, err := e.st.KVGet(state.BoxKey(id, index), box)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: box %d", ErrNotFound, index)
	}
	return box, nil
}

// BoxBalance returns the number of boxes an account owns in a campaign.
func (e *Engine) BoxBalance(id [32]byte, owner [20]byte) (uint64, error) {
	var count uint64
	exists, err := e.st.KVGet(state.BoxCountKey(id, owner[:]), &count)
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, nil
	}
	return count, nil
}
