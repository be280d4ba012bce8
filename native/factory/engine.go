package factory

import (
	"fmt"
	"math/big"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"lottobox/core/events"
	"lottobox/native/lottery"
	"lottobox/native/sponsors"
	"lottobox/native/token"
	"lottobox/state"
)

// State is the narrow view of the node state the orchestrator depends on.
type State interface {
	KVPut(key []byte, value interface{}) error
	KVGet(key []byte, out interface{}) (bool, error)
}

// record is the orchestrator's persistent owner/pause state.
type record struct {
	Owner  [20]byte
	Paused bool
}

// CreateParams carries the creation-time configuration of a new campaign.
type CreateParams struct {
	Name             string
	Symbol           string
	TotalBoxes       uint64
	Token            string
	BoxPrice         *big.Int
	WinnerBps        uint32
	SponsorWinnerBps uint32
	Incentives       lottery.IncentiveTiers
	MaxSponsorBps    uint32
	Year             uint32
}

// Engine is the sole entry point external callers use for purchases and
// owner-administered actions. It creates sale instances, indexes them by
// (year, sequence), and enforces the register-then-resolve ordering between
// the sponsor registry and the sale instance on every purchase.
type Engine struct {
	st        State
	registry  *sponsors.Registry
	lotteries *lottery.Engine
	tokens    *token.Registry
	emitter   events.Emitter
	authority [20]byte
}

// Authority derives the orchestrator's own capability address. Downstream
// engines accept mutations only from this address.
func Authority() [20]byte {
	hash := ethcrypto.Keccak256([]byte("lottobox/factory"))
	var addr [20]byte
	copy(addr[:], hash[12:])
	return addr
}

// NewEngine wires the orchestrator with its collaborating engines.
func NewEngine(st State, registry *sponsors.Registry, lotteries *lottery.Engine, tokens *token.Registry) *Engine {
	e := &Engine{
		st:        st,
		registry:  registry,
		lotteries: lotteries,
		tokens:    tokens,
		emitter:   events.NoopEmitter{},
		authority: Authority(),
	}
	registry.SetFactory(e.authority)
	lotteries.SetFactory(e.authority)
	return e
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

// Initialize stores the initial owner. It is safe to call on an
// already-initialized state, in which case the stored owner wins.
func (e *Engine) Initialize(owner [20]byte) error {
	if owner == ([20]byte{}) {
		return ErrInvalidOwner
	}
	exists, err := e.st.KVGet(state.FactoryKey(), nil)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	if err := e.registry.Initialize(); err != nil {
		return err
	}
	return e.st.KVPut(state.FactoryKey(), &record{Owner: owner})
}

func (e *Engine) load() (*record, error) {
	rec := new(record)
	exists, err := e.st.KVGet(state.FactoryKey(), rec)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrNotInitialized
	}
	return rec, nil
}

func (e *Engine) requireOwner(caller [20]byte) (*record, error) {
	rec, err := e.load()
	if err != nil {
		return nil, err
	}
	if rec.Owner == ([20]byte{}) || caller != rec.Owner {
		return nil, ErrNotOwner
	}
	return rec, nil
}

// Owner returns the current owner. The zero address means ownership has
// been renounced.
func (e *Engine) Owner() ([20]byte, error) {
	rec, err := e.load()
	if err != nil {
		return [20]byte{}, err
	}
	return rec.Owner, nil
}

// Paused reports whether the global pause is engaged.
func (e *Engine) Paused() (bool, error) {
	rec, err := e.load()
	if err != nil {
		return false, err
	}
	return rec.Paused, nil
}

// CreateLottery instantiates a new sale instance, assigns it the next
// sequence number within the year, and records it in the index.
func (e *Engine) CreateLottery(caller [20]byte, params CreateParams) ([32]byte, error) {
	rec, err := e.requireOwner(caller)
	if err != nil {
		return [32]byte{}, err
	}
	if rec.Paused {
		return [32]byte{}, ErrPaused
	}
	ids, err := e.LotteriesByYear(params.Year)
	if err != nil {
		return [32]byte{}, err
	}
	sequence := uint64(len(ids)) + 1
	id := lottery.CampaignID(params.Year, sequence)
	lot := &lottery.Lottery{
		ID:         id,
		Name:       params.Name,
		Symbol:     params.Symbol,
		Year:       params.Year,
		Sequence:   sequence,
		Token:      params.Token,
		BoxPrice:   params.BoxPrice,
		TotalBoxes: params.TotalBoxes,
		Prizes: lottery.PrizeConfig{
			WinnerBps:        params.WinnerBps,
			SponsorWinnerBps: params.SponsorWinnerBps,
			Incentives:       params.Incentives,
			MaxSponsorBps:    params.MaxSponsorBps,
		},
	}
	if err := e.lotteries.Create(e.authority, lot); err != nil {
		return [32]byte{}, err
	}
	ids = append(ids, id)
	if err := e.st.KVPut(state.YearIndexKey(params.Year), ids); err != nil {
		return [32]byte{}, err
	}
	return id, nil
}

// BuyBoxes mediates a purchase: it registers and activates the buyer,
// resolves the commission chain against that freshly updated activation
// state, routes each commission share to its payee, and finally delegates
// the remainder collection and box minting to the sale instance.
//
// The registration happens strictly before commission resolution so the
// chain always reflects the current purchase, never a future one.
func (e *Engine) BuyBoxes(id [32]byte, amount uint64, buyer, sponsor [20]byte) error {
	rec, err := e.load()
	if err != nil {
		return err
	}
	if rec.Paused {
		return ErrPaused
	}
	lot, err := e.lotteries.Get(id)
	if err != nil {
		return err
	}
	if amount == 0 {
		return lottery.ErrInvalidAmount
	}
	if err := e.registry.RegisterAndActivate(e.authority, buyer, sponsor, id); err != nil {
		return err
	}
	chain, err := e.registry.CommissionChain(id, buyer)
	if err != nil {
		return err
	}
	ledger, err := e.tokens.Ledger(lot.Token)
	if err != nil {
		return err
	}
	vault := lottery.VaultAddress(id)
	total := new(big.Int).Mul(lot.BoxPrice, new(big.Int).SetUint64(amount))
	paid := new(big.Int)
	for _, commission := range chain {
		share := new(big.Int).Mul(total, new(big.Int).SetUint64(uint64(commission.Bps)))
		share.Div(share, big.NewInt(10_000))
		if share.Sign() == 0 {
			continue
		}
		if err := ledger.TransferFrom(vault, buyer, commission.Payee, share); err != nil {
			return fmt.Errorf("%w: %s", ErrInsufficientFunds, err)
		}
		paid.Add(paid, share)
		e.emitter.Emit(CommissionPaidEvent{CampaignID: id, Buyer: buyer, Payee: commission.Payee, Amount: share})
	}
	net := new(big.Int).Sub(total, paid)
	if _, err := e.lotteries.Purchase(e.authority, id, amount, buyer, net); err != nil {
		return err
	}
	return nil
}

// SetWinning records the winning number on the referenced sale instance.
func (e *Engine) SetWinning(caller [20]byte, id [32]byte, number uint64) error {
	if _, err := e.requireOwner(caller); err != nil {
		return err
	}
	return e.lotteries.SetWinning(e.authority, id, number)
}

// Withdraw drains the referenced campaign pool to the recipient.
func (e *Engine) Withdraw(caller [20]byte, id [32]byte, recipient [20]byte) (*big.Int, error) {
	if _, err := e.requireOwner(caller); err != nil {
		return nil, err
	}
	return e.lotteries.Withdraw(e.authority, id, recipient)
}

// Pause engages the global pause, blocking campaign creation and purchases.
func (e *Engine) Pause(caller [20]byte) error {
	rec, err := e.requireOwner(caller)
	if err != nil {
		return err
	}
	if rec.Paused {
		return nil
	}
	rec.Paused = true
	if err := e.st.KVPut(state.FactoryKey(), rec); err != nil {
		return err
	}
	e.emitter.Emit(PausedEvent{})
	return nil
}

// Unpause releases the global pause.
func (e *Engine) Unpause(caller [20]byte) error {
	rec, err := e.requireOwner(caller)
	if err != nil {
		return err
	}
	if !rec.Paused {
		return nil
	}
	rec.Paused = false
	if err := e.st.KVPut(state.FactoryKey(), rec); err != nil {
		return err
	}
	e.emitter.Emit(UnpausedEvent{})
	return nil
}

// TransferOwnership hands the owner identity to a new address.
func (e *Engine) TransferOwnership(caller, newOwner [20]byte) error {
	rec, err := e.requireOwner(caller)
	if err != nil {
		return err
	}
	if newOwner == ([20]byte{}) {
		return ErrInvalidOwner
	}
	previous := rec.Owner
	rec.Owner = newOwner
	if err := e.st.KVPut(state.FactoryKey(), rec); err != nil {
		return err
	}
	e.emitter.Emit(OwnershipTransferredEvent{PreviousOwner: previous, NewOwner: newOwner})
	return nil
}

// RenounceOwnership clears the owner identity. This permanently disables
// every owner-gated operation; there is no way back.
func (e *Engine) RenounceOwnership(caller [20]byte) error {
	rec, err := e.requireOwner(caller)
	if err != nil {
		return err
	}
	previous := rec.Owner
	rec.Owner = [20]byte{}
	if err := e.st.KVPut(state.FactoryKey(), rec); err != nil {
		return err
	}
	e.emitter.Emit(OwnershipTransferredEvent{PreviousOwner: previous})
	return nil
}

// LotteriesByYear returns the ordered campaign IDs created within a year.
func (e *Engine) LotteriesByYear(year uint32) ([][32]byte, error) {
	var ids [][32]byte
	exists, err := e.st.KVGet(state.YearIndexKey(year), &ids)
	if err != nil {
		return nil, err
	}
	if !exists {
		return [][32]byte{}, nil
	}
	return ids, nil
}

// LotteryCount returns the number of campaigns created within a year.
func (e *Engine) LotteryCount(year uint32) (uint64, error) {
	ids, err := e.LotteriesByYear(year)
	if err != nil {
		return 0, err
	}
	return uint64(len(ids)), nil
}

// LotteryAt returns the campaign created as the given 1-based sequence
// within a year.
func (e *Engine) LotteryAt(sequence uint64, year uint32) ([32]byte, error) {
	ids, err := e.LotteriesByYear(year)
	if err != nil {
		return [32]byte{}, err
	}
	if sequence == 0 || sequence > uint64(len(ids)) {
		return [32]byte{}, ErrSequenceNotFound
	}
	return ids[sequence-1], nil
}
