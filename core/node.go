package core

import (
	"math/big"
	"sync"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"lottobox/core/events"
	"lottobox/native/factory"
	"lottobox/native/lottery"
	"lottobox/native/middleware"
	"lottobox/native/sponsors"
	"lottobox/native/token"
	"lottobox/observability"
	"lottobox/state"
	"lottobox/storage"
)

// RootSentinel derives the registry's root sentinel address: the
// pre-registered self-sponsored identity that represents "no real
// referrer". It is distinct from any participant address.
func RootSentinel() [20]byte {
	hash := ethcrypto.Keccak256([]byte("lottobox/sponsors-root"))
	var addr [20]byte
	copy(addr[:], hash[12:])
	return addr
}

// Node is the central controller, wiring the orchestrator, sponsor
// registry, lottery engine and token ledger over one state manager.
//
// Every state-mutating operation runs under a single mutex and inside a
// state snapshot: either all of its effects commit, or a failure reverts
// every write issued by the operation, including writes performed on
// collaborating engines. Events emitted during a reverted operation are
// discarded before they reach any subscriber.
type Node struct {
	db        storage.Database
	state     *state.Manager
	mu        sync.Mutex
	collector *eventCollector
	hub       *eventHub

	tokens    *token.Registry
	registry  *sponsors.Registry
	lotteries *lottery.Engine
	factory   *factory.Engine
	ownership middleware.OwnershipQuerier

	metrics *observability.NodeMetrics
}

// NewNode builds a node over the provided database and initializes the
// orchestrator with the given owner address. On an already-initialized
// database the stored owner wins.
func NewNode(db storage.Database, owner [20]byte) (*Node, error) {
	manager := state.NewManager(db)
	hub := newEventHub()
	collector := &eventCollector{}

	tokens := token.NewRegistry(manager)
	registry := sponsors.NewRegistry(manager, RootSentinel())
	registry.SetEmitter(collector)
	lotteries := lottery.NewEngine(manager, tokens)
	lotteries.SetEmitter(collector)
	orchestrator := factory.NewEngine(manager, registry, lotteries, tokens)
	orchestrator.SetEmitter(collector)

	n := &Node{
		db:        db,
		state:     manager,
		collector: collector,
		hub:       hub,
		tokens:    tokens,
		registry:  registry,
		lotteries: lotteries,
		factory:   orchestrator,
		ownership: middleware.NewQuerier(lotteries),
		metrics:   observability.Metrics(),
	}
	if err := n.write(func() error { return orchestrator.Initialize(owner) }); err != nil {
		return nil, err
	}
	return n, nil
}

// write serializes a mutating operation and applies it atomically: on
// error every buffered state write and pending event is discarded.
func (n *Node) write(fn func() error) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	snapshot := n.state.Snapshot()
	n.collector.reset()
	if err := fn(); err != nil {
		n.state.RevertToSnapshot(snapshot)
		n.collector.reset()
		return err
	}
	if err := n.state.Commit(); err != nil {
		n.state.RevertToSnapshot(snapshot)
		n.collector.reset()
		return err
	}
	for _, evt := range n.collector.drain() {
		n.hub.publish(evt)
		n.metrics.ObserveEvent(evt.EventType())
	}
	return nil
}

// read serializes a read-only operation against the state manager.
func (n *Node) read(fn func() error) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return fn()
}

// EventsSubscribe registers a subscriber for node events. The returned
// cancel function must be called to release the subscription.
func (n *Node) EventsSubscribe(buffer int) (<-chan events.Event, func()) {
	return n.hub.subscribe(buffer)
}

// --- Token operations ---

// RegisterToken records a new payment token.
func (n *Node) RegisterToken(symbol, name string, decimals uint8) error {
	return n.write(func() error {
		_, err := n.tokens.Register(symbol, name, decimals)
		return err
	})
}

// MintToken credits freshly issued payment tokens to an account.
func (n *Node) MintToken(symbol string, to [20]byte, amount *big.Int) error {
	return n.write(func() error {
		ledger, err := n.tokens.Ledger(symbol)
		if err != nil {
			return err
		}
		return ledger.Mint(to, amount)
	})
}

// ApproveToken sets the allowance a spender may draw from the owner.
func (n *Node) ApproveToken(symbol string, owner, spender [20]byte, amount *big.Int) error {
	return n.write(func() error {
		ledger, err := n.tokens.Ledger(symbol)
		if err != nil {
			return err
		}
		return ledger.Approve(owner, spender, amount)
	})
}

// TokenBalance returns the payment-token balance of an account.
func (n *Node) TokenBalance(symbol string, account [20]byte) (*big.Int, error) {
	var balance *big.Int
	err := n.read(func() error {
		ledger, err := n.tokens.Ledger(symbol)
		if err != nil {
			return err
		}
		balance, err = ledger.BalanceOf(account)
		return err
	})
	return balance, err
}

// TokenAllowance returns the allowance from owner to spender.
func (n *Node) TokenAllowance(symbol string, owner, spender [20]byte) (*big.Int, error) {
	var allowance *big.Int
	err := n.read(func() error {
		ledger, err := n.tokens.Ledger(symbol)
		if err != nil {
			return err
		}
		allowance, err = ledger.Allowance(owner, spender)
		return err
	})
	return allowance, err
}

// TokenInfo returns the metadata of a registered payment token.
func (n *Node) TokenInfo(symbol string) (*token.Metadata, error) {
	var meta *token.Metadata
	err := n.read(func() error {
		ledger, err := n.tokens.Ledger(symbol)
		if err != nil {
			return err
		}
		meta = &token.Metadata{Symbol: ledger.Symbol(), Name: ledger.Name(), Decimals: ledger.Decimals()}
		return nil
	})
	return meta, err
}

// --- Orchestrator operations ---

// CreateLottery creates and indexes a new campaign.
func (n *Node) CreateLottery(caller [20]byte, params factory.CreateParams) ([32]byte, error) {
	var id [32]byte
	err := n.write(func() error {
		created, err := n.factory.CreateLottery(caller, params)
		if err != nil {
			return err
		}
		id = created
		return nil
	})
	if err == nil {
		n.metrics.ObserveCampaignCreated()
	}
	return id, err
}

// BuyBoxes mediates a purchase through the orchestrator.
func (n *Node) BuyBoxes(id [32]byte, amount uint64, buyer, sponsor [20]byte) error {
	err := n.write(func() error {
		return n.factory.BuyBoxes(id, amount, buyer, sponsor)
	})
	if err == nil {
		n.metrics.ObserveBoxesSold(amount)
	}
	return err
}

// SetWinning records the winning number on a campaign.
func (n *Node) SetWinning(caller [20]byte, id [32]byte, number uint64) error {
	return n.write(func() error {
		return n.factory.SetWinning(caller, id, number)
	})
}

// WithdrawLottery drains a completed campaign's pool to the recipient.
func (n *Node) WithdrawLottery(caller [20]byte, id [32]byte, recipient [20]byte) (*big.Int, error) {
	var amount *big.Int
	err := n.write(func() error {
		withdrawn, err := n.factory.Withdraw(caller, id, recipient)
		if err != nil {
			return err
		}
		amount = withdrawn
		return nil
	})
	return amount, err
}

// PauseFactory engages the global pause.
func (n *Node) PauseFactory(caller [20]byte) error {
	return n.write(func() error { return n.factory.Pause(caller) })
}

// UnpauseFactory releases the global pause.
func (n *Node) UnpauseFactory(caller [20]byte) error {
	return n.write(func() error { return n.factory.Unpause(caller) })
}

// TransferOwnership hands the orchestrator owner identity to a new address.
func (n *Node) TransferOwnership(caller, newOwner [20]byte) error {
	return n.write(func() error { return n.factory.TransferOwnership(caller, newOwner) })
}

// RenounceOwnership permanently disables owner-gated operations.
func (n *Node) RenounceOwnership(caller [20]byte) error {
	return n.write(func() error { return n.factory.RenounceOwnership(caller) })
}

// FactoryOwner returns the orchestrator owner address.
func (n *Node) FactoryOwner() ([20]byte, error) {
	var owner [20]byte
	err := n.read(func() error {
		stored, err := n.factory.Owner()
		if err != nil {
			return err
		}
		owner = stored
		return nil
	})
	return owner, err
}

// FactoryPaused reports whether the global pause is engaged.
func (n *Node) FactoryPaused() (bool, error) {
	var paused bool
	err := n.read(func() error {
		stored, err := n.factory.Paused()
		if err != nil {
			return err
		}
		paused = stored
		return nil
	})
	return paused, err
}

// --- Discovery and display queries ---

// LotteryInfo returns a read-only snapshot of a campaign.
func (n *Node) LotteryInfo(id [32]byte) (*lottery.Info, error) {
	var info *lottery.Info
	err := n.read(func() error {
		snapshot, err := n.lotteries.Info(id)
		if err != nil {
			return err
		}
		info = snapshot
		return nil
	})
	return info, err
}

// LotteryIsCompleted reports whether a campaign has been settled.
func (n *Node) LotteryIsCompleted(id [32]byte) (bool, error) {
	var completed bool
	err := n.read(func() error {
		stored, err := n.lotteries.IsCompleted(id)
		if err != nil {
			return err
		}
		completed = stored
		return nil
	})
	return completed, err
}

// LotteriesByYear returns the ordered campaign IDs of a year.
func (n *Node) LotteriesByYear(year uint32) ([][32]byte, error) {
	var ids [][32]byte
	err := n.read(func() error {
		stored, err := n.factory.LotteriesByYear(year)
		if err != nil {
			return err
		}
		ids = stored
		return nil
	})
	return ids, err
}

// LotteryCount returns the number of campaigns created within a year.
func (n *Node) LotteryCount(year uint32) (uint64, error) {
	var count uint64
	err := n.read(func() error {
		stored, err := n.factory.LotteryCount(year)
		if err != nil {
			return err
		}
		count = stored
		return nil
	})
	return count, err
}

// LotteryAt returns the campaign at the given 1-based sequence of a year.
func (n *Node) LotteryAt(sequence uint64, year uint32) ([32]byte, error) {
	var id [32]byte
	err := n.read(func() error {
		stored, err := n.factory.LotteryAt(sequence, year)
		if err != nil {
			return err
		}
		id = stored
		return nil
	})
	return id, err
}

// LotteryVault returns the pool address buyers approve as the spender of
// their purchase funds.
func (n *Node) LotteryVault(id [32]byte) [20]byte {
	return lottery.VaultAddress(id)
}

// SponsorOf returns the permanent direct sponsor of an account.
func (n *Node) SponsorOf(account [20]byte) ([20]byte, bool, error) {
	var (
		sponsor    [20]byte
		registered bool
	)
	err := n.read(func() error {
		stored, exists, err := n.registry.SponsorOf(account)
		if err != nil {
			return err
		}
		sponsor, registered = stored, exists
		return nil
	})
	return sponsor, registered, err
}

// RegisterSponsor assigns a permanent direct sponsor without activating a
// campaign.
func (n *Node) RegisterSponsor(account, sponsor [20]byte) error {
	return n.write(func() error { return n.registry.Register(account, sponsor) })
}

// IsActive reports whether an account is activated for a campaign.
func (n *Node) IsActive(campaignID [32]byte, account [20]byte) (bool, error) {
	var active bool
	err := n.read(func() error {
		stored, err := n.registry.IsActive(campaignID, account)
		if err != nil {
			return err
		}
		active = stored
		return nil
	})
	return active, err
}

// OwnerOfBox answers the middleware ownership query.
func (n *Node) OwnerOfBox(campaignID [32]byte, index uint64) ([20]byte, error) {
	var owner [20]byte
	err := n.read(func() error {
		stored, err := n.ownership.OwnerOfBox(campaignID, index)
		if err != nil {
			return err
		}
		owner = stored
		return nil
	})
	return owner, err
}

// Box returns a minted box record.
func (n *Node) Box(campaignID [32]byte, index uint64) (*lottery.Box, error) {
	var box *lottery.Box
	err := n.read(func() error {
		stored, err := n.lotteries.Box(campaignID, index)
		if err != nil {
			return err
		}
		box = stored
		return nil
	})
	return box, err
}

// BoxBalance returns the number of boxes an account owns in a campaign.
func (n *Node) BoxBalance(campaignID [32]byte, owner [20]byte) (uint64, error) {
	var count uint64
	err := n.read(func() error {
		stored, err := n.lotteries.BoxBalance(campaignID, owner)
		if err != nil {
			return err
		}
		count = stored
		return nil
	})
	return count, err
}

// SponsorRoot returns the root sentinel address.
func (n *Node) SponsorRoot() [20]byte {
	return n.registry.Root()
}

// Close releases the underlying database.
func (n *Node) Close() {
	n.db.Close()
}
