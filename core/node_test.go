package core

import (
	"errors"
	"math/big"
	"testing"

	"lottobox/core/events"
	"lottobox/native/factory"
	"lottobox/native/lottery"
	"lottobox/storage"
)

const testToken = "USDT"

func addr(b byte) [20]byte {
	var a [20]byte
	for i := range a {
		a[i] = b
	}
	return a
}

func newTestNode(t *testing.T) (*Node, [20]byte) {
	t.Helper()
	owner := addr(0xEE)
	node, err := NewNode(storage.NewMemDB(), owner)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}
	t.Cleanup(node.Close)
	if err := node.RegisterToken(testToken, "Tether USD", 6); err != nil {
		t.Fatalf("register token: %v", err)
	}
	return node, owner
}

func createCampaign(t *testing.T, node *Node, owner [20]byte) [32]byte {
	t.Helper()
	id, err := node.CreateLottery(owner, factory.CreateParams{
		Name:             "Spring Draw",
		Symbol:           "SPR",
		TotalBoxes:       100,
		Token:            testToken,
		BoxPrice:         big.NewInt(1_000_000),
		WinnerBps:        5000,
		SponsorWinnerBps: 1000,
		Incentives:       lottery.IncentiveTiers{Boxes1: 100, Bps1: 100, Boxes2: 200, Bps2: 200, Boxes3: 300, Bps3: 300},
		MaxSponsorBps:    500,
		Year:             2026,
	})
	if err != nil {
		t.Fatalf("create lottery: %v", err)
	}
	return id
}

func fund(t *testing.T, node *Node, account, vault [20]byte, amount int64) {
	t.Helper()
	if err := node.MintToken(testToken, account, big.NewInt(amount)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := node.ApproveToken(testToken, account, vault, big.NewInt(amount)); err != nil {
		t.Fatalf("approve: %v", err)
	}
}

func drainEvents(ch <-chan events.Event) []events.Event {
	var drained []events.Event
	for {
		select {
		case evt := <-ch:
			drained = append(drained, evt)
		default:
			return drained
		}
	}
}

func TestPurchaseEndToEnd(t *testing.T) {
	node, owner := newTestNode(t)
	id := createCampaign(t, node, owner)
	vault := node.LotteryVault(id)
	buyer := addr(0x01)
	fund(t, node, buyer, vault, 3_000_000)

	if err := node.BuyBoxes(id, 3, buyer, [20]byte{}); err != nil {
		t.Fatalf("buy boxes: %v", err)
	}
	info, err := node.LotteryInfo(id)
	if err != nil {
		t.Fatalf("info: %v", err)
	}
	if info.BoxesSold != 3 {
		t.Fatalf("expected 3 boxes sold, got %d", info.BoxesSold)
	}
	balance, err := node.BoxBalance(id, buyer)
	if err != nil {
		t.Fatalf("box balance: %v", err)
	}
	if balance != 3 {
		t.Fatalf("expected box balance 3, got %d", balance)
	}
	poolBalance, err := node.TokenBalance(testToken, vault)
	if err != nil {
		t.Fatalf("pool balance: %v", err)
	}
	if poolBalance.Cmp(big.NewInt(3_000_000)) != 0 {
		t.Fatalf("expected pool of 3000000, got %s", poolBalance)
	}
}

func TestFailedPurchaseRevertsEverything(t *testing.T) {
	node, owner := newTestNode(t)
	id := createCampaign(t, node, owner)
	vault := node.LotteryVault(id)

	// s1 activates with one box so it earns commissions.
	s1 := addr(0x02)
	fund(t, node, s1, vault, 1_000_000)
	if err := node.BuyBoxes(id, 1, s1, [20]byte{}); err != nil {
		t.Fatalf("activate s1: %v", err)
	}

	// The buyer can cover the 25% commission of a 4-box purchase but not
	// the remainder, so the operation fails midway through its transfers.
	buyer := addr(0x01)
	fund(t, node, buyer, vault, 1_500_000)
	err := node.BuyBoxes(id, 4, buyer, s1)
	if !errors.Is(err, factory.ErrInsufficientFunds) && !errors.Is(err, lottery.ErrInsufficientFunds) {
		t.Fatalf("expected insufficient funds, got %v", err)
	}

	// No partial effects: commission reverted, sponsor link reverted,
	// capacity unchanged.
	s1Balance, err := node.TokenBalance(testToken, s1)
	if err != nil {
		t.Fatalf("s1 balance: %v", err)
	}
	if s1Balance.Sign() != 0 {
		t.Fatalf("commission must be reverted, s1 holds %s", s1Balance)
	}
	buyerBalance, err := node.TokenBalance(testToken, buyer)
	if err != nil {
		t.Fatalf("buyer balance: %v", err)
	}
	if buyerBalance.Cmp(big.NewInt(1_500_000)) != 0 {
		t.Fatalf("buyer funds must be untouched, got %s", buyerBalance)
	}
	if _, registered, err := node.SponsorOf(buyer); err != nil || registered {
		t.Fatalf("buyer registration must be reverted (registered=%v, err=%v)", registered, err)
	}
	info, err := node.LotteryInfo(id)
	if err != nil {
		t.Fatalf("info: %v", err)
	}
	if info.BoxesSold != 1 {
		t.Fatalf("expected only the activation box sold, got %d", info.BoxesSold)
	}
}

func TestEventsOnlyFromCommittedOperations(t *testing.T) {
	node, owner := newTestNode(t)
	id := createCampaign(t, node, owner)
	vault := node.LotteryVault(id)

	ch, cancel := node.EventsSubscribe(32)
	defer cancel()

	buyer := addr(0x01)
	fund(t, node, buyer, vault, 2_000_000)
	if err := node.BuyBoxes(id, 2, buyer, [20]byte{}); err != nil {
		t.Fatalf("buy boxes: %v", err)
	}

	drained := drainEvents(ch)
	var sawPurchase bool
	for _, evt := range drained {
		if purchased, ok := evt.(lottery.PurchasedEvent); ok {
			sawPurchase = true
			if purchased.Amount != 2 || purchased.FirstBox != 1 || purchased.LastBox != 2 {
				t.Fatalf("unexpected purchase event: %+v", purchased)
			}
		}
	}
	if !sawPurchase {
		t.Fatal("expected a purchase event from the committed operation")
	}

	// A failing purchase emits nothing, even though the engines emitted
	// into the collector before the failure.
	poor := addr(0x07)
	if err := node.BuyBoxes(id, 1, poor, [20]byte{}); err == nil {
		t.Fatal("expected unfunded purchase to fail")
	}
	if leaked := drainEvents(ch); len(leaked) != 0 {
		t.Fatalf("reverted operation leaked %d events", len(leaked))
	}
}

type faultyDB struct {
	*storage.MemDB
	failNext bool
}

func (db *faultyDB) WriteBatch(entries map[string][]byte) error {
	if db.failNext {
		db.failNext = false
		return errors.New("disk full")
	}
	return db.MemDB.WriteBatch(entries)
}

func TestFailedCommitLeavesNoPartialState(t *testing.T) {
	db := &faultyDB{MemDB: storage.NewMemDB()}
	owner := addr(0xEE)
	node, err := NewNode(db, owner)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}
	t.Cleanup(node.Close)
	if err := node.RegisterToken(testToken, "Tether USD", 6); err != nil {
		t.Fatalf("register token: %v", err)
	}
	id := createCampaign(t, node, owner)
	vault := node.LotteryVault(id)
	buyer := addr(0x01)
	fund(t, node, buyer, vault, 3_000_000)

	db.failNext = true
	if err := node.BuyBoxes(id, 3, buyer, [20]byte{}); err == nil {
		t.Fatal("expected purchase to fail on the storage error")
	}

	// Neither the in-memory view nor the database carries any effect of
	// the failed purchase.
	info, err := node.LotteryInfo(id)
	if err != nil {
		t.Fatalf("info: %v", err)
	}
	if info.BoxesSold != 0 {
		t.Fatalf("expected no boxes sold, got %d", info.BoxesSold)
	}
	buyerBalance, err := node.TokenBalance(testToken, buyer)
	if err != nil {
		t.Fatalf("buyer balance: %v", err)
	}
	if buyerBalance.Cmp(big.NewInt(3_000_000)) != 0 {
		t.Fatalf("buyer funds must be untouched, got %s", buyerBalance)
	}
	reopened, err := NewNode(db, owner)
	if err != nil {
		t.Fatalf("reopen node: %v", err)
	}
	persisted, err := reopened.LotteryInfo(id)
	if err != nil {
		t.Fatalf("info after reopen: %v", err)
	}
	if persisted.BoxesSold != 0 {
		t.Fatalf("failed commit must not persist boxes, got %d", persisted.BoxesSold)
	}

	// The node stays usable once storage recovers.
	if err := node.BuyBoxes(id, 3, buyer, [20]byte{}); err != nil {
		t.Fatalf("retry purchase: %v", err)
	}
}

func TestOwnerIsPersistedAcrossRestart(t *testing.T) {
	db := storage.NewMemDB()
	owner := addr(0xEE)
	node, err := NewNode(db, owner)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}
	if err := node.TransferOwnership(owner, addr(0x44)); err != nil {
		t.Fatalf("transfer: %v", err)
	}

	// A restart supplies the original owner again, but the stored one wins.
	reopened, err := NewNode(db, owner)
	if err != nil {
		t.Fatalf("reopen node: %v", err)
	}
	stored, err := reopened.FactoryOwner()
	if err != nil {
		t.Fatalf("owner: %v", err)
	}
	if stored != addr(0x44) {
		t.Fatalf("expected stored owner to win, got %x", stored)
	}
}

func TestPauseGateThroughNode(t *testing.T) {
	node, owner := newTestNode(t)
	id := createCampaign(t, node, owner)
	vault := node.LotteryVault(id)
	buyer := addr(0x01)
	fund(t, node, buyer, vault, 1_000_000)

	if err := node.PauseFactory(owner); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if err := node.BuyBoxes(id, 1, buyer, [20]byte{}); !errors.Is(err, factory.ErrPaused) {
		t.Fatalf("expected ErrPaused, got %v", err)
	}
	if _, err := node.LotteryInfo(id); err != nil {
		t.Fatalf("query while paused: %v", err)
	}
	if err := node.UnpauseFactory(owner); err != nil {
		t.Fatalf("unpause: %v", err)
	}
	if err := node.BuyBoxes(id, 1, buyer, [20]byte{}); err != nil {
		t.Fatalf("buy after unpause: %v", err)
	}
}

func TestCampaignStateSurvivesRestart(t *testing.T) {
	db := storage.NewMemDB()
	owner := addr(0xEE)
	node, err := NewNode(db, owner)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}
	if err := node.RegisterToken(testToken, "Tether USD", 6); err != nil {
		t.Fatalf("register token: %v", err)
	}
	id := createCampaign(t, node, owner)
	vault := node.LotteryVault(id)
	buyer := addr(0x01)
	fund(t, node, buyer, vault, 2_000_000)
	if err := node.BuyBoxes(id, 2, buyer, [20]byte{}); err != nil {
		t.Fatalf("buy boxes: %v", err)
	}

	reopened, err := NewNode(db, owner)
	if err != nil {
		t.Fatalf("reopen node: %v", err)
	}
	info, err := reopened.LotteryInfo(id)
	if err != nil {
		t.Fatalf("info after restart: %v", err)
	}
	if info.BoxesSold != 2 {
		t.Fatalf("expected 2 boxes sold after restart, got %d", info.BoxesSold)
	}
	box, err := reopened.Box(id, 1)
	if err != nil {
		t.Fatalf("box after restart: %v", err)
	}
	if box.Owner != buyer || box.TicketA != 1 || box.TicketB != 2 {
		t.Fatalf("unexpected box after restart: %+v", box)
	}
}
