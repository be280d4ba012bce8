package factory

import (
	"errors"
	"math/big"
	"testing"

	"lottobox/native/lottery"
	"lottobox/native/sponsors"
	"lottobox/native/token"
	"lottobox/state"
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

type harness struct {
	engine   *Engine
	registry *sponsors.Registry
	tokens   *token.Registry
	owner    [20]byte
	root     [20]byte
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	st := state.NewManager(storage.NewMemDB())
	tokens := token.NewRegistry(st)
	if _, err := tokens.Register(testToken, "Tether USD", 6); err != nil {
		t.Fatalf("register token: %v", err)
	}
	root := addr(0xAA)
	registry := sponsors.NewRegistry(st, root)
	lotteries := lottery.NewEngine(st, tokens)
	engine := NewEngine(st, registry, lotteries, tokens)
	owner := addr(0xEE)
	if err := engine.Initialize(owner); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	return &harness{engine: engine, registry: registry, tokens: tokens, owner: owner, root: root}
}

func (h *harness) createCampaign(t *testing.T, year uint32) [32]byte {
	t.Helper()
	id, err := h.engine.CreateLottery(h.owner, CreateParams{
		Name:             "Spring Draw",
		Symbol:           "SPR",
		TotalBoxes:       1000,
		Token:            testToken,
		BoxPrice:         big.NewInt(1_000_000),
		WinnerBps:        5000,
		SponsorWinnerBps: 1000,
		Incentives:       lottery.IncentiveTiers{Boxes1: 100, Bps1: 100, Boxes2: 200, Bps2: 200, Boxes3: 300, Bps3: 300},
		MaxSponsorBps:    500,
		Year:             year,
	})
	if err != nil {
		t.Fatalf("create lottery: %v", err)
	}
	return id
}

func (h *harness) fund(t *testing.T, account [20]byte, vault [20]byte, amount int64) {
	t.Helper()
	ledger, err := h.tokens.Ledger(testToken)
	if err != nil {
		t.Fatalf("ledger: %v", err)
	}
	if err := ledger.Mint(account, big.NewInt(amount)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := ledger.Approve(account, vault, big.NewInt(amount)); err != nil {
		t.Fatalf("approve: %v", err)
	}
}

func (h *harness) balance(t *testing.T, account [20]byte) *big.Int {
	t.Helper()
	ledger, err := h.tokens.Ledger(testToken)
	if err != nil {
		t.Fatalf("ledger: %v", err)
	}
	balance, err := ledger.BalanceOf(account)
	if err != nil {
		t.Fatalf("balance of: %v", err)
	}
	return balance
}

// activate gives the account one funded box so it becomes registered and
// activated for the campaign.
func (h *harness) activate(t *testing.T, id [32]byte, account [20]byte, vault [20]byte) {
	t.Helper()
	h.fund(t, account, vault, 1_000_000)
	if err := h.engine.BuyBoxes(id, 1, account, [20]byte{}); err != nil {
		t.Fatalf("activate %x: %v", account, err)
	}
}

func TestCreateLotteryAssignsSequencesPerYear(t *testing.T) {
	h := newHarness(t)
	first := h.createCampaign(t, 2026)
	second := h.createCampaign(t, 2026)
	other := h.createCampaign(t, 2027)

	if first != lottery.CampaignID(2026, 1) || second != lottery.CampaignID(2026, 2) {
		t.Fatal("campaign ids must follow per-year sequence")
	}
	if other != lottery.CampaignID(2027, 1) {
		t.Fatal("sequence numbering must restart per year")
	}

	count, err := h.engine.LotteryCount(2026)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 campaigns in 2026, got %d", count)
	}
	got, err := h.engine.LotteryAt(2, 2026)
	if err != nil {
		t.Fatalf("at: %v", err)
	}
	if got != second {
		t.Fatal("LotteryAt must resolve the 1-based sequence")
	}
	if _, err := h.engine.LotteryAt(3, 2026); !errors.Is(err, ErrSequenceNotFound) {
		t.Fatalf("expected ErrSequenceNotFound, got %v", err)
	}
	if _, err := h.engine.LotteryAt(0, 2026); !errors.Is(err, ErrSequenceNotFound) {
		t.Fatalf("expected ErrSequenceNotFound for sequence 0, got %v", err)
	}
}

func TestCreateLotteryRequiresOwner(t *testing.T) {
	h := newHarness(t)
	_, err := h.engine.CreateLottery(addr(0x01), CreateParams{Year: 2026})
	if !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
}

func TestBuyBoxesNoSponsorFullPriceToPool(t *testing.T) {
	h := newHarness(t)
	id := h.createCampaign(t, 2026)
	vault := lottery.VaultAddress(id)
	buyer := addr(0x01)
	h.fund(t, buyer, vault, 4_000_000)

	if err := h.engine.BuyBoxes(id, 4, buyer, [20]byte{}); err != nil {
		t.Fatalf("buy boxes: %v", err)
	}
	if got := h.balance(t, vault); got.Cmp(big.NewInt(4_000_000)) != 0 {
		t.Fatalf("expected full price in pool, got %s", got)
	}
	if got := h.balance(t, buyer); got.Sign() != 0 {
		t.Fatalf("expected drained buyer, got %s", got)
	}
	sponsor, registered, err := h.registry.SponsorOf(buyer)
	if err != nil {
		t.Fatalf("sponsor of: %v", err)
	}
	if !registered || sponsor != h.root {
		t.Fatal("buyer without sponsor must be rooted at the sentinel")
	}
}

func TestBuyBoxesSingleActiveSponsor(t *testing.T) {
	h := newHarness(t)
	id := h.createCampaign(t, 2026)
	vault := lottery.VaultAddress(id)
	s1 := addr(0x02)
	buyer := addr(0x01)

	h.activate(t, id, s1, vault)
	poolBefore := h.balance(t, vault)

	h.fund(t, buyer, vault, 4_000_000)
	if err := h.engine.BuyBoxes(id, 4, buyer, s1); err != nil {
		t.Fatalf("buy boxes: %v", err)
	}

	if got := h.balance(t, s1); got.Cmp(big.NewInt(1_000_000)) != 0 {
		t.Fatalf("expected 25%% commission for s1, got %s", got)
	}
	poolDelta := new(big.Int).Sub(h.balance(t, vault), poolBefore)
	if poolDelta.Cmp(big.NewInt(3_000_000)) != 0 {
		t.Fatalf("expected 75%% to pool, got %s", poolDelta)
	}
}

func TestBuyBoxesTwoActiveSponsorLevels(t *testing.T) {
	h := newHarness(t)
	id := h.createCampaign(t, 2026)
	vault := lottery.VaultAddress(id)
	s2 := addr(0x03)
	s1 := addr(0x02)
	buyer := addr(0x01)

	h.activate(t, id, s2, vault)
	if err := h.registry.Register(s1, s2); err != nil {
		t.Fatalf("register s1: %v", err)
	}
	h.activate(t, id, s1, vault)
	s2Before := h.balance(t, s2)
	poolBefore := h.balance(t, vault)

	h.fund(t, buyer, vault, 4_000_000)
	if err := h.engine.BuyBoxes(id, 4, buyer, s1); err != nil {
		t.Fatalf("buy boxes: %v", err)
	}

	if got := h.balance(t, s1); got.Cmp(big.NewInt(1_000_000)) != 0 {
		t.Fatalf("expected 25%% for s1, got %s", got)
	}
	s2Delta := new(big.Int).Sub(h.balance(t, s2), s2Before)
	if s2Delta.Cmp(big.NewInt(1_000_000)) != 0 {
		t.Fatalf("expected 25%% for s2, got %s", s2Delta)
	}
	poolDelta := new(big.Int).Sub(h.balance(t, vault), poolBefore)
	if poolDelta.Cmp(big.NewInt(2_000_000)) != 0 {
		t.Fatalf("expected 50%% to pool, got %s", poolDelta)
	}
}

func TestBuyBoxesInactiveFirstLevelStillPaysSecond(t *testing.T) {
	h := newHarness(t)
	id := h.createCampaign(t, 2026)
	vault := lottery.VaultAddress(id)
	s2 := addr(0x03)
	s1 := addr(0x02)
	buyer := addr(0x01)

	h.activate(t, id, s2, vault)
	// s1 is registered under s2 but never buys, so it stays inactive.
	if err := h.registry.Register(s1, s2); err != nil {
		t.Fatalf("register s1: %v", err)
	}
	s2Before := h.balance(t, s2)
	poolBefore := h.balance(t, vault)

	h.fund(t, buyer, vault, 4_000_000)
	if err := h.engine.BuyBoxes(id, 4, buyer, s1); err != nil {
		t.Fatalf("buy boxes: %v", err)
	}

	if got := h.balance(t, s1); got.Sign() != 0 {
		t.Fatalf("inactive s1 must earn nothing, got %s", got)
	}
	s2Delta := new(big.Int).Sub(h.balance(t, s2), s2Before)
	if s2Delta.Cmp(big.NewInt(1_000_000)) != 0 {
		t.Fatalf("expected 25%% for s2, got %s", s2Delta)
	}
	poolDelta := new(big.Int).Sub(h.balance(t, vault), poolBefore)
	if poolDelta.Cmp(big.NewInt(3_000_000)) != 0 {
		t.Fatalf("expected 75%% to pool, got %s", poolDelta)
	}
}

func TestBuyBoxesActiveFirstLevelInactiveSecond(t *testing.T) {
	h := newHarness(t)
	id := h.createCampaign(t, 2026)
	vault := lottery.VaultAddress(id)
	s2 := addr(0x03)
	s1 := addr(0x02)
	buyer := addr(0x01)

	// s2 is registered but never activated; s1 is activated under s2.
	if err := h.registry.Register(s2, h.root); err != nil {
		t.Fatalf("register s2: %v", err)
	}
	if err := h.registry.Register(s1, s2); err != nil {
		t.Fatalf("register s1: %v", err)
	}
	h.activate(t, id, s1, vault)
	poolBefore := h.balance(t, vault)

	h.fund(t, buyer, vault, 4_000_000)
	if err := h.engine.BuyBoxes(id, 4, buyer, s1); err != nil {
		t.Fatalf("buy boxes: %v", err)
	}

	if got := h.balance(t, s1); got.Cmp(big.NewInt(1_000_000)) != 0 {
		t.Fatalf("expected 25%% for s1, got %s", got)
	}
	if got := h.balance(t, s2); got.Sign() != 0 {
		t.Fatalf("inactive s2 must earn nothing, got %s", got)
	}
	poolDelta := new(big.Int).Sub(h.balance(t, vault), poolBefore)
	if poolDelta.Cmp(big.NewInt(3_000_000)) != 0 {
		t.Fatalf("expected 75%% to pool, got %s", poolDelta)
	}
}

func TestBuyBoxesConservation(t *testing.T) {
	h := newHarness(t)
	id := h.createCampaign(t, 2026)
	vault := lottery.VaultAddress(id)
	s2 := addr(0x03)
	s1 := addr(0x02)
	buyer := addr(0x01)

	h.activate(t, id, s2, vault)
	if err := h.registry.Register(s1, s2); err != nil {
		t.Fatalf("register s1: %v", err)
	}
	h.activate(t, id, s1, vault)
	h.fund(t, buyer, vault, 9_000_000)

	sum := func() *big.Int {
		total := new(big.Int)
		for _, account := range [][20]byte{buyer, s1, s2, vault} {
			total.Add(total, h.balance(t, account))
		}
		return total
	}
	before := sum()
	if err := h.engine.BuyBoxes(id, 9, buyer, s1); err != nil {
		t.Fatalf("buy boxes: %v", err)
	}
	after := sum()
	if before.Cmp(after) != 0 {
		t.Fatalf("token supply changed during purchase: %s -> %s", before, after)
	}
}

func TestBuyBoxesInsufficientFunds(t *testing.T) {
	h := newHarness(t)
	id := h.createCampaign(t, 2026)
	vault := lottery.VaultAddress(id)
	buyer := addr(0x01)
	h.fund(t, buyer, vault, 500_000)

	if err := h.engine.BuyBoxes(id, 1, buyer, [20]byte{}); !errors.Is(err, lottery.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
}

func TestBuyBoxesZeroAmount(t *testing.T) {
	h := newHarness(t)
	id := h.createCampaign(t, 2026)
	if err := h.engine.BuyBoxes(id, 0, addr(0x01), [20]byte{}); !errors.Is(err, lottery.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestBuyBoxesUnknownCampaign(t *testing.T) {
	h := newHarness(t)
	if err := h.engine.BuyBoxes(lottery.CampaignID(2030, 9), 1, addr(0x01), [20]byte{}); !errors.Is(err, lottery.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPauseBlocksMutations(t *testing.T) {
	h := newHarness(t)
	id := h.createCampaign(t, 2026)
	vault := lottery.VaultAddress(id)
	buyer := addr(0x01)
	h.fund(t, buyer, vault, 1_000_000)

	if err := h.engine.Pause(h.owner); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if err := h.engine.BuyBoxes(id, 1, buyer, [20]byte{}); !errors.Is(err, ErrPaused) {
		t.Fatalf("expected ErrPaused on purchase, got %v", err)
	}
	if _, err := h.engine.CreateLottery(h.owner, CreateParams{Year: 2026}); !errors.Is(err, ErrPaused) {
		t.Fatalf("expected ErrPaused on create, got %v", err)
	}

	// Queries stay available while paused.
	if _, err := h.engine.LotteriesByYear(2026); err != nil {
		t.Fatalf("list while paused: %v", err)
	}
	paused, err := h.engine.Paused()
	if err != nil {
		t.Fatalf("paused: %v", err)
	}
	if !paused {
		t.Fatal("expected paused state")
	}

	if err := h.engine.Unpause(h.owner); err != nil {
		t.Fatalf("unpause: %v", err)
	}
	if err := h.engine.BuyBoxes(id, 1, buyer, [20]byte{}); err != nil {
		t.Fatalf("buy after unpause: %v", err)
	}
}

func TestPauseRequiresOwner(t *testing.T) {
	h := newHarness(t)
	if err := h.engine.Pause(addr(0x01)); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
}

func TestTransferOwnership(t *testing.T) {
	h := newHarness(t)
	next := addr(0x44)
	if err := h.engine.TransferOwnership(h.owner, next); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if err := h.engine.Pause(h.owner); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("previous owner must lose control, got %v", err)
	}
	if err := h.engine.Pause(next); err != nil {
		t.Fatalf("new owner must gain control: %v", err)
	}
	if err := h.engine.TransferOwnership(next, [20]byte{}); !errors.Is(err, ErrInvalidOwner) {
		t.Fatalf("expected ErrInvalidOwner for zero target, got %v", err)
	}
}

func TestRenounceOwnershipIsPermanent(t *testing.T) {
	h := newHarness(t)
	if err := h.engine.RenounceOwnership(h.owner); err != nil {
		t.Fatalf("renounce: %v", err)
	}
	owner, err := h.engine.Owner()
	if err != nil {
		t.Fatalf("owner: %v", err)
	}
	if owner != ([20]byte{}) {
		t.Fatalf("expected zero owner, got %x", owner)
	}
	if err := h.engine.Pause(h.owner); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner after renounce, got %v", err)
	}
	if err := h.engine.Pause([20]byte{}); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("zero caller must never pass the owner gate, got %v", err)
	}
}

func TestSetWinningAndWithdrawThroughOrchestrator(t *testing.T) {
	h := newHarness(t)
	id := h.createCampaign(t, 2026)
	vault := lottery.VaultAddress(id)
	buyer := addr(0x01)
	h.fund(t, buyer, vault, 3_000_000)
	if err := h.engine.BuyBoxes(id, 3, buyer, [20]byte{}); err != nil {
		t.Fatalf("buy boxes: %v", err)
	}

	if err := h.engine.SetWinning(addr(0x55), id, 4); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
	if err := h.engine.SetWinning(h.owner, id, 4); err != nil {
		t.Fatalf("set winning: %v", err)
	}
	recipient := addr(0x09)
	amount, err := h.engine.Withdraw(h.owner, id, recipient)
	if err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if amount.Cmp(big.NewInt(3_000_000)) != 0 {
		t.Fatalf("expected 3000000 withdrawn, got %s", amount)
	}
}
