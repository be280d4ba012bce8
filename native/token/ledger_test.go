package token

import (
	"errors"
	"math/big"
	"testing"

	"lottobox/state"
	"lottobox/storage"
)

func addr(b byte) [20]byte {
	var a [20]byte
	for i := range a {
		a[i] = b
	}
	return a
}

func newTestLedger(t *testing.T) (*Registry, *Ledger) {
	t.Helper()
	registry := NewRegistry(state.NewManager(storage.NewMemDB()))
	ledger, err := registry.Register("usdt", "Tether USD", 6)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	return registry, ledger
}

func TestRegisterNormalizesSymbol(t *testing.T) {
	registry, ledger := newTestLedger(t)
	if ledger.Symbol() != "USDT" {
		t.Fatalf("expected normalized symbol USDT, got %q", ledger.Symbol())
	}
	if !registry.Exists(" usdt ") {
		t.Fatal("lookup must normalize the symbol")
	}
	if _, err := registry.Register("USDT", "Duplicate", 6); !errors.Is(err, ErrTokenExists) {
		t.Fatalf("expected ErrTokenExists, got %v", err)
	}
	if _, err := registry.Ledger("DAI"); !errors.Is(err, ErrUnknownToken) {
		t.Fatalf("expected ErrUnknownToken, got %v", err)
	}
}

func TestMintAndBalance(t *testing.T) {
	_, ledger := newTestLedger(t)
	alice := addr(0x01)

	if err := ledger.Mint(alice, big.NewInt(100)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := ledger.Mint(alice, big.NewInt(50)); err != nil {
		t.Fatalf("mint again: %v", err)
	}
	balance, err := ledger.BalanceOf(alice)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance.Cmp(big.NewInt(150)) != 0 {
		t.Fatalf("expected 150, got %s", balance)
	}
	if err := ledger.Mint(alice, big.NewInt(0)); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount for zero mint, got %v", err)
	}
}

func TestTransferChecksBalance(t *testing.T) {
	_, ledger := newTestLedger(t)
	alice := addr(0x01)
	bob := addr(0x02)

	if err := ledger.Mint(alice, big.NewInt(100)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := ledger.Transfer(alice, bob, big.NewInt(60)); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if err := ledger.Transfer(alice, bob, big.NewInt(60)); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
	aliceBalance, _ := ledger.BalanceOf(alice)
	bobBalance, _ := ledger.BalanceOf(bob)
	if aliceBalance.Cmp(big.NewInt(40)) != 0 || bobBalance.Cmp(big.NewInt(60)) != 0 {
		t.Fatalf("unexpected balances: alice=%s bob=%s", aliceBalance, bobBalance)
	}
}

func TestSelfTransferPreservesBalance(t *testing.T) {
	_, ledger := newTestLedger(t)
	alice := addr(0x01)

	if err := ledger.Mint(alice, big.NewInt(100)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := ledger.Transfer(alice, alice, big.NewInt(60)); err != nil {
		t.Fatalf("self transfer: %v", err)
	}
	balance, err := ledger.BalanceOf(alice)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("self transfer must not change the balance, got %s", balance)
	}
	if err := ledger.Transfer(alice, alice, big.NewInt(150)); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
}

func TestSelfTransferFromStillDrawsAllowance(t *testing.T) {
	_, ledger := newTestLedger(t)
	owner := addr(0x01)
	spender := addr(0x02)

	if err := ledger.Mint(owner, big.NewInt(100)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := ledger.Approve(owner, spender, big.NewInt(70)); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if err := ledger.TransferFrom(spender, owner, owner, big.NewInt(50)); err != nil {
		t.Fatalf("transfer from: %v", err)
	}
	balance, _ := ledger.BalanceOf(owner)
	if balance.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("self transfer must not change the balance, got %s", balance)
	}
	allowance, _ := ledger.Allowance(owner, spender)
	if allowance.Cmp(big.NewInt(20)) != 0 {
		t.Fatalf("expected allowance 20, got %s", allowance)
	}
}

func TestTransferFromDrawsDownAllowance(t *testing.T) {
	_, ledger := newTestLedger(t)
	owner := addr(0x01)
	spender := addr(0x02)
	recipient := addr(0x03)

	if err := ledger.Mint(owner, big.NewInt(100)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := ledger.Approve(owner, spender, big.NewInt(70)); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if err := ledger.TransferFrom(spender, owner, recipient, big.NewInt(50)); err != nil {
		t.Fatalf("transfer from: %v", err)
	}
	allowance, err := ledger.Allowance(owner, spender)
	if err != nil {
		t.Fatalf("allowance: %v", err)
	}
	if allowance.Cmp(big.NewInt(20)) != 0 {
		t.Fatalf("expected allowance 20, got %s", allowance)
	}
	if err := ledger.TransferFrom(spender, owner, recipient, big.NewInt(30)); !errors.Is(err, ErrInsufficientAllowance) {
		t.Fatalf("expected ErrInsufficientAllowance, got %v", err)
	}
}

func TestTransferFromChecksBalanceAfterAllowance(t *testing.T) {
	_, ledger := newTestLedger(t)
	owner := addr(0x01)
	spender := addr(0x02)

	if err := ledger.Mint(owner, big.NewInt(10)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := ledger.Approve(owner, spender, big.NewInt(100)); err != nil {
		t.Fatalf("approve: %v", err)
	}
	err := ledger.TransferFrom(spender, owner, addr(0x03), big.NewInt(50))
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
}
