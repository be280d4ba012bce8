package token

import (
	"fmt"
	"math/big"
	"strings"

	"lottobox/state"
)

// State is the narrow view of the node state the token module depends on.
type State interface {
	KVPut(key []byte, value interface{}) error
	KVGet(key []byte, out interface{}) (bool, error)
}

// Metadata describes a registered payment token.
type Metadata struct {
	Symbol   string
	Name     string
	Decimals uint8
}

// Registry resolves payment tokens by symbol. Tokens are registered once,
// typically at genesis or through an operator RPC, and campaigns reference
// them by canonical symbol.
type Registry struct {
	st State
}

// NewRegistry creates a token registry over the provided state.
func NewRegistry(st State) *Registry {
	return &Registry{st: st}
}

// NormalizeSymbol trims and upper-cases a token symbol, rejecting empty
// values.
func NormalizeSymbol(symbol string) (string, error) {
	trimmed := strings.ToUpper(strings.TrimSpace(symbol))
	if trimmed == "" {
		return "", fmt.Errorf("%w: symbol required", ErrInvalidToken)
	}
	return trimmed, nil
}

// Register records a new payment token and returns its ledger view.
func (r *Registry) Register(symbol, name string, decimals uint8) (*Ledger, error) {
	normalized, err := NormalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	trimmedName := strings.TrimSpace(name)
	if trimmedName == "" {
		return nil, fmt.Errorf("%w: name required", ErrInvalidToken)
	}
	key := state.TokenMetadataKey(normalized)
	exists, err := r.st.KVGet(key, nil)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrTokenExists
	}
	meta := Metadata{Symbol: normalized, Name: trimmedName, Decimals: decimals}
	if err := r.st.KVPut(key, &meta); err != nil {
		return nil, err
	}
	return &Ledger{st: r.st, meta: meta}, nil
}

// Ledger returns the ledger view for a registered token.
func (r *Registry) Ledger(symbol string) (*Ledger, error) {
	normalized, err := NormalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	var meta Metadata
	exists, err := r.st.KVGet(state.TokenMetadataKey(normalized), &meta)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrUnknownToken
	}
	return &Ledger{st: r.st, meta: meta}, nil
}

// Exists reports whether the provided token symbol is registered.
func (r *Registry) Exists(symbol string) bool {
	normalized, err := NormalizeSymbol(symbol)
	if err != nil {
		return false
	}
	exists, err := r.st.KVGet(state.TokenMetadataKey(normalized), nil)
	return err == nil && exists
}

// Ledger provides fungible-balance operations for one registered token.
// Balance and allowance mutations go through the shared state manager, so
// they participate in the same snapshot/revert unit as every other state
// change of the enclosing operation.
type Ledger struct {
	st   State
	meta Metadata
}

// Symbol returns the canonical token symbol.
func (l *Ledger) Symbol() string { return l.meta.Symbol }

// Decimals returns the token's decimal precision.
func (l *Ledger) Decimals() uint8 { return l.meta.Decimals }

// Name returns the token's display name.
func (l *Ledger) Name() string { return l.meta.Name }

func (l *Ledger) loadAmount(key []byte) (*big.Int, error) {
	amount := new(big.Int)
	exists, err := l.st.KVGet(key, amount)
	if err != nil {
		return nil, err
	}
	if !exists {
		return big.NewInt(0), nil
	}
	return amount, nil
}

// BalanceOf returns the token balance held by an account.
func (l *Ledger) BalanceOf(account [20]byte) (*big.Int, error) {
	return l.loadAmount(state.BalanceKey(l.meta.Symbol, account[:]))
}

// Allowance returns the amount a spender may move on the owner's behalf.
func (l *Ledger) Allowance(owner, spender [20]byte) (*big.Int, error) {
	return l.loadAmount(state.AllowanceKey(l.meta.Symbol, owner[:], spender[:]))
}

// Mint credits freshly issued tokens to an account.
func (l *Ledger) Mint(to [20]byte, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	balance, err := l.BalanceOf(to)
	if err != nil {
		return err
	}
	return l.st.KVPut(state.BalanceKey(l.meta.Symbol, to[:]), new(big.Int).Add(balance, amount))
}

// Approve sets the allowance a spender may draw from the owner's balance.
func (l *Ledger) Approve(owner, spender [20]byte, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	return l.st.KVPut(state.AllowanceKey(l.meta.Symbol, owner[:], spender[:]), amount)
}

// Transfer moves tokens between two accounts without allowance accounting.
func (l *Ledger) Transfer(from, to [20]byte, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	if amount.Sign() == 0 {
		return nil
	}
	fromBalance, err := l.BalanceOf(from)
	if err != nil {
		return err
	}
	if fromBalance.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	// A self-transfer must leave the balance untouched. Writing the debit
	// and credit separately would apply both against the same stale read.
	if from == to {
		return nil
	}
	toBalance, err := l.BalanceOf(to)
	if err != nil {
		return err
	}
	if err := l.st.KVPut(state.BalanceKey(l.meta.Symbol, from[:]), new(big.Int).Sub(fromBalance, amount)); err != nil {
		return err
	}
	return l.st.KVPut(state.BalanceKey(l.meta.Symbol, to[:]), new(big.Int).Add(toBalance, amount))
}

// TransferFrom moves tokens from the owner to the recipient, drawing down
// the spender's allowance.
func (l *Ledger) TransferFrom(spender, from, to [20]byte, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	if amount.Sign() == 0 {
		return nil
	}
	allowance, err := l.Allowance(from, spender)
	if err != nil {
		return err
	}
	if allowance.Cmp(amount) < 0 {
		return ErrInsufficientAllowance
	}
	if err := l.Transfer(from, to, amount); err != nil {
		return err
	}
	return l.st.KVPut(state.AllowanceKey(l.meta.Symbol, from[:], spender[:]), new(big.Int).Sub(allowance, amount))
}
