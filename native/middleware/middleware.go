// Package middleware exposes the box-ownership query consumed by external
// display surfaces. It is intentionally narrow: the rest of the system
// treats it as an opaque collaborator.
package middleware

import "lottobox/native/lottery"

// OwnershipQuerier answers who owns a given box of a campaign.
type OwnershipQuerier interface {
	OwnerOfBox(campaignID [32]byte, index uint64) ([20]byte, error)
}

// Querier is the default OwnershipQuerier backed by the lottery engine's
// box ledger.
type Querier struct {
	lotteries *lottery.Engine
}

// NewQuerier creates an ownership querier over the lottery engine.
func NewQuerier(lotteries *lottery.Engine) *Querier {
	return &Querier{lotteries: lotteries}
}

// OwnerOfBox implements OwnershipQuerier.
func (q *Querier) OwnerOfBox(campaignID [32]byte, index uint64) ([20]byte, error) {
	return q.lotteries.OwnerOfBox(campaignID, index)
}
