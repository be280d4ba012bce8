package state

import (
	"encoding/binary"
	"strings"
)

var (
	sponsorPrefix    = []byte("sponsors/direct/")
	activationPrefix = []byte("sponsors/active/")
	lotteryPrefix    = []byte("lottery/meta/")
	boxPrefix        = []byte("lottery/box/")
	boxCountPrefix   = []byte("lottery/owned/")
	factoryKey       = []byte("factory/core")
	yearIndexPrefix  = []byte("factory/index/")
	tokenMetaPrefix  = []byte("token/meta/")
	balancePrefix    = []byte("token/balance/")
	allowancePrefix  = []byte("token/allowance/")
)

func join(parts ...[]byte) []byte {
	size := 0
	for _, p := range parts {
		size += len(p)
	}
	buf := make([]byte, 0, size)
	for _, p := range parts {
		buf = append(buf, p...)
	}
	return buf
}

func uint32Key(v uint32) []byte {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], v)
	return buf[:]
}

func uint64Key(v uint64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	return buf[:]
}

// SponsorKey stores the permanent direct-sponsor link for an account.
func SponsorKey(account []byte) []byte {
	return join(sponsorPrefix, account)
}

// ActivationKey stores the per-(campaign, account) activation flag.
func ActivationKey(campaignID [32]byte, account []byte) []byte {
	return join(activationPrefix, campaignID[:], []byte("/"), account)
}

// LotteryKey stores the campaign record for a sale instance.
func LotteryKey(campaignID [32]byte) []byte {
	return join(lotteryPrefix, campaignID[:])
}

// BoxKey stores a minted box record keyed by campaign and 1-based index.
func BoxKey(campaignID [32]byte, index uint64) []byte {
	return join(boxPrefix, campaignID[:], []byte("/"), uint64Key(index))
}

// BoxCountKey stores the number of boxes an account owns in a campaign.
func BoxCountKey(campaignID [32]byte, owner []byte) []byte {
	return join(boxCountPrefix, campaignID[:], []byte("/"), owner)
}

// FactoryKey stores the orchestrator's owner/pause record.
func FactoryKey() []byte {
	return factoryKey
}

// YearIndexKey stores the ordered campaign ID list for a year.
func YearIndexKey(year uint32) []byte {
	return join(yearIndexPrefix, uint32Key(year))
}

// TokenMetadataKey stores payment-token metadata by canonical symbol.
func TokenMetadataKey(symbol string) []byte {
	return join(tokenMetaPrefix, []byte(strings.ToUpper(symbol)))
}

// BalanceKey stores a payment-token balance for an account.
func BalanceKey(symbol string, account []byte) []byte {
	return join(balancePrefix, []byte(strings.ToUpper(symbol)), []byte("/"), account)
}

// AllowanceKey stores a payment-token allowance from owner to spender.
func AllowanceKey(symbol string, owner, spender []byte) []byte {
	return join(allowancePrefix, []byte(strings.ToUpper(symbol)), []byte("/"), owner, []byte("/"), spender)
}
