package lottery

import (
	"fmt"
	"math/big"
	"strings"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// maxBps is one whole expressed in basis points.
const maxBps uint32 = 10_000

// IncentiveTiers declares the three buyer-incentive tiers of a campaign:
// reaching a box-count threshold earns the associated share at settlement.
type IncentiveTiers struct {
	Boxes1 uint64
	Bps1   uint32
	Boxes2 uint64
	Bps2   uint32
	Boxes3 uint64
	Bps3   uint32
}

// PrizeConfig carries the prize-distribution parameters fixed at campaign
// creation. The parameters are stored and exposed for settlement tooling;
// the payout algorithm itself is not part of this engine.
type PrizeConfig struct {
	WinnerBps        uint32
	SponsorWinnerBps uint32
	Incentives       IncentiveTiers
	MaxSponsorBps    uint32
}

// Lottery is the persistent record of one fixed-capacity sale instance.
type Lottery struct {
	ID            [32]byte
	Name          string
	Symbol        string
	Year          uint32
	Sequence      uint64
	Token         string
	BoxPrice      *big.Int
	TotalBoxes    uint64
	BoxesSold     uint64
	WinningNumber uint64
	WinningSet    bool
	Completed     bool
	Prizes        PrizeConfig
}

// Box is one sold unit of a campaign's capacity. Indices are 1-based and
// assigned sequentially at mint time.
type Box struct {
	Index   uint64
	Owner   [20]byte
	TicketA uint64
	TicketB uint64
}

// Info is a read-only snapshot of a sale instance.
type Info struct {
	ID            [32]byte
	Name          string
	Symbol        string
	Year          uint32
	Sequence      uint64
	Token         string
	BoxPrice      *big.Int
	TotalBoxes    uint64
	BoxesSold     uint64
	WinningNumber uint64
	WinningSet    bool
	Completed     bool
	Prizes        PrizeConfig
}

// CampaignID derives the deterministic identifier for the campaign created
// as the given sequence within a year.
func CampaignID(year uint32, sequence uint64) [32]byte {
	return ethcrypto.Keccak256Hash(
		[]byte("lottobox/campaign"),
		[]byte(fmt.Sprintf("%d/%d", year, sequence)),
	)
}

// VaultAddress derives the campaign pool address holding the payment-token
// balance of a sale instance. Buyers approve this address as the spender of
// their purchase funds.
func VaultAddress(id [32]byte) [20]byte {
	hash := ethcrypto.Keccak256([]byte("lottobox/vault"), id[:])
	var addr [20]byte
	copy(addr[:], hash[12:])
	return addr
}

// ticketPair maps a 1-based box index to its two ticket numbers. The
// mapping is deterministic and collision-free: box i holds tickets 2i-1 and
// 2i, covering the range [1, 2*totalBoxes] with no gaps.
func ticketPair(index uint64) (uint64, uint64) {
	return 2*index - 1, 2 * index
}

// Validate checks a lottery definition at creation time. Declared prize
// shares must fit in one whole when taken together with the largest
// incentive tier.
func (l *Lottery) Validate() error {
	if l == nil {
		return ErrInvalidConfig
	}
	if strings.TrimSpace(l.Name) == "" || strings.TrimSpace(l.Symbol) == "" {
		return fmt.Errorf("%w: name and symbol required", ErrInvalidConfig)
	}
	if l.TotalBoxes == 0 {
		return fmt.Errorf("%w: total boxes must be positive", ErrInvalidConfig)
	}
	if l.BoxPrice == nil || l.BoxPrice.Sign() <= 0 {
		return fmt.Errorf("%w: box price must be positive", ErrInvalidConfig)
	}
	if l.Year == 0 {
		return fmt.Errorf("%w: year required", ErrInvalidConfig)
	}
	return l.Prizes.validate()
}

func (p PrizeConfig) validate() error {
	tiers := p.Incentives
	for _, bps := range []uint32{p.WinnerBps, p.SponsorWinnerBps, p.MaxSponsorBps, tiers.Bps1, tiers.Bps2, tiers.Bps3} {
		if bps > maxBps {
			return fmt.Errorf("%w: share exceeds one whole", ErrInvalidConfig)
		}
	}
	if tiers.Boxes1 >= tiers.Boxes2 || tiers.Boxes2 >= tiers.Boxes3 {
		return fmt.Errorf("%w: incentive tiers must use increasing thresholds", ErrInvalidConfig)
	}
	maxIncentive := tiers.Bps1
	if tiers.Bps2 > maxIncentive {
		maxIncentive = tiers.Bps2
	}
	if tiers.Bps3 > maxIncentive {
		maxIncentive = tiers.Bps3
	}
	total := uint64(p.WinnerBps) + uint64(p.SponsorWinnerBps) + uint64(p.MaxSponsorBps) + uint64(maxIncentive)
	if total > uint64(maxBps) {
		return fmt.Errorf("%w: aggregate declared shares exceed one whole", ErrInvalidConfig)
	}
	return nil
}
