package rpc

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"lottobox/crypto"
	"lottobox/native/lottery"
)

// decodeParams unmarshals the request params object into the destination
// struct.
func decodeParams(raw json.RawMessage, out interface{}) error {
	if len(raw) == 0 {
		return fmt.Errorf("params required")
	}
	return json.Unmarshal(raw, out)
}

func parseAddress(value string) ([20]byte, error) {
	addr, err := crypto.DecodeAddress(strings.TrimSpace(value))
	if err != nil {
		return [20]byte{}, err
	}
	return addr.Raw(), nil
}

// parseOptionalAddress returns the zero address for an empty string, which
// downstream engines interpret as "use the root sentinel".
func parseOptionalAddress(value string) ([20]byte, error) {
	if strings.TrimSpace(value) == "" {
		return [20]byte{}, nil
	}
	return parseAddress(value)
}

func formatAddress(addr [20]byte) string {
	return crypto.NewAddress(crypto.LTBPrefix, addr[:]).String()
}

func parseCampaignID(value string) ([32]byte, error) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(value), "0x")
	decoded, err := hex.DecodeString(trimmed)
	if err != nil {
		return [32]byte{}, fmt.Errorf("invalid campaign id: %w", err)
	}
	if len(decoded) != 32 {
		return [32]byte{}, fmt.Errorf("campaign id must be 32 bytes, got %d", len(decoded))
	}
	var id [32]byte
	copy(id[:], decoded)
	return id, nil
}

func formatCampaignID(id [32]byte) string {
	return "0x" + hex.EncodeToString(id[:])
}

func parseAmount(value string) (*big.Int, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, fmt.Errorf("amount required")
	}
	amount, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", value)
	}
	return amount, nil
}

// incentiveTiersJSON mirrors the creation-time tier configuration.
type incentiveTiersJSON struct {
	Boxes1 uint64 `json:"boxes1"`
	Bps1   uint32 `json:"bps1"`
	Boxes2 uint64 `json:"boxes2"`
	Bps2   uint32 `json:"bps2"`
	Boxes3 uint64 `json:"boxes3"`
	Bps3   uint32 `json:"bps3"`
}

func (t incentiveTiersJSON) toTiers() lottery.IncentiveTiers {
	return lottery.IncentiveTiers{
		Boxes1: t.Boxes1, Bps1: t.Bps1,
		Boxes2: t.Boxes2, Bps2: t.Bps2,
		Boxes3: t.Boxes3, Bps3: t.Bps3,
	}
}

func tiersJSON(t lottery.IncentiveTiers) incentiveTiersJSON {
	return incentiveTiersJSON{
		Boxes1: t.Boxes1, Bps1: t.Bps1,
		Boxes2: t.Boxes2, Bps2: t.Bps2,
		Boxes3: t.Boxes3, Bps3: t.Bps3,
	}
}

// lotteryInfoJSON is the RPC representation of a sale-instance snapshot.
type lotteryInfoJSON struct {
	ID               string             `json:"id"`
	Name             string             `json:"name"`
	Symbol           string             `json:"symbol"`
	Year             uint32             `json:"year"`
	Sequence         uint64             `json:"sequence"`
	Token            string             `json:"token"`
	BoxPrice         string             `json:"boxPrice"`
	TotalBoxes       uint64             `json:"totalBoxes"`
	BoxesSold        uint64             `json:"boxesSold"`
	WinningNumber    *uint64            `json:"winningNumber,omitempty"`
	Completed        bool               `json:"completed"`
	Vault            string             `json:"vault"`
	WinnerBps        uint32             `json:"winnerBps"`
	SponsorWinnerBps uint32             `json:"sponsorWinnerBps"`
	Incentives       incentiveTiersJSON `json:"incentives"`
	MaxSponsorBps    uint32             `json:"maxSponsorBps"`
}

func lotteryInfoFrom(info *lottery.Info) *lotteryInfoJSON {
	result := &lotteryInfoJSON{
		ID:               formatCampaignID(info.ID),
		Name:             info.Name,
		Symbol:           info.Symbol,
		Year:             info.Year,
		Sequence:         info.Sequence,
		Token:            info.Token,
		BoxPrice:         info.BoxPrice.String(),
		TotalBoxes:       info.TotalBoxes,
		BoxesSold:        info.BoxesSold,
		Completed:        info.Completed,
		Vault:            formatAddress(lottery.VaultAddress(info.ID)),
		WinnerBps:        info.Prizes.WinnerBps,
		SponsorWinnerBps: info.Prizes.SponsorWinnerBps,
		Incentives:       tiersJSON(info.Prizes.Incentives),
		MaxSponsorBps:    info.Prizes.MaxSponsorBps,
	}
	if info.WinningSet {
		number := info.WinningNumber
		result.WinningNumber = &number
	}
	return result
}

// boxJSON is the RPC representation of a minted box.
type boxJSON struct {
	Index   uint64 `json:"index"`
	Owner   string `json:"owner"`
	TicketA uint64 `json:"ticketA"`
	TicketB uint64 `json:"ticketB"`
}

func boxFrom(box *lottery.Box) boxJSON {
	return boxJSON{
		Index:   box.Index,
		Owner:   formatAddress(box.Owner),
		TicketA: box.TicketA,
		TicketB: box.TicketB,
	}
}
