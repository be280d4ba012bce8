package gateway

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"lottobox/core"
	"lottobox/crypto"
	"lottobox/native/factory"
	"lottobox/native/lottery"
	"lottobox/native/token"
)

type server struct {
	node *core.Node
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

type errorBody struct {
	Error string `json:"error"`
}

func writeQueryError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, lottery.ErrNotFound), errors.Is(err, factory.ErrSequenceNotFound),
		errors.Is(err, token.ErrUnknownToken):
		status = http.StatusNotFound
	case errors.Is(err, lottery.ErrInvalidAmount):
		status = http.StatusBadRequest
	}
	writeJSON(w, status, errorBody{Error: err.Error()})
}

func writeBadRequest(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
}

func parseAddressParam(r *http.Request, name string) ([20]byte, error) {
	value := strings.TrimSpace(chi.URLParam(r, name))
	addr, err := crypto.DecodeAddress(value)
	if err != nil {
		return [20]byte{}, fmt.Errorf("invalid %s: %w", name, err)
	}
	return addr.Raw(), nil
}

func parseCampaignIDParam(r *http.Request) ([32]byte, error) {
	value := strings.TrimPrefix(strings.TrimSpace(chi.URLParam(r, "id")), "0x")
	decoded, err := hex.DecodeString(value)
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

func formatAddress(addr [20]byte) string {
	return crypto.NewAddress(crypto.LTBPrefix, addr[:]).String()
}

func formatCampaignID(id [32]byte) string {
	return "0x" + hex.EncodeToString(id[:])
}

type campaignSummary struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	Symbol           string  `json:"symbol"`
	Year             uint32  `json:"year"`
	Sequence         uint64  `json:"sequence"`
	Token            string  `json:"token"`
	BoxPrice         string  `json:"boxPrice"`
	TotalBoxes       uint64  `json:"totalBoxes"`
	BoxesSold        uint64  `json:"boxesSold"`
	WinningNumber    *uint64 `json:"winningNumber,omitempty"`
	Completed        bool    `json:"completed"`
	Vault            string  `json:"vault"`
	WinnerBps        uint32  `json:"winnerBps"`
	SponsorWinnerBps uint32  `json:"sponsorWinnerBps"`
	MaxSponsorBps    uint32  `json:"maxSponsorBps"`
}

func campaignSummaryFrom(info *lottery.Info) campaignSummary {
	summary := campaignSummary{
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
		MaxSponsorBps:    info.Prizes.MaxSponsorBps,
	}
	if info.WinningSet {
		number := info.WinningNumber
		summary.WinningNumber = &number
	}
	return summary
}

// listCampaigns returns the campaign summaries of a year, newest last.
func (s *server) listCampaigns(w http.ResponseWriter, r *http.Request) {
	yearParam := strings.TrimSpace(r.URL.Query().Get("year"))
	if yearParam == "" {
		writeBadRequest(w, fmt.Errorf("year query parameter required"))
		return
	}
	year, err := strconv.ParseUint(yearParam, 10, 32)
	if err != nil {
		writeBadRequest(w, fmt.Errorf("invalid year: %w", err))
		return
	}
	ids, err := s.node.LotteriesByYear(uint32(year))
	if err != nil {
		writeQueryError(w, err)
		return
	}
	summaries := make([]campaignSummary, 0, len(ids))
	for _, id := range ids {
		info, err := s.node.LotteryInfo(id)
		if err != nil {
			writeQueryError(w, err)
			return
		}
		summaries = append(summaries, campaignSummaryFrom(info))
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (s *server) campaignInfo(w http.ResponseWriter, r *http.Request) {
	id, err := parseCampaignIDParam(r)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	info, err := s.node.LotteryInfo(id)
	if err != nil {
		writeQueryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, campaignSummaryFrom(info))
}

type boxView struct {
	Index   uint64 `json:"index"`
	Owner   string `json:"owner"`
	TicketA uint64 `json:"ticketA"`
	TicketB uint64 `json:"ticketB"`
}

func (s *server) campaignBox(w http.ResponseWriter, r *http.Request) {
	id, err := parseCampaignIDParam(r)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	index, err := strconv.ParseUint(chi.URLParam(r, "index"), 10, 64)
	if err != nil {
		writeBadRequest(w, fmt.Errorf("invalid box index: %w", err))
		return
	}
	box, err := s.node.Box(id, index)
	if err != nil {
		writeQueryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, boxView{
		Index:   box.Index,
		Owner:   formatAddress(box.Owner),
		TicketA: box.TicketA,
		TicketB: box.TicketB,
	})
}

func (s *server) campaignBoxOwner(w http.ResponseWriter, r *http.Request) {
	id, err := parseCampaignIDParam(r)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	index, err := strconv.ParseUint(chi.URLParam(r, "index"), 10, 64)
	if err != nil {
		writeBadRequest(w, fmt.Errorf("invalid box index: %w", err))
		return
	}
	owner, err := s.node.OwnerOfBox(id, index)
	if err != nil {
		writeQueryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"owner": formatAddress(owner)})
}

type campaignAccountView struct {
	Boxes  uint64 `json:"boxes"`
	Active bool   `json:"active"`
}

// campaignAccount reports an account's standing in one campaign: how many
// boxes it holds and whether it is activated in the referral program.
func (s *server) campaignAccount(w http.ResponseWriter, r *http.Request) {
	id, err := parseCampaignIDParam(r)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	account, err := parseAddressParam(r, "address")
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	boxes, err := s.node.BoxBalance(id, account)
	if err != nil {
		writeQueryError(w, err)
		return
	}
	active, err := s.node.IsActive(id, account)
	if err != nil {
		writeQueryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, campaignAccountView{Boxes: boxes, Active: active})
}

func (s *server) accountSponsor(w http.ResponseWriter, r *http.Request) {
	account, err := parseAddressParam(r, "address")
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	sponsor, registered, err := s.node.SponsorOf(account)
	if err != nil {
		writeQueryError(w, err)
		return
	}
	result := map[string]interface{}{"registered": registered}
	if registered {
		result["sponsor"] = formatAddress(sponsor)
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *server) sponsorRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"root": formatAddress(s.node.SponsorRoot())})
}

func (s *server) factoryStatus(w http.ResponseWriter, r *http.Request) {
	owner, err := s.node.FactoryOwner()
	if err != nil {
		writeQueryError(w, err)
		return
	}
	paused, err := s.node.FactoryPaused()
	if err != nil {
		writeQueryError(w, err)
		return
	}
	result := map[string]interface{}{
		"paused":    paused,
		"renounced": owner == [20]byte{},
	}
	if owner != ([20]byte{}) {
		result["owner"] = formatAddress(owner)
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *server) tokenInfo(w http.ResponseWriter, r *http.Request) {
	meta, err := s.node.TokenInfo(chi.URLParam(r, "symbol"))
	if err != nil {
		writeQueryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"symbol":   meta.Symbol,
		"name":     meta.Name,
		"decimals": meta.Decimals,
	})
}

func (s *server) tokenBalance(w http.ResponseWriter, r *http.Request) {
	account, err := parseAddressParam(r, "address")
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	balance, err := s.node.TokenBalance(chi.URLParam(r, "symbol"), account)
	if err != nil {
		writeQueryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"balance": balance.String()})
}
