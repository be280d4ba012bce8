package rpc

import (
	"net/http"

	"lottobox/native/factory"
)

type lotteryCreateParams struct {
	Caller           string             `json:"caller"`
	Name             string             `json:"name"`
	Symbol           string             `json:"symbol"`
	TotalBoxes       uint64             `json:"totalBoxes"`
	Token            string             `json:"token"`
	BoxPrice         string             `json:"boxPrice"`
	WinnerBps        uint32             `json:"winnerBps"`
	SponsorWinnerBps uint32             `json:"sponsorWinnerBps"`
	Incentives       incentiveTiersJSON `json:"incentives"`
	MaxSponsorBps    uint32             `json:"maxSponsorBps"`
	Year             uint32             `json:"year"`
}

func (s *Server) handleLotteryCreate(w http.ResponseWriter, req *RPCRequest) {
	var params lotteryCreateParams
	if err := decodeParams(req.Params, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	price, err := parseAmount(params.BoxPrice)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	id, err := s.node.CreateLottery(caller, factory.CreateParams{
		Name:             params.Name,
		Symbol:           params.Symbol,
		TotalBoxes:       params.TotalBoxes,
		Token:            params.Token,
		BoxPrice:         price,
		WinnerBps:        params.WinnerBps,
		SponsorWinnerBps: params.SponsorWinnerBps,
		Incentives:       params.Incentives.toTiers(),
		MaxSponsorBps:    params.MaxSponsorBps,
		Year:             params.Year,
	})
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]string{"id": formatCampaignID(id)})
}

type lotteryBuyParams struct {
	ID      string `json:"id"`
	Amount  uint64 `json:"amount"`
	Buyer   string `json:"buyer"`
	Sponsor string `json:"sponsor,omitempty"`
}

func (s *Server) handleLotteryBuyBoxes(w http.ResponseWriter, req *RPCRequest) {
	var params lotteryBuyParams
	if err := decodeParams(req.Params, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	id, err := parseCampaignID(params.ID)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	buyer, err := parseAddress(params.Buyer)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	sponsor, err := parseOptionalAddress(params.Sponsor)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.node.BuyBoxes(id, params.Amount, buyer, sponsor); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]bool{"ok": true})
}

type lotteryIDParams struct {
	ID string `json:"id"`
}

func (s *Server) handleLotteryInfo(w http.ResponseWriter, req *RPCRequest) {
	var params lotteryIDParams
	if err := decodeParams(req.Params, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	id, err := parseCampaignID(params.ID)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	info, err := s.node.LotteryInfo(id)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, lotteryInfoFrom(info))
}

func (s *Server) handleLotteryIsCompleted(w http.ResponseWriter, req *RPCRequest) {
	var params lotteryIDParams
	if err := decodeParams(req.Params, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	id, err := parseCampaignID(params.ID)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	completed, err := s.node.LotteryIsCompleted(id)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]bool{"completed": completed})
}

type lotteryYearParams struct {
	Year uint32 `json:"year"`
}

func (s *Server) handleLotteryList(w http.ResponseWriter, req *RPCRequest) {
	var params lotteryYearParams
	if err := decodeParams(req.Params, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	ids, err := s.node.LotteriesByYear(params.Year)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	encoded := make([]string, 0, len(ids))
	for _, id := range ids {
		encoded = append(encoded, formatCampaignID(id))
	}
	writeResult(w, req.ID, encoded)
}

func (s *Server) handleLotteryCount(w http.ResponseWriter, req *RPCRequest) {
	var params lotteryYearParams
	if err := decodeParams(req.Params, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	count, err := s.node.LotteryCount(params.Year)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]uint64{"count": count})
}

type lotteryAtParams struct {
	Sequence uint64 `json:"sequence"`
	Year     uint32 `json:"year"`
}

func (s *Server) handleLotteryAt(w http.ResponseWriter, req *RPCRequest) {
	var params lotteryAtParams
	if err := decodeParams(req.Params, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	id, err := s.node.LotteryAt(params.Sequence, params.Year)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]string{"id": formatCampaignID(id)})
}

type lotteryBoxParams struct {
	ID    string `json:"id"`
	Index uint64 `json:"index"`
}

func (s *Server) handleLotteryBox(w http.ResponseWriter, req *RPCRequest) {
	var params lotteryBoxParams
	if err := decodeParams(req.Params, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	id, err := parseCampaignID(params.ID)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	box, err := s.node.Box(id, params.Index)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, boxFrom(box))
}

func (s *Server) handleLotteryOwnerOf(w http.ResponseWriter, req *RPCRequest) {
	var params lotteryBoxParams
	if err := decodeParams(req.Params, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	id, err := parseCampaignID(params.ID)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	owner, err := s.node.OwnerOfBox(id, params.Index)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]string{"owner": formatAddress(owner)})
}

type lotteryBalanceParams struct {
	ID    string `json:"id"`
	Owner string `json:"owner"`
}

func (s *Server) handleLotteryBoxBalance(w http.ResponseWriter, req *RPCRequest) {
	var params lotteryBalanceParams
	if err := decodeParams(req.Params, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	id, err := parseCampaignID(params.ID)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	owner, err := parseAddress(params.Owner)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	balance, err := s.node.BoxBalance(id, owner)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]uint64{"balance": balance})
}

func (s *Server) handleLotteryVault(w http.ResponseWriter, req *RPCRequest) {
	var params lotteryIDParams
	if err := decodeParams(req.Params, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	id, err := parseCampaignID(params.ID)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	writeResult(w, req.ID, map[string]string{"vault": formatAddress(s.node.LotteryVault(id))})
}

type lotterySetWinningParams struct {
	Caller string `json:"caller"`
	ID     string `json:"id"`
	Number uint64 `json:"number"`
}

func (s *Server) handleLotterySetWinning(w http.ResponseWriter, req *RPCRequest) {
	var params lotterySetWinningParams
	if err := decodeParams(req.Params, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	id, err := parseCampaignID(params.ID)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.node.SetWinning(caller, id, params.Number); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]bool{"ok": true})
}

type lotteryWithdrawParams struct {
	Caller    string `json:"caller"`
	ID        string `json:"id"`
	Recipient string `json:"recipient"`
}

func (s *Server) handleLotteryWithdraw(w http.ResponseWriter, req *RPCRequest) {
	var params lotteryWithdrawParams
	if err := decodeParams(req.Params, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	id, err := parseCampaignID(params.ID)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	recipient, err := parseAddress(params.Recipient)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	amount, err := s.node.WithdrawLottery(caller, id, recipient)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]string{"amount": amount.String()})
}
