package rpc

import "net/http"

type sponsorsRegisterParams struct {
	Account string `json:"account"`
	Sponsor string `json:"sponsor"`
}

func (s *Server) handleSponsorsRegister(w http.ResponseWriter, req *RPCRequest) {
	var params sponsorsRegisterParams
	if err := decodeParams(req.Params, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	account, err := parseAddress(params.Account)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	sponsor, err := parseAddress(params.Sponsor)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.node.RegisterSponsor(account, sponsor); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]bool{"ok": true})
}

type sponsorsAccountParams struct {
	Account string `json:"account"`
}

func (s *Server) handleSponsorsSponsorOf(w http.ResponseWriter, req *RPCRequest) {
	var params sponsorsAccountParams
	if err := decodeParams(req.Params, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	account, err := parseAddress(params.Account)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	sponsor, registered, err := s.node.SponsorOf(account)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	result := map[string]interface{}{"registered": registered}
	if registered {
		result["sponsor"] = formatAddress(sponsor)
	}
	writeResult(w, req.ID, result)
}

type sponsorsIsActiveParams struct {
	ID      string `json:"id"`
	Account string `json:"account"`
}

func (s *Server) handleSponsorsIsActive(w http.ResponseWriter, req *RPCRequest) {
	var params sponsorsIsActiveParams
	if err := decodeParams(req.Params, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	id, err := parseCampaignID(params.ID)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	account, err := parseAddress(params.Account)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	active, err := s.node.IsActive(id, account)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]bool{"active": active})
}

func (s *Server) handleSponsorsRoot(w http.ResponseWriter, req *RPCRequest) {
	writeResult(w, req.ID, map[string]string{"root": formatAddress(s.node.SponsorRoot())})
}
