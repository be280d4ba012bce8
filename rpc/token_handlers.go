package rpc

import "net/http"

type tokenRegisterParams struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Decimals uint8  `json:"decimals"`
}

func (s *Server) handleTokenRegister(w http.ResponseWriter, req *RPCRequest) {
	var params tokenRegisterParams
	if err := decodeParams(req.Params, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.node.RegisterToken(params.Symbol, params.Name, params.Decimals); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]bool{"ok": true})
}

type tokenMintParams struct {
	Symbol string `json:"symbol"`
	To     string `json:"to"`
	Amount string `json:"amount"`
}

func (s *Server) handleTokenMint(w http.ResponseWriter, req *RPCRequest) {
	var params tokenMintParams
	if err := decodeParams(req.Params, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	to, err := parseAddress(params.To)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	amount, err := parseAmount(params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.node.MintToken(params.Symbol, to, amount); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]bool{"ok": true})
}

type tokenApproveParams struct {
	Symbol  string `json:"symbol"`
	Owner   string `json:"owner"`
	Spender string `json:"spender"`
	Amount  string `json:"amount"`
}

func (s *Server) handleTokenApprove(w http.ResponseWriter, req *RPCRequest) {
	var params tokenApproveParams
	if err := decodeParams(req.Params, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	owner, err := parseAddress(params.Owner)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	spender, err := parseAddress(params.Spender)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	amount, err := parseAmount(params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.node.ApproveToken(params.Symbol, owner, spender, amount); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]bool{"ok": true})
}

type tokenBalanceParams struct {
	Symbol  string `json:"symbol"`
	Account string `json:"account"`
}

func (s *Server) handleTokenBalanceOf(w http.ResponseWriter, req *RPCRequest) {
	var params tokenBalanceParams
	if err := decodeParams(req.Params, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	account, err := parseAddress(params.Account)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	balance, err := s.node.TokenBalance(params.Symbol, account)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]string{"balance": balance.String()})
}

type tokenAllowanceParams struct {
	Symbol  string `json:"symbol"`
	Owner   string `json:"owner"`
	Spender string `json:"spender"`
}

func (s *Server) handleTokenAllowance(w http.ResponseWriter, req *RPCRequest) {
	var params tokenAllowanceParams
	if err := decodeParams(req.Params, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	owner, err := parseAddress(params.Owner)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	spender, err := parseAddress(params.Spender)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	allowance, err := s.node.TokenAllowance(params.Symbol, owner, spender)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]string{"allowance": allowance.String()})
}

type tokenInfoParams struct {
	Symbol string `json:"symbol"`
}

func (s *Server) handleTokenInfo(w http.ResponseWriter, req *RPCRequest) {
	var params tokenInfoParams
	if err := decodeParams(req.Params, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	meta, err := s.node.TokenInfo(params.Symbol)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]interface{}{
		"symbol":   meta.Symbol,
		"name":     meta.Name,
		"decimals": meta.Decimals,
	})
}
