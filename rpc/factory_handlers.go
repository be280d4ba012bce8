package rpc

import "net/http"

func (s *Server) handleFactoryOwner(w http.ResponseWriter, req *RPCRequest) {
	owner, err := s.node.FactoryOwner()
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	result := map[string]interface{}{"renounced": owner == [20]byte{}}
	if owner != ([20]byte{}) {
		result["owner"] = formatAddress(owner)
	}
	writeResult(w, req.ID, result)
}

func (s *Server) handleFactoryPaused(w http.ResponseWriter, req *RPCRequest) {
	paused, err := s.node.FactoryPaused()
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]bool{"paused": paused})
}

type factoryCallerParams struct {
	Caller string `json:"caller"`
}

func (s *Server) handleFactoryPause(w http.ResponseWriter, req *RPCRequest) {
	var params factoryCallerParams
	if err := decodeParams(req.Params, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.node.PauseFactory(caller); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]bool{"paused": true})
}

func (s *Server) handleFactoryUnpause(w http.ResponseWriter, req *RPCRequest) {
	var params factoryCallerParams
	if err := decodeParams(req.Params, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.node.UnpauseFactory(caller); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]bool{"paused": false})
}

type factoryTransferParams struct {
	Caller   string `json:"caller"`
	NewOwner string `json:"newOwner"`
}

func (s *Server) handleFactoryTransferOwnership(w http.ResponseWriter, req *RPCRequest) {
	var params factoryTransferParams
	if err := decodeParams(req.Params, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	newOwner, err := parseAddress(params.NewOwner)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.node.TransferOwnership(caller, newOwner); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]bool{"ok": true})
}

type factoryRenounceParams struct {
	Caller string `json:"caller"`
	// Confirm must be true: renouncing permanently disables every
	// owner-gated operation.
	Confirm bool `json:"confirm"`
}

func (s *Server) handleFactoryRenounceOwnership(w http.ResponseWriter, req *RPCRequest) {
	var params factoryRenounceParams
	if err := decodeParams(req.Params, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if !params.Confirm {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams,
			"renouncing ownership is irreversible; set confirm to true to proceed", nil)
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.node.RenounceOwnership(caller); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]bool{"renounced": true})
}
