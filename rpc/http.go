package rpc

import (
	"bytes"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"lottobox/core"
	"lottobox/native/factory"
	"lottobox/native/lottery"
	"lottobox/native/sponsors"
	"lottobox/native/token"
)

const (
	jsonRPCVersion  = "2.0"
	maxRequestBytes = 1 << 20 // 1 MiB
	authTokenEnv    = "LTB_RPC_TOKEN"
)

const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeUnauthorized   = -32001
	codeServerError    = -32000

	codePaused              = -32030
	codeNotOwner            = -32031
	codeNotAuthorized       = -32032
	codeCapacityExceeded    = -32033
	codeAlreadyRegistered   = -32034
	codeUnregisteredSponsor = -32035
	codeNotCompleted        = -32036
	codeAlreadyCompleted    = -32037
	codeInsufficientFunds   = -32038
	codeNotFound            = -32039
)

// Server exposes the node's mutating entry points and display queries over
// JSON-RPC. Owner-administered methods additionally require the bearer
// token configured via LTB_RPC_TOKEN.
type Server struct {
	node      *core.Node
	authToken string
	mux       *http.ServeMux
}

func NewServer(node *core.Node) *Server {
	s := &Server{
		node:      node,
		authToken: strings.TrimSpace(os.Getenv(authTokenEnv)),
		mux:       http.NewServeMux(),
	}
	s.mux.HandleFunc("/", s.handle)
	s.mux.HandleFunc("/ws/events", s.handleEventsWS)
	return s
}

// Handler returns the server's HTTP handler for embedding in a daemon.
func (s *Server) Handler() http.Handler { return s.mux }

func (s *Server) Start(addr string) error {
	fmt.Printf("Starting JSON-RPC server on %s\n", addr)
	return http.ListenAndServe(addr, s.mux)
}

type RPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
	ID      interface{}     `json:"id"`
}

type RPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func writeError(w http.ResponseWriter, status int, id interface{}, code int, message string, data interface{}) {
	if status <= 0 {
		status = http.StatusBadRequest
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	errObj := &RPCError{Code: code, Message: message}
	if data != nil {
		errObj.Data = data
	}
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Error: errObj}
	_ = json.NewEncoder(w).Encode(resp)
}

func writeResult(w http.ResponseWriter, id interface{}, result interface{}) {
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Result: result}
	_ = json.NewEncoder(w).Encode(resp)
}

// writeEngineError maps a native engine error to its JSON-RPC error code.
func writeEngineError(w http.ResponseWriter, id interface{}, err error) {
	code := codeServerError
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, factory.ErrPaused):
		code, status = codePaused, http.StatusConflict
	case errors.Is(err, factory.ErrNotOwner), errors.Is(err, factory.ErrInvalidOwner):
		code, status = codeNotOwner, http.StatusForbidden
	case errors.Is(err, sponsors.ErrUnauthorizedCaller), errors.Is(err, lottery.ErrUnauthorizedCaller):
		code, status = codeNotAuthorized, http.StatusForbidden
	case errors.Is(err, lottery.ErrCapacityExceeded):
		code, status = codeCapacityExceeded, http.StatusConflict
	case errors.Is(err, sponsors.ErrAlreadyRegistered):
		code, status = codeAlreadyRegistered, http.StatusConflict
	case errors.Is(err, sponsors.ErrUnregisteredSponsor):
		code, status = codeUnregisteredSponsor, http.StatusBadRequest
	case errors.Is(err, lottery.ErrNotCompleted):
		code, status = codeNotCompleted, http.StatusConflict
	case errors.Is(err, lottery.ErrAlreadyCompleted):
		code, status = codeAlreadyCompleted, http.StatusConflict
	case errors.Is(err, factory.ErrInsufficientFunds), errors.Is(err, lottery.ErrInsufficientFunds),
		errors.Is(err, token.ErrInsufficientBalance), errors.Is(err, token.ErrInsufficientAllowance):
		code, status = codeInsufficientFunds, http.StatusConflict
	case errors.Is(err, lottery.ErrNotFound), errors.Is(err, factory.ErrSequenceNotFound),
		errors.Is(err, token.ErrUnknownToken):
		code, status = codeNotFound, http.StatusNotFound
	case errors.Is(err, lottery.ErrInvalidAmount), errors.Is(err, lottery.ErrInvalidConfig),
		errors.Is(err, sponsors.ErrInvalidAccount), errors.Is(err, token.ErrInvalidAmount),
		errors.Is(err, token.ErrInvalidToken), errors.Is(err, token.ErrTokenExists),
		errors.Is(err, lottery.ErrLotteryExists):
		code, status = codeInvalidParams, http.StatusBadRequest
	}
	writeError(w, status, id, code, err.Error(), nil)
}

// handle is the main request handler that routes to specific handlers.
func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	reader := http.MaxBytesReader(w, r.Body, maxRequestBytes)
	defer func() {
		_ = reader.Close()
	}()

	w.Header().Set("Content-Type", "application/json")

	body, err := io.ReadAll(reader)
	if err != nil {
		writeError(w, http.StatusBadRequest, nil, codeInvalidRequest, "failed to read request body", err.Error())
		return
	}
	if len(bytes.TrimSpace(body)) == 0 {
		writeError(w, http.StatusBadRequest, nil, codeInvalidRequest, "request body required", nil)
		return
	}

	req := &RPCRequest{}
	if err := json.Unmarshal(body, req); err != nil {
		writeError(w, http.StatusBadRequest, nil, codeParseError, "invalid JSON payload", err.Error())
		return
	}
	if req.JSONRPC != "" && req.JSONRPC != jsonRPCVersion {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "unsupported jsonrpc version", req.JSONRPC)
		return
	}
	if req.Method == "" {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "method required", nil)
		return
	}

	if s.isOwnerMethod(req.Method) {
		if authErr := s.requireAuth(r); authErr != nil {
			writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
			return
		}
	}

	switch req.Method {
	case "lottery_create":
		s.handleLotteryCreate(w, req)
	case "lottery_buyBoxes":
		s.handleLotteryBuyBoxes(w, req)
	case "lottery_info":
		s.handleLotteryInfo(w, req)
	case "lottery_isCompleted":
		s.handleLotteryIsCompleted(w, req)
	case "lottery_list":
		s.handleLotteryList(w, req)
	case "lottery_count":
		s.handleLotteryCount(w, req)
	case "lottery_at":
		s.handleLotteryAt(w, req)
	case "lottery_box":
		s.handleLotteryBox(w, req)
	case "lottery_boxBalance":
		s.handleLotteryBoxBalance(w, req)
	case "lottery_ownerOf":
		s.handleLotteryOwnerOf(w, req)
	case "lottery_vault":
		s.handleLotteryVault(w, req)
	case "lottery_setWinning":
		s.handleLotterySetWinning(w, req)
	case "lottery_withdraw":
		s.handleLotteryWithdraw(w, req)
	case "sponsors_register":
		s.handleSponsorsRegister(w, req)
	case "sponsors_sponsorOf":
		s.handleSponsorsSponsorOf(w, req)
	case "sponsors_isActive":
		s.handleSponsorsIsActive(w, req)
	case "sponsors_root":
		s.handleSponsorsRoot(w, req)
	case "factory_owner":
		s.handleFactoryOwner(w, req)
	case "factory_paused":
		s.handleFactoryPaused(w, req)
	case "factory_pause":
		s.handleFactoryPause(w, req)
	case "factory_unpause":
		s.handleFactoryUnpause(w, req)
	case "factory_transferOwnership":
		s.handleFactoryTransferOwnership(w, req)
	case "factory_renounceOwnership":
		s.handleFactoryRenounceOwnership(w, req)
	case "token_register":
		s.handleTokenRegister(w, req)
	case "token_mint":
		s.handleTokenMint(w, req)
	case "token_approve":
		s.handleTokenApprove(w, req)
	case "token_balanceOf":
		s.handleTokenBalanceOf(w, req)
	case "token_allowance":
		s.handleTokenAllowance(w, req)
	case "token_info":
		s.handleTokenInfo(w, req)
	default:
		writeError(w, http.StatusNotFound, req.ID, codeMethodNotFound, "method not found", req.Method)
	}
}

// isOwnerMethod reports whether a method is owner-administered and requires
// the bearer token in addition to the engine's owner check.
func (s *Server) isOwnerMethod(method string) bool {
	switch method {
	case "lottery_create", "lottery_setWinning", "lottery_withdraw",
		"factory_pause", "factory_unpause",
		"factory_transferOwnership", "factory_renounceOwnership",
		"token_register", "token_mint":
		return true
	}
	return false
}

func (s *Server) requireAuth(r *http.Request) *RPCError {
	if s.authToken == "" {
		return &RPCError{Code: codeUnauthorized, Message: "RPC authentication token not configured"}
	}
	header := r.Header.Get("Authorization")
	if header == "" {
		return &RPCError{Code: codeUnauthorized, Message: "missing Authorization header"}
	}
	if !strings.HasPrefix(header, "Bearer ") {
		return &RPCError{Code: codeUnauthorized, Message: "Authorization header must use Bearer scheme"}
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" {
		return &RPCError{Code: codeUnauthorized, Message: "missing bearer token"}
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(s.authToken)) != 1 {
		return &RPCError{Code: codeUnauthorized, Message: "invalid RPC credentials"}
	}
	return nil
}
