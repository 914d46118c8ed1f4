package magentoapi

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Errors returned by the client. Fetch methods wrap them in
// magento.RemoteFetchError.
var (
	ErrUnavailable     = errors.New("magentoapi: store unavailable")
	ErrRequestFailed   = errors.New("magentoapi: request failed")
	ErrInvalidResponse = errors.New("magentoapi: invalid response")
	ErrEmptyResult     = errors.New("magentoapi: empty result")
)

// Magento API fault codes
const (
	FaultProductNotExists  = 101
	FaultCategoryNotExists = 102
	FaultAccessDenied      = 2
	FaultSessionExpired    = 5
)

// Remote procedures
const (
	methodLogin        = "login"
	methodCall         = "call"
	methodEndSession   = "endSession"
	procCategoryTree   = "catalog_category.tree"
	procCategoryInfo   = "catalog_category.info"
	procProductInfo    = "catalog_product.info"
	jsonRPCVersion     = "2.0"
	contentTypeJSONRPC = "application/json"
)

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
	ID      int64  `json:"id"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result"`
	Error   *RPCError       `json:"error"`
	ID      json.RawMessage `json:"id"`
}

// RPCError is a fault reported by the Magento API
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("magentoapi: fault %d: %s", e.Code, e.Message)
}

// Is matches ErrRequestFailed
func (e *RPCError) Is(target error) bool {
	return target == ErrRequestFailed
}

// IsNotExists reports whether the fault means the requested entity is absent
func (e *RPCError) IsNotExists() bool {
	return e.Code == FaultProductNotExists || e.Code == FaultCategoryNotExists
}
