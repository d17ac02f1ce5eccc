package chain

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
)

// RPCRequest is a JSON-RPC 2.0 request envelope.
type RPCRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
	ID      int    `json:"id"`
}

// RPCResponse is a JSON-RPC 2.0 response envelope.
type RPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result"`
	Error   *RPCError       `json:"error"`
	ID      int             `json:"id"`
}

// RPCError is a JSON-RPC error object.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// ContractParam is a typed parameter for a contract invocation.
type ContractParam struct {
	Type  string `json:"type"`
	Value any    `json:"value"`
}

// Param helpers for the parameter types the game contract uses.

func StringParam(v string) ContractParam {
	return ContractParam{Type: "String", Value: v}
}

func IntParam(v int64) ContractParam {
	return ContractParam{Type: "Integer", Value: strconv.FormatInt(v, 10)}
}

func Hash160Param(v string) ContractParam {
	return ContractParam{Type: "Hash160", Value: v}
}

// StackItem is one item on the VM result stack.
type StackItem struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`
}

// Int decodes an Integer stack item.
func (si StackItem) Int() (int64, error) {
	var raw string
	if err := json.Unmarshal(si.Value, &raw); err != nil {
		return 0, fmt.Errorf("decode integer stack item: %w", err)
	}
	return strconv.ParseInt(raw, 10, 64)
}

// Bytes decodes a ByteString stack item.
func (si StackItem) Bytes() ([]byte, error) {
	var raw string
	if err := json.Unmarshal(si.Value, &raw); err != nil {
		return nil, fmt.Errorf("decode bytestring stack item: %w", err)
	}
	return base64.StdEncoding.DecodeString(raw)
}

// String decodes a ByteString stack item as UTF-8 text.
func (si StackItem) String() (string, error) {
	b, err := si.Bytes()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Bool decodes a Boolean stack item.
func (si StackItem) Bool() (bool, error) {
	var v bool
	if err := json.Unmarshal(si.Value, &v); err != nil {
		return false, fmt.Errorf("decode boolean stack item: %w", err)
	}
	return v, nil
}

// Items decodes an Array or Struct stack item.
func (si StackItem) Items() ([]StackItem, error) {
	var items []StackItem
	if err := json.Unmarshal(si.Value, &items); err != nil {
		return nil, fmt.Errorf("decode struct stack item: %w", err)
	}
	return items, nil
}

// InvokeResult is the outcome of a contract invocation.
type InvokeResult struct {
	Script      string      `json:"script"`
	State       string      `json:"state"`
	GasConsumed string      `json:"gasconsumed"`
	Exception   string      `json:"exception"`
	Stack       []StackItem `json:"stack"`
	Tx          string      `json:"tx"`
}
