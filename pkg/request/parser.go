// Package request implements the relay-request URI format.
//
// A relay request describes the follow-up calls of an invocation as a plain
// string, so wallets and relayer tooling can pass them around in links, QR
// codes, and config files without shipping binary blobs.
//
// URI format:
//
//	relayadapt:<target>?value=<wei>&data=<hex>&nonce=<hex>&require=true&mingas=<n>
//
// Multiple calls use indexed parameters:
//
//	relayadapt:?to.0=<addr>&value.0=1&to.1=<addr>&data.1=<hex>
//
// Indices run 0-9999; index 0 may be written without the suffix. The call
// order in the produced ActionData is index order, which is the order the
// commitment fixes.
package request

import (
	"encoding/hex"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/holiman/uint256"

	"github.com/suffix-labs/relay-adapt/pkg/adapt"
)

// Scheme prefixes every relay-request URI.
const Scheme = "relayadapt:"

const maxIndex = 9999

// Parse parses a relay-request URI into ActionData.
//
// Example:
//
//	ad, err := request.Parse("relayadapt:0xdead...beef?value=100&require=true")
func Parse(uri string) (*adapt.ActionData, error) {
	uri = strings.TrimPrefix(uri, Scheme)

	parts := strings.SplitN(uri, "?", 2)

	var baseTarget string
	var query string
	if len(parts) == 2 {
		baseTarget = parts[0]
		query = parts[1]
	} else if strings.Contains(parts[0], "=") {
		query = parts[0]
	} else {
		baseTarget = parts[0]
	}

	params, err := url.ParseQuery(query)
	if err != nil {
		return nil, fmt.Errorf("failed to parse query: %w", err)
	}

	actionData := &adapt.ActionData{Nonce: uint256.NewInt(0)}

	if nonceStr := params.Get("nonce"); nonceStr != "" {
		nonce, err := parseWord(nonceStr)
		if err != nil {
			return nil, fmt.Errorf("invalid nonce: %w", err)
		}
		actionData.Nonce = nonce
	}
	if requireStr := params.Get("require"); requireStr != "" {
		require, err := strconv.ParseBool(requireStr)
		if err != nil {
			return nil, fmt.Errorf("invalid require flag: %w", err)
		}
		actionData.RequireSuccess = require
	}
	if minGasStr := params.Get("mingas"); minGasStr != "" {
		minGas, err := strconv.ParseUint(minGasStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid mingas: %w", err)
		}
		actionData.MinGas = minGas
	}

	if hasIndexedParams(params) {
		actionData.Calls, err = parseIndexedCalls(params)
		if err != nil {
			return nil, err
		}
	} else if baseTarget != "" || params.Get("to") != "" {
		call, err := parseSingleCall(baseTarget, params)
		if err != nil {
			return nil, err
		}
		actionData.Calls = []adapt.Call{*call}
	}

	if err := actionData.Validate(); err != nil {
		return nil, err
	}
	return actionData, nil
}

func parseSingleCall(target string, params url.Values) (*adapt.Call, error) {
	if to := params.Get("to"); to != "" {
		target = to
	}
	return buildCall(target, params.Get("value"), params.Get("data"))
}

func parseIndexedCalls(params url.Values) ([]adapt.Call, error) {
	indices := make(map[int]bool)
	for key := range params {
		if idx := extractIndex(key); idx >= 0 {
			indices[idx] = true
		}
	}

	calls := make(map[int]adapt.Call)
	for idx := range indices {
		target := getIndexedParam(params, "to", idx)
		if target == "" {
			return nil, fmt.Errorf("call %d missing target", idx)
		}
		call, err := buildCall(target,
			getIndexedParam(params, "value", idx),
			getIndexedParam(params, "data", idx))
		if err != nil {
			return nil, fmt.Errorf("call %d: %w", idx, err)
		}
		calls[idx] = *call
	}

	// Index order is call order.
	result := make([]adapt.Call, 0, len(calls))
	for i := 0; i <= maxIndex; i++ {
		if call, exists := calls[i]; exists {
			result = append(result, call)
		}
	}
	return result, nil
}

func buildCall(target, valueStr, dataStr string) (*adapt.Call, error) {
	if target == "" {
		return nil, fmt.Errorf("missing target")
	}
	call := &adapt.Call{
		To:    adapt.HexToAddress(target),
		Value: uint256.NewInt(0),
	}
	if call.To.IsZero() && strings.Trim(strings.TrimPrefix(target, "0x"), "0") != "" {
		return nil, fmt.Errorf("invalid target address %q", target)
	}

	if valueStr != "" {
		value, err := parseWord(valueStr)
		if err != nil {
			return nil, fmt.Errorf("invalid value: %w", err)
		}
		call.Value = value
	}
	if dataStr != "" {
		data, err := hex.DecodeString(strings.TrimPrefix(dataStr, "0x"))
		if err != nil {
			return nil, fmt.Errorf("invalid data: %w", err)
		}
		call.Data = data
	}
	return call, nil
}

// parseWord parses a decimal or 0x-hex 256-bit value.
func parseWord(s string) (*uint256.Int, error) {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		h := s[2:]
		if len(h)%2 == 1 {
			h = "0" + h
		}
		b, err := hex.DecodeString(h)
		if err != nil {
			return nil, err
		}
		if len(b) > 32 {
			return nil, fmt.Errorf("value exceeds 256 bits")
		}
		return new(uint256.Int).SetBytes(b), nil
	}
	return uint256.FromDecimal(s)
}

func hasIndexedParams(params url.Values) bool {
	for key := range params {
		if strings.Contains(key, ".") {
			return true
		}
	}
	return false
}

// extractIndex extracts the index from "name.N"; -1 when absent or out of
// range.
func extractIndex(paramName string) int {
	parts := strings.Split(paramName, ".")
	if len(parts) != 2 {
		return -1
	}
	idx, err := strconv.Atoi(parts[1])
	if err != nil || idx < 0 || idx > maxIndex {
		return -1
	}
	return idx
}

// getIndexedParam gets a parameter for an index; index 0 may omit the
// suffix.
func getIndexedParam(params url.Values, name string, index int) string {
	if index == 0 {
		if val := params.Get(name); val != "" {
			return val
		}
	}
	return params.Get(fmt.Sprintf("%s.%d", name, index))
}

// Encode creates a relay-request URI from ActionData. Inverse of Parse for
// the fields the URI format carries.
func Encode(actionData *adapt.ActionData) string {
	params := url.Values{}

	if actionData.Nonce != nil && !actionData.Nonce.IsZero() {
		params.Add("nonce", actionData.Nonce.Hex())
	}
	if actionData.RequireSuccess {
		params.Add("require", "true")
	}
	if actionData.MinGas > 0 {
		params.Add("mingas", strconv.FormatUint(actionData.MinGas, 10))
	}

	if len(actionData.Calls) == 1 {
		call := &actionData.Calls[0]
		uri := Scheme + call.To.Hex()
		if !call.CallValue().IsZero() {
			params.Add("value", call.CallValue().Dec())
		}
		if len(call.Data) > 0 {
			params.Add("data", hex.EncodeToString(call.Data))
		}
		if len(params) > 0 {
			return uri + "?" + params.Encode()
		}
		return uri
	}

	for i := range actionData.Calls {
		call := &actionData.Calls[i]
		idx := fmt.Sprintf(".%d", i)
		params.Add("to"+idx, call.To.Hex())
		if !call.CallValue().IsZero() {
			params.Add("value"+idx, call.CallValue().Dec())
		}
		if len(call.Data) > 0 {
			params.Add("data"+idx, hex.EncodeToString(call.Data))
		}
	}
	return Scheme + "?" + params.Encode()
}
