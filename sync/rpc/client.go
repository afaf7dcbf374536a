package rpc

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/jexdex/aggregator-engine/domain"
)

// GatewayClient implements domain.RPCClient against a MultiversX-style
// gateway's /vm-values/query REST endpoint, grounded on
// opendex_aggregator_api/services/externals.py's sync_sc_query /
// _prepare_query / _decode_json. Unlike the Python reference, return data is
// kept as decoded bytes rather than re-encoded to a hex string: every
// downstream parser in this package already consumes raw bytes, so the
// extra hex round-trip would be pure overhead.
type GatewayClient struct {
	baseURL string
	http    *http.Client
}

// NewGatewayClient returns a client against baseURL (the gateway's scheme +
// host, no trailing slash), using a bounded-timeout *http.Client — no
// third-party REST client in the retrieved corpus covers this transport, so
// net/http is used directly here.
func NewGatewayClient(baseURL string) *GatewayClient {
	return &GatewayClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

type vmQueryRequest struct {
	ScAddress string   `json:"scAddress"`
	FuncName  string   `json:"funcName"`
	Value     string   `json:"value"`
	Args      []string `json:"args"`
}

type vmQueryResponse struct {
	Code string `json:"code"`
	Data struct {
		Data struct {
			ReturnData []string `json:"returnData"`
		} `json:"data"`
	} `json:"data"`
}

// ScQuery implements domain.RPCClient. args are the raw bytes of each
// smart-contract call argument (callers build these with serialize/route.go
// or ad-hoc per-venue encoders); each is base64-encoded for the gateway.
func (c *GatewayClient) ScQuery(ctx context.Context, scAddress, function string, args [][]byte) ([][]byte, error) {
	encodedArgs := make([]string, len(args))
	for i, a := range args {
		encodedArgs[i] = base64.StdEncoding.EncodeToString(a)
	}

	body, err := json.Marshal(vmQueryRequest{
		ScAddress: scAddress,
		FuncName:  function,
		Value:     "0",
		Args:      encodedArgs,
	})
	if err != nil {
		return nil, domain.ExternalFailureError{Collaborator: "gateway", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/vm-values/query", bytes.NewReader(body))
	if err != nil {
		return nil, domain.ExternalFailureError{Collaborator: "gateway", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, domain.ExternalFailureError{Collaborator: "gateway", Err: err}
	}
	defer resp.Body.Close()

	var parsed vmQueryResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, domain.ExternalFailureError{Collaborator: "gateway", Err: err}
	}
	if parsed.Code != "successful" {
		return nil, domain.ExternalFailureError{Collaborator: "gateway", Err: fmt.Errorf("rpc: query %s::%s failed: code=%s", scAddress, function, parsed.Code)}
	}

	out := make([][]byte, len(parsed.Data.Data.ReturnData))
	for i, b64 := range parsed.Data.Data.ReturnData {
		decoded, err := base64.StdEncoding.DecodeString(b64)
		if err != nil {
			return nil, domain.ExternalFailureError{Collaborator: "gateway", Err: err}
		}
		out[i] = decoded
	}
	return out, nil
}

// NopClient is a domain.RPCClient test double / NO_TASKS placeholder that
// answers every query with no results, never touching the network.
type NopClient struct{}

func (NopClient) ScQuery(ctx context.Context, scAddress, function string, args [][]byte) ([][]byte, error) {
	return nil, nil
}
