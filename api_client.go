package seaswap

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// APIClient handles HTTP requests to the marketplace order-book API. The
// core only consumes it; persistence and search live behind it.
type APIClient struct {
	host    string
	apiKey  string
	chainID ChainID
	client  *http.Client
}

// NewAPIClient creates a new order-book API client.
func NewAPIClient(host, apiKey string, chainID ChainID) *APIClient {
	return &APIClient{
		host:    host,
		apiKey:  apiKey,
		chainID: chainID,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *APIClient) doRequest(method, endpoint string, body interface{}) (*http.Response, error) {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	url := fmt.Sprintf("%s%s", c.host, endpoint)
	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	return resp, nil
}

func (c *APIClient) decodeJSONResponse(resp *http.Response, result interface{}) error {
	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		bodyStr := string(bodyBytes)
		if bodyStr == "" {
			bodyStr = resp.Status
		}
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, bodyStr)
	}

	if err := json.Unmarshal(bodyBytes, result); err != nil {
		bodyStr := string(bodyBytes)
		if len(bodyStr) > 200 {
			bodyStr = bodyStr[:200] + "..."
		}
		return fmt.Errorf("failed to decode JSON response: %w (body: %s)", err, bodyStr)
	}

	return nil
}

// GetAsset fetches the marketplace's metadata for one asset, including its
// collection fee schedule and transfer-fee info.
func (c *APIClient) GetAsset(tokenAddress, tokenID string) (*AssetMetadata, error) {
	endpoint := fmt.Sprintf("/asset/%s/%s?chain_id=%d", tokenAddress, tokenID, c.chainID)
	resp, err := c.doRequest("GET", endpoint, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var result GetAssetResponse
	if err := c.decodeJSONResponse(resp, &result); err != nil {
		return nil, err
	}
	if result.Code != 0 {
		return nil, fmt.Errorf("API error: %s", result.Msg)
	}
	return &result.Result, nil
}

// GetPaymentTokens fetches the accepted payment tokens, optionally filtered
// by symbol.
func (c *APIClient) GetPaymentTokens(symbol string) ([]Token, error) {
	endpoint := fmt.Sprintf("/payment-tokens?chain_id=%d", c.chainID)
	if symbol != "" {
		endpoint += "&symbol=" + symbol
	}
	resp, err := c.doRequest("GET", endpoint, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var result GetPaymentTokensResponse
	if err := c.decodeJSONResponse(resp, &result); err != nil {
		return nil, err
	}
	if result.Code != 0 {
		return nil, fmt.Errorf("API error: %s", result.Msg)
	}
	return result.Result.List, nil
}

// PostOrderRequest is the wire form of a signed order being persisted.
type PostOrderRequest struct {
	Exchange           string `json:"exchange"`
	Maker              string `json:"maker"`
	Taker              string `json:"taker"`
	MakerRelayerFee    string `json:"maker_relayer_fee"`
	TakerRelayerFee    string `json:"taker_relayer_fee"`
	MakerProtocolFee   string `json:"maker_protocol_fee"`
	TakerProtocolFee   string `json:"taker_protocol_fee"`
	FeeRecipient       string `json:"fee_recipient"`
	FeeMethod          int    `json:"fee_method"`
	Side               int    `json:"side"`
	SaleKind           int    `json:"sale_kind"`
	Target             string `json:"target"`
	HowToCall          int    `json:"how_to_call"`
	Calldata           string `json:"calldata"`
	ReplacementPattern string `json:"replacement_pattern"`
	StaticTarget       string `json:"static_target"`
	StaticExtradata    string `json:"static_extradata"`
	PaymentToken       string `json:"payment_token"`
	BasePrice          string `json:"base_price"`
	Extra              string `json:"extra"`
	ListingTime        int64  `json:"listing_time"`
	ExpirationTime     int64  `json:"expiration_time"`
	Salt               string `json:"salt"`
	V                  int    `json:"v"`
	R                  string `json:"r"`
	S                  string `json:"s"`
	Hash               string `json:"hash"`
}

// PostOrder persists a signed order to the order book.
func (c *APIClient) PostOrder(req *PostOrderRequest) (*PersistedOrder, error) {
	resp, err := c.doRequest("POST", "/orders", req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var result PostOrderResponse
	if err := c.decodeJSONResponse(resp, &result); err != nil {
		return nil, err
	}
	if result.Code != 0 {
		return nil, fmt.Errorf("API error: %s", result.Msg)
	}
	return &result.Result, nil
}

// GetOrder fetches one persisted order by hash.
func (c *APIClient) GetOrder(hash string) (*PersistedOrder, error) {
	endpoint := fmt.Sprintf("/orders/%s?chain_id=%d", hash, c.chainID)
	resp, err := c.doRequest("GET", endpoint, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var result GetOrderResponse
	if err := c.decodeJSONResponse(resp, &result); err != nil {
		return nil, err
	}
	if result.Code != 0 {
		return nil, fmt.Errorf("API error: %s", result.Msg)
	}
	return &result.Result, nil
}
