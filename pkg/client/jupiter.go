package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultJupiterURL is the v6 quote/swap API root
	DefaultJupiterURL = "https://quote-api.jup.ag/v6"
	// DefaultPriceURL is the token price endpoint
	DefaultPriceURL = "https://price.jup.ag/v4/price"
)

// JupiterClient talks to the Jupiter aggregator HTTP API
type JupiterClient struct {
	baseURL  string
	priceURL string
	http     *http.Client
}

// QuoteParams describes a quote request. Amount is in base units of the input mint.
type QuoteParams struct {
	InputMint   string
	OutputMint  string
	Amount      string
	SlippageBps int
}

// JupiterQuote is a decoded quote. The raw response is kept because the
// swap endpoint expects it back unchanged.
type JupiterQuote struct {
	InputMint            string      `json:"inputMint"`
	OutputMint           string      `json:"outputMint"`
	InAmount             string      `json:"inAmount"`
	OutAmount            string      `json:"outAmount"`
	OtherAmountThreshold string      `json:"otherAmountThreshold"`
	SlippageBps          int         `json:"slippageBps"`
	PriceImpactPct       json.Number `json:"priceImpactPct"`

	raw json.RawMessage
}

// Raw returns the response body the quote was decoded from
func (q *JupiterQuote) Raw() json.RawMessage { return q.raw }

// NewJupiterClient creates a new aggregator client. Empty URLs fall back to
// the public endpoints.
func NewJupiterClient(baseURL, priceURL string, timeout time.Duration) *JupiterClient {
	if baseURL == "" {
		baseURL = DefaultJupiterURL
	}
	if priceURL == "" {
		priceURL = DefaultPriceURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &JupiterClient{
		baseURL:  strings.TrimRight(baseURL, "/"),
		priceURL: priceURL,
		http:     &http.Client{Timeout: timeout},
	}
}

// GetQuote requests the best route for swapping Amount of InputMint
func (c *JupiterClient) GetQuote(ctx context.Context, p QuoteParams) (*JupiterQuote, error) {
	q := url.Values{}
	q.Set("inputMint", p.InputMint)
	q.Set("outputMint", p.OutputMint)
	q.Set("amount", p.Amount)
	q.Set("slippageBps", strconv.Itoa(p.SlippageBps))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/quote?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build quote request: %w", err)
	}
	body, err := c.do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to get quote: %w", err)
	}

	var out JupiterQuote
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to decode quote: %w", err)
	}
	if out.OutAmount == "" {
		return nil, fmt.Errorf("quote response has no output amount")
	}
	out.raw = body
	return &out, nil
}

type swapRequest struct {
	QuoteResponse    json.RawMessage `json:"quoteResponse"`
	UserPublicKey    string          `json:"userPublicKey"`
	WrapAndUnwrapSol bool            `json:"wrapAndUnwrapSol"`
}

// BuildSwapTransaction asks the aggregator for a serialized, unsigned swap
// transaction for quote. The result is base64 encoded.
func (c *JupiterClient) BuildSwapTransaction(ctx context.Context, quote *JupiterQuote, userPublicKey string) (string, error) {
	raw := quote.Raw()
	if raw == nil {
		var err error
		if raw, err = json.Marshal(quote); err != nil {
			return "", fmt.Errorf("failed to encode quote: %w", err)
		}
	}
	payload, err := json.Marshal(swapRequest{
		QuoteResponse:    raw,
		UserPublicKey:    userPublicKey,
		WrapAndUnwrapSol: true,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode swap request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/swap", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to build swap request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	body, err := c.do(req)
	if err != nil {
		return "", fmt.Errorf("failed to build swap transaction: %w", err)
	}
	var sr struct {
		SwapTransaction string `json:"swapTransaction"`
	}
	if err := json.Unmarshal(body, &sr); err != nil {
		return "", fmt.Errorf("failed to decode swap response: %w", err)
	}
	if sr.SwapTransaction == "" {
		return "", fmt.Errorf("swap response has no transaction")
	}
	return sr.SwapTransaction, nil
}

// GetPrice returns the USD price of a mint as a decimal string
func (c *JupiterClient) GetPrice(ctx context.Context, mint string) (string, error) {
	u := c.priceURL + "?" + url.Values{"ids": {mint}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build price request: %w", err)
	}
	body, err := c.do(req)
	if err != nil {
		return "", fmt.Errorf("failed to get price: %w", err)
	}

	var pr struct {
		Data map[string]struct {
			Price json.Number `json:"price"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &pr); err != nil {
		return "", fmt.Errorf("failed to decode price: %w", err)
	}
	entry, ok := pr.Data[mint]
	if !ok || entry.Price == "" {
		return "", fmt.Errorf("no price for %s", mint)
	}
	return entry.Price.String(), nil
}

func (c *JupiterClient) do(req *http.Request) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status code %d: %s", resp.StatusCode, apiMessage(body))
	}
	return body, nil
}

// apiMessage extracts the error text from an aggregator error body
func apiMessage(body []byte) string {
	var e struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &e) == nil {
		if e.Error != "" {
			return e.Error
		}
		if e.Message != "" {
			return e.Message
		}
	}
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}
