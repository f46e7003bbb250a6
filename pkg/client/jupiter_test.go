package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const quoteBody = `{"inputMint":"So11111111111111111111111111111111111111112","outputMint":"EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v","inAmount":"1000000000","outAmount":"150250000","otherAmountThreshold":"149498750","slippageBps":50,"priceImpactPct":"0.0012","routePlan":[{"percent":100}]}`

func TestGetQuote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v6/quote", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "So11111111111111111111111111111111111111112", q.Get("inputMint"))
		assert.Equal(t, "1000000000", q.Get("amount"))
		assert.Equal(t, "50", q.Get("slippageBps"))
		_, _ = io.WriteString(w, quoteBody)
	}))
	defer srv.Close()

	c := NewJupiterClient(srv.URL+"/v6/", "", time.Second)
	quote, err := c.GetQuote(context.Background(), QuoteParams{
		InputMint:   "So11111111111111111111111111111111111111112",
		OutputMint:  "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v",
		Amount:      "1000000000",
		SlippageBps: 50,
	})
	require.NoError(t, err)
	assert.Equal(t, "150250000", quote.OutAmount)
	assert.Equal(t, "0.0012", quote.PriceImpactPct.String())
	assert.JSONEq(t, quoteBody, string(quote.Raw()))
}

func TestGetQuoteNumericImpact(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"outAmount":"5","priceImpactPct":0.25}`)
	}))
	defer srv.Close()

	quote, err := NewJupiterClient(srv.URL, "", time.Second).GetQuote(context.Background(), QuoteParams{Amount: "1"})
	require.NoError(t, err)
	assert.Equal(t, "0.25", quote.PriceImpactPct.String())
}

func TestGetQuoteAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":"Could not find any route"}`)
	}))
	defer srv.Close()

	_, err := NewJupiterClient(srv.URL, "", time.Second).GetQuote(context.Background(), QuoteParams{Amount: "1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
	assert.Contains(t, err.Error(), "Could not find any route")
}

func TestBuildSwapTransactionEchoesQuote(t *testing.T) {
	var got map[string]json.RawMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/quote":
			_, _ = io.WriteString(w, quoteBody)
		case "/swap":
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			_, _ = io.WriteString(w, `{"swapTransaction":"AQID","lastValidBlockHeight":1}`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	c := NewJupiterClient(srv.URL, "", time.Second)
	quote, err := c.GetQuote(context.Background(), QuoteParams{Amount: "1"})
	require.NoError(t, err)

	tx, err := c.BuildSwapTransaction(context.Background(), quote, "owner111")
	require.NoError(t, err)
	assert.Equal(t, "AQID", tx)

	assert.JSONEq(t, quoteBody, string(got["quoteResponse"]))
	assert.JSONEq(t, `"owner111"`, string(got["userPublicKey"]))
	assert.JSONEq(t, `true`, string(got["wrapAndUnwrapSol"]))
}

func TestGetPrice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("ids") != "RAY" {
			_, _ = io.WriteString(w, `{"data":{}}`)
			return
		}
		_, _ = io.WriteString(w, `{"data":{"RAY":{"id":"RAY","price":1.8342}},"timeTaken":0.001}`)
	}))
	defer srv.Close()

	c := NewJupiterClient("", srv.URL, time.Second)
	price, err := c.GetPrice(context.Background(), "RAY")
	require.NoError(t, err)
	assert.Equal(t, "1.8342", price)

	_, err = c.GetPrice(context.Background(), "missing")
	assert.Error(t, err)
}
