package safe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/s4rv4d/kobe-dashboard/internal/domain"
)

const testAddress = "0x1234567890123456789012345678901234567890"

func TestGetBalancesMapsWireShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("trusted") != "true" {
			t.Errorf("missing trusted=true, got %s", r.URL.RawQuery)
		}
		w.Write([]byte(`[
			{"tokenAddress": null, "token": null, "balance": "2000000000000000000"},
			{"tokenAddress": "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48",
			 "token": {"name": "USD Coin", "symbol": "USDC", "decimals": 6, "logoUri": "https://logo"},
			 "balance": "1500000"},
			{"tokenAddress": "0xdeadbeefdeadbeefdeadbeefdeadbeefdeadbeef",
			 "token": {"name": "Mystery", "symbol": "MYS", "decimals": 0, "logoUri": ""},
			 "balance": "7"}
		]`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 0, time.Millisecond)
	balances, err := client.GetBalances(context.Background(), testAddress)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(balances) != 3 {
		t.Fatalf("len = %d, want 3", len(balances))
	}

	eth := balances[0]
	if eth.Address != domain.NativeAssetAddress {
		t.Errorf("native address = %q, want sentinel", eth.Address)
	}
	if eth.Symbol != "ETH" || eth.Name != "Ethereum" || eth.Decimals != 18 {
		t.Errorf("native metadata = %+v", eth)
	}
	if eth.RawBalance != "2000000000000000000" {
		t.Errorf("native balance = %q", eth.RawBalance)
	}

	usdc := balances[1]
	if usdc.Symbol != "USDC" || usdc.Decimals != 6 {
		t.Errorf("usdc = %+v", usdc)
	}

	// Decimals missing from metadata default to 18.
	if balances[2].Decimals != 18 {
		t.Errorf("zero decimals = %d, want defaulted 18", balances[2].Decimals)
	}
}

func TestGetCollectiblesMapsWireShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"address": "0xabc0000000000000000000000000000000000abc",
			 "tokenName": "Cool Cats", "tokenSymbol": "COOL",
			 "id": "42", "name": "Cool Cat #42", "description": "a cat", "imageUri": "https://img"},
			{"address": "0xdef0000000000000000000000000000000000def",
			 "tokenName": "Blanks", "tokenSymbol": "BLANK",
			 "id": "7", "name": "", "description": "", "imageUri": ""}
		]`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 0, time.Millisecond)
	nfts, err := client.GetCollectibles(context.Background(), testAddress)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(nfts) != 2 {
		t.Fatalf("len = %d, want 2", len(nfts))
	}
	if nfts[0].Name != "Cool Cat #42" || nfts[0].Collection.Slug != "cool" {
		t.Errorf("nfts[0] = %+v", nfts[0])
	}
	// Unnamed NFTs fall back to #id.
	if nfts[1].Name != "#7" {
		t.Errorf("nfts[1].Name = %q, want #7", nfts[1].Name)
	}
}

func TestGetInfo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"address": "` + testAddress + `", "nonce": 12, "threshold": 2,
			"owners": ["0xaaa0000000000000000000000000000000000aaa"]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 0, time.Millisecond)
	info, err := client.GetInfo(context.Background(), testAddress)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.Threshold != 2 || info.Nonce != 12 || info.ChainID != 1 {
		t.Errorf("info = %+v", info)
	}
}

func TestRetryOn429(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 2, time.Millisecond)
	if _, err := client.GetBalances(context.Background(), testAddress); err != nil {
		t.Fatalf("unexpected error after retry: %v", err)
	}
	if attempts != 2 {
		t.Errorf("attempts = %d, want 2", attempts)
	}
}

func TestNonSuccessStatusFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 2, time.Millisecond)
	if _, err := client.GetBalances(context.Background(), testAddress); err == nil {
		t.Fatal("expected error on 502")
	}
}
