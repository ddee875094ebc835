package domain

import (
	"errors"
	"regexp"
	"strings"
)

// NativeAssetAddress is the sentinel contract address for the chain's
// native asset (ETH).
const NativeAssetAddress = "0x0000000000000000000000000000000000000000"

// ErrInvalidAddress indicates a malformed Ethereum address.
var ErrInvalidAddress = errors.New("invalid ethereum address")

var addressPattern = regexp.MustCompile(`^0x[a-fA-F0-9]{40}$`)

// ValidateAddress checks the canonical Ethereum address format.
func ValidateAddress(address string) error {
	if !addressPattern.MatchString(address) {
		return ErrInvalidAddress
	}
	return nil
}

// IsNativeAsset reports whether the address is the native-asset sentinel.
func IsNativeAsset(address string) bool {
	return strings.EqualFold(address, NativeAssetAddress)
}

// AssetBalance is one fungible asset held by the vault. RawBalance is an
// arbitrary-precision integer in the asset's smallest unit, as a decimal
// string.
type AssetBalance struct {
	Address    string `json:"address"`
	Name       string `json:"name"`
	Symbol     string `json:"symbol"`
	Decimals   int32  `json:"decimals"`
	LogoURL    string `json:"logoUrl,omitempty"`
	RawBalance string `json:"balance"`
}

// PricedAsset is an AssetBalance enriched with a USD valuation.
type PricedAsset struct {
	Address          string  `json:"address"`
	Name             string  `json:"name"`
	Symbol           string  `json:"symbol"`
	Decimals         int32   `json:"decimals"`
	LogoURL          string  `json:"logoUrl,omitempty"`
	RawBalance       string  `json:"balance"`
	BalanceFormatted float64 `json:"balanceFormatted"`
	PriceUsd         float64 `json:"priceUsd"`
	ValueUsd         float64 `json:"valueUsd"`
	Percentage       float64 `json:"percentage"`
}

// NftCollection identifies the collection an NFT belongs to.
type NftCollection struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// NftItem is one collectible held by the vault.
type NftItem struct {
	ContractAddress string        `json:"contractAddress"`
	TokenID         string        `json:"tokenId"`
	Name            string        `json:"name"`
	Description     string        `json:"description,omitempty"`
	ImageURL        string        `json:"imageUrl,omitempty"`
	Collection      NftCollection `json:"collection"`
}
