package metadata

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrTokenMetadataNotFound = errors.New("metadata: token metadata not found")

// ContractMetadata describes the asset collection as a whole.
type ContractMetadata struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals int    `json:"decimals,omitempty"`
	Icon     string `json:"icon,omitempty"`
	BaseURI  string `json:"base_uri,omitempty"`
}

func (m ContractMetadata) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return fmt.Errorf("metadata: contract name is required")
	}
	if strings.TrimSpace(m.Symbol) == "" {
		return fmt.Errorf("metadata: contract symbol is required")
	}
	if m.Decimals < 0 {
		return fmt.Errorf("metadata: decimals must not be negative")
	}
	return nil
}

// TokenMetadata describes one token. All fields except TokenID are
// optional.
type TokenMetadata struct {
	TokenID     string            `json:"token_id"`
	Title       string            `json:"title,omitempty"`
	Description string            `json:"description,omitempty"`
	MediaURI    string            `json:"media_uri,omitempty"`
	Copies      int               `json:"copies,omitempty"`
	Extra       map[string]string `json:"extra,omitempty"`
	IssuedAt    time.Time         `json:"issued_at,omitzero"`
	UpdatedAt   time.Time         `json:"updated_at,omitzero"`
}

func (m TokenMetadata) Validate() error {
	if strings.TrimSpace(m.TokenID) == "" {
		return fmt.Errorf("metadata: token id is required")
	}
	return nil
}
