// Package addresslookup resolves Brazilian postal codes (CEP) against a
// ViaCEP-compatible HTTP endpoint.
package addresslookup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode"
)

var (
	// ErrInvalidPostalCode is returned when the input does not contain exactly eight digits.
	ErrInvalidPostalCode = errors.New("postal code must have 8 digits")
	// ErrNotFound is returned when the upstream reports an unknown postal code.
	ErrNotFound = errors.New("postal code not found")
	// ErrUnavailable wraps transport failures and upstream 5xx responses.
	ErrUnavailable = errors.New("address lookup unavailable")
)

// Address is a resolved postal address.
type Address struct {
	PostalCode   string `json:"postal_code"`
	Street       string `json:"street"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city"`
	State        string `json:"state"`
}

type viaCEPResponse struct {
	CEP        string      `json:"cep"`
	Logradouro string      `json:"logradouro"`
	Bairro     string      `json:"bairro"`
	Localidade string      `json:"localidade"`
	UF         string      `json:"uf"`
	Erro       interface{} `json:"erro"`
}

// Client performs postal code lookups.
type Client struct {
	baseURL string
	http    *http.Client
}

// New builds a client. A zero timeout defaults to five seconds.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// NormalizePostalCode strips every non-digit and checks the result has eight digits.
func NormalizePostalCode(raw string) (string, error) {
	var b strings.Builder
	for _, r := range raw {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) != 8 {
		return "", ErrInvalidPostalCode
	}
	return digits, nil
}

// Lookup resolves the postal code to an address.
func (c *Client) Lookup(ctx context.Context, postalCode string) (*Address, error) {
	cep, err := NormalizePostalCode(postalCode)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/%s/json/", c.baseURL, cep)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build lookup request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode >= http.StatusInternalServerError:
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("unexpected lookup status %d", resp.StatusCode)
	}

	var payload viaCEPResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode lookup response: %w", err)
	}
	if isErro(payload.Erro) {
		return nil, ErrNotFound
	}

	return &Address{
		PostalCode:   cep,
		Street:       payload.Logradouro,
		Neighborhood: payload.Bairro,
		City:         payload.Localidade,
		State:        payload.UF,
	}, nil
}

// the upstream has sent both `"erro": true` and `"erro": "true"`
func isErro(v interface{}) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return strings.EqualFold(t, "true")
	default:
		return false
	}
}
