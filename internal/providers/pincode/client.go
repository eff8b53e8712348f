package pincode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"voicecomplaint/internal/domain"
	"voicecomplaint/internal/ports"
)

const defaultBaseURL = "https://api.postalpincode.in"

// Config controls the postal pincode API client.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client resolves Indian postal codes to their locality.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

var _ ports.AddressResolver = (*Client)(nil)

type lookupResult struct {
	Status     string       `json:"Status"`
	Message    string       `json:"Message"`
	PostOffice []postOffice `json:"PostOffice"`
}

type postOffice struct {
	Name     string `json:"Name"`
	District string `json:"District"`
	State    string `json:"State"`
}

// Resolve returns the locality of the first post office for pincode.
func (c *Client) Resolve(ctx context.Context, pincode string) (domain.Address, error) {
	if !valid(pincode) {
		return domain.Address{}, domain.ErrAddressNotFound
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/pincode/"+pincode, nil)
	if err != nil {
		return domain.Address{}, fmt.Errorf("failed to build pincode request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Address{}, fmt.Errorf("pincode request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.Address{}, fmt.Errorf("pincode service returned %d", resp.StatusCode)
	}

	var results []lookupResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return domain.Address{}, fmt.Errorf("failed to decode pincode response: %w", err)
	}
	if len(results) == 0 || results[0].Status != "Success" || len(results[0].PostOffice) == 0 {
		if len(results) > 0 {
			log.Debug().Str("pincode", pincode).Str("message", results[0].Message).Msg("Pincode not found")
		}
		return domain.Address{}, domain.ErrAddressNotFound
	}

	office := results[0].PostOffice[0]
	return domain.Address{
		City:     office.Name,
		District: office.District,
		State:    office.State,
	}, nil
}

func valid(pincode string) bool {
	if len(pincode) != 6 {
		return false
	}
	for _, r := range pincode {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
