// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package hmrcfx provides a client for fetching HMRC monthly exchange rates.
//
// HMRC publishes one XML file per month listing, for each currency, the
// number of currency units per GBP. The published rate is used directly as
// a divisor when converting foreign amounts to GBP. The files are free and
// do not require authentication.
//
// See https://www.trade-tariff.service.gov.uk/exchange_rates for the service.
package hmrcfx

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/velikodniy/cgt-tool/internal/pkg/backoff"
)

// baseURL is the HMRC exchange-rate file base URL.
const baseURL = "https://www.trade-tariff.service.gov.uk/api/v2/exchange_rates/files"

// maxAttempts is the number of download attempts for transient failures.
const maxAttempts = 4

// Client is the interface for fetching HMRC monthly exchange rates.
type Client interface {
	// GetMonthlyRates fetches the rates for a month, keyed by uppercase
	// ISO 4217 currency code. Rates are divisors: foreign / rate = GBP.
	GetMonthlyRates(ctx context.Context, year int, month time.Month) (map[string]decimal.Decimal, error)
}

// ClientOption is a functional option for configuring the Client.
type ClientOption func(*client)

// ClientWithHTTPClient sets the HTTP client to use for requests.
func ClientWithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *client) {
		c.httpClient = httpClient
	}
}

// NewClient creates a new HMRC exchange-rate client with the given options.
func NewClient(options ...ClientOption) Client {
	c := &client{
		httpClient: http.DefaultClient,
	}
	for _, option := range options {
		option(c)
	}
	return c
}

type client struct {
	httpClient *http.Client
}

func (c *client) GetMonthlyRates(ctx context.Context, year int, month time.Month) (map[string]decimal.Decimal, error) {
	// Build the request URL for the monthly XML file.
	reqURL := fmt.Sprintf("%s/monthly_xml_%04d-%02d.xml", baseURL, year, int(month))
	// Retry transient failures with exponential backoff.
	body, err := backoff.Retry(ctx, maxAttempts, time.Second, 10*time.Second,
		func(ctx context.Context, _ int) ([]byte, bool, error) {
			return c.get(ctx, reqURL)
		},
	)
	if err != nil {
		return nil, err
	}
	var rateList monthListXML
	if err := xml.Unmarshal(body, &rateList); err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}
	rates := make(map[string]decimal.Decimal, len(rateList.Rates))
	for _, rate := range rateList.Rates {
		if rate.CurrencyCode == "" || rate.RateNew == "" {
			continue
		}
		value, err := decimal.NewFromString(rate.RateNew)
		if err != nil {
			return nil, fmt.Errorf("parsing rate for %s: %w", rate.CurrencyCode, err)
		}
		rates[rate.CurrencyCode] = value
	}
	return rates, nil
}

// *** PRIVATE ***

// get performs a single GET, reporting whether a failure is retryable.
func (c *client) get(ctx context.Context, reqURL string) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, false, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Network errors are retryable.
		return nil, true, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, err
	}
	if resp.StatusCode != http.StatusOK {
		// Server errors are retryable, client errors are not.
		retryable := resp.StatusCode >= 500
		return nil, retryable, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}
	return body, false, nil
}

// monthListXML is the top-level XML structure of an HMRC monthly rate file.
type monthListXML struct {
	XMLName xml.Name  `xml:"exchangeRateMonthList"`
	Rates   []rateXML `xml:"exchangeRate"`
}

// rateXML is a single currency entry in the monthly rate file.
type rateXML struct {
	CountryName  string `xml:"countryName"`
	CurrencyName string `xml:"currencyName"`
	CurrencyCode string `xml:"currencyCode"`
	RateNew      string `xml:"rateNew"`
}
