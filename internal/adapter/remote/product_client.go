package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/rl1809/sarismart-cart/internal/core/domain"
)

var ErrUnexpectedStatus = errors.New("unexpected status from product api")

type response struct {
	status int
	body   []byte
}

// ProductClient talks to the store backend's product REST API. Every call
// goes through one circuit breaker; 5xx and transport errors count as
// failures, 4xx do not.
type ProductClient struct {
	baseURL string
	http    *http.Client
	cb      *gobreaker.CircuitBreaker[response]
	logger  *zap.Logger
}

type ClientOption func(*ProductClient)

func WithHTTPClient(c *http.Client) ClientOption {
	return func(p *ProductClient) { p.http = c }
}

func WithClientLogger(l *zap.Logger) ClientOption {
	return func(p *ProductClient) { p.logger = l }
}

func NewProductClient(baseURL string, timeout time.Duration, opts ...ClientOption) *ProductClient {
	p := &ProductClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}

	p.cb = gobreaker.NewCircuitBreaker[response](gobreaker.Settings{
		Name:        "product-api",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			p.logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
	return p
}

func (p *ProductClient) GetProduct(ctx context.Context, productID, storeID string) (*domain.Product, error) {
	resp, err := p.do(ctx, http.MethodGet, productPath(storeID, productID), nil)
	if err != nil {
		return nil, err
	}
	switch resp.status {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, nil
	default:
		return nil, fmt.Errorf("get product %s: %w: %d", productID, ErrUnexpectedStatus, resp.status)
	}

	var product domain.Product
	if err := json.Unmarshal(resp.body, &product); err != nil {
		return nil, fmt.Errorf("decode product %s: %w", productID, err)
	}
	return &product, nil
}

type stockRequest struct {
	Stock int `json:"stock"`
}

func (p *ProductClient) SetStock(ctx context.Context, productID, storeID string, stock int) error {
	resp, err := p.do(ctx, http.MethodPut, productPath(storeID, productID)+"/stock", stockRequest{Stock: stock})
	if err != nil {
		return err
	}
	if resp.status != http.StatusOK && resp.status != http.StatusNoContent {
		return fmt.Errorf("set stock %s: %w: %d", productID, ErrUnexpectedStatus, resp.status)
	}
	return nil
}

type saleRequest struct {
	Total decimal.Decimal   `json:"total"`
	Items []domain.SaleItem `json:"items"`
}

func (p *ProductClient) RecordSale(ctx context.Context, storeID string, total decimal.Decimal, items []domain.SaleItem) (*domain.Sale, error) {
	path := "/stores/" + url.PathEscape(storeID) + "/sales"
	resp, err := p.do(ctx, http.MethodPost, path, saleRequest{Total: total, Items: items})
	if err != nil {
		return nil, err
	}
	if resp.status != http.StatusOK && resp.status != http.StatusCreated {
		return nil, fmt.Errorf("record sale: %w: %d", ErrUnexpectedStatus, resp.status)
	}
	if len(bytes.TrimSpace(resp.body)) == 0 || bytes.Equal(bytes.TrimSpace(resp.body), []byte("null")) {
		return nil, nil
	}

	var sale domain.Sale
	if err := json.Unmarshal(resp.body, &sale); err != nil {
		return nil, fmt.Errorf("decode sale: %w", err)
	}
	return &sale, nil
}

func (p *ProductClient) do(ctx context.Context, method, path string, payload any) (response, error) {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return response{}, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	return p.cb.Execute(func() (response, error) {
		req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, body)
		if err != nil {
			return response{}, err
		}
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		res, err := p.http.Do(req)
		if err != nil {
			return response{}, fmt.Errorf("%s %s: %w", method, path, err)
		}
		defer res.Body.Close()

		b, err := io.ReadAll(res.Body)
		if err != nil {
			return response{}, fmt.Errorf("read %s %s: %w", method, path, err)
		}
		if res.StatusCode >= http.StatusInternalServerError {
			return response{}, fmt.Errorf("%s %s: %w: %d", method, path, ErrUnexpectedStatus, res.StatusCode)
		}
		return response{status: res.StatusCode, body: b}, nil
	})
}

func productPath(storeID, productID string) string {
	return "/stores/" + url.PathEscape(storeID) + "/products/" + url.PathEscape(productID)
}
