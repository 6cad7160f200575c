// Package drawclient talks to the draw API on behalf of one participant.
package drawclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ArowuTest/padel-arena-backend/internal/fidelity"
	"github.com/ArowuTest/padel-arena-backend/internal/models"
	"github.com/go-resty/resty/v2"
)

const defaultTimeout = 15 * time.Second

// Config configures a Client
type Config struct {
	// BaseURL includes the API prefix, e.g. https://padel.example/api/v1.
	BaseURL string
	Token   string
	Timeout time.Duration
}

// Client is a resty based play.Remote.
type Client struct {
	http *resty.Client
}

// apiError is the error body every endpoint returns.
type apiError struct {
	Message        string          `json:"error"`
	Code           string          `json:"code"`
	DrawType       models.DrawType `json:"drawType"`
	Reason         string          `json:"reason"`
	NextEligibleAt *time.Time      `json:"nextEligibleAt"`
}

// New creates a Client
func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	c := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json")
	if cfg.Token != "" {
		c.SetAuthToken(cfg.Token)
	}
	return &Client{http: c}
}

// CheckEligibility handles GET /draws/:drawType/eligibility
func (c *Client) CheckEligibility(ctx context.Context, drawType models.DrawType) (*models.Eligibility, error) {
	var out models.Eligibility
	if err := c.do(ctx, http.MethodGet, drawPath(drawType, "eligibility"), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ExecuteDraw handles POST /draws/:drawType/spins
func (c *Client) ExecuteDraw(ctx context.Context, drawType models.DrawType, requestID string) (*models.DrawOutcome, error) {
	var out models.DrawOutcome
	body := map[string]string{"requestId": requestID}
	if err := c.do(ctx, http.MethodPost, drawPath(drawType, "spins"), body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FindDraw handles GET /draws/:drawType/spins/:requestId
func (c *Client) FindDraw(ctx context.Context, drawType models.DrawType, requestID string) (*models.DrawOutcome, error) {
	var out models.DrawOutcome
	if err := c.do(ctx, http.MethodGet, drawPath(drawType, "spins/"+requestID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListActivePrizes handles GET /draws/:drawType/prizes
func (c *Client) ListActivePrizes(ctx context.Context, drawType models.DrawType) ([]*models.Prize, error) {
	var out []*models.Prize
	if err := c.do(ctx, http.MethodGet, drawPath(drawType, "prizes"), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetFeatureToggle handles GET /draws/:drawType/toggle
func (c *Client) GetFeatureToggle(ctx context.Context, drawType models.DrawType) (*models.FeatureToggle, error) {
	var out models.FeatureToggle
	if err := c.do(ctx, http.MethodGet, drawPath(drawType, "toggle"), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Fidelity handles GET /me/fidelity
func (c *Client) Fidelity(ctx context.Context) (*fidelity.Summary, error) {
	var out fidelity.Summary
	if err := c.do(ctx, http.MethodGet, "/me/fidelity", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Login handles POST /auth/login and keeps the token for later calls.
func (c *Client) Login(ctx context.Context, email, password string) (*models.LoginResponse, error) {
	var out models.LoginResponse
	body := models.LoginRequest{Email: email, Password: password}
	if err := c.do(ctx, http.MethodPost, "/auth/login", body, &out); err != nil {
		return nil, err
	}
	c.http.SetAuthToken(out.Token)
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var apiErr apiError
	req := c.http.R().
		SetContext(ctx).
		SetResult(out).
		SetError(&apiErr)
	if body != nil {
		req.SetBody(body)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return apiErr.toError(resp.StatusCode())
	}
	return nil
}

// toError maps an error body back onto the error values the services return.
func (e *apiError) toError(status int) error {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(status)
	}
	switch e.Code {
	case models.CodeIneligible:
		return &models.IneligibleError{DrawType: e.DrawType, Reason: e.Reason, NextEligibleAt: e.NextEligibleAt}
	case models.CodeDrawInProgress:
		return models.ErrDrawInProgress
	case models.CodeNoPrizeAvailable:
		return models.ErrNoPrizeAvailable
	case models.CodeDrawFailed:
		return &models.DrawTransactionError{Err: errors.New(msg)}
	case models.CodePrizeUnavailable:
		return models.ErrPrizeUnavailable
	case models.CodeNotFound:
		return models.ErrNotFound
	case models.CodeBadRequest:
		return fmt.Errorf("%w: %s", models.ErrInvalidInput, msg)
	}
	return fmt.Errorf("draw api: %s (status %d)", msg, status)
}

func drawPath(drawType models.DrawType, rest string) string {
	return "/draws/" + drawType.Slug() + "/" + rest
}
