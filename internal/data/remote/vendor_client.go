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
	"strconv"
	"strings"
	"time"

	"account-provisioning/internal/data/entity"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

const maxResponseBytes = 1 << 20

// ProvisioningError describes a failed call to the vendor service.
// StatusCode is zero when the request never got a response.
type ProvisioningError struct {
	Op         string
	StatusCode int
	Message    string
	Err        error
}

func (e *ProvisioningError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("vendor service %s: status %d: %s", e.Op, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("vendor service %s: %s", e.Op, e.Message)
}

func (e *ProvisioningError) Unwrap() error {
	return e.Err
}

// CreateProfileRequest is the synthesized vendor record keyed by the owning principal.
type CreateProfileRequest struct {
	UserID      int64  `json:"userId"`
	StoreName   string `json:"storeName"`
	Email       string `json:"email"`
	Phone       string `json:"phone,omitempty"`
	Country     string `json:"country,omitempty"`
	Governorate string `json:"governorate,omitempty"`
}

type vendorEnvelope struct {
	Vendor *entity.VendorProfile `json:"vendor"`
}

type VendorClient interface {
	CreateProfile(ctx context.Context, req CreateProfileRequest, bearer string) (*entity.VendorProfile, error)
	GetProfile(ctx context.Context, vendorID int64) (*entity.VendorProfile, error)
	FindProfileByEmail(ctx context.Context, email string) (*entity.VendorProfile, error)
}

type vendorClient struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
	log     *zap.Logger
}

// NewVendorClient builds a client whose every call is bounded by timeout.
// A nil httpClient gets an instrumented default.
func NewVendorClient(baseURL string, timeout time.Duration, httpClient *http.Client, log *zap.Logger) VendorClient {
	if httpClient == nil {
		httpClient = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}
	return &vendorClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		timeout: timeout,
		log:     log.With(zap.String("client", "vendor_service")),
	}
}

func (c *vendorClient) CreateProfile(ctx context.Context, req CreateProfileRequest, bearer string) (*entity.VendorProfile, error) {
	const op = "create profile"

	body, err := json.Marshal(req)
	if err != nil {
		return nil, &ProvisioningError{Op: op, Message: "encode request", Err: err}
	}

	profile, status, err := c.do(ctx, op, http.MethodPost, "/vendors", bytes.NewReader(body), bearer)
	if err != nil {
		return nil, err
	}
	if profile == nil || profile.ID <= 0 {
		c.log.Warn("Vendor service returned no vendor id",
			zap.Int64("user_id", req.UserID),
			zap.Int("status", status),
		)
		return nil, &ProvisioningError{Op: op, StatusCode: status, Message: "response is missing vendor id"}
	}

	return profile, nil
}

func (c *vendorClient) GetProfile(ctx context.Context, vendorID int64) (*entity.VendorProfile, error) {
	profile, _, err := c.do(ctx, "get profile", http.MethodGet, "/vendors/"+strconv.FormatInt(vendorID, 10), nil, "")
	return profile, err
}

// FindProfileByEmail returns (nil, nil) when the vendor service has no profile.
func (c *vendorClient) FindProfileByEmail(ctx context.Context, email string) (*entity.VendorProfile, error) {
	profile, _, err := c.do(ctx, "find profile", http.MethodGet, "/vendors/email/"+url.PathEscape(email), nil, "")
	var perr *ProvisioningError
	if errors.As(err, &perr) && perr.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	return profile, err
}

func (c *vendorClient) do(ctx context.Context, op, method, path string, body io.Reader, bearer string) (*entity.VendorProfile, int, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, 0, &ProvisioningError{Op: op, Message: "build request", Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("Vendor service request failed",
			zap.String("op", op),
			zap.String("path", path),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return nil, 0, &ProvisioningError{Op: op, Message: transportMessage(err), Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, resp.StatusCode, &ProvisioningError{Op: op, StatusCode: resp.StatusCode, Message: "read response", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := remoteMessage(raw, resp.StatusCode)
		c.log.Warn("Vendor service rejected request",
			zap.String("op", op),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("message", msg),
		)
		return nil, resp.StatusCode, &ProvisioningError{Op: op, StatusCode: resp.StatusCode, Message: msg}
	}

	var envelope vendorEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, resp.StatusCode, &ProvisioningError{Op: op, StatusCode: resp.StatusCode, Message: "malformed response body", Err: err}
	}

	c.log.Debug("Vendor service call completed",
		zap.String("op", op),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	return envelope.Vendor, resp.StatusCode, nil
}

func transportMessage(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "request timed out"
	}
	if errors.Is(err, context.Canceled) {
		return "request cancelled"
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		return urlErr.Err.Error()
	}
	return err.Error()
}

// remoteMessage pulls a human readable reason out of a structured error body.
func remoteMessage(raw []byte, status int) string {
	var body struct {
		Message string          `json:"message"`
		Error   string          `json:"error"`
		Errors  json.RawMessage `json:"errors"`
	}
	if err := json.Unmarshal(raw, &body); err == nil {
		switch {
		case body.Message != "":
			return body.Message
		case body.Error != "":
			return body.Error
		case len(body.Errors) > 0:
			var list []string
			if err := json.Unmarshal(body.Errors, &list); err == nil && len(list) > 0 {
				return strings.Join(list, "; ")
			}
			var single string
			if err := json.Unmarshal(body.Errors, &single); err == nil && single != "" {
				return single
			}
		}
	}
	return http.StatusText(status)
}
