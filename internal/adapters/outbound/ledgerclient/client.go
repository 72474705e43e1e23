// Package ledgerclient talks to the ledger HTTP API on behalf of the driver.
package ledgerclient

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	nethttp "net/http"
	"net/url"
	"strings"
	"time"

	"invokesigned/internal/application/dto"
	"invokesigned/internal/domain/entities"
	valueobjects "invokesigned/internal/domain/value_objects"
	apperrors "invokesigned/internal/shared_kernel/errors"
)

const (
	defaultHTTPTimeout  = 5 * time.Second
	defaultPollAttempts = 10
	defaultPollInterval = 500 * time.Millisecond
	maxErrorBodyBytes   = 4096
)

type Config struct {
	BaseURL      string
	Timeout      time.Duration
	PollAttempts int
	PollInterval time.Duration
}

type Client struct {
	baseURL      string
	client       *nethttp.Client
	pollAttempts int
	pollInterval time.Duration
}

type submitCallRequest struct {
	ProgramID  string                 `json:"program_id"`
	Accounts   []dto.AccountMetaInput `json:"accounts"`
	Data       string                 `json:"data"`
	Reference  string                 `json:"reference"`
	Signatures []dto.SignatureInput   `json:"signatures"`
}

type airdropRequest struct {
	Address  string `json:"address"`
	Lamports string `json:"lamports"`
}

type errorResponse struct {
	Error struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	pollAttempts := cfg.PollAttempts
	if pollAttempts <= 0 {
		pollAttempts = defaultPollAttempts
	}
	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}

	return &Client{
		baseURL:      strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		client:       &nethttp.Client{Timeout: timeout},
		pollAttempts: pollAttempts,
		pollInterval: pollInterval,
	}
}

func (c *Client) FindDerivedAddress(
	ctx context.Context,
	programID valueobjects.Address,
	seed string,
) (dto.DerivedAddressOutput, *apperrors.AppError) {
	path := "/v1/programs/" + programID.String() + "/derived-address?seed=" + url.QueryEscape(seed)
	output := dto.DerivedAddressOutput{}
	if appErr := c.do(ctx, nethttp.MethodGet, path, nil, &output); appErr != nil {
		return dto.DerivedAddressOutput{}, appErr
	}
	return output, nil
}

func (c *Client) RequestAirdrop(
	ctx context.Context,
	address valueobjects.Address,
	lamports uint64,
) (dto.AirdropOutput, *apperrors.AppError) {
	output := dto.AirdropOutput{}
	appErr := c.do(ctx, nethttp.MethodPost, "/v1/airdrops", airdropRequest{
		Address:  address.String(),
		Lamports: valueobjects.FormatAmountMinor(lamports),
	}, &output)
	if appErr != nil {
		return dto.AirdropOutput{}, appErr
	}
	return output, nil
}

func (c *Client) GetAccount(ctx context.Context, address valueobjects.Address) (dto.AccountResource, *apperrors.AppError) {
	output := dto.AccountResource{}
	if appErr := c.do(ctx, nethttp.MethodGet, "/v1/accounts/"+address.String(), nil, &output); appErr != nil {
		return dto.AccountResource{}, appErr
	}
	return output, nil
}

// Balance returns the lamports held by address. Addresses the ledger has
// never seen report zero.
func (c *Client) Balance(ctx context.Context, address valueobjects.Address) (uint64, *apperrors.AppError) {
	account, appErr := c.GetAccount(ctx, address)
	if appErr != nil {
		return 0, appErr
	}
	return valueobjects.ParseAmountMinor("lamports", account.Lamports)
}

func (c *Client) SubmitCall(ctx context.Context, signed entities.SignedCall) (dto.CallResource, *apperrors.AppError) {
	call := signed.Call
	request := submitCallRequest{
		ProgramID:  call.ProgramID.String(),
		Accounts:   make([]dto.AccountMetaInput, 0, len(call.Accounts)),
		Data:       base64.StdEncoding.EncodeToString(call.Data),
		Reference:  call.Reference,
		Signatures: make([]dto.SignatureInput, 0, len(signed.Signatures)),
	}
	for _, meta := range call.Accounts {
		request.Accounts = append(request.Accounts, dto.AccountMetaInput{
			Address:    meta.Address.String(),
			IsSigner:   meta.IsSigner,
			IsWritable: meta.IsWritable,
		})
	}
	for _, signature := range signed.Signatures {
		request.Signatures = append(request.Signatures, dto.SignatureInput{
			Signer:    signature.Signer.String(),
			Signature: valueobjects.EncodeBase58(signature.Value),
		})
	}

	output := dto.CallResource{}
	if appErr := c.do(ctx, nethttp.MethodPost, "/v1/calls", request, &output); appErr != nil {
		return dto.CallResource{}, appErr
	}
	return output, nil
}

func (c *Client) GetCall(ctx context.Context, hash string) (dto.CallResource, *apperrors.AppError) {
	output := dto.CallResource{}
	if appErr := c.do(ctx, nethttp.MethodGet, "/v1/calls/"+url.PathEscape(hash), nil, &output); appErr != nil {
		return dto.CallResource{}, appErr
	}
	return output, nil
}

// AwaitCall polls for a stored call record. Only not-found responses are
// retried, and at most PollAttempts requests are made.
func (c *Client) AwaitCall(ctx context.Context, hash string) (dto.CallResource, *apperrors.AppError) {
	var lastErr *apperrors.AppError
	for attempt := 1; attempt <= c.pollAttempts; attempt++ {
		resource, appErr := c.GetCall(ctx, hash)
		if appErr == nil {
			return resource, nil
		}
		if appErr.Type != apperrors.TypeNotFound {
			return dto.CallResource{}, appErr
		}
		lastErr = appErr
		if attempt == c.pollAttempts {
			break
		}

		timer := time.NewTimer(c.pollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return dto.CallResource{}, apperrors.NewInternal(
				"call_poll_cancelled",
				"call poll cancelled",
				map[string]any{"call_hash": hash, "error": ctx.Err().Error()},
			)
		case <-timer.C:
		}
	}

	return dto.CallResource{}, apperrors.NewNotFound(
		"call_poll_exhausted",
		"call record did not appear within the poll budget",
		map[string]any{"call_hash": hash, "attempts": c.pollAttempts, "last_error": lastErr.Code},
	)
}

func (c *Client) do(ctx context.Context, method, path string, body any, target any) *apperrors.AppError {
	if c == nil || c.client == nil || c.baseURL == "" {
		return apperrors.NewInternal("ledger_client_not_configured", "ledger client is not configured", nil)
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return apperrors.NewInternal(
				"ledger_request_encode_failed",
				"failed to encode ledger request",
				map[string]any{"path": path, "error": err.Error()},
			)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := nethttp.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return apperrors.NewInternal(
			"ledger_request_build_failed",
			"failed to build ledger request",
			map[string]any{"path": path, "error": err.Error()},
		)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return apperrors.NewInternal(
			"ledger_unreachable",
			"ledger request failed",
			map[string]any{"method": method, "path": path, "error": err.Error()},
		)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= nethttp.StatusBadRequest {
		return decodeErrorResponse(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return apperrors.NewInternal(
			"ledger_response_decode_failed",
			"failed to decode ledger response",
			map[string]any{"path": path, "status": resp.StatusCode, "error": err.Error()},
		)
	}
	return nil
}

func decodeErrorResponse(resp *nethttp.Response) *apperrors.AppError {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))

	envelope := errorResponse{}
	if err := json.Unmarshal(raw, &envelope); err != nil || envelope.Error.Code == "" {
		return &apperrors.AppError{
			Type:    typeForStatus(resp.StatusCode),
			Code:    "ledger_http_error",
			Message: fmt.Sprintf("ledger responded with status %d", resp.StatusCode),
			Details: map[string]any{"status": resp.StatusCode, "body": string(raw)},
		}
	}

	return &apperrors.AppError{
		Type:    typeForStatus(resp.StatusCode),
		Code:    envelope.Error.Code,
		Message: envelope.Error.Message,
		Details: envelope.Error.Details,
	}
}

func typeForStatus(status int) apperrors.Type {
	switch status {
	case nethttp.StatusBadRequest:
		return apperrors.TypeValidation
	case nethttp.StatusNotFound:
		return apperrors.TypeNotFound
	case nethttp.StatusConflict:
		return apperrors.TypeConflict
	case nethttp.StatusForbidden:
		return apperrors.TypeForbidden
	case nethttp.StatusUnprocessableEntity:
		return apperrors.TypeRejected
	default:
		return apperrors.TypeInternal
	}
}
