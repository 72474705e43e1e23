package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"invokesigned/internal/application/dto"
	apperrors "invokesigned/internal/shared_kernel/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubSubmitCallUseCase struct {
	output  dto.SubmitCallOutput
	appErr  *apperrors.AppError
	command *dto.SubmitCallCommand
}

func (s *stubSubmitCallUseCase) Execute(_ context.Context, command dto.SubmitCallCommand) (dto.SubmitCallOutput, *apperrors.AppError) {
	s.command = &command
	return s.output, s.appErr
}

type stubGetCallUseCase struct {
	appErr *apperrors.AppError
}

func (s stubGetCallUseCase) Execute(_ context.Context, query dto.GetCallQuery) (dto.CallResource, *apperrors.AppError) {
	if s.appErr != nil {
		return dto.CallResource{}, s.appErr
	}
	return dto.CallResource{Hash: query.Hash, Kind: "invoke", Status: "committed"}, nil
}

const submitBody = `{
  "program_id": "DerivedTransfer1111111111111111111111111111",
  "accounts": [{"address": "9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin", "is_signer": true, "is_writable": true}],
  "data": "eyJzZWVkIjoiUFJPR1JBTSJ9",
  "reference": "ref-1",
  "signatures": [{"signer": "9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin", "signature": "sig"}]
}`

func committedOutput(replayed bool) dto.SubmitCallOutput {
	return dto.SubmitCallOutput{
		Resource: dto.CallResource{
			Hash:        "HashValue",
			Kind:        "invoke",
			Status:      "committed",
			ProcessedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		},
		Replayed: replayed,
	}
}

func TestCallsControllerSubmitCallCreated(t *testing.T) {
	submit := &stubSubmitCallUseCase{output: committedOutput(false)}
	controller := NewCallsController(submit, stubGetCallUseCase{}, zap.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/v1/calls", bytes.NewBufferString(submitBody))
	rec := httptest.NewRecorder()
	controller.SubmitCall(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "/v1/calls/HashValue", rec.Header().Get("Location"))
	assert.Empty(t, rec.Header().Get(headerCallReplayed))

	require.NotNil(t, submit.command)
	assert.Equal(t, []byte(`{"seed":"PROGRAM"}`), submit.command.Data)
	assert.Equal(t, "ref-1", submit.command.Reference)
	require.Len(t, submit.command.Accounts, 1)
	assert.True(t, submit.command.Accounts[0].IsSigner)
}

func TestCallsControllerSubmitCallReplayed(t *testing.T) {
	controller := NewCallsController(&stubSubmitCallUseCase{output: committedOutput(true)}, stubGetCallUseCase{}, zap.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/v1/calls", bytes.NewBufferString(submitBody))
	rec := httptest.NewRecorder()
	controller.SubmitCall(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "true", rec.Header().Get(headerCallReplayed))
}

func TestCallsControllerMapsErrorTypes(t *testing.T) {
	testCases := []struct {
		appErr *apperrors.AppError
		status int
	}{
		{apperrors.NewValidation("invalid_account_state", "bad", nil), http.StatusBadRequest},
		{apperrors.NewForbidden("address_mismatch", "bad", map[string]any{"call_hash": "h"}), http.StatusForbidden},
		{apperrors.NewRejected("delegated_call_rejected", "bad", nil), http.StatusUnprocessableEntity},
		{apperrors.NewInternal("ledger_tx_commit_failed", "bad", nil), http.StatusInternalServerError},
	}

	for _, tc := range testCases {
		t.Run(tc.appErr.Code, func(t *testing.T) {
			controller := NewCallsController(&stubSubmitCallUseCase{appErr: tc.appErr}, stubGetCallUseCase{}, zap.NewNop())

			req := httptest.NewRequest(http.MethodPost, "/v1/calls", bytes.NewBufferString(submitBody))
			rec := httptest.NewRecorder()
			controller.SubmitCall(rec, req)

			require.Equal(t, tc.status, rec.Code)
			var payload errorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
			assert.Equal(t, tc.appErr.Code, payload.Error.Code)
		})
	}
}

func TestCallsControllerRejectsMalformedBodies(t *testing.T) {
	bodies := map[string]string{
		"invalid json":  "{",
		"unknown field": `{"program_id":"x","extra":1}`,
		"trailing data": `{"program_id":"x"}{}`,
		"bad base64":    `{"program_id":"x","data":"%%%"}`,
	}

	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			submit := &stubSubmitCallUseCase{}
			controller := NewCallsController(submit, stubGetCallUseCase{}, zap.NewNop())

			req := httptest.NewRequest(http.MethodPost, "/v1/calls", bytes.NewBufferString(body))
			rec := httptest.NewRecorder()
			controller.SubmitCall(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Nil(t, submit.command)
		})
	}
}

func TestCallsControllerGetCall(t *testing.T) {
	controller := NewCallsController(&stubSubmitCallUseCase{}, stubGetCallUseCase{}, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/v1/calls/abc", nil)
	req.SetPathValue("hash", "abc")
	rec := httptest.NewRecorder()
	controller.GetCall(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resource dto.CallResource
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resource))
	assert.Equal(t, "abc", resource.Hash)

	notFound := NewCallsController(
		&stubSubmitCallUseCase{},
		stubGetCallUseCase{appErr: apperrors.NewNotFound("call_not_found", "call not found", nil)},
		zap.NewNop(),
	)
	rec = httptest.NewRecorder()
	notFound.GetCall(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
