package controllers

import (
	"encoding/base64"
	"net/http"

	"invokesigned/internal/application/dto"
	portsin "invokesigned/internal/application/ports/in"
	apperrors "invokesigned/internal/shared_kernel/errors"

	"go.uber.org/zap"
)

const headerCallReplayed = "X-Call-Replayed"

type CallsController struct {
	submitUseCase portsin.SubmitCallUseCase
	getUseCase    portsin.GetCallUseCase
	logger        *zap.Logger
}

type submitCallPayload struct {
	ProgramID  string                 `json:"program_id"`
	Accounts   []dto.AccountMetaInput `json:"accounts"`
	Data       string                 `json:"data"`
	Reference  string                 `json:"reference"`
	Signatures []dto.SignatureInput   `json:"signatures"`
}

func NewCallsController(
	submitUseCase portsin.SubmitCallUseCase,
	getUseCase portsin.GetCallUseCase,
	logger *zap.Logger,
) *CallsController {
	return &CallsController{
		submitUseCase: submitUseCase,
		getUseCase:    getUseCase,
		logger:        logger,
	}
}

func (c *CallsController) SubmitCall(w http.ResponseWriter, r *http.Request) {
	payload := submitCallPayload{}
	if appErr := decodeJSONBody(r.Body, &payload); appErr != nil {
		writeAppError(w, appErr)
		return
	}

	data, err := base64.StdEncoding.DecodeString(payload.Data)
	if err != nil {
		writeAppError(w, apperrors.NewValidation(
			"invalid_request",
			"data must be standard base64",
			map[string]any{"field": "data"},
		))
		return
	}

	output, appErr := c.submitUseCase.Execute(r.Context(), dto.SubmitCallCommand{
		ProgramID:  payload.ProgramID,
		Accounts:   payload.Accounts,
		Data:       data,
		Reference:  payload.Reference,
		Signatures: payload.Signatures,
	})
	if appErr != nil {
		logRequestError(c.logger, r, "/v1/calls", appErr)
		writeAppError(w, appErr)
		return
	}

	w.Header().Set("Location", "/v1/calls/"+output.Resource.Hash)
	if output.Replayed {
		w.Header().Set(headerCallReplayed, "true")
		writeJSON(w, http.StatusOK, output.Resource)
		return
	}

	writeJSON(w, http.StatusCreated, output.Resource)
}

func (c *CallsController) GetCall(w http.ResponseWriter, r *http.Request) {
	resource, appErr := c.getUseCase.Execute(r.Context(), dto.GetCallQuery{Hash: r.PathValue("hash")})
	if appErr != nil {
		logRequestError(c.logger, r, "/v1/calls/{hash}", appErr)
		writeAppError(w, appErr)
		return
	}

	writeJSON(w, http.StatusOK, resource)
}
