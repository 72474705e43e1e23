package controllers

import (
	"net/http"

	"invokesigned/internal/application/dto"
	portsin "invokesigned/internal/application/ports/in"
	apperrors "invokesigned/internal/shared_kernel/errors"

	"go.uber.org/zap"
)

type AccountsController struct {
	getAccountUseCase     portsin.GetAccountUseCase
	requestAirdropUseCase portsin.RequestAirdropUseCase
	derivedAddressUseCase portsin.FindDerivedAddressUseCase
	logger                *zap.Logger
}

type airdropPayload struct {
	Address  string `json:"address"`
	Lamports string `json:"lamports"`
}

func NewAccountsController(
	getAccountUseCase portsin.GetAccountUseCase,
	requestAirdropUseCase portsin.RequestAirdropUseCase,
	derivedAddressUseCase portsin.FindDerivedAddressUseCase,
	logger *zap.Logger,
) *AccountsController {
	return &AccountsController{
		getAccountUseCase:     getAccountUseCase,
		requestAirdropUseCase: requestAirdropUseCase,
		derivedAddressUseCase: derivedAddressUseCase,
		logger:                logger,
	}
}

func (c *AccountsController) GetAccount(w http.ResponseWriter, r *http.Request) {
	resource, appErr := c.getAccountUseCase.Execute(r.Context(), dto.GetAccountQuery{Address: r.PathValue("address")})
	if appErr != nil {
		logRequestError(c.logger, r, "/v1/accounts/{address}", appErr)
		writeAppError(w, appErr)
		return
	}

	writeJSON(w, http.StatusOK, resource)
}

func (c *AccountsController) RequestAirdrop(w http.ResponseWriter, r *http.Request) {
	payload := airdropPayload{}
	if appErr := decodeJSONBody(r.Body, &payload); appErr != nil {
		writeAppError(w, appErr)
		return
	}

	output, appErr := c.requestAirdropUseCase.Execute(r.Context(), dto.RequestAirdropCommand{
		Address:  payload.Address,
		Lamports: payload.Lamports,
	})
	if appErr != nil {
		logRequestError(c.logger, r, "/v1/airdrops", appErr)
		writeAppError(w, appErr)
		return
	}

	w.Header().Set("Location", "/v1/calls/"+output.Call.Hash)
	writeJSON(w, http.StatusCreated, output)
}

func (c *AccountsController) FindDerivedAddress(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	if !query.Has("seed") {
		writeAppError(w, apperrors.NewValidation(
			"invalid_request",
			"seed query parameter is required",
			map[string]any{"field": "seed"},
		))
		return
	}

	output, appErr := c.derivedAddressUseCase.Execute(r.Context(), dto.FindDerivedAddressQuery{
		ProgramID: r.PathValue("program_id"),
		Seed:      query.Get("seed"),
	})
	if appErr != nil {
		logRequestError(c.logger, r, "/v1/programs/{program_id}/derived-address", appErr)
		writeAppError(w, appErr)
		return
	}

	writeJSON(w, http.StatusOK, output)
}
