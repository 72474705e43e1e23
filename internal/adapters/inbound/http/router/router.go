package router

import (
	"net/http"

	"invokesigned/internal/adapters/inbound/http/controllers"
)

type Dependencies struct {
	HealthController   *controllers.HealthController
	SwaggerController  *controllers.SwaggerController
	CallsController    *controllers.CallsController
	AccountsController *controllers.AccountsController
}

func New(deps Dependencies) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", deps.HealthController.GetHealth)
	mux.HandleFunc("GET /swagger", deps.SwaggerController.RedirectToIndex)
	mux.HandleFunc("GET /swagger/openapi.yaml", deps.SwaggerController.GetOpenAPISpec)
	mux.HandleFunc("GET /swagger/", deps.SwaggerController.ServeUI)
	mux.HandleFunc("POST /v1/calls", deps.CallsController.SubmitCall)
	mux.HandleFunc("GET /v1/calls/{hash}", deps.CallsController.GetCall)
	mux.HandleFunc("POST /v1/airdrops", deps.AccountsController.RequestAirdrop)
	mux.HandleFunc("GET /v1/accounts/{address}", deps.AccountsController.GetAccount)
	mux.HandleFunc("GET /v1/programs/{program_id}/derived-address", deps.AccountsController.FindDerivedAddress)

	return mux
}
