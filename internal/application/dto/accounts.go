package dto

type GetAccountQuery struct {
	Address string
}

type AccountResource struct {
	Address    string `json:"address"`
	Lamports   string `json:"lamports"`
	Owner      string `json:"owner"`
	Executable bool   `json:"executable"`
}

type RequestAirdropCommand struct {
	Address  string
	Lamports string
}

type AirdropOutput struct {
	Call    CallResource    `json:"call"`
	Account AccountResource `json:"account"`
}

type FindDerivedAddressQuery struct {
	ProgramID string
	Seed      string
}

type DerivedAddressOutput struct {
	ProgramID string `json:"program_id"`
	Seed      string `json:"seed"`
	Address   string `json:"address"`
	Nonce     uint8  `json:"nonce"`
}
