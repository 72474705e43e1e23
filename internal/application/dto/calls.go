package dto

import "time"

type AccountMetaInput struct {
	Address    string `json:"address"`
	IsSigner   bool   `json:"is_signer"`
	IsWritable bool   `json:"is_writable"`
}

type SignatureInput struct {
	Signer    string `json:"signer"`
	Signature string `json:"signature"`
}

type SubmitCallCommand struct {
	ProgramID  string
	Accounts   []AccountMetaInput
	Data       []byte
	Reference  string
	Signatures []SignatureInput
}

type SubmitCallOutput struct {
	Resource CallResource
	Replayed bool
}

type GetCallQuery struct {
	Hash string
}

type CallError struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type CallResource struct {
	Hash        string     `json:"hash"`
	Kind        string     `json:"kind"`
	Status      string     `json:"status"`
	Error       *CallError `json:"error,omitempty"`
	ProcessedAt time.Time  `json:"processed_at"`
}
