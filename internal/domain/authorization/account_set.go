package authorization

import (
	"fmt"

	"invokesigned/internal/domain/execution"
	valueobjects "invokesigned/internal/domain/value_objects"
)

const accountSetSize = 4

const (
	AccountPayer             = "payer"
	AccountControlledAddress = "controlled_address"
	AccountRecipient         = "recipient"
	AccountSystemAuthority   = "system_authority"
)

const (
	InvariantAccountCount            = "account_count"
	InvariantSigner                  = "is_signer"
	InvariantWritable                = "is_writable"
	InvariantOwnedBySystem           = "owned_by_system_authority"
	InvariantSystemAuthorityIdentity = "system_authority_identity"
)

// AccountSet is the fixed tuple of accounts every authorization receives,
// in this order.
type AccountSet struct {
	Payer             execution.AccountInfo
	ControlledAddress execution.AccountInfo
	Recipient         execution.AccountInfo
	SystemAuthority   execution.AccountInfo
}

func NewAccountSet(accounts []execution.AccountInfo) (AccountSet, error) {
	if len(accounts) != accountSetSize {
		err := invalidAccountState("set", InvariantAccountCount)
		err.Message = fmt.Sprintf("expected %d accounts, got %d", accountSetSize, len(accounts))
		return AccountSet{}, err
	}

	return AccountSet{
		Payer:             accounts[0],
		ControlledAddress: accounts[1],
		Recipient:         accounts[2],
		SystemAuthority:   accounts[3],
	}, nil
}

// Validate checks the structural preconditions in a fixed order and reports
// the first violation.
func (s AccountSet) Validate() error {
	switch {
	case !s.Payer.IsSigner:
		return invalidAccountState(AccountPayer, InvariantSigner)
	case !s.Payer.IsWritable:
		return invalidAccountState(AccountPayer, InvariantWritable)
	case !s.ControlledAddress.IsWritable:
		return invalidAccountState(AccountControlledAddress, InvariantWritable)
	case s.ControlledAddress.Owner != valueobjects.SystemProgramAddress:
		return invalidAccountState(AccountControlledAddress, InvariantOwnedBySystem)
	case s.SystemAuthority.Address != valueobjects.SystemProgramAddress:
		return invalidAccountState(AccountSystemAuthority, InvariantSystemAuthorityIdentity)
	}
	return nil
}
