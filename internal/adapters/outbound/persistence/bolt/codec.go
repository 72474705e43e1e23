package bolt

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	"invokesigned/internal/domain/entities"
	valueobjects "invokesigned/internal/domain/value_objects"
)

const accountValueSize = 8 + valueobjects.AddressLength + 1

// account value: lamports u64 LE | owner | executable flag
func encodeAccount(account entities.Account) []byte {
	out := make([]byte, 0, accountValueSize)
	out = binary.LittleEndian.AppendUint64(out, account.Lamports)
	out = append(out, account.Owner[:]...)
	if account.Executable {
		out = append(out, 1)
	} else {
		out = append(out, 0)
	}
	return out
}

func decodeAccount(address valueobjects.Address, raw []byte) (entities.Account, error) {
	if len(raw) != accountValueSize {
		return entities.Account{}, fmt.Errorf("account value: expected %d bytes, got %d", accountValueSize, len(raw))
	}
	flag := raw[accountValueSize-1]
	if flag > 1 {
		return entities.Account{}, fmt.Errorf("account value: invalid executable flag %d", flag)
	}
	return entities.Account{
		Address:    address,
		Lamports:   binary.LittleEndian.Uint64(raw[:8]),
		Owner:      valueobjects.AddressFromBytes(raw[8 : 8+valueobjects.AddressLength]),
		Executable: flag == 1,
	}, nil
}

type storedCallRecord struct {
	Kind         string    `json:"kind"`
	Status       string    `json:"status"`
	ErrorType    string    `json:"error_type,omitempty"`
	ErrorCode    string    `json:"error_code,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
	ProcessedAt  time.Time `json:"processed_at"`
}

func encodeCallRecord(record entities.CallRecord) ([]byte, error) {
	return json.Marshal(storedCallRecord{
		Kind:         record.Kind,
		Status:       string(record.Status),
		ErrorType:    record.ErrorType,
		ErrorCode:    record.ErrorCode,
		ErrorMessage: record.ErrorMessage,
		ProcessedAt:  record.ProcessedAt.UTC(),
	})
}

func decodeCallRecord(hash string, raw []byte) (entities.CallRecord, error) {
	var stored storedCallRecord
	if err := json.Unmarshal(raw, &stored); err != nil {
		return entities.CallRecord{}, fmt.Errorf("call record %s: %w", hash, err)
	}
	return entities.CallRecord{
		Hash:         hash,
		Kind:         stored.Kind,
		Status:       entities.CallStatus(stored.Status),
		ErrorType:    stored.ErrorType,
		ErrorCode:    stored.ErrorCode,
		ErrorMessage: stored.ErrorMessage,
		ProcessedAt:  stored.ProcessedAt.UTC(),
	}, nil
}
