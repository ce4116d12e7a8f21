package normalize

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/cdi-bonus/internal/accrual"
)

// TransactionType classifies a wallet event.
type TransactionType string

const (
	TypeTransferOut   TransactionType = "TRANSFER_OUT"
	TypeDeposit       TransactionType = "DEPOSIT"
	TypeWithdrawal    TransactionType = "WITHDRAWAL"
	TypeTransferIn    TransactionType = "TRANSFER_IN"
	TypeWalletCreated TransactionType = "WALLET_CREATED"
)

// Valid reports whether t is one of the known wallet event types.
func (t TransactionType) Valid() bool {
	switch t {
	case TypeTransferOut, TypeDeposit, TypeWithdrawal, TypeTransferIn, TypeWalletCreated:
		return true
	}
	return false
}

// CDCOperation is the change-data-capture classification of an event against
// the source ledger.
type CDCOperation string

const (
	OpInsert CDCOperation = "insert"
	OpUpdate CDCOperation = "update"
	OpDelete CDCOperation = "delete"
)

// Eligible reports whether events with this operation count toward balances.
// Deletes are ignored by the accrual batch.
func (op CDCOperation) Eligible() bool {
	return op == OpInsert || op == OpUpdate
}

// RawEvent is a wallet event as ingested, before schema casting. Pointer
// fields model source nulls; the normalizer rejects a batch with nulls in any
// required column.
type RawEvent struct {
	EventTime       *time.Time
	UserID          *string
	AccountID       *string
	Amount          *decimal.Decimal
	TransactionType *string
	CDCOperation    *string
	CDCSequenceNum  *int64
	SourceSystem    *string
}

// Event is a validated, fully typed wallet event. Immutable once produced.
type Event struct {
	EventTime      time.Time
	UserID         string
	AccountID      string
	Amount         decimal.Decimal
	Type           TransactionType
	Op             CDCOperation
	CDCSequenceNum int64
	SourceSystem   string
}

// Normalize casts raw events into typed events, validating the whole batch in
// one pass. Every defective column is reported, with row counts, in a single
// IntegrityViolationError; a batch with any defect is rejected entirely.
func Normalize(raws []RawEvent) ([]Event, error) {
	nullUserID := 0
	nullAccountID := 0
	nullAmount := 0
	nullEventTime := 0
	nullSeqNum := 0
	badType := 0

	events := make([]Event, 0, len(raws))
	for _, raw := range raws {
		ok := true
		if raw.UserID == nil || *raw.UserID == "" {
			nullUserID++
			ok = false
		}
		if raw.AccountID == nil || *raw.AccountID == "" {
			nullAccountID++
			ok = false
		}
		if raw.Amount == nil {
			nullAmount++
			ok = false
		}
		if raw.EventTime == nil {
			nullEventTime++
			ok = false
		}
		if raw.CDCSequenceNum == nil {
			nullSeqNum++
			ok = false
		}
		if raw.TransactionType == nil || !TransactionType(*raw.TransactionType).Valid() {
			badType++
			ok = false
		}
		if !ok {
			continue
		}

		e := Event{
			EventTime:      *raw.EventTime,
			UserID:         *raw.UserID,
			AccountID:      *raw.AccountID,
			Amount:         *raw.Amount,
			Type:           TransactionType(*raw.TransactionType),
			CDCSequenceNum: *raw.CDCSequenceNum,
		}
		if raw.CDCOperation != nil {
			e.Op = CDCOperation(*raw.CDCOperation)
		}
		if raw.SourceSystem != nil {
			e.SourceSystem = *raw.SourceSystem
		}
		events = append(events, e)
	}

	var violations []string
	if nullUserID > 0 {
		violations = append(violations, fmt.Sprintf("column user_id has null values (%d rows)", nullUserID))
	}
	if nullAccountID > 0 {
		violations = append(violations, fmt.Sprintf("column account_id has null values (%d rows)", nullAccountID))
	}
	if nullAmount > 0 {
		violations = append(violations, fmt.Sprintf("column amount has null values (%d rows)", nullAmount))
	}
	if nullEventTime > 0 {
		violations = append(violations, fmt.Sprintf("column event_time has null values (%d rows)", nullEventTime))
	}
	if nullSeqNum > 0 {
		violations = append(violations, fmt.Sprintf("column cdc_sequence_num has null values (%d rows)", nullSeqNum))
	}
	if badType > 0 {
		violations = append(violations, fmt.Sprintf("column transaction_type has unknown values (%d rows)", badType))
	}
	if len(violations) > 0 {
		return nil, &accrual.IntegrityViolationError{Stage: "normalize", Violations: violations}
	}

	return events, nil
}
