package models

import "time"

type TransferKind string

const (
	TransferKindRefund TransferKind = "refund"
	TransferKindPrize  TransferKind = "prize"
)

type TransferStatus string

const (
	TransferStatusPending TransferStatus = "pending"
	TransferStatusSent    TransferStatus = "sent"
	TransferStatusFailed  TransferStatus = "failed"
)

// Transfer is an outgoing payment produced by the ledger. Rank is zero
// for refunds.
type Transfer struct {
	Id           string         `db:"id" json:"id"`
	TournamentId string         `db:"tournament_id" json:"tournament_id"`
	AccountId    string         `db:"account_id" json:"account_id"`
	Amount       uint64         `db:"amount" json:"amount"`
	Kind         TransferKind   `db:"kind" json:"kind"`
	Rank         uint8          `db:"prize_rank" json:"rank"`
	Status       TransferStatus `db:"status" json:"status"`
	Attempts     int            `db:"attempts" json:"attempts"`
	LastError    string         `db:"last_error" json:"last_error,omitempty"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updated_at"`
}
