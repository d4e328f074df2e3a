package errors

const (
	// Generic codes
	CodeNotFound             = "NOT_FOUND"
	CodeAlreadyExists        = "ALREADY_EXISTS"
	CodeInvalidInput         = "INVALID_INPUT"
	CodeUnauthorized         = "UNAUTHORIZED"
	CodeForbidden            = "FORBIDDEN"
	CodeConflict             = "CONFLICT"
	CodeFailedPrecondition   = "FAILED_PRECONDITION"
	CodeInternalServer       = "INTERNAL_SERVER"
	CodeServiceUnavailable   = "SERVICE_UNAVAILABLE"
	CodeEventPublishError    = "EVENT_PUBLISH_ERROR"
	CodeObjectMarshalError   = "OBJECT_MARSHALL_ERROR"
	CodeObjectUnmarshalError = "OBJECT_UNMARSHALL_ERROR"
	CodeDatabaseError        = "DATABASE_ERROR"
	CodeTransactionError     = "TRANSACTION_ERROR"
	CodeRedisOperationError  = "REDIS_ERROR"

	// Ledger codes
	CodeTournamentInactive   = "TOURNAMENT_INACTIVE"
	CodeTournamentFull       = "TOURNAMENT_FULL"
	CodeInsufficientDeposit  = "INSUFFICIENT_DEPOSIT"
	CodeAlreadyParticipating = "ALREADY_PARTICIPATING"
	CodePayoutExceedsBalance = "PAYOUT_EXCEEDS_BALANCE"
	CodeArithmeticOverflow   = "ARITHMETIC_OVERFLOW"
	CodeTransferError        = "TRANSFER_ERROR"
)
