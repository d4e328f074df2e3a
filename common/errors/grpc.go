package errors

import (
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func ToGRPCError(err *AppError) error {
	if err == nil {
		return nil
	}

	return status.Error(mapErrorCodeToGRPC(err.Code), err.Message)
}

func mapErrorCodeToGRPC(code string) codes.Code {
	switch code {
	case CodeNotFound:
		return codes.NotFound
	case CodeAlreadyExists, CodeAlreadyParticipating:
		return codes.AlreadyExists
	case CodeInvalidInput, CodeInsufficientDeposit:
		return codes.InvalidArgument
	case CodeUnauthorized:
		return codes.Unauthenticated
	case CodeForbidden:
		return codes.PermissionDenied
	case CodeConflict:
		return codes.Aborted
	case CodeFailedPrecondition, CodeTournamentInactive, CodeTournamentFull, CodePayoutExceedsBalance:
		return codes.FailedPrecondition
	case CodeArithmeticOverflow:
		return codes.OutOfRange
	case CodeServiceUnavailable:
		return codes.Unavailable
	default:
		return codes.Internal
	}
}

func FromGRPCError(err error) *AppError {
	if err == nil {
		return nil
	}

	st, ok := status.FromError(err)
	if !ok {
		return Wrap(err, CodeInternalServer, err.Error())
	}

	return &AppError{
		Code:    mapGRPCToErrorCode(st.Code()),
		Message: st.Message(),
		Err:     err,
	}
}

func mapGRPCToErrorCode(code codes.Code) string {
	switch code {
	case codes.NotFound:
		return CodeNotFound
	case codes.AlreadyExists:
		return CodeAlreadyExists
	case codes.InvalidArgument:
		return CodeInvalidInput
	case codes.Unauthenticated:
		return CodeUnauthorized
	case codes.PermissionDenied:
		return CodeForbidden
	case codes.Aborted:
		return CodeConflict
	case codes.Unavailable:
		return CodeServiceUnavailable
	case codes.FailedPrecondition:
		return CodeFailedPrecondition
	case codes.OutOfRange:
		return CodeArithmeticOverflow
	default:
		return CodeInternalServer
	}
}
