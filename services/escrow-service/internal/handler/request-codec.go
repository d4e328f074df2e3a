package handler

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/structpb"

	apperrors "github.com/burakmert236/goodswipe-escrow/common/errors"
	"github.com/burakmert236/goodswipe-escrow/common/models"
)

func callerFromContext(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	values := md.Get(CallerHeader)
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

func invalidField(name, reason string) *apperrors.AppError {
	return apperrors.New(apperrors.CodeInvalidInput, fmt.Sprintf("field %s %s", name, reason))
}

func requiredString(req *structpb.Struct, name string) (string, *apperrors.AppError) {
	v, ok := req.GetFields()[name]
	if !ok {
		return "", invalidField(name, "is required")
	}
	s, ok := v.GetKind().(*structpb.Value_StringValue)
	if !ok {
		return "", invalidField(name, "must be a string")
	}
	return s.StringValue, nil
}

func optionalString(req *structpb.Struct, name string) (*string, *apperrors.AppError) {
	v, ok := req.GetFields()[name]
	if !ok {
		return nil, nil
	}
	switch kind := v.GetKind().(type) {
	case *structpb.Value_NullValue:
		return nil, nil
	case *structpb.Value_StringValue:
		s := kind.StringValue
		return &s, nil
	default:
		return nil, invalidField(name, "must be a string")
	}
}

// unsigned accepts a decimal string or an integral number no larger than
// max. Amounts should travel as strings since numbers are float64.
func unsigned(name string, v *structpb.Value, max uint64) (uint64, *apperrors.AppError) {
	var n uint64
	switch kind := v.GetKind().(type) {
	case *structpb.Value_StringValue:
		parsed, err := strconv.ParseUint(kind.StringValue, 10, 64)
		if err != nil {
			return 0, invalidField(name, "must be a non-negative integer")
		}
		n = parsed
	case *structpb.Value_NumberValue:
		f := kind.NumberValue
		if f < 0 || f != math.Trunc(f) || f > (1<<53) {
			return 0, invalidField(name, "must be a non-negative integer")
		}
		n = uint64(f)
	default:
		return 0, invalidField(name, "must be a string or a number")
	}

	if n > max {
		return 0, invalidField(name, fmt.Sprintf("must be at most %d", max))
	}
	return n, nil
}

func requiredUnsigned(req *structpb.Struct, name string, max uint64) (uint64, *apperrors.AppError) {
	v, ok := req.GetFields()[name]
	if !ok {
		return 0, invalidField(name, "is required")
	}
	return unsigned(name, v, max)
}

func optionalUnsigned(req *structpb.Struct, name string, max uint64) (uint64, bool, *apperrors.AppError) {
	v, ok := req.GetFields()[name]
	if !ok {
		return 0, false, nil
	}
	if _, null := v.GetKind().(*structpb.Value_NullValue); null {
		return 0, false, nil
	}
	n, err := unsigned(name, v, max)
	return n, err == nil, err
}

func rankKey(name, key string) (uint8, *apperrors.AppError) {
	rank, err := strconv.ParseUint(key, 10, 8)
	if err != nil {
		return 0, invalidField(name, fmt.Sprintf("has invalid rank %q", key))
	}
	return uint8(rank), nil
}

func prizeTable(req *structpb.Struct, name string) (map[uint8]uint8, *apperrors.AppError) {
	prizes := make(map[uint8]uint8)

	v, ok := req.GetFields()[name]
	if !ok {
		return prizes, nil
	}
	table := v.GetStructValue()
	if table == nil {
		return nil, invalidField(name, "must be an object of rank to percent")
	}

	for key, value := range table.GetFields() {
		rank, err := rankKey(name, key)
		if err != nil {
			return nil, err
		}
		p, err := unsigned(name+"."+key, value, math.MaxUint8)
		if err != nil {
			return nil, err
		}
		prizes[rank] = uint8(p)
	}
	return prizes, nil
}

func winnerTable(req *structpb.Struct, name string) (map[uint8]string, *apperrors.AppError) {
	v, ok := req.GetFields()[name]
	if !ok {
		return nil, invalidField(name, "is required")
	}
	table := v.GetStructValue()
	if table == nil {
		return nil, invalidField(name, "must be an object of rank to account")
	}

	winners := make(map[uint8]string, len(table.GetFields()))
	for key, value := range table.GetFields() {
		rank, err := rankKey(name, key)
		if err != nil {
			return nil, err
		}
		account, ok := value.GetKind().(*structpb.Value_StringValue)
		if !ok {
			return nil, invalidField(name+"."+key, "must be a string")
		}
		winners[rank] = account.StringValue
	}
	return winners, nil
}

func viewFields(view *models.TournamentView) map[string]any {
	fields := map[string]any{
		"tournament_id":      view.TournamentId,
		"owner_id":           view.OwnerId,
		"name":               view.Metadata.Name,
		"icon":               nil,
		"players_number":     view.Metadata.PlayersNumber,
		"in_price":           strconv.FormatUint(view.Metadata.InPrice, 10),
		"first_place_prize":  optionalPercent(view.FirstPlacePrize),
		"second_place_prize": optionalPercent(view.SecondPlacePrize),
		"third_place_prize":  optionalPercent(view.ThirdPlacePrize),
		"active":             view.Active,
		"prize_fund":         strconv.FormatUint(view.PrizeFund, 10),
	}
	if view.Metadata.Icon != nil {
		fields["icon"] = *view.Metadata.Icon
	}
	return fields
}

func optionalPercent(p *uint8) any {
	if p == nil {
		return nil
	}
	return *p
}
