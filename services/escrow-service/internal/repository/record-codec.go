package repository

import (
	"context"
	"encoding/json"

	apperrors "github.com/burakmert236/goodswipe-escrow/common/errors"
	"github.com/burakmert236/goodswipe-escrow/services/escrow-service/internal/storage"
)

func getRecord(ctx context.Context, r storage.Reader, key string, v any) (bool, *apperrors.AppError) {
	data, ok, err := r.Get(ctx, key)
	if err != nil {
		return false, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to read "+key)
	}
	if !ok {
		return false, nil
	}

	if err := json.Unmarshal(data, v); err != nil {
		return false, apperrors.Wrap(err, apperrors.CodeObjectUnmarshalError, "failed to unmarshal "+key)
	}
	return true, nil
}

func putRecord(tx *storage.Tx, key string, v any) *apperrors.AppError {
	data, err := json.Marshal(v)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeObjectMarshalError, "failed to marshal "+key)
	}

	tx.Put(key, data)
	return nil
}

func insertRecord(ctx context.Context, tx *storage.Tx, key string, v any) (bool, *apperrors.AppError) {
	data, err := json.Marshal(v)
	if err != nil {
		return false, apperrors.Wrap(err, apperrors.CodeObjectMarshalError, "failed to marshal "+key)
	}

	ok, err := tx.Insert(ctx, key, data)
	if err != nil {
		return false, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to read "+key)
	}
	return ok, nil
}
