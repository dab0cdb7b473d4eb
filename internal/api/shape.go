package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mmeshcher/bank-client/internal/apierror"
	"github.com/mmeshcher/bank-client/internal/model"
)

var errUnexpectedShape = errors.New("unexpected response shape")

// decodeTransactions принимает массив или объект с полем transactions, items или data.
// Пустой объект читается как пустой список.
func decodeTransactions(body []byte) ([]model.Transaction, error) {
	return decodeCollection[model.Transaction](body, "transactions", "items", "data")
}

// decodeTransfers принимает массив или объект с полем transfers, items или data.
func decodeTransfers(body []byte) ([]model.Transfer, error) {
	return decodeCollection[model.Transfer](body, "transfers", "items", "data")
}

func decodeCollection[T any](body []byte, keys ...string) ([]T, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return []T{}, nil
	}

	switch body[0] {
	case '[':
		var items []T
		if err := json.Unmarshal(body, &items); err != nil {
			return nil, shapeError(err)
		}
		return items, nil
	case '{':
		var wrapper map[string]json.RawMessage
		if err := json.Unmarshal(body, &wrapper); err != nil {
			return nil, shapeError(err)
		}
		known := false
		for _, key := range keys {
			raw, ok := wrapper[key]
			if !ok {
				continue
			}
			known = true
			if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
				continue
			}
			var items []T
			if err := json.Unmarshal(raw, &items); err != nil {
				return nil, shapeError(fmt.Errorf("field %s: %w", key, err))
			}
			return items, nil
		}
		// Объект без единого знакомого поля скорее означает смену формата, чем пустой список.
		if !known && len(wrapper) > 0 {
			return nil, shapeError(fmt.Errorf("%w: none of %v present", errUnexpectedShape, keys))
		}
		return []T{}, nil
	}

	return nil, shapeError(errUnexpectedShape)
}

// decodeCreated разбирает ответ на создание: сама запись, запись во вложенном поле
// или подтверждение вида {"message": "..."}.
func decodeCreated[T any](body []byte, nested ...string) (*model.Created[T], error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return &model.Created[T]{}, nil
	}
	if body[0] != '{' {
		return nil, shapeError(errUnexpectedShape)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, shapeError(err)
	}

	created := &model.Created[T]{}
	if raw, ok := fields["message"]; ok {
		_ = json.Unmarshal(raw, &created.Message)
	}

	for _, key := range nested {
		raw, ok := fields[key]
		if !ok {
			continue
		}
		raw = bytes.TrimSpace(raw)
		if len(raw) == 0 || raw[0] != '{' {
			continue
		}
		var record T
		if err := json.Unmarshal(raw, &record); err != nil {
			return nil, shapeError(fmt.Errorf("field %s: %w", key, err))
		}
		created.Record = &record
		return created, nil
	}

	if _, ok := fields["id"]; ok {
		var record T
		if err := json.Unmarshal(body, &record); err != nil {
			return nil, shapeError(err)
		}
		created.Record = &record
	}
	return created, nil
}

func shapeError(err error) *apierror.Error {
	return &apierror.Error{
		Kind:    apierror.KindServer,
		Message: apierror.MsgRequestFailed,
		Err:     fmt.Errorf("decode response: %w", err),
	}
}
