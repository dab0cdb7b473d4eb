// Package apierror описывает ошибки, которыми завершаются операции банковского API.
package apierror

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind классифицирует ошибку операции.
type Kind string

const (
	KindValidation         Kind = "validation"
	KindUnauthorized       Kind = "unauthorized"
	KindInvalidCredentials Kind = "invalid_credentials"
	KindConflict           Kind = "conflict"
	KindNotFound           Kind = "not_found"
	KindDomain             Kind = "domain"
	KindServer             Kind = "server"
	KindNetwork            Kind = "network"
)

// Сообщения по умолчанию, если сервер не прислал своё.
const (
	MsgNetwork            = "network error: check your connection"
	MsgServer             = "internal server error"
	MsgRequestFailed      = "request failed"
	MsgUnauthorized       = "session expired, please log in again"
	MsgInvalidCredentials = "invalid credentials"
	MsgNotFound           = "resource not found"
)

// Error — ошибка операции с классом, HTTP-статусом и сообщением для пользователя.
//
//	var apiErr *apierror.Error
//	if errors.As(err, &apiErr) && apiErr.Kind == apierror.KindUnauthorized { ... }
type Error struct {
	Kind       Kind
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s (%d): %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is сообщает, что err является *Error указанного класса.
func Is(err error, kind Kind) bool {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind == kind
	}
	return false
}

// Validation создаёт ошибку валидации, не дошедшую до сети.
func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// Network создаёт ошибку отсутствия ответа от сервера.
func Network(err error) *Error {
	return &Error{Kind: KindNetwork, Message: MsgNetwork, Err: err}
}

// Unauthorized создаёт ошибку отсутствующей или недействительной сессии.
func Unauthorized(message string) *Error {
	if message == "" {
		message = MsgUnauthorized
	}
	return &Error{Kind: KindUnauthorized, StatusCode: http.StatusUnauthorized, Message: message}
}

// InvalidCredentials создаёт ошибку неверного кода клиента или пароля.
func InvalidCredentials() *Error {
	return &Error{Kind: KindInvalidCredentials, StatusCode: http.StatusUnauthorized, Message: MsgInvalidCredentials}
}

// FromResponse строит ошибку по статусу и телу ответа сервера.
func FromResponse(statusCode int, body []byte) *Error {
	message := ServerMessage(body)

	e := &Error{StatusCode: statusCode, Message: message}
	switch {
	case statusCode == http.StatusUnauthorized:
		e.Kind = KindUnauthorized
		if e.Message == "" {
			e.Message = MsgUnauthorized
		}
	case statusCode == http.StatusNotFound:
		e.Kind = KindNotFound
		if e.Message == "" {
			e.Message = MsgNotFound
		}
	case statusCode == http.StatusConflict:
		e.Kind = KindConflict
	case statusCode >= 500:
		e.Kind = KindServer
		if e.Message == "" {
			e.Message = MsgServer
		}
	default:
		e.Kind = KindDomain
	}

	if e.Message == "" {
		e.Message = MsgRequestFailed
	}
	return e
}

// ServerMessage извлекает текст ошибки из тела ответа: message, detail или error.
func ServerMessage(body []byte) string {
	var payload struct {
		Message string          `json:"message"`
		Detail  json.RawMessage `json:"detail"`
		Error   string          `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}

	if payload.Message != "" {
		return payload.Message
	}
	// detail бывает строкой или списком ошибок валидации
	var detail string
	if len(payload.Detail) > 0 && json.Unmarshal(payload.Detail, &detail) == nil && detail != "" {
		return detail
	}
	return strings.TrimSpace(payload.Error)
}
