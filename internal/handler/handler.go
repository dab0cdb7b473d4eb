// Package handler содержит HTTP-обработчики тестового сервера банковского API.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mmeshcher/bank-client/internal/apierror"
	"github.com/mmeshcher/bank-client/internal/middleware"
	"github.com/mmeshcher/bank-client/internal/mock"
	"github.com/mmeshcher/bank-client/internal/model"
)

const maxFormMemory = 1 << 20

// Backend определяет контракт хранилища, используемого HTTP-обработчиками.
type Backend interface {
	Register(ctx context.Context, in model.RegisterInput) (*model.User, error)
	Authenticate(ctx context.Context, clientCode, password string) (*model.User, error)
	User(ctx context.Context, clientCode string) (*model.User, error)
	Profile(ctx context.Context, clientCode string) (*model.Profile, error)
	Balance(ctx context.Context, clientCode string) (*model.Balance, error)
	Transactions(ctx context.Context, clientCode string, params map[string][]string) ([]model.Transaction, error)
	CreateTransaction(ctx context.Context, clientCode string, in model.TransactionInput) (*model.Transaction, error)
	Transfers(ctx context.Context, clientCode string, params map[string][]string) ([]model.Transfer, error)
	CreateTransfer(ctx context.Context, clientCode string, in model.TransferInput) (*model.Transfer, error)
	LatestPush(ctx context.Context, clientCode string) (*model.PushNotification, error)
	GeneratePush(ctx context.Context, clientCode string) (*model.PushNotification, error)
	Recommendation(ctx context.Context, clientCode string) (*model.Recommendation, error)
	ExportPushes(ctx context.Context, clientCode string) ([]byte, error)
}

// Handler реализует HTTP-обработчики банковского API.
type Handler struct {
	backend        Backend
	logger         *zap.Logger
	authMiddleware *middleware.AuthMiddleware
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
func NewHandler(b Backend, logger *zap.Logger, auth *middleware.AuthMiddleware) *Handler {
	return &Handler{
		backend:        b,
		logger:         logger,
		authMiddleware: auth,
	}
}

type authResponse struct {
	Token string     `json:"token"`
	User  model.User `json:"user"`
}

// Register регистрирует клиента и сразу выдаёт токен.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var in model.RegisterInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		middleware.WriteJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.backend.Register(r.Context(), in)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.respondWithToken(w, http.StatusCreated, user)
}

// Login выполняет аутентификацию клиента и выдаёт токен.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.Credentials
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.ClientCode == "" || req.Password == "" {
		middleware.WriteJSONError(w, http.StatusUnprocessableEntity, "client code and password are required")
		return
	}

	user, err := h.backend.Authenticate(r.Context(), req.ClientCode, req.Password)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.respondWithToken(w, http.StatusOK, user)
}

func (h *Handler) respondWithToken(w http.ResponseWriter, status int, user *model.User) {
	token, err := h.authMiddleware.IssueToken(user.ClientCode)
	if err != nil {
		h.logger.Error("issue token error", zap.Error(err))
		middleware.WriteJSONError(w, http.StatusInternalServerError, apierror.MsgServer)
		return
	}
	h.writeJSON(w, status, authResponse{Token: token, User: *user})
}

// Me возвращает клиента, которому принадлежит токен.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	code, _ := middleware.ClientCodeFromContext(r.Context())

	user, err := h.backend.User(r.Context(), code)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, user)
}

// Logout ничего не отзывает: токены живут до истечения срока.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

// GetProfile возвращает профиль текущего клиента.
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	code, _ := middleware.ClientCodeFromContext(r.Context())

	profile, err := h.backend.Profile(r.Context(), code)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, profile)
}

// GetBalance возвращает баланс текущего клиента.
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	code, _ := middleware.ClientCodeFromContext(r.Context())

	balance, err := h.backend.Balance(r.Context(), code)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, balance)
}

// GetTransactions отдаёт транзакции в обёртке {"transactions": [...], "total": n}.
func (h *Handler) GetTransactions(w http.ResponseWriter, r *http.Request) {
	code, _ := middleware.ClientCodeFromContext(r.Context())

	items, err := h.backend.Transactions(r.Context(), code, r.URL.Query())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"transactions": items,
		"total":        len(items),
	})
}

// CreateTransaction принимает multipart/form-data или application/json.
// На форму отвечает подтверждением с вложенной записью, на JSON отдаёт саму запись.
func (h *Handler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	code, _ := middleware.ClientCodeFromContext(r.Context())

	var (
		in       model.TransactionInput
		fromForm bool
		err      error
	)
	if isMultipart(r) {
		fromForm = true
		in, err = transactionFromForm(r)
	} else {
		err = json.NewDecoder(r.Body).Decode(&in)
	}
	if err != nil {
		middleware.WriteJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	tx, err := h.backend.CreateTransaction(r.Context(), code, in)
	if err != nil {
		h.writeError(w, err)
		return
	}

	if fromForm {
		h.writeJSON(w, http.StatusCreated, map[string]any{
			"message":     "Transaction created successfully",
			"transaction": tx,
		})
		return
	}
	h.writeJSON(w, http.StatusCreated, tx)
}

// GetTransfers отдаёт переводы массивом без обёртки.
func (h *Handler) GetTransfers(w http.ResponseWriter, r *http.Request) {
	code, _ := middleware.ClientCodeFromContext(r.Context())

	items, err := h.backend.Transfers(r.Context(), code, r.URL.Query())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, items)
}

// CreateTransfer принимает multipart/form-data или application/json.
func (h *Handler) CreateTransfer(w http.ResponseWriter, r *http.Request) {
	code, _ := middleware.ClientCodeFromContext(r.Context())

	var (
		in       model.TransferInput
		fromForm bool
		err      error
	)
	if isMultipart(r) {
		fromForm = true
		in, err = transferFromForm(r)
	} else {
		err = json.NewDecoder(r.Body).Decode(&in)
	}
	if err != nil {
		middleware.WriteJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	tr, err := h.backend.CreateTransfer(r.Context(), code, in)
	if err != nil {
		h.writeError(w, err)
		return
	}

	if fromForm {
		h.writeJSON(w, http.StatusCreated, map[string]any{
			"message":  "Transfer created successfully",
			"transfer": tr,
		})
		return
	}
	h.writeJSON(w, http.StatusCreated, tr)
}

// GetLatestPush возвращает последнее уведомление.
func (h *Handler) GetLatestPush(w http.ResponseWriter, r *http.Request) {
	code, _ := middleware.ClientCodeFromContext(r.Context())

	push, err := h.backend.LatestPush(r.Context(), code)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, push)
}

// GeneratePush формирует новое уведомление.
func (h *Handler) GeneratePush(w http.ResponseWriter, r *http.Request) {
	code, _ := middleware.ClientCodeFromContext(r.Context())

	push, err := h.backend.GeneratePush(r.Context(), code)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, push)
}

// GetRecommendation возвращает рекомендацию для клиента из пути.
func (h *Handler) GetRecommendation(w http.ResponseWriter, r *http.Request) {
	rec, err := h.backend.Recommendation(r.Context(), chi.URLParam(r, "clientCode"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, rec)
}

// DownloadPushes отдаёт уведомления текущего клиента файлом CSV.
func (h *Handler) DownloadPushes(w http.ResponseWriter, r *http.Request) {
	code, _ := middleware.ClientCodeFromContext(r.Context())

	data, err := h.backend.ExportPushes(r.Context(), code)
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": mock.ExportFilename(code)})
	w.Header().Set("Content-Disposition", disposition)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.logger.Warn("write export", zap.Error(err))
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Warn("encode response", zap.Error(err))
	}
}

// writeError переводит ошибки бэкенда в статусы, которые ожидает клиент.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var apiErr *apierror.Error
	switch {
	case errors.As(err, &apiErr) && apiErr.Kind == apierror.KindValidation:
		middleware.WriteJSONError(w, http.StatusUnprocessableEntity, apiErr.Message)
	case errors.Is(err, mock.ErrInvalidCredentials):
		middleware.WriteJSONError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, mock.ErrClientExists):
		middleware.WriteJSONError(w, http.StatusConflict, err.Error())
	case errors.Is(err, mock.ErrUnknownClient), errors.Is(err, mock.ErrNoPushes):
		middleware.WriteJSONError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, mock.ErrInsufficientFunds):
		middleware.WriteJSONError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("backend error", zap.Error(err))
		middleware.WriteJSONError(w, http.StatusInternalServerError, apierror.MsgServer)
	}
}

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
}

func parseForm(r *http.Request) (url.Values, error) {
	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		return nil, err
	}
	return r.MultipartForm.Value, nil
}

func formAmount(form url.Values) (decimal.Decimal, error) {
	raw := strings.TrimSpace(form.Get("amount"))
	if raw == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(raw)
}

func transactionFromForm(r *http.Request) (model.TransactionInput, error) {
	form, err := parseForm(r)
	if err != nil {
		return model.TransactionInput{}, err
	}
	amount, err := formAmount(form)
	if err != nil {
		return model.TransactionInput{}, err
	}
	return model.TransactionInput{
		Amount:      amount,
		Type:        model.TransactionType(form.Get("type")),
		Category:    form.Get("category"),
		Description: form.Get("description"),
		Date:        form.Get("date"),
		ClientCode:  form.Get("client_code"),
	}, nil
}

func transferFromForm(r *http.Request) (model.TransferInput, error) {
	form, err := parseForm(r)
	if err != nil {
		return model.TransferInput{}, err
	}
	amount, err := formAmount(form)
	if err != nil {
		return model.TransferInput{}, err
	}
	return model.TransferInput{
		Type:             model.TransferType(form.Get("type")),
		Amount:           amount,
		Recipient:        form.Get("recipient"),
		RecipientAccount: form.Get("recipient_account"),
		Description:      form.Get("description"),
	}, nil
}
