package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/mmeshcher/bank-client/internal/httpclient"
	"github.com/mmeshcher/bank-client/internal/model"
	"github.com/mmeshcher/bank-client/internal/validation"
)

// Transactions возвращает транзакции в порядке сервера. params уходят в строку запроса как есть.
func (g *HTTPGateway) Transactions(ctx context.Context, params url.Values) ([]model.Transaction, error) {
	resp, err := g.client.Do(ctx, httpclient.Request{
		Method: http.MethodGet,
		Path:   "/transactions",
		Query:  params,
	})
	if err != nil {
		return nil, err
	}
	return decodeTransactions(resp.Body)
}

// CreateTransaction создаёт транзакцию через multipart/form-data.
func (g *HTTPGateway) CreateTransaction(ctx context.Context, in model.TransactionInput) (*model.Created[model.Transaction], error) {
	if err := validation.Transaction(in); err != nil {
		return nil, err
	}
	return g.createTransaction(ctx, httpclient.Request{Form: transactionForm(in)})
}

// CreateTransactionJSON создаёт транзакцию через application/json.
func (g *HTTPGateway) CreateTransactionJSON(ctx context.Context, in model.TransactionInput) (*model.Created[model.Transaction], error) {
	if err := validation.Transaction(in); err != nil {
		return nil, err
	}
	return g.createTransaction(ctx, httpclient.Request{JSON: in})
}

func (g *HTTPGateway) createTransaction(ctx context.Context, req httpclient.Request) (*model.Created[model.Transaction], error) {
	req.Method = http.MethodPost
	req.Path = "/transactions"

	resp, err := g.client.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	return decodeCreated[model.Transaction](resp.Body, "transaction", "data")
}

func transactionForm(in model.TransactionInput) []httpclient.Field {
	fields := []httpclient.Field{
		{Name: "amount", Value: in.Amount.String()},
		{Name: "type", Value: string(in.Type)},
		{Name: "category", Value: in.Category},
		{Name: "description", Value: in.Description},
	}
	if in.Date != "" {
		fields = append(fields, httpclient.Field{Name: "date", Value: in.Date})
	}
	if in.ClientCode != "" {
		fields = append(fields, httpclient.Field{Name: "client_code", Value: in.ClientCode})
	}
	return fields
}
