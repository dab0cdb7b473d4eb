package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/mmeshcher/bank-client/internal/httpclient"
	"github.com/mmeshcher/bank-client/internal/model"
	"github.com/mmeshcher/bank-client/internal/validation"
)

// Transfers возвращает переводы в порядке сервера.
func (g *HTTPGateway) Transfers(ctx context.Context, params url.Values) ([]model.Transfer, error) {
	resp, err := g.client.Do(ctx, httpclient.Request{
		Method: http.MethodGet,
		Path:   "/transfers",
		Query:  params,
	})
	if err != nil {
		return nil, err
	}
	return decodeTransfers(resp.Body)
}

// CreateTransfer создаёт перевод через multipart/form-data.
func (g *HTTPGateway) CreateTransfer(ctx context.Context, in model.TransferInput) (*model.Created[model.Transfer], error) {
	if err := validation.Transfer(in); err != nil {
		return nil, err
	}
	return g.createTransfer(ctx, httpclient.Request{Form: transferForm(in)})
}

// CreateTransferJSON создаёт перевод через application/json.
func (g *HTTPGateway) CreateTransferJSON(ctx context.Context, in model.TransferInput) (*model.Created[model.Transfer], error) {
	if err := validation.Transfer(in); err != nil {
		return nil, err
	}
	return g.createTransfer(ctx, httpclient.Request{JSON: in})
}

func (g *HTTPGateway) createTransfer(ctx context.Context, req httpclient.Request) (*model.Created[model.Transfer], error) {
	req.Method = http.MethodPost
	req.Path = "/transfers"

	resp, err := g.client.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	return decodeCreated[model.Transfer](resp.Body, "transfer", "data")
}

func transferForm(in model.TransferInput) []httpclient.Field {
	return []httpclient.Field{
		{Name: "type", Value: string(in.Type)},
		{Name: "amount", Value: in.Amount.String()},
		{Name: "recipient", Value: in.Recipient},
		{Name: "recipient_account", Value: in.RecipientAccount},
		{Name: "description", Value: in.Description},
	}
}
