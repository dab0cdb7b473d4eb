package api

import (
	"context"
	"net/http"

	"github.com/mmeshcher/bank-client/internal/httpclient"
	"github.com/mmeshcher/bank-client/internal/model"
	"github.com/mmeshcher/bank-client/internal/money"
)

// Profile возвращает профиль клиента. Неизвестные поля сохраняются в Extra.
func (g *HTTPGateway) Profile(ctx context.Context) (*model.Profile, error) {
	var profile model.Profile
	err := g.client.DoJSON(ctx, httpclient.Request{
		Method: http.MethodGet,
		Path:   "/client/profile",
	}, &profile)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// Balance возвращает баланс с валютой, приведённой к разрешённому списку.
func (g *HTTPGateway) Balance(ctx context.Context) (*model.Balance, error) {
	var balance model.Balance
	err := g.client.DoJSON(ctx, httpclient.Request{
		Method: http.MethodGet,
		Path:   "/client/balance",
	}, &balance)
	if err != nil {
		return nil, err
	}
	balance.Currency = money.NormalizeCurrency(balance.Currency)
	return &balance, nil
}
