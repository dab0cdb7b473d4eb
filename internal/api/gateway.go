package api

import (
	"go.uber.org/zap"

	"github.com/mmeshcher/bank-client/internal/httpclient"
)

// HTTPGateway реализует Gateway через REST API банка.
type HTTPGateway struct {
	client   *httpclient.Client
	sessions SessionManager
	logger   *zap.Logger
}

var _ Gateway = (*HTTPGateway)(nil)

// NewHTTPGateway создаёт шлюз поверх настроенного HTTP-клиента.
// Клиент должен быть создан с тем же SessionManager в качестве источника токена.
func NewHTTPGateway(client *httpclient.Client, sessions SessionManager, logger *zap.Logger) *HTTPGateway {
	return &HTTPGateway{
		client:   client,
		sessions: sessions,
		logger:   logger,
	}
}
