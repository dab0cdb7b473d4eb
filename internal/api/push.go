package api

import (
	"context"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/mmeshcher/bank-client/internal/apierror"
	"github.com/mmeshcher/bank-client/internal/httpclient"
	"github.com/mmeshcher/bank-client/internal/model"
)

// DefaultPushesFilename используется, если сервер не прислал имя файла.
const DefaultPushesFilename = "pushes.csv"

// LatestPush возвращает последнее уведомление. Вызывающая сторона может считать ошибку некритичной.
func (g *HTTPGateway) LatestPush(ctx context.Context) (*model.PushNotification, error) {
	var push model.PushNotification
	err := g.client.DoJSON(ctx, httpclient.Request{
		Method: http.MethodGet,
		Path:   "/push/latest",
	}, &push)
	if err != nil {
		return nil, err
	}
	return &push, nil
}

// GeneratePush просит сервер сформировать новое уведомление.
func (g *HTTPGateway) GeneratePush(ctx context.Context) (*model.PushNotification, error) {
	var push model.PushNotification
	err := g.client.DoJSON(ctx, httpclient.Request{
		Method: http.MethodPost,
		Path:   "/push/generate",
	}, &push)
	if err != nil {
		return nil, err
	}
	return &push, nil
}

// Recommendation возвращает рекомендацию продукта для клиента.
func (g *HTTPGateway) Recommendation(ctx context.Context, clientCode string) (*model.Recommendation, error) {
	clientCode = strings.TrimSpace(clientCode)
	if clientCode == "" {
		return nil, apierror.Validation("client code is required")
	}

	var rec model.Recommendation
	err := g.client.DoJSON(ctx, httpclient.Request{
		Method: http.MethodGet,
		Path:   "/recommendation/" + url.PathEscape(clientCode),
	}, &rec)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// DownloadPushes выгружает уведомления как есть. Файл сохраняет вызывающий.
func (g *HTTPGateway) DownloadPushes(ctx context.Context) (*model.Download, error) {
	resp, err := g.client.Do(ctx, httpclient.Request{
		Method: http.MethodGet,
		Path:   "/pushes/download",
	})
	if err != nil {
		return nil, err
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "text/csv"
	}
	return &model.Download{
		Filename:    attachmentName(resp.Header.Get("Content-Disposition")),
		ContentType: contentType,
		Data:        resp.Body,
	}, nil
}

func attachmentName(disposition string) string {
	if disposition == "" {
		return DefaultPushesFilename
	}
	_, params, err := mime.ParseMediaType(disposition)
	if err != nil {
		return DefaultPushesFilename
	}
	name := path.Base(strings.ReplaceAll(params["filename"], `\`, "/"))
	if name == "" || name == "." || name == "/" {
		return DefaultPushesFilename
	}
	return name
}
