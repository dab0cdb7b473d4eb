package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/mmeshcher/bank-client/internal/apierror"
	"github.com/mmeshcher/bank-client/internal/httpclient"
	"github.com/mmeshcher/bank-client/internal/model"
	"github.com/mmeshcher/bank-client/internal/validation"
)

// authResponse допускает и token, и access_token.
type authResponse struct {
	Token       string     `json:"token"`
	AccessToken string     `json:"access_token"`
	User        model.User `json:"user"`
}

func (r authResponse) session() (*model.Session, error) {
	token := r.Token
	if token == "" {
		token = r.AccessToken
	}
	if token == "" {
		return nil, &apierror.Error{
			Kind:    apierror.KindServer,
			Message: apierror.MsgRequestFailed,
			Err:     errors.New("auth response has no token"),
		}
	}
	return &model.Session{Token: token, User: r.User}, nil
}

// Register регистрирует клиента и сохраняет полученную сессию.
func (g *HTTPGateway) Register(ctx context.Context, in model.RegisterInput) (*model.Session, error) {
	if err := validation.Register(in); err != nil {
		return nil, err
	}

	var resp authResponse
	err := g.client.DoJSON(ctx, httpclient.Request{
		Method: http.MethodPost,
		Path:   "/auth/register",
		JSON:   in,
		Public: true,
	}, &resp)
	if err != nil {
		return nil, err
	}

	return g.persist(ctx, resp)
}

// Login входит по коду клиента и паролю и сохраняет сессию.
func (g *HTTPGateway) Login(ctx context.Context, clientCode, password string) (*model.Session, error) {
	if err := validation.Credentials(clientCode, password); err != nil {
		return nil, err
	}

	var resp authResponse
	err := g.client.DoJSON(ctx, httpclient.Request{
		Method: http.MethodPost,
		Path:   "/auth/login",
		JSON:   model.Credentials{ClientCode: clientCode, Password: password},
		Public: true,
	}, &resp)
	if err != nil {
		if apierror.Is(err, apierror.KindUnauthorized) {
			invalid := apierror.InvalidCredentials()
			invalid.Err = err
			return nil, invalid
		}
		return nil, err
	}

	return g.persist(ctx, resp)
}

func (g *HTTPGateway) persist(ctx context.Context, resp authResponse) (*model.Session, error) {
	sess, err := resp.session()
	if err != nil {
		return nil, err
	}
	if err := g.sessions.Set(ctx, sess.Token, sess.User); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	g.logger.Info("session started", zap.String("client_code", sess.User.ClientCode))
	return sess, nil
}

// CurrentUser запрашивает пользователя по сохранённому токену и обновляет его копию в сессии.
func (g *HTTPGateway) CurrentUser(ctx context.Context) (*model.User, error) {
	var user model.User
	err := g.client.DoJSON(ctx, httpclient.Request{
		Method: http.MethodGet,
		Path:   "/auth/me",
	}, &user)
	if err != nil {
		return nil, err
	}

	if sess, ok := g.sessions.Session(ctx); ok {
		if err := g.sessions.Set(ctx, sess.Token, user); err != nil {
			g.logger.Warn("refresh stored user", zap.Error(err))
		}
	}
	return &user, nil
}

// Logout только очищает локальную сессию: сервер токены не отзывает.
func (g *HTTPGateway) Logout(ctx context.Context) {
	if err := g.sessions.Clear(ctx); err != nil {
		g.logger.Warn("clear session on logout", zap.Error(err))
	}
}
