package telegramrepo

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"

	"github.com/dkibalenko/city-library-api/util/httpx"
)

const defaultBaseURL = "https://api.telegram.org"

type httpRepo struct {
	client *resty.Client
	token  string
	chatID string
}

func NewHTTP(token, chatID string) Repo {
	return newHTTP(defaultBaseURL, token, chatID)
}

func newHTTP(baseURL, token, chatID string) Repo {
	// httpx.Client carries the bounded timeout; there is no retry.
	c := resty.NewWithClient(httpx.Client()).
		SetBaseURL(baseURL)
	return &httpRepo{client: c, token: token, chatID: chatID}
}

func (r *httpRepo) Send(ctx context.Context, req SendMessageReq) (bool, error) {
	resp, err := r.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]any{
			"chat_id":    r.chatID,
			"text":       req.Text,
			"parse_mode": "HTML",
		}).
		Post(fmt.Sprintf("/bot%s/sendMessage", r.token))
	if err != nil {
		return false, err
	}
	if resp.IsError() {
		return false, fmt.Errorf("telegram sendMessage failed: %s", resp.Status())
	}
	return true, nil
}
