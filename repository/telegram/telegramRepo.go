package telegramrepo

import "context"

type SendMessageReq struct {
	Text string
}

// Repo is the outbound notification sink. Send reports delivery as a plain
// boolean: the caller only logs the outcome, it never branches on it.
type Repo interface {
	Send(ctx context.Context, req SendMessageReq) (bool, error)
}
