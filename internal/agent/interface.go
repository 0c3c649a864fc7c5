package agent

import "context"

type ChatAgent interface {
	Respond(ctx context.Context, turn Turn) (TurnResult, error)
}
