package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"matchday/internal/metrics"
	"matchday/internal/model"
)

const (
	DefaultPushTimeout     = 10 * time.Second
	DefaultPushConcurrency = 32
)

// TokenStore is the part of the device registry the dispatcher needs.
type TokenStore interface {
	TokensForUsers(ctx context.Context, userIDs []int64) (map[int64][]string, error)
	Prune(ctx context.Context, token string) (int64, error)
}

// DispatcherConfig bounds one fan-out.
type DispatcherConfig struct {
	Timeout        time.Duration // per push call
	MaxConcurrency int           // concurrent push calls per fan-out
}

// PushDispatcher fans one message out to every device of a set of users.
type PushDispatcher struct {
	tokens  TokenStore
	gateway PushGateway
	breaker *CircuitBreaker
	metrics *metrics.NotificationMetrics
	cfg     DispatcherConfig
}

func NewPushDispatcher(tokens TokenStore, gateway PushGateway, breaker *CircuitBreaker, m *metrics.NotificationMetrics, cfg DispatcherConfig) *PushDispatcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultPushTimeout
	}
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = DefaultPushConcurrency
	}
	return &PushDispatcher{
		tokens:  tokens,
		gateway: gateway,
		breaker: breaker,
		metrics: m,
		cfg:     cfg,
	}
}

// delivery is one (user, token) pair of the flattened fan-out.
// delivery is one push call. A token registered by several users is sent
// once; userID is its first owner and owners lists all of them.
type delivery struct {
	userID int64
	token  string
	owners []int64
}

// deliveryOutcome is written by exactly one goroutine.
type deliveryOutcome struct {
	outcome model.PushOutcome
	err     error
	pruned  bool
}

// Dispatch pushes msg to every token of every user and waits for all calls.
// Partial failure is reported in the result. The only error returned is a
// failure to resolve tokens, in which case nothing was sent.
func (d *PushDispatcher) Dispatch(ctx context.Context, userIDs []int64, msg model.PushMessage) (*model.DispatchResult, error) {
	users := uniqueIDs(userIDs)
	result := &model.DispatchResult{
		DispatchID:    uuid.NewString(),
		UsersTargeted: len(users),
	}
	if len(users) == 0 {
		return result, nil
	}

	start := time.Now()
	d.metrics.IncrementDispatchTotal()

	// An in-flight fan-out is never cancelled by its caller
	ctx = context.WithoutCancel(ctx)

	tokensByUser, err := d.tokens.TokensForUsers(ctx, users)
	if err != nil {
		log.Printf("[Dispatcher] Dispatch FAILED: id=%s users=%d err=%v", result.DispatchID, len(users), err)
		return nil, err
	}

	var deliveries []delivery
	byToken := make(map[string]int)
	for _, userID := range users {
		tokens := tokensByUser[userID]
		if len(tokens) == 0 {
			result.UsersWithoutDevices++
			continue
		}
		for _, token := range tokens {
			if i, ok := byToken[token]; ok {
				deliveries[i].owners = append(deliveries[i].owners, userID)
				continue
			}
			byToken[token] = len(deliveries)
			deliveries = append(deliveries, delivery{userID: userID, token: token, owners: []int64{userID}})
		}
	}

	outcomes := make([]deliveryOutcome, len(deliveries))

	var g errgroup.Group
	g.SetLimit(d.cfg.MaxConcurrency)
	for i, dl := range deliveries {
		g.Go(func() error {
			outcomes[i] = d.deliver(ctx, dl, msg)
			return nil
		})
	}
	_ = g.Wait() // fan-in barrier, deliver never returns an error

	reached := make(map[int64]struct{})
	for i, out := range outcomes {
		dl := deliveries[i]
		if out.outcome == model.OutcomeSuccess {
			result.DevicesSucceeded++
			for _, owner := range dl.owners {
				reached[owner] = struct{}{}
			}
			continue
		}
		result.DevicesFailed++
		if out.pruned {
			result.TokensPruned++
		}
		errMsg := ""
		if out.err != nil {
			errMsg = out.err.Error()
		}
		result.Errors = append(result.Errors, model.TokenError{
			UserID:  dl.userID,
			Token:   dl.token,
			Outcome: out.outcome,
			Error:   errMsg,
		})
	}
	result.UsersReached = len(reached)
	d.metrics.RecordPruned(result.TokensPruned)

	log.Printf("[Dispatcher] Dispatch DONE: id=%s gateway=%s users=%d reached=%d no_device=%d ok=%d failed=%d pruned=%d took=%v",
		result.DispatchID, d.gateway.Name(), result.UsersTargeted, result.UsersReached, result.UsersWithoutDevices,
		result.DevicesSucceeded, result.DevicesFailed, result.TokensPruned, time.Since(start))

	return result, nil
}

// deliver performs one push call and converts every failure, including a
// panic inside the gateway, into an outcome.
func (d *PushDispatcher) deliver(ctx context.Context, dl delivery, msg model.PushMessage) (out deliveryOutcome) {
	var took time.Duration
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[Dispatcher] Push PANIC: user=%d token=%s panic=%v", dl.userID, maskToken(dl.token), r)
			d.breaker.RecordFailure()
			out = deliveryOutcome{
				outcome: model.OutcomeTransientFailure,
				err:     fmt.Errorf("push call panicked: %v", r),
			}
		}
		d.metrics.RecordDelivery(d.gateway.Name(), out.outcome.String(), took)
	}()

	if !d.gateway.ValidToken(dl.token) {
		return deliveryOutcome{
			outcome: model.OutcomeMalformedToken,
			err:     errors.New("token failed local format check"),
		}
	}

	if !d.breaker.Allow() {
		return deliveryOutcome{outcome: model.OutcomeTransientFailure, err: ErrGatewayUnavailable}
	}

	callCtx, cancel := context.WithTimeout(ctx, d.cfg.Timeout)
	defer cancel()

	start := time.Now()
	err := d.gateway.Send(callCtx, dl.token, msg)
	took = time.Since(start)

	if err == nil {
		d.breaker.RecordSuccess()
		return deliveryOutcome{outcome: model.OutcomeSuccess}
	}

	var pushErr *PushError
	if errors.As(err, &pushErr) && pushErr.Permanent {
		// The gateway answered, so it is healthy even though the token is dead
		d.breaker.RecordSuccess()
		out = deliveryOutcome{outcome: model.OutcomePermanentFailure, err: err}
		n, pruneErr := d.tokens.Prune(ctx, dl.token)
		if pruneErr != nil {
			log.Printf("[Dispatcher] Prune FAILED: user=%d token=%s err=%v", dl.userID, maskToken(dl.token), pruneErr)
		}
		out.pruned = n > 0
		return out
	}

	d.breaker.RecordFailure()
	if errors.Is(err, context.DeadlineExceeded) || callCtx.Err() != nil {
		err = fmt.Errorf("push call timed out after %v: %w", d.cfg.Timeout, err)
	}
	return deliveryOutcome{outcome: model.OutcomeTransientFailure, err: err}
}

// uniqueIDs drops duplicates and keeps first-seen order.
func uniqueIDs(ids []int64) []int64 {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
