package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"

	"github.com/artpar/bandgate/domain/subscription"
	"github.com/artpar/bandgate/ports"
	"github.com/rs/zerolog"
)

// Backend paths used by the subscription client.
const (
	PathSubscribedConcerts = "/api/concerts/subscribed"
	PathSubscriptions      = "/api/subscriptions"
)

// Operation names used in errors, logs and metrics.
const (
	opConcerts    = "concerts"
	opSubscribe   = "subscribe"
	opUnsubscribe = "unsubscribe"
	opList        = "list"
	opReconcile   = "reconcile"
)

// SubscriptionService calls the backend subscription endpoints and falls
// back to the local mock set when the backend fails.
type SubscriptionService struct {
	api     ports.BackendAPI
	mock    ports.MockSubscriptionStore
	tokens  ports.TokenSource
	clock   ports.Clock
	metrics ports.ClientMetrics
	logger  zerolog.Logger

	// mu serializes read-modify-write cycles on the mock set.
	mu sync.Mutex
}

// SubscriptionDeps contains dependencies for SubscriptionService.
type SubscriptionDeps struct {
	API     ports.BackendAPI
	Mock    ports.MockSubscriptionStore
	Tokens  ports.TokenSource
	Clock   ports.Clock
	Metrics ports.ClientMetrics // optional
	Logger  zerolog.Logger
}

// NewSubscriptionService creates a new subscription service.
func NewSubscriptionService(deps SubscriptionDeps) *SubscriptionService {
	return &SubscriptionService{
		api:     deps.API,
		mock:    deps.Mock,
		tokens:  deps.Tokens,
		clock:   deps.Clock,
		metrics: deps.Metrics,
		logger:  deps.Logger,
	}
}

// GetSubscribedConcerts fetches the subscribed artists and their concerts.
// A 404 or 401 from the backend yields an empty feed.
func (s *SubscriptionService) GetSubscribedConcerts(ctx context.Context) (subscription.SubscribedConcerts, error) {
	var raw []byte
	if err := s.api.Request(ctx, http.MethodGet, PathSubscribedConcerts, nil, &raw); err != nil {
		switch StatusOf(err) {
		case http.StatusNotFound, http.StatusUnauthorized:
			s.observeCall(opConcerts, "suppressed")
			s.logger.Debug().Err(err).Msg("subscribed concerts unavailable, returning empty feed")
			return subscription.Empty(), nil
		}
		s.observeCall(opConcerts, "error")
		return subscription.SubscribedConcerts{}, fmt.Errorf("get subscribed concerts: %w", err)
	}

	feed, shape, err := subscription.ParseSubscribedConcerts(raw)
	if err != nil {
		s.observeCall(opConcerts, "malformed")
		return subscription.SubscribedConcerts{}, err
	}

	s.observeCall(opConcerts, "ok")
	if s.metrics != nil {
		s.metrics.EnvelopeShape(shape.String())
	}
	return feed, nil
}

// Subscribe subscribes to an artist profile.
func (s *SubscriptionService) Subscribe(ctx context.Context, artiProfileID int64) (subscription.Record, error) {
	var env subscription.Envelope
	err := s.api.Request(ctx, http.MethodPost, PathSubscriptions, subscription.Request{ArtiProfileID: artiProfileID}, &env)
	if err == nil {
		err = s.accept(opSubscribe, env, true)
	}
	if err == nil {
		var rec subscription.Record
		if err = env.DecodeData(&rec); err == nil {
			return rec, nil
		}
	}

	s.fallback(opSubscribe, err)
	return s.mockSubscribe(ctx, artiProfileID)
}

func (s *SubscriptionService) mockSubscribe(ctx context.Context, artiProfileID int64) (subscription.Record, error) {
	if err := s.requireToken(ctx); err != nil {
		return subscription.Record{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ids, err := s.mock.IDs(ctx)
	if err != nil {
		return subscription.Record{}, fmt.Errorf("mock subscribe: %w", err)
	}
	if err := s.mock.Save(ctx, subscription.AddID(ids, artiProfileID)); err != nil {
		return subscription.Record{}, fmt.Errorf("mock subscribe: %w", err)
	}
	return subscription.MockRecord(artiProfileID, s.clock.Now()), nil
}

// Unsubscribe removes the subscription to an artist profile.
func (s *SubscriptionService) Unsubscribe(ctx context.Context, artiProfileID int64) error {
	var env subscription.Envelope
	path := PathSubscriptions + "/" + strconv.FormatInt(artiProfileID, 10)
	err := s.api.Request(ctx, http.MethodDelete, path, nil, &env)
	if err == nil {
		if err = s.accept(opUnsubscribe, env, false); err == nil {
			return nil
		}
	}

	s.fallback(opUnsubscribe, err)
	return s.mockUnsubscribe(ctx, artiProfileID)
}

func (s *SubscriptionService) mockUnsubscribe(ctx context.Context, artiProfileID int64) error {
	if err := s.requireToken(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ids, err := s.mock.IDs(ctx)
	if err != nil {
		return fmt.Errorf("mock unsubscribe: %w", err)
	}
	if !subscription.ContainsID(ids, artiProfileID) {
		return nil
	}
	if err := s.mock.Save(ctx, subscription.RemoveID(ids, artiProfileID)); err != nil {
		return fmt.Errorf("mock unsubscribe: %w", err)
	}
	return nil
}

// ListSubscriptions returns the caller's subscriptions.
func (s *SubscriptionService) ListSubscriptions(ctx context.Context) ([]subscription.Record, error) {
	var env subscription.Envelope
	err := s.api.Request(ctx, http.MethodGet, PathSubscriptions, nil, &env)
	if err == nil {
		err = s.accept(opList, env, false)
	}
	if err == nil {
		records := []subscription.Record{}
		if !env.HasData() {
			return records, nil
		}
		if err = env.DecodeData(&records); err == nil {
			return records, nil
		}
	}

	s.fallback(opList, err)
	return s.mockList(ctx)
}

func (s *SubscriptionService) mockList(ctx context.Context) ([]subscription.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids, err := s.mock.IDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("mock list: %w", err)
	}
	return subscription.MockRecords(ids, s.clock.Now()), nil
}

// ReconcileResult reports the outcome of a Reconcile run.
type ReconcileResult struct {
	Synced  []int64 `json:"synced"`
	Pending []int64 `json:"pending"`
}

// Reconcile replays every id of the local mock set as a backend subscribe.
// Ids the backend accepts are removed from the mock set; the others stay
// pending. It never runs implicitly.
func (s *SubscriptionService) Reconcile(ctx context.Context) (ReconcileResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids, err := s.mock.IDs(ctx)
	if err != nil {
		return ReconcileResult{}, fmt.Errorf("reconcile: %w", err)
	}

	result := ReconcileResult{Synced: []int64{}, Pending: []int64{}}
	for _, id := range ids {
		var env subscription.Envelope
		err := s.api.Request(ctx, http.MethodPost, PathSubscriptions, subscription.Request{ArtiProfileID: id}, &env)
		if err == nil {
			err = s.accept(opReconcile, env, false)
		}
		if err != nil {
			s.logger.Warn().Err(err).Int64("arti_profile_id", id).Msg("reconcile: subscription still pending")
			result.Pending = append(result.Pending, id)
			continue
		}
		result.Synced = append(result.Synced, id)
	}

	if len(result.Synced) > 0 {
		if err := s.mock.Save(ctx, result.Pending); err != nil {
			return result, fmt.Errorf("reconcile: %w", err)
		}
	}
	return result, nil
}

// accept turns a success=false envelope into an APIRejectedError.
func (s *SubscriptionService) accept(op string, env subscription.Envelope, needData bool) error {
	if !env.Success || (needData && !env.HasData()) {
		s.observeCall(op, "rejected")
		return subscription.Reject(op, env)
	}
	s.observeCall(op, "ok")
	return nil
}

func (s *SubscriptionService) fallback(op string, err error) {
	var rejected *subscription.APIRejectedError
	if !errors.As(err, &rejected) {
		s.observeCall(op, "error")
	}
	if s.metrics != nil {
		s.metrics.MockFallback(op)
	}
	s.logger.Warn().Err(err).Str("operation", op).Msg("backend call failed, using local mock subscriptions")
}

func (s *SubscriptionService) requireToken(ctx context.Context) error {
	token, err := s.tokens.AccessToken(ctx)
	if err != nil {
		return fmt.Errorf("read access token: %w", err)
	}
	if token == "" {
		return subscription.ErrUnauthenticated
	}
	return nil
}

func (s *SubscriptionService) observeCall(op, outcome string) {
	if s.metrics != nil {
		s.metrics.BackendCall(op, outcome)
	}
}

// StatusOf returns the HTTP status carried by err, or 0 if err did not come
// from a backend response.
func StatusOf(err error) int {
	var se ports.StatusError
	if errors.As(err, &se) {
		return se.HTTPStatus()
	}
	return 0
}
