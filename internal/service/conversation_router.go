package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"text-stock-tracker/internal/domain"
	"text-stock-tracker/internal/marketdata"
	"text-stock-tracker/internal/metrics"
)

var routerTracer = otel.Tracer("text-stock-tracker/service")

const (
	throttledLabel     = "throttled"
	invalidSenderLabel = "invalid_sender"
)

// ConversationRouter recibe un SMS y siempre devuelve un texto de respuesta.
type ConversationRouter struct {
	logger       *zap.Logger
	store        *ConversationStore
	gateway      marketdata.Gateway
	limiter      SenderRateLimiter
	metrics      *metrics.RouterMetrics
	composer     ReplyComposer
	recallWindow time.Duration
}

func NewConversationRouter(
	logger *zap.Logger,
	store *ConversationStore,
	gateway marketdata.Gateway,
	limiter SenderRateLimiter,
	routerMetrics *metrics.RouterMetrics,
	recallWindow time.Duration,
) *ConversationRouter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if recallWindow <= 0 {
		recallWindow = 24 * time.Hour
	}
	return &ConversationRouter{
		logger:       logger,
		store:        store,
		gateway:      gateway,
		limiter:      limiter,
		metrics:      routerMetrics,
		recallWindow: recallWindow,
	}
}

// turn acumula lo que pasó durante un request.
type turn struct {
	user      domain.User
	hasUser   bool
	isNew     bool
	notSaved  bool
	intentTag string
}

func (r *ConversationRouter) HandleMessage(ctx context.Context, senderID, text string) (reply string) {
	start := time.Now()
	ctx, span := routerTracer.Start(ctx, "sms.handle_message")
	t := &turn{intentTag: domain.IntentUnknown.String()}

	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("panic handling message", zap.Any("panic", rec), zap.Stack("stack"))
			span.SetStatus(codes.Error, "panic")
			reply = r.composer.Trouble()
		}
		span.SetAttributes(
			attribute.String("sms.intent", t.intentTag),
			attribute.Bool("sms.new_user", t.isNew),
		)
		span.End()
		r.metrics.ObserveMessage(t.intentTag, time.Since(start).Seconds())
	}()

	senderID = strings.TrimSpace(senderID)
	if senderID == "" {
		t.intentTag = invalidSenderLabel
		r.logger.Warn("message without sender", zap.Error(ErrInvalidSender))
		return r.composer.Trouble()
	}
	if r.limiter != nil && !r.limiter.Allow(senderID) {
		t.intentTag = throttledLabel
		r.logger.Info("sender throttled")
		return r.composer.Throttled()
	}

	if r.store != nil {
		unlock, err := r.store.LockSender(ctx, senderID)
		if err != nil {
			r.logger.Warn("sender lock unavailable, continuing unlocked", zap.Error(err))
		} else {
			defer unlock()
		}

		user, isNew, err := r.store.EnsureUser(ctx, senderID)
		if err != nil {
			r.metrics.ObserveStoreError("ensure_user")
			r.logger.Warn("ensure user failed", zap.Error(err))
		} else {
			t.user, t.hasUser, t.isNew = user, true, isNew
		}
	}

	intent := ClassifyMessage(text)
	t.intentTag = intent.Kind.String()

	body := r.dispatch(ctx, t, intent)
	if t.notSaved {
		body += "\n" + r.composer.LookupNotSaved()
	}
	return r.composer.WithWelcome(t.isNew, body)
}

func (r *ConversationRouter) dispatch(ctx context.Context, t *turn, intent domain.Intent) string {
	switch intent.Kind {
	case domain.IntentHelp:
		return r.composer.Help()
	case domain.IntentMoreInfo:
		return r.moreInfo(ctx, t)
	case domain.IntentLookupByName:
		return r.lookupByName(ctx, t, intent.Query)
	case domain.IntentLookupBySymbol:
		return r.lookupBySymbol(ctx, t, intent.Symbol)
	default:
		return r.composer.Unknown()
	}
}

func (r *ConversationRouter) moreInfo(ctx context.Context, t *turn) string {
	if !t.hasUser {
		return r.composer.MoreInfoNoContext()
	}
	rec, found, err := r.store.RecentLookup(ctx, t.user, r.recallWindow)
	if err != nil {
		// Sin contexto previo antes que cortar el request.
		r.metrics.ObserveStoreError("recent_lookup")
		r.logger.Warn("recent lookup failed", zap.Error(err))
		return r.composer.MoreInfoNoContext()
	}
	if !found {
		return r.composer.MoreInfoNoContext()
	}

	q, ok, err := r.quote(ctx, rec.Symbol)
	if err != nil {
		return r.composer.GatewayTrouble()
	}
	if !ok {
		return r.composer.SymbolNotFound(rec.Symbol)
	}
	return r.composer.MoreInfo(q, rec.Symbol)
}

func (r *ConversationRouter) lookupByName(ctx context.Context, t *turn, query string) string {
	matches, err := r.gatewayLookup(ctx, query)
	if err != nil {
		return r.composer.GatewayTrouble()
	}
	if len(matches) == 0 {
		return r.composer.NoMatches(query)
	}
	best := matches[0]
	r.record(ctx, t, best.Symbol)
	return r.composer.NameMatch(best)
}

func (r *ConversationRouter) lookupBySymbol(ctx context.Context, t *turn, symbol string) string {
	q, ok, err := r.quote(ctx, symbol)
	if err != nil {
		return r.composer.GatewayTrouble()
	}
	if !ok {
		return r.composer.SymbolNotFound(symbol)
	}
	if q.Symbol == "" {
		q.Symbol = symbol
	}
	r.record(ctx, t, q.Symbol)
	return r.composer.SymbolQuote(q)
}

func (r *ConversationRouter) record(ctx context.Context, t *turn, symbol string) {
	if !t.hasUser {
		t.notSaved = true
		return
	}
	if _, err := r.store.RecordLookup(ctx, t.user, symbol, time.Time{}); err != nil {
		r.metrics.ObserveStoreError("record_lookup")
		r.logger.Warn("record lookup failed", zap.String("symbol", symbol), zap.Error(err))
		t.notSaved = true
	}
}

func (r *ConversationRouter) quote(ctx context.Context, symbol string) (domain.Quote, bool, error) {
	if r.gateway == nil {
		return domain.Quote{}, false, errors.New("market data gateway not configured")
	}
	q, ok, err := r.gateway.Quote(ctx, symbol)
	if err != nil {
		r.gatewayFailed(ctx, "quote", err)
		return domain.Quote{}, false, err
	}
	return q, ok, nil
}

func (r *ConversationRouter) gatewayLookup(ctx context.Context, query string) ([]domain.CompanyMatch, error) {
	if r.gateway == nil {
		return nil, errors.New("market data gateway not configured")
	}
	matches, err := r.gateway.LookupByName(ctx, query)
	if err != nil {
		r.gatewayFailed(ctx, "lookup", err)
		return nil, err
	}
	return matches, nil
}

func (r *ConversationRouter) gatewayFailed(ctx context.Context, op string, err error) {
	kind := "unknown"
	if k := marketdata.KindOf(err); k != 0 {
		kind = k.String()
	}
	r.metrics.ObserveGatewayError(op, kind)
	r.logger.Warn("market data call failed",
		zap.String("op", op),
		zap.String("kind", kind),
		zap.Error(err),
	)
	trace.SpanFromContext(ctx).RecordError(fmt.Errorf("market data %s: %w", op, err))
}
