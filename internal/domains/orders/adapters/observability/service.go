package observability

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/washly/order-api/internal/domains/orders/domain"
	"github.com/washly/order-api/internal/domains/orders/ports"
	"github.com/washly/order-api/internal/shared/actor"
)

const tracerName = "github.com/washly/order-api/internal/domains/orders/adapters/observability/service"

// Service decorates the orders service with tracing, logging, and metrics.
type Service struct {
	inner   ports.Service
	tracer  trace.Tracer
	logger  *slog.Logger
	metrics serviceMetrics
}

type Option func(*Service)

// WithLogger injects a slog logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithTracer injects a tracer implementation.
func WithTracer(tr trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tr
	}
}

// WithMeter injects the meter used to create service metrics instruments.
func WithMeter(m metric.Meter) Option {
	return func(s *Service) {
		s.metrics = newServiceMetrics(m)
	}
}

// New wires a decorator around the core service.
func New(inner ports.Service, opts ...Option) ports.Service {
	s := &Service{
		inner:   inner,
		tracer:  nooptrace.NewTracerProvider().Tracer(tracerName),
		logger:  defaultLogger(),
		metrics: newServiceMetrics(nil),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.tracer == nil {
		s.tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	if s.logger == nil {
		s.logger = defaultLogger()
	}
	return s
}

// Create persists a new order aggregate with instrumentation.
func (s *Service) Create(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	ctx, span := s.startSpan(ctx, "Service.Create")
	defer span.End()

	s.logInfo(ctx, "creating order")
	result, err := s.inner.Create(ctx, order)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to create order")
	}
	span.SetAttributes(attribute.String("order.id", result.ID.String()))
	s.metrics.recordCreated(ctx)
	s.logInfo(ctx, "order created", slog.String("order.id", result.ID.String()))
	return result, nil
}

// GetByID loads a single order aggregate.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	ctx, span := s.startSpan(ctx, "Service.GetByID", attribute.String("order.id", id.String()))
	defer span.End()

	result, err := s.inner.GetByID(ctx, id)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to load order", slog.String("order.id", id.String()))
	}
	return result, nil
}

// List exposes filtered orders for customers, workers, and admins.
func (s *Service) List(ctx context.Context, filter ports.ListFilter) ([]*domain.Order, error) {
	ctx, span := s.startSpan(ctx, "Service.List")
	defer span.End()

	result, err := s.inner.List(ctx, filter)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list orders")
	}
	span.SetAttributes(attribute.Int("order.result.count", len(result)))
	return result, nil
}

// Transition drives one status edge on behalf of an actor.
func (s *Service) Transition(ctx context.Context, id uuid.UUID, act actor.Actor, target domain.Status, note string) (*domain.Order, error) {
	ctx, span := s.startSpan(ctx, "Service.Transition",
		attribute.String("order.id", id.String()),
		attribute.String("order.target_status", string(target)),
		attribute.String("actor.role", string(act.Role)),
	)
	defer span.End()

	s.logInfo(ctx, "transitioning order",
		slog.String("order.id", id.String()),
		slog.String("target", string(target)),
		slog.String("actor.role", string(act.Role)))
	result, err := s.inner.Transition(ctx, id, act, target, note)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to transition order",
			slog.String("order.id", id.String()), slog.String("target", string(target)))
	}
	s.metrics.recordTransition(ctx, result.Status)
	s.logInfo(ctx, "order transitioned",
		slog.String("order.id", result.ID.String()),
		slog.String("status", string(result.Status)))
	return result, nil
}

// AssignSelf claims an order for a worker.
func (s *Service) AssignSelf(ctx context.Context, id uuid.UUID, workerID string) (*domain.Order, error) {
	ctx, span := s.startSpan(ctx, "Service.AssignSelf",
		attribute.String("order.id", id.String()),
		attribute.String("worker.id", workerID),
	)
	defer span.End()

	s.logInfo(ctx, "assigning order", slog.String("order.id", id.String()), slog.String("worker.id", workerID))
	result, err := s.inner.AssignSelf(ctx, id, workerID)
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyAssigned) || errors.Is(err, domain.ErrNotAvailable) {
			s.metrics.recordAssignConflict(ctx)
		}
		return nil, s.handleError(ctx, span, err, "failed to assign order",
			slog.String("order.id", id.String()), slog.String("worker.id", workerID))
	}
	s.metrics.recordAssigned(ctx)
	s.logInfo(ctx, "order assigned", slog.String("order.id", result.ID.String()), slog.String("worker.id", workerID))
	return result, nil
}

// ConfirmOnPayment advances a pending order after its payment completes.
func (s *Service) ConfirmOnPayment(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	ctx, span := s.startSpan(ctx, "Service.ConfirmOnPayment", attribute.String("order.id", id.String()))
	defer span.End()

	result, err := s.inner.ConfirmOnPayment(ctx, id)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to confirm order", slog.String("order.id", id.String()))
	}
	s.metrics.recordTransition(ctx, result.Status)
	s.logInfo(ctx, "order confirmed on payment", slog.String("order.id", result.ID.String()))
	return result, nil
}

// CancelBySystem cancels an order on behalf of the platform.
func (s *Service) CancelBySystem(ctx context.Context, id uuid.UUID, note string) (*domain.Order, error) {
	ctx, span := s.startSpan(ctx, "Service.CancelBySystem", attribute.String("order.id", id.String()))
	defer span.End()

	result, err := s.inner.CancelBySystem(ctx, id, note)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to cancel order", slog.String("order.id", id.String()))
	}
	s.metrics.recordTransition(ctx, result.Status)
	s.logInfo(ctx, "order cancelled by system", slog.String("order.id", result.ID.String()), slog.String("note", note))
	return result, nil
}

func (s *Service) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := s.tracer
	if tracer == nil {
		tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func (s *Service) logInfo(ctx context.Context, msg string, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
}

func (s *Service) logError(ctx context.Context, msg string, err error, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	s.logger.LogAttrs(ctx, slog.LevelError, msg, attrs...)
}

func (s *Service) handleError(ctx context.Context, span trace.Span, err error, msg string, attrs ...slog.Attr) error {
	if err == nil {
		return nil
	}
	if span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	s.logError(ctx, msg, err, attrs...)
	return err
}

func defaultLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type serviceMetrics struct {
	ordersCreated    metric.Int64Counter
	orderTransitions metric.Int64Counter
	ordersAssigned   metric.Int64Counter
	assignConflicts  metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	ordersCreated, _ := m.Int64Counter("orders.service.created", metric.WithDescription("Number of orders created"))
	orderTransitions, _ := m.Int64Counter("orders.service.transitions", metric.WithDescription("Number of order status transitions"))
	ordersAssigned, _ := m.Int64Counter("orders.service.assigned", metric.WithDescription("Number of successful worker assignments"))
	assignConflicts, _ := m.Int64Counter("orders.service.assign_conflicts", metric.WithDescription("Number of assignment attempts lost to a conflict"))
	return serviceMetrics{
		ordersCreated:    ordersCreated,
		orderTransitions: orderTransitions,
		ordersAssigned:   ordersAssigned,
		assignConflicts:  assignConflicts,
	}
}

func (m serviceMetrics) recordCreated(ctx context.Context) {
	addCounter(ctx, m.ordersCreated, 1)
}

func (m serviceMetrics) recordTransition(ctx context.Context, status domain.Status) {
	addCounter(ctx, m.orderTransitions, 1, attribute.String("order.status", string(status)))
}

func (m serviceMetrics) recordAssigned(ctx context.Context) {
	addCounter(ctx, m.ordersAssigned, 1)
}

func (m serviceMetrics) recordAssignConflict(ctx context.Context) {
	addCounter(ctx, m.assignConflicts, 1)
}

func addCounter(ctx context.Context, counter metric.Int64Counter, value int64, attrs ...attribute.KeyValue) {
	if counter == nil {
		return
	}
	counter.Add(ctx, value, metric.WithAttributes(attrs...))
}

var _ ports.Service = (*Service)(nil)
