package amqp

import (
	"context"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/patsnet/petri/dto"
	"github.com/patsnet/petri/service"
)

// Server binds the engine's operations to routing keys on a topic exchange.
type Server struct {
	engine   *service.Engine
	logger   *zap.Logger
	ch       *amqp.Channel
	q        amqp.Queue
	bindings Bindings
	Exchange string
	Timeout  time.Duration
}

func NewServer(conn *amqp.Connection, engine *service.Engine, exchange string, logger *zap.Logger) (*Server, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, err
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		return nil, err
	}
	if err := ch.Qos(1, 0, false); err != nil {
		return nil, err
	}
	q, err := ch.QueueDeclare("", false, false, true, false, nil)
	if err != nil {
		return nil, err
	}
	s := &Server{
		engine:   engine,
		logger:   logger,
		ch:       ch,
		q:        q,
		Exchange: exchange,
		Timeout:  30 * time.Second,
	}
	s.bindings = Bindings{
		RouteProcess: NewHandler(exchange, ProcessCodec, logger, func(ctx context.Context, req *dto.PetriNet) (*dto.PetriNet, error) {
			return engine.ProcessStep(ctx, req)
		}),
		RouteResolve: NewHandler(exchange, ResolveCodec, logger, func(ctx context.Context, req *dto.ResolveRequest) (*dto.PetriNet, error) {
			return engine.ResolveConflict(ctx, req)
		}),
	}
	for route := range s.bindings {
		if err := ch.QueueBind(q.Name, route, exchange, false, nil); err != nil {
			return nil, err
		}
		logger.Info("bound route", zap.String("route", route), zap.String("exchange", exchange))
	}
	return s, nil
}

func (s *Server) Close() {
	if err := s.ch.Close(); err != nil {
		s.logger.Error("closing amqp channel", zap.Error(err))
	}
}

// Serve consumes requests until the context is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	messages, err := s.ch.Consume(s.q.Name, "", false, false, false, false, nil)
	if err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			s.handle(ctx, msg)
		}
	}
}

func (s *Server) handle(ctx context.Context, m amqp.Delivery) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()
	h, ok := s.bindings[m.RoutingKey]
	if !ok {
		s.logger.Warn("no handler for route", zap.String("routing_key", m.RoutingKey))
		_ = m.Ack(false)
		return
	}
	s.logger.Debug("handling message", zap.String("routing_key", m.RoutingKey))
	h(ctx, Delivery{Delivery: m, Channel: s.ch})
}
