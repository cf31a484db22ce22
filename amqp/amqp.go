// Package amqp exposes the engine over RabbitMQ as request/reply RPC. Each
// operation is a routing key on a topic exchange; requests carry a reply-to
// queue and correlation id, responses echo the correlation id back.
package amqp

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/patsnet/petri"
	"github.com/patsnet/petri/dto"
)

const (
	RouteProcess = "net.process"
	RouteResolve = "net.resolve"
)

type Codec[T any] interface {
	Marshal(t *T) ([]byte, error)
	Unmarshal([]byte, *T) error
}

type JSONCodec[T any] struct{}

func (JSONCodec[T]) Marshal(t *T) ([]byte, error) {
	return json.Marshal(t)
}

func (JSONCodec[T]) Unmarshal(b []byte, t *T) error {
	return json.Unmarshal(b, t)
}

type RPCCodec[T, U any] struct {
	Request  Codec[T]
	Response Codec[U]
}

// Response wraps a result or a transported error. Structural errors map to
// ok=false with a reason the editor can show.
type Response struct {
	Ok         bool          `json:"ok"`
	Error      string        `json:"error,omitempty"`
	Structural bool          `json:"structural,omitempty"`
	Net        *dto.PetriNet `json:"net,omitempty"`
}

var ProcessCodec = RPCCodec[dto.PetriNet, Response]{
	Request:  JSONCodec[dto.PetriNet]{},
	Response: JSONCodec[Response]{},
}

var ResolveCodec = RPCCodec[dto.ResolveRequest, Response]{
	Request:  JSONCodec[dto.ResolveRequest]{},
	Response: JSONCodec[Response]{},
}

type Delivery struct {
	amqp.Delivery
	*amqp.Channel
}

type HandlerFunc func(context.Context, Delivery)

type Bindings map[string]HandlerFunc

// NewHandler wires a typed request handler into the reply-to protocol.
// Handler errors still produce a reply so the caller is never left waiting
// for a timeout on bad input.
func NewHandler[T any](exchange string, codec RPCCodec[T, Response], logger *zap.Logger, f func(ctx context.Context, t *T) (*dto.PetriNet, error)) HandlerFunc {
	return func(ctx context.Context, m Delivery) {
		defer func() {
			if err := m.Delivery.Ack(false); err != nil {
				logger.Error("acknowledging message", zap.Error(err))
			}
		}()
		var t T
		resp := &Response{}
		if err := codec.Request.Unmarshal(m.Body, &t); err != nil {
			resp.Error = err.Error()
			resp.Structural = true
		} else {
			net, err := f(ctx, &t)
			if err != nil {
				resp.Error = err.Error()
				resp.Structural = petri.IsStructural(err)
			} else {
				resp.Ok = true
				resp.Net = net
			}
		}
		if m.ReplyTo == "" {
			return
		}
		b, err := codec.Response.Marshal(resp)
		if err != nil {
			logger.Error("marshalling response", zap.Error(err))
			return
		}
		err = m.PublishWithContext(ctx, exchange, m.ReplyTo, false, false, amqp.Publishing{
			ContentType:   "application/json",
			Body:          b,
			Timestamp:     time.Now(),
			CorrelationId: m.CorrelationId,
		})
		if err != nil {
			logger.Error("publishing response", zap.Error(err))
		}
	}
}
