package amqp

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/patsnet/petri"
	"github.com/patsnet/petri/dto"
)

// Client calls the engine over a topic exchange.
type Client struct {
	ch       *amqp.Channel
	q        amqp.Queue
	msgs     <-chan amqp.Delivery
	timeout  time.Duration
	Exchange string
}

func NewClient(conn *amqp.Connection, exchange string, timeout time.Duration) (*Client, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, err
	}
	q, err := ch.QueueDeclare("", false, false, true, false, nil)
	if err != nil {
		return nil, err
	}
	if err := ch.QueueBind(q.Name, q.Name, exchange, false, nil); err != nil {
		return nil, err
	}
	msgs, err := ch.Consume(q.Name, "", true, false, false, false, nil)
	if err != nil {
		return nil, err
	}
	return &Client{
		ch:       ch,
		q:        q,
		msgs:     msgs,
		timeout:  timeout,
		Exchange: exchange,
	}, nil
}

func (c *Client) Close() {
	_ = c.ch.Close()
}

// Process runs one simulation step remotely.
func (c *Client) Process(ctx context.Context, net *dto.PetriNet) (*dto.PetriNet, error) {
	return roundTrip(ctx, c, ProcessCodec, RouteProcess, net)
}

// Resolve completes a paused step remotely.
func (c *Client) Resolve(ctx context.Context, req *dto.ResolveRequest) (*dto.PetriNet, error) {
	return roundTrip(ctx, c, ResolveCodec, RouteResolve, req)
}

func roundTrip[T any](ctx context.Context, c *Client, codec RPCCodec[T, Response], route string, req *T) (*dto.PetriNet, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	b, err := codec.Request.Marshal(req)
	if err != nil {
		return nil, err
	}
	correlation := uuid.NewString()
	err = c.ch.PublishWithContext(ctx, c.Exchange, route, false, false, amqp.Publishing{
		ContentType:   "application/json",
		Body:          b,
		CorrelationId: correlation,
		ReplyTo:       c.q.Name,
	})
	if err != nil {
		return nil, err
	}
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case m, ok := <-c.msgs:
			if !ok {
				return nil, errors.New("reply channel closed")
			}
			if m.CorrelationId != correlation {
				continue
			}
			var resp Response
			if err := codec.Response.Unmarshal(m.Body, &resp); err != nil {
				return nil, err
			}
			if !resp.Ok {
				if resp.Structural {
					return nil, petri.Structuralf("%s", resp.Error)
				}
				return nil, errors.New(resp.Error)
			}
			return resp.Net, nil
		}
	}
}
