package natsjetstream

import (
	"context"

	apperrors "github.com/burakmert236/goodswipe-escrow/common/errors"
	"github.com/nats-io/nats.go/jetstream"
	"google.golang.org/protobuf/proto"
)

type Publisher struct {
	client *Client
}

func NewPublisher(client *Client) *Publisher {
	return &Publisher{client: client}
}

// PublishProto publishes msg. A non-empty msgID lets the stream drop a
// redelivery of the same message inside its duplicate window.
func (p *Publisher) PublishProto(ctx context.Context, subject, msgID string, msg proto.Message) *apperrors.AppError {
	data, err := proto.Marshal(msg)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeObjectMarshalError, "failed to marshal proto message")
	}

	return p.Publish(ctx, subject, msgID, data)
}

func (p *Publisher) Publish(ctx context.Context, subject, msgID string, data []byte) *apperrors.AppError {
	var opts []jetstream.PublishOpt
	if msgID != "" {
		opts = append(opts, jetstream.WithMsgID(msgID))
	}

	ack, err := p.client.js.Publish(ctx, subject, data, opts...)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeEventPublishError, "failed to publish message")
	}

	if ack.Duplicate {
		p.client.logger.Debug("Duplicate message dropped by stream", "subject", subject, "msg_id", msgID)
	}
	return nil
}
