// internal/notify/sns.go
package notify

import (
	"context"
	"encoding/json"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"

	"vehicle-dedup-workers/internal/common/errors"
	"vehicle-dedup-workers/internal/dedup/engine"
)

// SNSPublisher pushes decision events to an SNS topic for downstream
// consumers (listing merge, search index cleanup, analytics).
type SNSPublisher struct {
	client   SNSAPI
	topicARN string
}

// SNSAPI is the slice of the SNS client the publisher uses.
type SNSAPI interface {
	Publish(ctx context.Context, input *sns.PublishInput) (*sns.PublishOutput, error)
}

func NewSNSPublisher(client SNSAPI, topicARN string) *SNSPublisher {
	return &SNSPublisher{client: client, topicARN: topicARN}
}

// PublishDecision sends one decision event. Message attributes carry the
// decision and tenant so subscribers can filter without parsing the body.
func (p *SNSPublisher) PublishDecision(ctx context.Context, event *engine.DecisionEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return errors.NewEventPublishFailedError(err)
	}

	_, err = p.client.Publish(ctx, &sns.PublishInput{
		TopicArn: awssdk.String(p.topicARN),
		Message:  awssdk.String(string(body)),
		MessageAttributes: map[string]snstypes.MessageAttributeValue{
			"decision": {
				DataType:    awssdk.String("String"),
				StringValue: awssdk.String(string(event.Decision)),
			},
			"tenantId": {
				DataType:    awssdk.String("String"),
				StringValue: awssdk.String(event.TenantID),
			},
		},
	})
	if err != nil {
		return errors.NewEventPublishFailedError(err)
	}
	return nil
}

// NoopPublisher discards events. Used when SNS is disabled in config.
type NoopPublisher struct{}

func (NoopPublisher) PublishDecision(context.Context, *engine.DecisionEvent) error {
	return nil
}
