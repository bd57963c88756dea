// internal/notify/ses.go
package notify

import (
	"context"
	"fmt"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"

	"vehicle-dedup-workers/internal/common/logger"
	"vehicle-dedup-workers/internal/models"
)

// SESAPI is the slice of the SES client the notifier uses.
type SESAPI interface {
	SendEmail(ctx context.Context, input *ses.SendEmailInput) (*ses.SendEmailOutput, error)
}

// ReviewNotifier emails reviewers when a top-priority review item lands.
// Notification failures are logged and swallowed; the item is already
// queued either way.
type ReviewNotifier struct {
	client    SESAPI
	fromEmail string
	reviewers []string
	logger    logger.Logger
}

func NewReviewNotifier(client SESAPI, fromEmail string, reviewers []string, log logger.Logger) *ReviewNotifier {
	return &ReviewNotifier{
		client:    client,
		fromEmail: fromEmail,
		reviewers: reviewers,
		logger:    log,
	}
}

// NotifyUrgentItem emails reviewers about a priority-1 item. Lower
// priorities are expected to be picked up from the queue.
func (n *ReviewNotifier) NotifyUrgentItem(ctx context.Context, item *models.ReviewItem) {
	if item.Priority != 1 || len(n.reviewers) == 0 {
		return
	}

	subject := fmt.Sprintf("Urgent duplicate review: listing %s", item.SourceListingID)
	body := fmt.Sprintf(
		"A high-confidence near match needs review.\n\n"+
			"Review item: %s\nSource listing: %s\nTarget listing: %s\nMatch score: %.3f\n",
		item.ID, item.SourceListingID, item.TargetListingID, item.MatchScore)

	_, err := n.client.SendEmail(ctx, &ses.SendEmailInput{
		Source: awssdk.String(n.fromEmail),
		Destination: &sestypes.Destination{
			ToAddresses: n.reviewers,
		},
		Message: &sestypes.Message{
			Subject: &sestypes.Content{Data: awssdk.String(subject)},
			Body: &sestypes.Body{
				Text: &sestypes.Content{Data: awssdk.String(body)},
			},
		},
	})
	if err != nil {
		n.logger.Warn("failed to send review notification", map[string]interface{}{
			"reviewItemId": item.ID,
			"error":        err,
		})
	}
}
