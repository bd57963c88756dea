// internal/notify/ses_test.go
package notify

import (
	"context"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vehicle-dedup-workers/internal/common/logger"
	"vehicle-dedup-workers/internal/models"
)

type fakeSES struct {
	inputs []*ses.SendEmailInput
	err    error
}

func (f *fakeSES) SendEmail(ctx context.Context, input *ses.SendEmailInput) (*ses.SendEmailOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.inputs = append(f.inputs, input)
	return &ses.SendEmailOutput{}, nil
}

func urgentItem() *models.ReviewItem {
	return &models.ReviewItem{
		ID:              "item-1",
		TenantID:        "tenant-1",
		SourceListingID: "listing-a",
		TargetListingID: "listing-b",
		MatchScore:      0.89,
		Priority:        1,
	}
}

func TestNotifyUrgentItem(t *testing.T) {
	client := &fakeSES{}
	notifier := NewReviewNotifier(client, "dedup@acme.com",
		[]string{"reviews@acme.com"}, logger.NewNoOpLogger())

	notifier.NotifyUrgentItem(context.Background(), urgentItem())

	require.Len(t, client.inputs, 1)
	input := client.inputs[0]
	assert.Equal(t, "dedup@acme.com", *input.Source)
	assert.Equal(t, []string{"reviews@acme.com"}, input.Destination.ToAddresses)
	assert.Contains(t, *input.Message.Subject.Data, "listing-a")
	assert.Contains(t, *input.Message.Body.Text.Data, "item-1")
}

func TestNotifyUrgentItem_IgnoresLowerPriorities(t *testing.T) {
	client := &fakeSES{}
	notifier := NewReviewNotifier(client, "dedup@acme.com",
		[]string{"reviews@acme.com"}, logger.NewNoOpLogger())

	item := urgentItem()
	item.Priority = 2
	notifier.NotifyUrgentItem(context.Background(), item)

	assert.Empty(t, client.inputs)
}

func TestNotifyUrgentItem_NoReviewersConfigured(t *testing.T) {
	client := &fakeSES{}
	notifier := NewReviewNotifier(client, "dedup@acme.com", nil, logger.NewNoOpLogger())

	notifier.NotifyUrgentItem(context.Background(), urgentItem())
	assert.Empty(t, client.inputs)
}

func TestNotifyUrgentItem_SendFailureIsSwallowed(t *testing.T) {
	client := &fakeSES{err: fmt.Errorf("rate exceeded")}
	notifier := NewReviewNotifier(client, "dedup@acme.com",
		[]string{"reviews@acme.com"}, logger.NewNoOpLogger())

	notifier.NotifyUrgentItem(context.Background(), urgentItem())
}
