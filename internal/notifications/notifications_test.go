package notifications

import (
	"context"
	"errors"
	"strings"
	"testing"
	"text/template"
	"time"

	"buildtrigger/internal/files"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const templateContent = `Build trigger failed for:

Account: {{.Account}}
Stack: {{.Stack}}
Time: {{.Date}}

Bucket: {{.Bucket}}
Object: {{.Object}}
Outcome: {{.Outcome}}
Error: {{.ErrorMessage}}
`

type mockSNSClient struct {
	inputs []*sns.PublishInput
	err    error
}

func (m *mockSNSClient) Publish(ctx context.Context, input *sns.PublishInput, opts ...func(*sns.Options)) (*sns.PublishOutput, error) {
	m.inputs = append(m.inputs, input)
	if m.err != nil {
		return nil, m.err
	}
	return &sns.PublishOutput{MessageId: aws.String("msg-1")}, nil
}

func TestTriggerFailureNotificationMessage(t *testing.T) {
	tmpl, err := template.New("test").Parse(templateContent)
	if err != nil {
		t.Fatalf("Failed to parse template: %v", err)
	}

	notification := TriggerFailureNotification{
		Account:      "123456789012",
		Stack:        "ai-pipeline",
		Date:         "2025-06-26T14:30:25Z",
		Bucket:       "ingest-bucket",
		Object:       "a1b2c3_ai_output_1700000000.json",
		Outcome:      "protocol_error",
		ErrorMessage: "jenkins responded 500 Internal Server Error",
		Title:        "Build Trigger Failure: ingest-bucket/a1b2c3_ai_output_1700000000.json",
		Template:     tmpl,
		Topic:        "arn:aws:sns:us-east-1:123456789012:test-topic",
	}

	message, err := notification.Message()
	if err != nil {
		t.Fatalf("Failed to execute template: %v", err)
	}

	expected := `Build trigger failed for:

Account: 123456789012
Stack: ai-pipeline
Time: 2025-06-26T14:30:25Z

Bucket: ingest-bucket
Object: a1b2c3_ai_output_1700000000.json
Outcome: protocol_error
Error: jenkins responded 500 Internal Server Error
`

	if message != expected {
		t.Errorf("Template output mismatch.\nExpected:\n%s\nGot:\n%s", expected, message)
	}

	if notification.Subject() != "Build Trigger Failure: ingest-bucket/a1b2c3_ai_output_1700000000.json" {
		t.Errorf("Unexpected subject: %s", notification.Subject())
	}

	if notification.TopicArn() != "arn:aws:sns:us-east-1:123456789012:test-topic" {
		t.Errorf("Unexpected topic ARN: %s", notification.TopicArn())
	}
}

func TestFailureNotifierPublishes(t *testing.T) {
	tmpl := template.Must(template.New("test").Parse(templateContent))
	client := &mockSNSClient{}

	notifier := NewFailureNotifier(client, "arn:aws:sns:us-east-1:123456789012:test-topic", "123456789012", "ai-pipeline", tmpl, zerolog.Nop())
	notifier.now = func() time.Time { return time.Date(2025, 6, 26, 14, 30, 25, 0, time.UTC) }

	obj := files.NewS3Object("ingest-bucket", "a1b2c3_ai_output_1700000000.json")
	err := notifier.NotifyTriggerFailure(context.Background(), obj, "transport_error", errors.New("jenkins unreachable: connection refused"))
	require.NoError(t, err)

	require.Len(t, client.inputs, 1)
	input := client.inputs[0]
	assert.Equal(t, "arn:aws:sns:us-east-1:123456789012:test-topic", aws.ToString(input.TopicArn))
	assert.Equal(t, "[ai-pipeline] Build Trigger Failure: ingest-bucket/a1b2c3_ai_output_1700000000.json", aws.ToString(input.Subject))
	assert.Contains(t, aws.ToString(input.Message), "Time: 2025-06-26T14:30:25Z")
	assert.Contains(t, aws.ToString(input.Message), "Outcome: transport_error")
	assert.Contains(t, aws.ToString(input.Message), "Error: jenkins unreachable: connection refused")
}

func TestFailureNotifierReturnsPublishError(t *testing.T) {
	tmpl := template.Must(template.New("test").Parse(templateContent))
	client := &mockSNSClient{err: errors.New("throttled")}

	notifier := NewFailureNotifier(client, "arn:topic", "", "", tmpl, zerolog.Nop())

	err := notifier.NotifyTriggerFailure(context.Background(), files.NewS3Object("b", "k"), "unexpected_error", nil)
	assert.EqualError(t, err, "throttled")
}

func TestSubjectIsTruncated(t *testing.T) {
	obj := files.NewS3Object("ingest-bucket", strings.Repeat("a", 200))

	title := subject("ai-pipeline", obj)
	assert.Len(t, title, 100)
	assert.True(t, strings.HasSuffix(title, "..."))
}
