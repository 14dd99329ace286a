package notifications

import (
	"bytes"
	"context"
	"fmt"
	"text/template"
	"time"

	"buildtrigger/internal/files"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/rs/zerolog"
)

// SNSNotification represents an abstraction for a notification to be published via AWS SNS.
type SNSNotification interface {
	Message() (string, error)
	Subject() string
	TopicArn() string
}

// SNSPublisher defines the SNS operations required to send notifications
type SNSPublisher interface {
	Publish(ctx context.Context, input *sns.PublishInput, opts ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type TriggerFailureNotification struct {
	Account      string
	Bucket       string
	Object       string
	Date         string
	Outcome      string
	ErrorMessage string
	Stack        string
	Title        string
	Template     *template.Template
	Topic        string
}

func (n TriggerFailureNotification) Message() (string, error) {
	var buf bytes.Buffer
	if err := n.Template.Execute(&buf, n); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (n TriggerFailureNotification) Subject() string {
	return n.Title
}

func (n TriggerFailureNotification) TopicArn() string {
	return n.Topic
}

func SendNotification(ctx context.Context, client SNSPublisher, notification SNSNotification) (string, error) {
	message, err := notification.Message()
	if err != nil {
		return "", err
	}

	result, err := client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(notification.TopicArn()),
		Subject:  aws.String(notification.Subject()),
		Message:  aws.String(message),
	})
	if err != nil {
		return "", err
	}

	return aws.ToString(result.MessageId), nil
}

// FailureNotifier publishes a TriggerFailureNotification for each record
// whose build could not be triggered.
type FailureNotifier struct {
	client   SNSPublisher
	topic    string
	account  string
	stack    string
	template *template.Template
	logger   zerolog.Logger
	now      func() time.Time
}

func NewFailureNotifier(client SNSPublisher, topic, account, stack string, tmpl *template.Template, logger zerolog.Logger) *FailureNotifier {
	return &FailureNotifier{
		client:   client,
		topic:    topic,
		account:  account,
		stack:    stack,
		template: tmpl,
		logger:   logger,
		now:      time.Now,
	}
}

func (n *FailureNotifier) NotifyTriggerFailure(ctx context.Context, obj files.S3Object, outcome string, cause error) error {
	errorMessage := ""
	if cause != nil {
		errorMessage = cause.Error()
	}

	notification := TriggerFailureNotification{
		Account:      n.account,
		Bucket:       obj.Bucket,
		Object:       obj.Key,
		Date:         n.now().UTC().Format(time.RFC3339),
		Outcome:      outcome,
		ErrorMessage: errorMessage,
		Stack:        n.stack,
		Title:        subject(n.stack, obj),
		Template:     n.template,
		Topic:        n.topic,
	}

	messageID, err := SendNotification(ctx, n.client, notification)
	if err != nil {
		return err
	}

	n.logger.Debug().Str("messageId", messageID).Str("object", obj.URI()).Msg("Notification sent successfully")
	return nil
}

// subject stays under the 100 character SNS limit.
func subject(stack string, obj files.S3Object) string {
	title := fmt.Sprintf("Build Trigger Failure: %s/%s", obj.Bucket, obj.Key)
	if stack != "" {
		title = fmt.Sprintf("[%s] %s", stack, title)
	}
	if len(title) > 100 {
		title = title[:97] + "..."
	}
	return title
}
