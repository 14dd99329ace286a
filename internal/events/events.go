// Package events decodes the notification payloads that can invoke the build
// trigger into a flat batch of S3 objects.
//
// Three shapes are accepted: a direct S3 bucket notification, an EventBridge
// "Object Created" event from aws.s3, and an SQS batch whose message bodies
// are either of those.
package events

import (
	"encoding/json"
	"errors"
	"fmt"

	"buildtrigger/internal/files"
)

var (
	ErrMalformedEvent    = errors.New("malformed event")
	ErrUnrecognizedEvent = errors.New("unrecognized event")
)

func ErrorMalformedEvent(cause error) error {
	return fmt.Errorf("%w: cause=%v", ErrMalformedEvent, cause)
}

func ErrorUnrecognizedEvent(detail string) error {
	return fmt.Errorf("%w: %s", ErrUnrecognizedEvent, detail)
}

// Batch is the decoded notification batch, in delivery order.
type Batch struct {
	Objects []files.S3Object
	// Malformed lists SQS messages whose bodies could not be decoded.
	Malformed []MalformedMessage
}

type MalformedMessage struct {
	MessageID string
	Err       error
}

// envelope carries just enough of every supported shape to tell them apart.
type envelope struct {
	Records []struct {
		EventSource string          `json:"eventSource"`
		S3          json.RawMessage `json:"s3"`
	} `json:"Records"`
	Source     string `json:"source"`
	DetailType string `json:"detail-type"`
	Event      string `json:"Event"`
}

const (
	sqsEventSource = "aws:sqs"
	s3EventSource  = "aws:s3"
	s3TestEvent    = "s3:TestEvent"
)

// Parse decodes raw into a Batch.
func Parse(raw json.RawMessage) (Batch, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Batch{}, ErrorMalformedEvent(err)
	}

	switch {
	case len(env.Records) > 0 && env.Records[0].EventSource == sqsEventSource:
		return unwrapSQS(raw)
	case len(env.Records) > 0:
		objects, err := objectsFromS3Notification(raw)
		return Batch{Objects: objects}, err
	case env.Source != "":
		obj, ok, err := objectFromEventBridge(raw)
		if err != nil || !ok {
			return Batch{}, err
		}
		return Batch{Objects: []files.S3Object{obj}}, nil
	case env.Event == s3TestEvent:
		return Batch{}, nil
	case env.Records != nil:
		// An S3 notification with an empty record list.
		return Batch{}, nil
	}

	return Batch{}, ErrorUnrecognizedEvent("payload has neither Records nor an EventBridge source")
}
