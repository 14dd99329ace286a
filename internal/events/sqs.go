package events

import (
	"encoding/json"

	"buildtrigger/internal/files"

	lambdaevents "github.com/aws/aws-lambda-go/events"
)

// unwrapSQS extracts every S3 object carried by the SQS messages. Messages
// that cannot be decoded are reported in Batch.Malformed and skipped.
func unwrapSQS(raw []byte) (Batch, error) {
	var sqsEvent lambdaevents.SQSEvent
	if err := json.Unmarshal(raw, &sqsEvent); err != nil {
		return Batch{}, ErrorMalformedEvent(err)
	}

	var batch Batch
	for _, record := range sqsEvent.Records {
		objects, err := parseMessageBody([]byte(record.Body))
		if err != nil {
			batch.Malformed = append(batch.Malformed, MalformedMessage{MessageID: record.MessageId, Err: err})
			continue
		}
		batch.Objects = append(batch.Objects, objects...)
	}

	return batch, nil
}

// parseMessageBody accepts an S3 notification or EventBridge event. Nested
// SQS batches are not valid message bodies.
func parseMessageBody(body []byte) ([]files.S3Object, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, ErrorMalformedEvent(err)
	}
	if len(env.Records) > 0 && env.Records[0].EventSource == sqsEventSource {
		return nil, ErrorUnrecognizedEvent("nested SQS batch in message body")
	}

	inner, err := Parse(body)
	if err != nil {
		return nil, err
	}
	return inner.Objects, nil
}
