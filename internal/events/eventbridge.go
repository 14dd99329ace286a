package events

import (
	"encoding/json"

	"buildtrigger/internal/files"

	lambdaevents "github.com/aws/aws-lambda-go/events"
)

const (
	eventBridgeS3Source      = "aws.s3"
	eventBridgeObjectCreated = "Object Created"
)

// s3EventBridgeDetail is the detail block of an S3 EventBridge event
type s3EventBridgeDetail struct {
	Bucket struct {
		Name string `json:"name"`
	} `json:"bucket"`
	Object struct {
		Key string `json:"key"`
	} `json:"object"`
}

// objectFromEventBridge extracts the uploaded object. ok is false for S3
// events other than uploads, which are not part of the batch.
func objectFromEventBridge(raw []byte) (obj files.S3Object, ok bool, err error) {
	var event lambdaevents.CloudWatchEvent
	if err := json.Unmarshal(raw, &event); err != nil {
		return files.S3Object{}, false, ErrorMalformedEvent(err)
	}

	if event.Source != eventBridgeS3Source {
		return files.S3Object{}, false, ErrorUnrecognizedEvent("EventBridge source " + event.Source)
	}
	if event.DetailType != eventBridgeObjectCreated {
		return files.S3Object{}, false, nil
	}

	var detail s3EventBridgeDetail
	if err := json.Unmarshal(event.Detail, &detail); err != nil {
		return files.S3Object{}, false, ErrorMalformedEvent(err)
	}

	// EventBridge delivers keys already decoded.
	return files.NewS3Object(detail.Bucket.Name, detail.Object.Key), true, nil
}
