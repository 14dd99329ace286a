package events

import (
	"encoding/json"
	"net/url"

	"buildtrigger/internal/files"

	lambdaevents "github.com/aws/aws-lambda-go/events"
)

func objectsFromS3Notification(raw []byte) ([]files.S3Object, error) {
	var s3Event lambdaevents.S3Event
	if err := json.Unmarshal(raw, &s3Event); err != nil {
		return nil, ErrorMalformedEvent(err)
	}

	objects := make([]files.S3Object, 0, len(s3Event.Records))
	for _, record := range s3Event.Records {
		if record.EventSource != "" && record.EventSource != s3EventSource {
			return nil, ErrorUnrecognizedEvent("record eventSource " + record.EventSource)
		}
		objects = append(objects, files.NewS3Object(record.S3.Bucket.Name, DecodeKey(record.S3.Object.Key)))
	}
	return objects, nil
}

// DecodeKey undoes the form encoding S3 applies to object keys in bucket
// notifications ("+" for space, %XX escapes). An undecodable key is returned
// unchanged.
func DecodeKey(key string) string {
	decoded, err := url.QueryUnescape(key)
	if err != nil {
		return key
	}
	return decoded
}
