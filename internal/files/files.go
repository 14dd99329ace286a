package files

import (
	"fmt"
	"regexp"
)

// AIOutputPattern matches the result files written by the AI pipeline, e.g.
// "a1b2c3_ai_output_1700000000.json". The whole key must match.
var AIOutputPattern = regexp.MustCompile(`^[0-9a-f]+_ai_output_\d+\.json$`)

// S3Object represents an S3 object
type S3Object struct {
	Bucket string
	Key    string
}

// NewS3Object creates a new S3Object
func NewS3Object(bucket, key string) S3Object {
	return S3Object{Bucket: bucket, Key: key}
}

// URI returns a human-readable URI for the S3 object
func (obj S3Object) URI() string {
	return fmt.Sprintf("s3://%s/%s", obj.Bucket, obj.Key)
}

// IsAIOutput reports whether the object's key is an AI output file that
// should trigger a build.
func (obj S3Object) IsAIOutput() bool {
	return IsAIOutput(obj.Key)
}

func IsAIOutput(key string) bool {
	return AIOutputPattern.MatchString(key)
}
