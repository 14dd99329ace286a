// Package metrics publishes per-batch trigger outcome counts to CloudWatch.
//
// One PutMetricData call is made per batch, with one datum per outcome so
// that zero counts are reported too.
package metrics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwTypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

const (
	MetricName            = "TriggerOutcomes"
	DimensionFunctionName = "FunctionName"
	DimensionOutcome      = "Outcome"
	unknownFunctionName   = "local"
)

// CloudWatchClientInterface defines the CloudWatch operations used to publish metrics
type CloudWatchClientInterface interface {
	PutMetricData(ctx context.Context, input *cloudwatch.PutMetricDataInput, opts ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

type Publisher struct {
	client       CloudWatchClientInterface
	namespace    string
	functionName string
	now          func() time.Time
}

// NewPublisher creates a publisher for namespace. An empty functionName is
// reported as "local".
func NewPublisher(client CloudWatchClientInterface, namespace, functionName string) *Publisher {
	if functionName == "" {
		functionName = unknownFunctionName
	}
	return &Publisher{
		client:       client,
		namespace:    namespace,
		functionName: functionName,
		now:          time.Now,
	}
}

func (p *Publisher) PublishOutcomes(ctx context.Context, counts map[string]int) error {
	if len(counts) == 0 {
		return nil
	}

	outcomes := make([]string, 0, len(counts))
	for outcome := range counts {
		outcomes = append(outcomes, outcome)
	}
	sort.Strings(outcomes)

	timestamp := p.now()
	data := make([]cwTypes.MetricDatum, 0, len(outcomes))
	for _, outcome := range outcomes {
		data = append(data, cwTypes.MetricDatum{
			MetricName: aws.String(MetricName),
			Dimensions: []cwTypes.Dimension{
				{
					Name:  aws.String(DimensionFunctionName),
					Value: aws.String(p.functionName),
				},
				{
					Name:  aws.String(DimensionOutcome),
					Value: aws.String(outcome),
				},
			},
			Timestamp: aws.Time(timestamp),
			Unit:      cwTypes.StandardUnitCount,
			Value:     aws.Float64(float64(counts[outcome])),
		})
	}

	_, err := p.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace:  aws.String(p.namespace),
		MetricData: data,
	})
	if err != nil {
		return fmt.Errorf("failed to put metric data to %s: %w", p.namespace, err)
	}
	return nil
}
