package main

import (
	"context"
	_ "embed"
	"encoding/json"
	"os"
	"text/template"
	"time"

	"buildtrigger/internal/accounts"
	"buildtrigger/internal/config"
	"buildtrigger/internal/events"
	"buildtrigger/internal/jenkins"
	"buildtrigger/internal/logging"
	"buildtrigger/internal/metrics"
	"buildtrigger/internal/notifications"
	"buildtrigger/internal/secrets"
	"buildtrigger/internal/trigger"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/rs/zerolog/log"
)

var (
	//go:embed templates/failure-notification.txt
	notificationTemplate string

	triggerHandler *trigger.Handler
)

func init() {
	initStart := time.Now()
	ctx := context.Background()

	logging.Init(os.Getenv(config.EnvLogLevel), os.Getenv(config.EnvLogFormat))

	var awsConfig *aws.Config
	loadAWSConfig := func() aws.Config {
		if awsConfig == nil {
			cfg, err := awsconfig.LoadDefaultConfig(ctx,
				awsconfig.WithRetryer(func() aws.Retryer {
					return retry.AddWithMaxAttempts(
						retry.NewStandard(), 5)
				}),
			)
			if err != nil {
				log.Fatal().Err(err).Msg("Unable to load AWS config")
			}
			awsConfig = &cfg
		}
		return *awsConfig
	}

	var secretSource config.SecretSource
	if config.UsesSecretStore(os.LookupEnv) {
		secretSource = secrets.NewSSMSource(ssm.NewFromConfig(loadAWSConfig()), log.Logger)
	}

	cfg, err := config.Load(ctx, os.LookupEnv, secretSource)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid build trigger configuration")
	}

	opts := []trigger.Option{trigger.WithLogger(log.Logger)}

	if cfg.NotificationsEnabled() {
		awsCfg := loadAWSConfig()
		accountID, err := accounts.GetAccountID(ctx, sts.NewFromConfig(awsCfg))
		if err != nil {
			log.Warn().Err(err).Msg("Unable to get AWS account ID; notifications will omit it")
		}

		tmpl, err := template.New("notification").Parse(notificationTemplate)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to parse notification template")
		}

		opts = append(opts, trigger.WithNotifier(notifications.NewFailureNotifier(
			sns.NewFromConfig(awsCfg), cfg.SNSTopicArn, accountID, cfg.StackName, tmpl, log.Logger)))
	}

	if cfg.MetricsEnabled() {
		opts = append(opts, trigger.WithMetrics(metrics.NewPublisher(
			cloudwatch.NewFromConfig(loadAWSConfig()), cfg.MetricsNamespace, lambdacontext.FunctionName)))
	}

	triggerHandler = trigger.NewHandler(jenkins.NewClient(cfg.Jenkins, nil), opts...)

	log.Info().
		Str("jenkinsUrl", cfg.Jenkins.BaseURL).
		Str("job", cfg.Jenkins.JobName).
		Dur("timeout", cfg.Jenkins.Timeout).
		Bool("notifications", cfg.NotificationsEnabled()).
		Bool("metrics", cfg.MetricsEnabled()).
		Dur("initDuration", time.Since(initStart)).
		Msg("Build trigger initialized")
}

func handler(ctx context.Context, event json.RawMessage) (trigger.Result, error) {
	batch, err := events.Parse(event)
	if err != nil {
		log.Error().Err(err).Msg("Failed to parse notification event")
		return trigger.Done(), nil
	}

	for _, malformed := range batch.Malformed {
		log.Warn().Err(malformed.Err).Str("messageId", malformed.MessageID).Msg("Skipping undecodable SQS message")
	}

	return triggerHandler.Handle(ctx, batch.Objects), nil
}

func main() {
	lambda.Start(handler)
}
