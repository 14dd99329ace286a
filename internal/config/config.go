// Package config resolves the build trigger's settings once at cold start.
//
// Every setting the trigger cannot work without is required: the Jenkins
// address, job name, trigger token and API credentials. Secrets may be given
// directly or as the name of an SSM parameter (the *_PARAM variables).
package config

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"
)

const (
	EnvJenkinsURL         = "JENKINS_URL"
	EnvJobName            = "JOB_NAME"
	EnvJenkinsToken       = "JENKINS_TOKEN"
	EnvJenkinsTokenParam  = "JENKINS_TOKEN_PARAM"
	EnvJenkinsUser        = "JENKINS_USER"
	EnvJenkinsAPIToken    = "JENKINS_API_TOKEN"
	EnvJenkinsAPIKeyParam = "JENKINS_API_TOKEN_PARAM"
	EnvTriggerTimeout     = "TRIGGER_TIMEOUT"
	EnvSNSTopicArn        = "SNS_TOPIC_ARN"
	EnvStackName          = "STACK_NAME"
	EnvMetricsNamespace   = "METRICS_NAMESPACE"
	EnvLogLevel           = "LOG_LEVEL"
	EnvLogFormat          = "LOG_FORMAT"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// LookupFunc has the signature of os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// SecretSource loads a secret value by parameter name.
type SecretSource interface {
	Secret(ctx context.Context, name string) (string, error)
}

// Jenkins holds everything needed to trigger the build job.
type Jenkins struct {
	BaseURL  string
	JobName  string
	Token    string
	User     string
	APIToken string
	// Timeout of zero leaves the HTTP client without an explicit deadline.
	Timeout time.Duration
}

type Config struct {
	Jenkins Jenkins

	SNSTopicArn      string
	StackName        string
	MetricsNamespace string
	LogLevel         string
	LogFormat        string
}

// NotificationsEnabled reports whether trigger failures are published to SNS.
func (c Config) NotificationsEnabled() bool {
	return c.SNSTopicArn != ""
}

// MetricsEnabled reports whether outcome counts are sent to CloudWatch.
func (c Config) MetricsEnabled() bool {
	return c.MetricsNamespace != ""
}

// UsesSecretStore reports whether Load will need a SecretSource.
func UsesSecretStore(lookup LookupFunc) bool {
	return get(lookup, EnvJenkinsToken) == "" && get(lookup, EnvJenkinsTokenParam) != "" ||
		get(lookup, EnvJenkinsAPIToken) == "" && get(lookup, EnvJenkinsAPIKeyParam) != ""
}

// Load resolves the configuration. A missing required setting yields an error
// wrapping ErrMissingSetting; secrets may be nil when no *_PARAM is in use.
func Load(ctx context.Context, lookup LookupFunc, secrets SecretSource) (Config, error) {
	var cfg Config
	var err error

	if cfg.Jenkins.BaseURL, err = required(lookup, EnvJenkinsURL); err != nil {
		return Config{}, err
	}
	cfg.Jenkins.BaseURL = strings.TrimRight(cfg.Jenkins.BaseURL, "/")
	if err = validateBaseURL(cfg.Jenkins.BaseURL); err != nil {
		return Config{}, err
	}

	if cfg.Jenkins.JobName, err = required(lookup, EnvJobName); err != nil {
		return Config{}, err
	}

	if cfg.Jenkins.Token, err = secret(ctx, lookup, secrets, EnvJenkinsToken, EnvJenkinsTokenParam); err != nil {
		return Config{}, err
	}

	if cfg.Jenkins.User, err = required(lookup, EnvJenkinsUser); err != nil {
		return Config{}, err
	}

	if cfg.Jenkins.APIToken, err = secret(ctx, lookup, secrets, EnvJenkinsAPIToken, EnvJenkinsAPIKeyParam); err != nil {
		return Config{}, err
	}

	if raw := get(lookup, EnvTriggerTimeout); raw != "" {
		timeout, err := time.ParseDuration(raw)
		if err != nil {
			return Config{}, ErrorInvalidSetting(EnvTriggerTimeout, raw, err)
		}
		if timeout < 0 {
			return Config{}, ErrorInvalidSetting(EnvTriggerTimeout, raw, errors.New("must not be negative"))
		}
		cfg.Jenkins.Timeout = timeout
	}

	cfg.SNSTopicArn = get(lookup, EnvSNSTopicArn)
	cfg.StackName = get(lookup, EnvStackName)
	cfg.MetricsNamespace = get(lookup, EnvMetricsNamespace)
	cfg.LogLevel = getOrDefault(lookup, EnvLogLevel, DefaultLogLevel)
	cfg.LogFormat = getOrDefault(lookup, EnvLogFormat, DefaultLogFormat)

	return cfg, nil
}

func validateBaseURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return ErrorInvalidSetting(EnvJenkinsURL, raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ErrorInvalidSetting(EnvJenkinsURL, raw, errors.New("scheme must be http or https"))
	}
	if u.Host == "" {
		return ErrorInvalidSetting(EnvJenkinsURL, raw, errors.New("host is empty"))
	}
	return nil
}

// secret prefers the literal value and falls back to the named parameter.
func secret(ctx context.Context, lookup LookupFunc, secrets SecretSource, name, paramName string) (string, error) {
	if value := get(lookup, name); value != "" {
		return value, nil
	}

	param := get(lookup, paramName)
	if param == "" {
		return "", ErrorMissingSetting(name)
	}
	if secrets == nil {
		return "", ErrorSecretNotLoaded(name, param, errors.New("no secret source configured"))
	}

	value, err := secrets.Secret(ctx, param)
	if err != nil {
		return "", ErrorSecretNotLoaded(name, param, err)
	}
	if value == "" {
		return "", ErrorMissingSetting(name)
	}
	return value, nil
}

func required(lookup LookupFunc, name string) (string, error) {
	value := get(lookup, name)
	if value == "" {
		return "", ErrorMissingSetting(name)
	}
	return value, nil
}

func get(lookup LookupFunc, name string) string {
	value, ok := lookup(name)
	if !ok {
		return ""
	}
	return strings.TrimSpace(value)
}

func getOrDefault(lookup LookupFunc, name, defaultVal string) string {
	if value := get(lookup, name); value != "" {
		return value
	}
	return defaultVal
}
