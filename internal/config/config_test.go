package config

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapEnv map[string]string

func (m mapEnv) lookup(key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}

type fakeSecrets struct {
	values map[string]string
	err    error
	calls  []string
}

func (f *fakeSecrets) Secret(_ context.Context, name string) (string, error) {
	f.calls = append(f.calls, name)
	if f.err != nil {
		return "", f.err
	}
	return f.values[name], nil
}

func completeEnv() mapEnv {
	return mapEnv{
		EnvJenkinsURL:      "https://jenkins.example.com/",
		EnvJobName:         "terraform-deploy",
		EnvJenkinsToken:    "trigger-token",
		EnvJenkinsUser:     "deployer",
		EnvJenkinsAPIToken: "api-secret",
	}
}

func TestLoadCompleteEnvironment(t *testing.T) {
	env := completeEnv()
	env[EnvTriggerTimeout] = "15s"
	env[EnvSNSTopicArn] = "arn:aws:sns:us-east-1:123456789012:build-trigger"
	env[EnvMetricsNamespace] = "BuildTrigger"

	cfg, err := Load(context.Background(), env.lookup, nil)
	require.NoError(t, err)

	assert.Equal(t, "https://jenkins.example.com", cfg.Jenkins.BaseURL)
	assert.Equal(t, "terraform-deploy", cfg.Jenkins.JobName)
	assert.Equal(t, "trigger-token", cfg.Jenkins.Token)
	assert.Equal(t, "deployer", cfg.Jenkins.User)
	assert.Equal(t, "api-secret", cfg.Jenkins.APIToken)
	assert.Equal(t, 15*time.Second, cfg.Jenkins.Timeout)
	assert.True(t, cfg.NotificationsEnabled())
	assert.True(t, cfg.MetricsEnabled())
	assert.Equal(t, DefaultLogLevel, cfg.LogLevel)
	assert.Equal(t, DefaultLogFormat, cfg.LogFormat)
}

func TestLoadDefaultsOptionalSettings(t *testing.T) {
	cfg, err := Load(context.Background(), completeEnv().lookup, nil)
	require.NoError(t, err)

	assert.Zero(t, cfg.Jenkins.Timeout)
	assert.False(t, cfg.NotificationsEnabled())
	assert.False(t, cfg.MetricsEnabled())
}

func TestLoadMissingRequiredSetting(t *testing.T) {
	for _, name := range []string{EnvJenkinsURL, EnvJobName, EnvJenkinsToken, EnvJenkinsUser, EnvJenkinsAPIToken} {
		t.Run(name, func(t *testing.T) {
			env := completeEnv()
			delete(env, name)

			_, err := Load(context.Background(), env.lookup, nil)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMissingSetting)
			assert.Contains(t, err.Error(), name)
		})
	}
}

func TestLoadBlankSettingCountsAsMissing(t *testing.T) {
	env := completeEnv()
	env[EnvJenkinsToken] = "   "

	_, err := Load(context.Background(), env.lookup, nil)
	assert.ErrorIs(t, err, ErrMissingSetting)
}

func TestLoadInvalidSettings(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "relative url", key: EnvJenkinsURL, value: "jenkins.example.com"},
		{name: "ftp url", key: EnvJenkinsURL, value: "ftp://jenkins.example.com"},
		{name: "garbage timeout", key: EnvTriggerTimeout, value: "soon"},
		{name: "negative timeout", key: EnvTriggerTimeout, value: "-5s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := completeEnv()
			env[tt.key] = tt.value

			_, err := Load(context.Background(), env.lookup, nil)
			assert.ErrorIs(t, err, ErrInvalidSetting)
		})
	}
}

func TestLoadSecretsFromSecretSource(t *testing.T) {
	env := completeEnv()
	delete(env, EnvJenkinsToken)
	delete(env, EnvJenkinsAPIToken)
	env[EnvJenkinsTokenParam] = "/build-trigger/jenkins-token"
	env[EnvJenkinsAPIKeyParam] = "/build-trigger/jenkins-api-token"

	require.True(t, UsesSecretStore(env.lookup))

	secrets := &fakeSecrets{values: map[string]string{
		"/build-trigger/jenkins-token":     "ssm-trigger-token",
		"/build-trigger/jenkins-api-token": "ssm-api-secret",
	}}

	cfg, err := Load(context.Background(), env.lookup, secrets)
	require.NoError(t, err)

	assert.Equal(t, "ssm-trigger-token", cfg.Jenkins.Token)
	assert.Equal(t, "ssm-api-secret", cfg.Jenkins.APIToken)
	assert.Equal(t, []string{"/build-trigger/jenkins-token", "/build-trigger/jenkins-api-token"}, secrets.calls)
}

func TestLoadLiteralSecretWinsOverParam(t *testing.T) {
	env := completeEnv()
	env[EnvJenkinsTokenParam] = "/build-trigger/jenkins-token"

	assert.False(t, UsesSecretStore(env.lookup))

	secrets := &fakeSecrets{}
	cfg, err := Load(context.Background(), env.lookup, secrets)
	require.NoError(t, err)

	assert.Equal(t, "trigger-token", cfg.Jenkins.Token)
	assert.Empty(t, secrets.calls)
}

func TestLoadSecretSourceFailures(t *testing.T) {
	env := completeEnv()
	delete(env, EnvJenkinsAPIToken)
	env[EnvJenkinsAPIKeyParam] = "/build-trigger/jenkins-api-token"

	t.Run("no source", func(t *testing.T) {
		_, err := Load(context.Background(), env.lookup, nil)
		assert.ErrorIs(t, err, ErrSecretNotLoaded)
	})

	t.Run("source error", func(t *testing.T) {
		cause := errors.New("access denied")
		_, err := Load(context.Background(), env.lookup, &fakeSecrets{err: cause})
		assert.ErrorIs(t, err, ErrSecretNotLoaded)
		assert.ErrorIs(t, err, cause)
	})

	t.Run("empty value", func(t *testing.T) {
		_, err := Load(context.Background(), env.lookup, &fakeSecrets{values: map[string]string{}})
		assert.ErrorIs(t, err, ErrMissingSetting)
	})
}
