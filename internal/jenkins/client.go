// Package jenkins triggers a parameterised Jenkins job for an uploaded S3
// object through the remote build API:
//
//	POST {base}/job/{job}/buildWithParameters?token={token}&BUCKET={bucket}&KEY={key}
//
// authenticated with HTTP Basic credentials (user and API token).
package jenkins

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"buildtrigger/internal/config"
	"buildtrigger/internal/files"
)

const (
	ParamToken  = "token"
	ParamBucket = "BUCKET"
	ParamKey    = "KEY"

	// maxDrainBytes bounds how much of a response body is read so the
	// connection can be reused.
	maxDrainBytes = 64 * 1024
)

// Client sends build triggers to one Jenkins job.
type Client struct {
	httpClient *http.Client
	baseURL    string
	jobName    string
	token      string
	authHeader string
}

// Response describes a successful trigger.
type Response struct {
	StatusCode int
	Reason     string
	// QueueLocation is the queue item URL Jenkins returns in Location, if any.
	QueueLocation string
}

// NewClient creates a Jenkins client. A nil httpClient gets a client whose
// timeout is cfg.Timeout (zero means none).
func NewClient(cfg config.Jenkins, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		jobName:    cfg.JobName,
		token:      cfg.Token,
		authHeader: BasicAuth(cfg.User, cfg.APIToken),
	}
}

// BasicAuth returns the Authorization header value for user and secret.
func BasicAuth(user, secret string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(user+":"+secret))
}

// BuildURL returns the buildWithParameters address for obj. The query keeps
// token, BUCKET and KEY in that order.
func (c *Client) BuildURL(obj files.S3Object) string {
	return c.jobURL() + "?" + encodeQuery(c.token, obj)
}

// RedactedURL is BuildURL with the trigger token masked, for logging.
func (c *Client) RedactedURL(obj files.S3Object) string {
	return c.jobURL() + "?" + encodeQuery("REDACTED", obj)
}

func (c *Client) jobURL() string {
	return c.baseURL + "/job/" + c.jobName + "/buildWithParameters"
}

func encodeQuery(token string, obj files.S3Object) string {
	return ParamToken + "=" + url.QueryEscape(token) +
		"&" + ParamBucket + "=" + url.QueryEscape(obj.Bucket) +
		"&" + ParamKey + "=" + url.QueryEscape(obj.Key)
}

// NewTriggerRequest builds the authenticated POST for obj. It has no body.
func (c *Client) NewTriggerRequest(ctx context.Context, obj files.S3Object) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BuildURL(obj), nil)
	if err != nil {
		return nil, ErrorRequestNotBuilt(obj.URI(), err)
	}
	req.Header.Set("Authorization", c.authHeader)
	return req, nil
}

// Trigger sends one build trigger for obj and blocks until Jenkins answers.
// A non-2xx answer is returned as *ProtocolError and a network failure as
// *TransportError; any other error comes from building the request.
func (c *Client) Trigger(ctx context.Context, obj files.S3Object) (Response, error) {
	req, err := c.NewTriggerRequest(ctx, obj)
	if err != nil {
		return Response{}, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			return Response{}, &TransportError{Reason: urlErr.Err.Error(), Err: err}
		}
		return Response{}, err
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrainBytes))
		_ = resp.Body.Close()
	}()

	reason := reasonPhrase(resp)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Response{}, &ProtocolError{StatusCode: resp.StatusCode, Reason: reason}
	}

	return Response{
		StatusCode:    resp.StatusCode,
		Reason:        reason,
		QueueLocation: resp.Header.Get("Location"),
	}, nil
}

// reasonPhrase extracts "Created" from a status line such as "201 Created".
func reasonPhrase(resp *http.Response) string {
	reason := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if reason == "" {
		return http.StatusText(resp.StatusCode)
	}
	return reason
}
