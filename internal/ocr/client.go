package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/claimguru/extract-cli/internal/extract"
	"github.com/claimguru/extract-cli/internal/model"
	"github.com/claimguru/extract-cli/internal/resilience"
)

// proxyClient posts documents to one provider's serverless proxy and
// parses the provider-agnostic response. Calls are blocking round trips
// bounded by the configured timeout; a timeout is a transient failure
// that feeds the orchestrator's fallback path.
type proxyClient struct {
	provider string
	endpoint string
	client   *http.Client
	limiter  *rate.Limiter
	retry    resilience.RetryConfig
	breaker  *resilience.Breaker
}

func newProxyClient(provider, endpoint string, timeoutSecs int, ratePerSec float64, retry resilience.RetryConfig) *proxyClient {
	if timeoutSecs <= 0 {
		timeoutSecs = 60
	}
	var limiter *rate.Limiter
	if ratePerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(ratePerSec), 1)
	}
	return &proxyClient{
		provider: provider,
		endpoint: endpoint,
		client:   &http.Client{Timeout: time.Duration(timeoutSecs) * time.Second},
		limiter:  limiter,
		retry:    retry,
		breaker:  resilience.NewBreaker(provider, resilience.DefaultBreakerConfig()),
	}
}

// process encodes and posts the document, retrying transient failures.
func (c *proxyClient) process(ctx context.Context, req *model.ExtractionRequest, creds Credentials) (*proxyResponse, error) {
	body := proxyRequest{
		DocumentBase64: base64.StdEncoding.EncodeToString(req.Document),
		FileName:       req.FileName,
		OrganizationID: req.OrganizationID,
		Credentials:    creds,
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, eris.Wrapf(err, "ocr: marshal %s request", c.provider)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &extract.ExtractionFailure{Provider: c.provider, Err: err}
		}
	}

	var resp *proxyResponse
	err = c.breaker.Call(ctx, func(ctx context.Context) error {
		return resilience.Do(ctx, c.retry, func(ctx context.Context) error {
			r, err := c.post(ctx, payload)
			if err != nil {
				return err
			}
			resp = r
			return nil
		})
	})
	if err != nil {
		zap.L().Warn("ocr: provider call failed",
			zap.String("provider", c.provider),
			zap.String("document", req.FileName),
			zap.Error(err),
		)
		return nil, &extract.ExtractionFailure{Provider: c.provider, Err: err}
	}
	return resp, nil
}

func (c *proxyClient) post(ctx context.Context, payload []byte) (*proxyResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, eris.Wrapf(err, "ocr: create %s request", c.provider)
	}
	req.Header.Set("Content-Type", "application/json")

	httpResp, err := c.client.Do(req)
	if err != nil {
		return nil, resilience.NewTransientError(err, 0)
	}
	defer httpResp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, resilience.NewTransientError(err, httpResp.StatusCode)
	}

	if httpResp.StatusCode != http.StatusOK {
		err := eris.Errorf("ocr: %s proxy returned %d: %s", c.provider, httpResp.StatusCode, string(respBody))
		if resilience.IsTransientHTTPStatus(httpResp.StatusCode) {
			return nil, resilience.NewTransientError(err, httpResp.StatusCode)
		}
		return nil, err
	}

	var resp proxyResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, eris.Wrapf(err, "ocr: unmarshal %s response", c.provider)
	}
	return &resp, nil
}
