package magentoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/erp/magento-connector/internal/domain/magento"
	"github.com/erp/magento-connector/internal/infrastructure/logger"
	"github.com/erp/magento-connector/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const spanService = "magento_api"

// Client implements magento.RemoteAccessor over the Magento JSON-RPC API.
// Every fetch opens its own session and ends it before returning.
type Client struct {
	config     *Config
	httpClient *http.Client
	logger     *zap.Logger
	metrics    *telemetry.ImportMetrics
	requestID  atomic.Int64
}

// NewClient creates a new Magento API client
func NewClient(config *Config, zapLogger *zap.Logger) (*Client, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if zapLogger == nil {
		zapLogger = zap.NewNop()
	}
	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		logger:     zapLogger.Named("magentoapi"),
	}, nil
}

// SetMetrics sets the recorder for fetch latency and failures
func (c *Client) SetMetrics(metrics *telemetry.ImportMetrics) {
	c.metrics = metrics
}

// FetchCategoryTree returns the full category tree of the instance
func (c *Client) FetchCategoryTree(ctx context.Context, instance *magento.Instance) (*magento.CategoryDocument, error) {
	ctx, span := c.startSpan(ctx, procCategoryTree, instance, 0)
	defer span.End()

	raw, err := c.fetch(ctx, instance, procCategoryTree)
	if err != nil {
		err = &magento.RemoteFetchError{Entity: magento.EntityCategory, Err: err}
		telemetry.RecordError(span, err)
		return nil, err
	}
	doc, err := magento.ParseCategoryDocument(raw)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return doc, nil
}

// FetchCategory returns a single category without children
func (c *Client) FetchCategory(ctx context.Context, instance *magento.Instance, magentoID int64) (*magento.CategoryDocument, error) {
	ctx, span := c.startSpan(ctx, procCategoryInfo, instance, magentoID)
	defer span.End()

	raw, err := c.fetch(ctx, instance, procCategoryInfo, magentoID)
	if err != nil {
		err = &magento.RemoteFetchError{Entity: magento.EntityCategory, MagentoID: magentoID, Err: err}
		telemetry.RecordError(span, err)
		return nil, err
	}
	// catalog_category.info carries children as a comma separated id list
	doc, err := magento.ParseCategoryDocument(withoutField(raw, "children"))
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return doc, nil
}

// FetchProduct returns a single product
func (c *Client) FetchProduct(ctx context.Context, instance *magento.Instance, magentoID int64) (*magento.ProductDocument, error) {
	ctx, span := c.startSpan(ctx, procProductInfo, instance, magentoID)
	defer span.End()

	raw, err := c.fetch(ctx, instance, procProductInfo, magentoID)
	if err != nil {
		err = &magento.RemoteFetchError{Entity: magento.EntityProduct, MagentoID: magentoID, Err: err}
		telemetry.RecordError(span, err)
		return nil, err
	}
	doc, err := magento.ParseProductDocument(raw)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return doc, nil
}

func (c *Client) startSpan(ctx context.Context, proc string, instance *magento.Instance, magentoID int64) (context.Context, trace.Span) {
	ctx, span := telemetry.StartServiceSpan(ctx, spanService, proc, trace.SpanKindClient)
	telemetry.SetAttributes(span,
		telemetry.SpanAttrRPCMethod, proc,
		telemetry.SpanAttrInstanceID, instance.ID.String(),
	)
	if magentoID > 0 {
		telemetry.SetAttributes(span, telemetry.SpanAttrMagentoID, magentoID)
	}
	return ctx, span
}

// fetch runs one remote procedure inside a fresh session
func (c *Client) fetch(ctx context.Context, instance *magento.Instance, proc string, args ...any) (result json.RawMessage, err error) {
	start := time.Now()
	defer func() { c.metrics.RecordFetch(ctx, proc, time.Since(start), err) }()

	endpoint := instance.URL + c.config.EndpointPath
	log := logger.WithLogger(ctx, c.logger).With(zap.String("procedure", proc))

	var session string
	if err := c.do(ctx, endpoint, methodLogin, []any{instance.APIUser, instance.APIKey}, &session); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if session == "" {
		return nil, fmt.Errorf("login: %w", ErrEmptyResult)
	}
	defer func() {
		if err := c.do(context.WithoutCancel(ctx), endpoint, methodEndSession, []any{session}, nil); err != nil {
			log.Warn("failed to end magento session", zap.Error(err))
		}
	}()

	if args == nil {
		args = make([]any, 0)
	}
	if err := c.do(ctx, endpoint, methodCall, []any{session, proc, args}, &result); err != nil {
		return nil, err
	}
	if len(result) == 0 || string(result) == "null" || string(result) == "false" {
		return nil, ErrEmptyResult
	}

	log.Debug("fetched magento document", zap.Int("bytes", len(result)))
	return result, nil
}

// do performs a single JSON-RPC round trip and decodes the result into out
func (c *Client) do(ctx context.Context, endpoint, method string, params []any, out any) error {
	body, err := json.Marshal(rpcRequest{
		JSONRPC: jsonRPCVersion,
		Method:  method,
		Params:  params,
		ID:      c.requestID.Add(1),
	})
	if err != nil {
		return fmt.Errorf("magentoapi: failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("magentoapi: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", contentTypeJSONRPC)
	req.Header.Set("Accept", contentTypeJSONRPC)
	req.Header.Set("User-Agent", c.config.UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, c.config.MaxResponseBytes+1))
	if err != nil {
		return fmt.Errorf("magentoapi: failed to read response: %w", err)
	}
	if int64(len(respBody)) > c.config.MaxResponseBytes {
		return fmt.Errorf("%w: response exceeds %d bytes", ErrInvalidResponse, c.config.MaxResponseBytes)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("%w: HTTP %d", ErrRequestFailed, resp.StatusCode)
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(respBody, &rpcResp); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if rpcResp.Error != nil {
		return rpcResp.Error
	}
	if out == nil {
		return nil
	}
	if raw, ok := out.(*json.RawMessage); ok {
		*raw = rpcResp.Result
		return nil
	}
	if err := json.Unmarshal(rpcResp.Result, out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return nil
}

// withoutField drops a top-level field from a JSON object. Input that is not
// an object is returned unchanged.
func withoutField(raw json.RawMessage, field string) json.RawMessage {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return raw
	}
	if _, ok := fields[field]; !ok {
		return raw
	}
	delete(fields, field)
	out, err := json.Marshal(fields)
	if err != nil {
		return raw
	}
	return out
}

// Ensure Client implements RemoteAccessor
var _ magento.RemoteAccessor = (*Client)(nil)
