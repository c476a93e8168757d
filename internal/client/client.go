package client

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-resty/resty/v2"

	"github.com/dataforwardpro/dataforwardpro/internal/config"
)

// Client 平台转发API客户端
// 仅做参数整形与错误上抛，不含业务逻辑，也不在本层做业务重试
type Client struct {
	http *resty.Client
}

// apiResponse 平台统一响应包裹，code=0 表示成功
type apiResponse struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

// New 创建API客户端
func New(cfg config.APIConfig) *Client {
	httpClient := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	// 传输层重试由配置决定，默认0（失败立即上抛）
	if cfg.RetryCount > 0 {
		httpClient.
			SetRetryCount(cfg.RetryCount).
			SetRetryWaitTime(cfg.RetryWaitTime)
	}

	if cfg.Token != "" {
		httpClient.SetHeader("Authorization", "Bearer "+cfg.Token)
	}

	return &Client{http: httpClient}
}

// NewWithBaseURL 以默认参数创建客户端，测试用
func NewWithBaseURL(baseURL string) *Client {
	return New(config.APIConfig{BaseURL: baseURL})
}

// execute 发送请求并拆解统一响应包裹
// out 为空表示调用方不关心返回数据
func (c *Client) execute(ctx context.Context, method, path string, query map[string]string, body, out interface{}) error {
	var envelope apiResponse
	req := c.http.R().
		SetContext(ctx).
		SetResult(&envelope).
		SetError(&envelope)
	if len(query) > 0 {
		req.SetQueryParams(query)
	}
	if body != nil {
		req.SetBody(body)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("request %s %s failed: %w", method, path, err)
	}
	if resp.IsError() && envelope.Msg == "" {
		return fmt.Errorf("request %s %s failed: status %d", method, path, resp.StatusCode())
	}
	if envelope.Code != 0 {
		return fmt.Errorf("server rejected %s %s: %s (code %d)", method, path, envelope.Msg, envelope.Code)
	}
	if out != nil && len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return fmt.Errorf("failed to decode response of %s %s: %w", method, path, err)
		}
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, query map[string]string, out interface{}) error {
	return c.execute(ctx, resty.MethodGet, path, query, nil, out)
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	return c.execute(ctx, resty.MethodPost, path, nil, body, out)
}

func (c *Client) put(ctx context.Context, path string, body, out interface{}) error {
	return c.execute(ctx, resty.MethodPut, path, nil, body, out)
}

func (c *Client) delete(ctx context.Context, path string) error {
	return c.execute(ctx, resty.MethodDelete, path, nil, nil, nil)
}
