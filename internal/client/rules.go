package client

import (
	"context"
	"fmt"
	"strconv"

	"github.com/dataforwardpro/dataforwardpro/internal/model"
)

// RulePage 规则分页结果
type RulePage struct {
	List  []model.ForwardingRule `json:"list"`
	Total int64                  `json:"total"`
}

// RuleQuery 规则列表筛选条件，页码从1开始
type RuleQuery struct {
	Page     int
	PageSize int
	Name     string
	// Enabled 为空表示不过滤启用状态
	Enabled *int
}

// ListRules 分页查询转发规则
func (c *Client) ListRules(ctx context.Context, q RuleQuery) (*RulePage, error) {
	query := map[string]string{
		"page":      strconv.Itoa(q.Page),
		"page_size": strconv.Itoa(q.PageSize),
	}
	if q.Name != "" {
		query["name"] = q.Name
	}
	if q.Enabled != nil {
		query["enabled"] = strconv.Itoa(*q.Enabled)
	}

	var page RulePage
	if err := c.get(ctx, "/data_forwarding/rules", query, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// GetRule 查询规则详情
func (c *Client) GetRule(ctx context.Context, id string) (*model.ForwardingRule, error) {
	var rule model.ForwardingRule
	if err := c.get(ctx, "/data_forwarding/rules/"+id, nil, &rule); err != nil {
		return nil, err
	}
	return &rule, nil
}

// CreateRule 创建规则，入参不携带ID，服务端返回分配后的完整规则
func (c *Client) CreateRule(ctx context.Context, rule *model.ForwardingRule) (*model.ForwardingRule, error) {
	if rule.ID != "" {
		return nil, fmt.Errorf("create rule must not carry an id")
	}
	var created model.ForwardingRule
	if err := c.post(ctx, "/data_forwarding/rules", rule, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateRule 更新规则，入参必须携带ID
func (c *Client) UpdateRule(ctx context.Context, rule *model.ForwardingRule) (*model.ForwardingRule, error) {
	if rule.ID == "" {
		return nil, fmt.Errorf("update rule requires an id")
	}
	var updated model.ForwardingRule
	if err := c.put(ctx, "/data_forwarding/rules", rule, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// SetRuleStatus 设置规则启用状态
func (c *Client) SetRuleStatus(ctx context.Context, id string, enabled int) error {
	body := map[string]interface{}{
		"id":      id,
		"enabled": enabled,
	}
	return c.put(ctx, "/data_forwarding/rules/status", body, nil)
}

// DeleteRule 删除规则，删除为终态操作
func (c *Client) DeleteRule(ctx context.Context, id string) error {
	return c.delete(ctx, "/data_forwarding/rules/"+id)
}
