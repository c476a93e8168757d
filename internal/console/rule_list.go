package console

import (
	"context"
	"fmt"

	"github.com/dataforwardpro/dataforwardpro/internal/client"
	"github.com/dataforwardpro/dataforwardpro/internal/model"
	"github.com/dataforwardpro/dataforwardpro/internal/target"
	"github.com/dataforwardpro/dataforwardpro/pkg/logger"
)

// RuleAPI 规则列表页依赖的接口子集，由 client.Client 实现
type RuleAPI interface {
	ListRules(ctx context.Context, q client.RuleQuery) (*client.RulePage, error)
	SetRuleStatus(ctx context.Context, id string, enabled int) error
	DeleteRule(ctx context.Context, id string) error
}

var _ RuleAPI = (*client.Client)(nil)

// RuleList 规则列表页控制器
// 变更操作成功后整页重新拉取，不做增量修补
type RuleList struct {
	api RuleAPI

	Page     int
	PageSize int
	// NameFilter 按名称模糊筛选，空串不过滤
	NameFilter string
	// EnabledFilter 按启用状态筛选，nil不过滤
	EnabledFilter *int

	Rows  []model.ForwardingRule
	Total int64
}

// NewRuleList 创建规则列表页
func NewRuleList(api RuleAPI, pageSize int) *RuleList {
	if pageSize < 1 {
		pageSize = 10
	}
	return &RuleList{api: api, Page: 1, PageSize: pageSize}
}

// Refresh 按当前页码与筛选条件重新拉取列表
func (l *RuleList) Refresh(ctx context.Context) error {
	page, err := l.api.ListRules(ctx, client.RuleQuery{
		Page:     l.Page,
		PageSize: l.PageSize,
		Name:     l.NameFilter,
		Enabled:  l.EnabledFilter,
	})
	if err != nil {
		return err
	}
	l.Rows = page.List
	l.Total = page.Total
	return nil
}

// SetPage 切换页码并重新拉取
func (l *RuleList) SetPage(ctx context.Context, page int) error {
	if page < 1 {
		page = 1
	}
	l.Page = page
	return l.Refresh(ctx)
}

// ToggleEnabled 翻转指定行的启用状态
// 只发起一次状态调用，调用失败时展示状态保持不变
func (l *RuleList) ToggleEnabled(ctx context.Context, index int) error {
	if index < 0 || index >= len(l.Rows) {
		return fmt.Errorf("row index %d out of range", index)
	}
	row := &l.Rows[index]
	next := 1 - row.Enabled

	if err := l.api.SetRuleStatus(ctx, row.ID, next); err != nil {
		return err
	}
	row.Enabled = next
	logger.Info("Rule status updated", "rule_id", row.ID, "enabled", next)
	return nil
}

// Delete 删除指定行
// 删除成功后恰好刷新一次列表，失败时列表保持不变
func (l *RuleList) Delete(ctx context.Context, index int) error {
	if index < 0 || index >= len(l.Rows) {
		return fmt.Errorf("row index %d out of range", index)
	}
	id := l.Rows[index].ID

	if err := l.api.DeleteRule(ctx, id); err != nil {
		return err
	}
	logger.Info("Rule deleted", "rule_id", id)
	return l.Refresh(ctx)
}

// TargetSummaries 行内目标列的展示摘要
func (l *RuleList) TargetSummaries(index int) []string {
	if index < 0 || index >= len(l.Rows) {
		return nil
	}
	targets := l.Rows[index].Targets
	summaries := make([]string, 0, len(targets))
	for _, t := range targets {
		summaries = append(summaries, target.Summarize(t))
	}
	return summaries
}
