package console

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dataforwardpro/dataforwardpro/internal/client"
	"github.com/dataforwardpro/dataforwardpro/internal/model"
)

// fakeRuleAPI 规则列表依赖的假实现，记录调用次数并可注入失败
type fakeRuleAPI struct {
	listCalls   int
	statusCalls int
	deleteCalls int

	rules     []model.ForwardingRule
	lastQuery client.RuleQuery
	listErr   error
	statusErr error
	deleteErr error
}

func (f *fakeRuleAPI) ListRules(ctx context.Context, q client.RuleQuery) (*client.RulePage, error) {
	f.listCalls++
	f.lastQuery = q
	if f.listErr != nil {
		return nil, f.listErr
	}
	return &client.RulePage{List: f.rules, Total: int64(len(f.rules))}, nil
}

func (f *fakeRuleAPI) SetRuleStatus(ctx context.Context, id string, enabled int) error {
	f.statusCalls++
	return f.statusErr
}

func (f *fakeRuleAPI) DeleteRule(ctx context.Context, id string) error {
	f.deleteCalls++
	return f.deleteErr
}

// TestRuleListRefresh 刷新携带当前页码与筛选条件
func TestRuleListRefresh(t *testing.T) {
	api := &fakeRuleAPI{rules: []model.ForwardingRule{{ID: "rule-1", Name: "转发到MES", Enabled: 1}}}
	list := NewRuleList(api, 20)
	list.NameFilter = "MES"
	enabled := 1
	list.EnabledFilter = &enabled

	require.NoError(t, list.Refresh(context.Background()))
	assert.Equal(t, 1, api.lastQuery.Page)
	assert.Equal(t, 20, api.lastQuery.PageSize)
	assert.Equal(t, "MES", api.lastQuery.Name)
	require.NotNil(t, api.lastQuery.Enabled)
	assert.Equal(t, 1, *api.lastQuery.Enabled)
	assert.Len(t, list.Rows, 1)
	assert.Equal(t, int64(1), list.Total)
}

// TestRuleListToggleEnabled 成功翻转只发一次状态调用并更新展示
func TestRuleListToggleEnabled(t *testing.T) {
	api := &fakeRuleAPI{rules: []model.ForwardingRule{{ID: "rule-1", Enabled: 1}}}
	list := NewRuleList(api, 10)
	require.NoError(t, list.Refresh(context.Background()))

	require.NoError(t, list.ToggleEnabled(context.Background(), 0))
	assert.Equal(t, 1, api.statusCalls)
	assert.Equal(t, 0, list.Rows[0].Enabled)

	require.NoError(t, list.ToggleEnabled(context.Background(), 0))
	assert.Equal(t, 2, api.statusCalls)
	assert.Equal(t, 1, list.Rows[0].Enabled)
}

// TestRuleListToggleFailure 状态调用失败时展示保持不变
func TestRuleListToggleFailure(t *testing.T) {
	api := &fakeRuleAPI{rules: []model.ForwardingRule{{ID: "rule-1", Enabled: 1}}}
	list := NewRuleList(api, 10)
	require.NoError(t, list.Refresh(context.Background()))

	api.statusErr = errors.New("server unavailable")
	assert.Error(t, list.ToggleEnabled(context.Background(), 0))
	assert.Equal(t, 1, api.statusCalls)
	assert.Equal(t, 1, list.Rows[0].Enabled, "调用失败时展示状态应保持不变")
}

// TestRuleListDelete 删除成功后恰好刷新一次
func TestRuleListDelete(t *testing.T) {
	api := &fakeRuleAPI{rules: []model.ForwardingRule{{ID: "rule-1"}}}
	list := NewRuleList(api, 10)
	require.NoError(t, list.Refresh(context.Background()))
	assert.Equal(t, 1, api.listCalls)

	require.NoError(t, list.Delete(context.Background(), 0))
	assert.Equal(t, 1, api.deleteCalls)
	assert.Equal(t, 2, api.listCalls, "删除成功后应恰好刷新一次")
}

// TestRuleListDeleteFailure 删除失败时不触发刷新
func TestRuleListDeleteFailure(t *testing.T) {
	api := &fakeRuleAPI{
		rules:     []model.ForwardingRule{{ID: "rule-1"}},
		deleteErr: errors.New("server unavailable"),
	}
	list := NewRuleList(api, 10)
	require.NoError(t, list.Refresh(context.Background()))

	assert.Error(t, list.Delete(context.Background(), 0))
	assert.Equal(t, 1, api.deleteCalls)
	assert.Equal(t, 1, api.listCalls, "删除失败不应触发刷新")
	assert.Len(t, list.Rows, 1)
}

// TestRuleListIndexOutOfRange 下标越界直接报错，不发起调用
func TestRuleListIndexOutOfRange(t *testing.T) {
	api := &fakeRuleAPI{}
	list := NewRuleList(api, 10)

	assert.Error(t, list.ToggleEnabled(context.Background(), 0))
	assert.Error(t, list.Delete(context.Background(), -1))
	assert.Equal(t, 0, api.statusCalls)
	assert.Equal(t, 0, api.deleteCalls)
}

// TestRuleListTargetSummaries 行内目标摘要按目标类型展示
func TestRuleListTargetSummaries(t *testing.T) {
	api := &fakeRuleAPI{rules: []model.ForwardingRule{{
		ID: "rule-1",
		Targets: model.TargetList{
			{TargetType: model.TargetTypeHTTP, Config: `{"url":"http://mes.local/ingest"}`},
			{TargetType: model.TargetTypeMQTT, Config: "{{{broken"},
		},
	}}}
	list := NewRuleList(api, 10)
	require.NoError(t, list.Refresh(context.Background()))

	summaries := list.TargetSummaries(0)
	require.Len(t, summaries, 2)
	assert.Equal(t, "http://mes.local/ingest", summaries[0])
	assert.Equal(t, "-", summaries[1], "损坏的配置摘要应展示占位符")
	assert.Nil(t, list.TargetSummaries(5))
}
