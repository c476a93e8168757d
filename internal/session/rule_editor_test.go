package session

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dataforwardpro/dataforwardpro/internal/client"
	"github.com/dataforwardpro/dataforwardpro/internal/model"
	"github.com/dataforwardpro/dataforwardpro/internal/target"
)

// fakeAPI 可注入失败的平台接口假实现，按方法计数调用次数
type fakeAPI struct {
	mu    sync.Mutex
	calls map[string]int

	rule       *model.ForwardingRule
	getRuleErr error
	createErr  error
	updateErr  error
	lastSaved  *model.ForwardingRule

	script       *model.ForwardingScript
	getScriptErr error

	scripts     []model.ForwardingScript
	scriptsErr  error
	devicesErr  error
	productsErr error
	groupsErr   error
	groups      []model.GroupNode

	testResult *model.ScriptTestResult
	testErr    error
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{calls: make(map[string]int)}
}

func (f *fakeAPI) hit(name string) {
	f.mu.Lock()
	f.calls[name]++
	f.mu.Unlock()
}

func (f *fakeAPI) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeAPI) GetRule(ctx context.Context, id string) (*model.ForwardingRule, error) {
	f.hit("get_rule")
	if f.getRuleErr != nil {
		return nil, f.getRuleErr
	}
	return f.rule, nil
}

func (f *fakeAPI) CreateRule(ctx context.Context, rule *model.ForwardingRule) (*model.ForwardingRule, error) {
	f.hit("create_rule")
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.lastSaved = rule
	created := *rule
	created.ID = "rule-created"
	return &created, nil
}

func (f *fakeAPI) UpdateRule(ctx context.Context, rule *model.ForwardingRule) (*model.ForwardingRule, error) {
	f.hit("update_rule")
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	f.lastSaved = rule
	updated := *rule
	return &updated, nil
}

func (f *fakeAPI) GetScript(ctx context.Context, id string) (*model.ForwardingScript, error) {
	f.hit("get_script")
	if f.getScriptErr != nil {
		return nil, f.getScriptErr
	}
	return f.script, nil
}

func (f *fakeAPI) CreateScript(ctx context.Context, script *model.ForwardingScript) (*model.ForwardingScript, error) {
	f.hit("create_script")
	created := *script
	created.ID = "script-created"
	return &created, nil
}

func (f *fakeAPI) UpdateScript(ctx context.Context, script *model.ForwardingScript) (*model.ForwardingScript, error) {
	f.hit("update_script")
	updated := *script
	return &updated, nil
}

func (f *fakeAPI) ListAllScripts(ctx context.Context) ([]model.ForwardingScript, error) {
	f.hit("list_all_scripts")
	if f.scriptsErr != nil {
		return nil, f.scriptsErr
	}
	return f.scripts, nil
}

func (f *fakeAPI) TestScript(ctx context.Context, req model.ScriptTestRequest) (*model.ScriptTestResult, error) {
	f.hit("test_script")
	if f.testErr != nil {
		return nil, f.testErr
	}
	return f.testResult, nil
}

func (f *fakeAPI) ListDevices(ctx context.Context, page, pageSize int, name string) (*client.DevicePage, error) {
	f.hit("list_devices")
	if f.devicesErr != nil {
		return nil, f.devicesErr
	}
	return &client.DevicePage{
		List:  []model.DeviceOption{{ID: "dev-1", Name: "网关01"}},
		Total: 1,
	}, nil
}

func (f *fakeAPI) ListProducts(ctx context.Context, page, pageSize int) (*client.ProductPage, error) {
	f.hit("list_products")
	if f.productsErr != nil {
		return nil, f.productsErr
	}
	return &client.ProductPage{
		List:  []model.ProductOption{{ID: "prod-1", Name: "边缘网关"}},
		Total: 1,
	}, nil
}

func (f *fakeAPI) GetGroupTree(ctx context.Context) ([]model.GroupNode, error) {
	f.hit("get_group_tree")
	if f.groupsErr != nil {
		return nil, f.groupsErr
	}
	return f.groups, nil
}

// TestRuleEditorSubmitRequiresName 规则名为空时提交不发起任何网络调用
func TestRuleEditorSubmitRequiresName(t *testing.T) {
	api := newFakeAPI()
	editor := NewRuleEditor(api)
	editor.OpenForCreate(context.Background())

	editor.Form().Name = "   "
	_, err := editor.Submit(context.Background())
	assert.ErrorIs(t, err, ErrNameRequired)
	assert.Equal(t, 0, api.count("create_rule"), "校验失败不应发起创建调用")
	assert.Equal(t, StateEditing, editor.State(), "校验失败后会话应保持打开")
}

// TestRuleEditorCreateSubmit 新建提交不携带ID，成功后会话关闭
func TestRuleEditorCreateSubmit(t *testing.T) {
	api := newFakeAPI()
	editor := NewRuleEditor(api)
	editor.OpenForCreate(context.Background())

	form := editor.Form()
	assert.Equal(t, 1, form.Enabled, "新建规则默认启用")
	form.Name = "  转发到MES  "
	editor.AddSource()
	form.Sources[0].SourceID = "dev-1"
	editor.AddTarget()

	saved, err := editor.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "rule-created", saved.ID)
	assert.Equal(t, 1, api.count("create_rule"))
	assert.Equal(t, 0, api.count("update_rule"))
	assert.Empty(t, api.lastSaved.ID, "新建提交不应携带ID")
	assert.Equal(t, "转发到MES", api.lastSaved.Name, "提交前应去除名称首尾空白")
	assert.Equal(t, StateClosed, editor.State())
}

// TestRuleEditorSubmitFailureKeepsEditing 提交失败后保持打开并可重试
func TestRuleEditorSubmitFailureKeepsEditing(t *testing.T) {
	api := newFakeAPI()
	api.createErr = errors.New("server unavailable")
	editor := NewRuleEditor(api)
	editor.OpenForCreate(context.Background())
	editor.Form().Name = "重试规则"

	_, err := editor.Submit(context.Background())
	assert.Error(t, err)
	assert.Equal(t, StateEditing, editor.State(), "提交失败后会话应保持打开")

	api.createErr = nil
	_, err = editor.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, api.count("create_rule"))
	assert.Equal(t, StateClosed, editor.State())
}

// TestRuleEditorOpenForEdit 编辑模式预填表单，提交走更新接口
func TestRuleEditorOpenForEdit(t *testing.T) {
	api := newFakeAPI()
	scriptID := "script-9"
	api.rule = &model.ForwardingRule{
		ID:       "rule-7",
		Name:     "已有规则",
		Enabled:  0,
		ScriptID: &scriptID,
		Sources:  model.SourceList{{SourceType: model.SourceTypeGroup, SourceID: "grp-1"}},
		Targets: model.TargetList{
			{TargetType: model.TargetTypeHTTP, Config: `{"url":"http://mes.local/ingest","method":"POST","timeout":30}`},
		},
	}
	editor := NewRuleEditor(api)
	require.NoError(t, editor.OpenForEdit(context.Background(), "rule-7"))

	form := editor.Form()
	assert.Equal(t, "rule-7", form.ID)
	assert.Equal(t, 0, form.Enabled)
	assert.Len(t, form.Sources, 1)
	assert.Len(t, form.Targets, 1)

	_, err := editor.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, api.count("update_rule"))
	assert.Equal(t, 0, api.count("create_rule"))
	assert.Equal(t, "rule-7", api.lastSaved.ID)
}

// TestRuleEditorOpenForEditFailure 详情拉取失败时会话回到关闭态
func TestRuleEditorOpenForEditFailure(t *testing.T) {
	api := newFakeAPI()
	api.getRuleErr = errors.New("not found")
	editor := NewRuleEditor(api)

	err := editor.OpenForEdit(context.Background(), "rule-missing")
	assert.Error(t, err)
	assert.Equal(t, StateClosed, editor.State())
}

// TestRuleEditorTargetDialog 子对话框保存后配置回写到父表单
func TestRuleEditorTargetDialog(t *testing.T) {
	api := newFakeAPI()
	editor := NewRuleEditor(api)
	editor.OpenForCreate(context.Background())
	editor.AddTarget()

	dialog, err := editor.OpenTargetDialog(0)
	require.NoError(t, err)
	assert.False(t, dialog.Corrupt)
	assert.Equal(t, model.TargetTypeHTTP, dialog.Config.Type)

	dialog.Config.HTTP.URL = "http://mes.local/ingest"
	require.NoError(t, editor.SaveTargetDialog())

	cfg, corrupt := target.Decode(editor.Form().Targets[0])
	assert.False(t, corrupt)
	assert.Equal(t, "http://mes.local/ingest", cfg.HTTP.URL)
}

// TestRuleEditorCorruptTargetDialog 配置损坏时以默认值打开并携带标记
func TestRuleEditorCorruptTargetDialog(t *testing.T) {
	api := newFakeAPI()
	editor := NewRuleEditor(api)
	editor.OpenForCreate(context.Background())
	editor.Form().Targets = []model.ForwardingTarget{
		{TargetType: model.TargetTypeMQTT, Config: "{{{not json"},
	}

	dialog, err := editor.OpenTargetDialog(0)
	require.NoError(t, err)
	assert.True(t, dialog.Corrupt, "损坏的配置应携带标记")
	assert.Equal(t, model.TargetTypeMQTT, dialog.Config.Type)
	assert.Equal(t, 1883, dialog.Config.MQTT.Port, "应以默认配置打开")
}

// TestRuleEditorSaveDialogNoop 未打开任何目标时保存为空操作
func TestRuleEditorSaveDialogNoop(t *testing.T) {
	api := newFakeAPI()
	editor := NewRuleEditor(api)
	editor.OpenForCreate(context.Background())

	assert.NoError(t, editor.SaveTargetDialog())
}

// TestRuleEditorRemoveTargetClosesDialog 移除目标时其子对话框一并关闭
func TestRuleEditorRemoveTargetClosesDialog(t *testing.T) {
	api := newFakeAPI()
	editor := NewRuleEditor(api)
	editor.OpenForCreate(context.Background())
	editor.AddTarget()

	_, err := editor.OpenTargetDialog(0)
	require.NoError(t, err)
	editor.RemoveTarget(0)

	assert.Empty(t, editor.Form().Targets)
	assert.NoError(t, editor.SaveTargetDialog(), "对话框已随目标移除，保存应为空操作")
}

// TestRuleEditorRemoveEarlierTargetShiftsDialog 移除更低下标的目标后，
// 打开中的对话框仍指向原来的那个目标
func TestRuleEditorRemoveEarlierTargetShiftsDialog(t *testing.T) {
	api := newFakeAPI()
	editor := NewRuleEditor(api)
	editor.OpenForCreate(context.Background())
	editor.AddTarget()
	editor.AddTarget()
	editor.AddTarget()

	dialog, err := editor.OpenTargetDialog(1)
	require.NoError(t, err)
	dialog.Config.HTTP.URL = "http://mes.local/ingest"

	editor.RemoveTarget(0)
	require.NoError(t, editor.SaveTargetDialog())

	require.Len(t, editor.Form().Targets, 2)
	cfg, corrupt := target.Decode(editor.Form().Targets[0])
	require.False(t, corrupt)
	assert.Equal(t, "http://mes.local/ingest", cfg.HTTP.URL, "回写应落在被编辑的目标上")
	cfg, _ = target.Decode(editor.Form().Targets[1])
	assert.Empty(t, cfg.HTTP.URL, "未编辑的目标不应被覆盖")
}

// TestRuleEditorRemoveEarlierTargetLastDialog 对话框打开在末尾目标上时，
// 移除更低下标的目标后保存不应越界
func TestRuleEditorRemoveEarlierTargetLastDialog(t *testing.T) {
	api := newFakeAPI()
	editor := NewRuleEditor(api)
	editor.OpenForCreate(context.Background())
	editor.AddTarget()
	editor.AddTarget()

	dialog, err := editor.OpenTargetDialog(1)
	require.NoError(t, err)
	dialog.Config.HTTP.URL = "http://mes.local/ingest"

	editor.RemoveTarget(0)
	require.NoError(t, editor.SaveTargetDialog())

	require.Len(t, editor.Form().Targets, 1)
	cfg, corrupt := target.Decode(editor.Form().Targets[0])
	require.False(t, corrupt)
	assert.Equal(t, "http://mes.local/ingest", cfg.HTTP.URL)
}

// TestRuleEditorSubmitWhenClosed 会话未打开时提交直接报错
func TestRuleEditorSubmitWhenClosed(t *testing.T) {
	api := newFakeAPI()
	editor := NewRuleEditor(api)

	_, err := editor.Submit(context.Background())
	assert.ErrorIs(t, err, ErrSessionClosed)
	assert.Equal(t, 0, api.count("create_rule"))
}
