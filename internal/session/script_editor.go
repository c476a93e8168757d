package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/dataforwardpro/dataforwardpro/internal/model"
)

// DefaultScriptTemplate 新建脚本时预填的示例脚本
// 脚本由服务端脚本引擎执行，入参为原始上报数据，返回值为转发内容
const DefaultScriptTemplate = `// payload 为设备上报的原始JSON数据
// 返回值将作为转发给目标的内容
function transform(payload) {
    return payload;
}
`

// ScriptForm 脚本编辑表单
type ScriptForm struct {
	ID            string
	Name          string
	ScriptContent string
	Description   string
	Remark        string
	Enabled       int
}

// ScriptEditor 脚本编辑会话，无嵌套列表的扁平表单
type ScriptEditor struct {
	api   API
	state State
	mode  Mode
	form  ScriptForm
}

// NewScriptEditor 创建脚本编辑会话
func NewScriptEditor(api API) *ScriptEditor {
	return &ScriptEditor{api: api, state: StateClosed}
}

// State 当前会话状态
func (e *ScriptEditor) State() State { return e.state }

// Mode 当前会话模式
func (e *ScriptEditor) Mode() Mode { return e.mode }

// Form 当前表单
func (e *ScriptEditor) Form() *ScriptForm { return &e.form }

// OpenForCreate 以新建模式打开，脚本内容预填示例模板
func (e *ScriptEditor) OpenForCreate() {
	e.mode = ModeCreate
	e.form = ScriptForm{ScriptContent: DefaultScriptTemplate, Enabled: 1}
	e.state = StateEditing
}

// OpenForEdit 以编辑模式打开并拉取脚本详情
func (e *ScriptEditor) OpenForEdit(ctx context.Context, id string) error {
	e.state = StateLoading
	e.mode = ModeEdit

	script, err := e.api.GetScript(ctx, id)
	if err != nil {
		e.state = StateClosed
		return fmt.Errorf("failed to load script %s: %w", id, err)
	}

	e.form = ScriptForm{
		ID:            script.ID,
		Name:          script.Name,
		ScriptContent: script.ScriptContent,
		Description:   script.Description,
		Remark:        script.Remark,
		Enabled:       script.Enabled,
	}
	e.state = StateEditing
	return nil
}

// Submit 提交表单
// 名称与脚本内容为必填，校验失败不发起网络调用；
// 提交失败时会话保持打开，成功后关闭并返回服务端结果
func (e *ScriptEditor) Submit(ctx context.Context) (*model.ForwardingScript, error) {
	if e.state != StateEditing {
		return nil, ErrSessionClosed
	}
	if strings.TrimSpace(e.form.Name) == "" {
		return nil, ErrNameRequired
	}
	if strings.TrimSpace(e.form.ScriptContent) == "" {
		return nil, ErrScriptRequired
	}

	e.state = StateSubmitting
	script := &model.ForwardingScript{
		Name:          strings.TrimSpace(e.form.Name),
		ScriptContent: e.form.ScriptContent,
		Description:   e.form.Description,
		Remark:        e.form.Remark,
		Enabled:       e.form.Enabled,
	}

	var (
		saved *model.ForwardingScript
		err   error
	)
	if e.mode == ModeEdit {
		script.ID = e.form.ID
		saved, err = e.api.UpdateScript(ctx, script)
	} else {
		saved, err = e.api.CreateScript(ctx, script)
	}
	if err != nil {
		e.state = StateEditing
		return nil, err
	}

	e.state = StateClosed
	return saved, nil
}

// Close 放弃编辑并关闭会话
func (e *ScriptEditor) Close() {
	e.state = StateClosed
}
