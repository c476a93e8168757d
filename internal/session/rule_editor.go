package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dataforwardpro/dataforwardpro/internal/model"
	"github.com/dataforwardpro/dataforwardpro/internal/target"
	"github.com/dataforwardpro/dataforwardpro/pkg/logger"
)

// 客户端校验错误，命中后不会发起任何网络调用
var (
	ErrNameRequired   = errors.New("name is required")
	ErrScriptRequired = errors.New("script content is required")
	ErrSessionClosed  = errors.New("session is not open")
)

// State 编辑会话状态
type State int

const (
	StateClosed State = iota
	StateLoading
	StateEditing
	StateSubmitting
)

// Mode 会话模式：新建或编辑
type Mode int

const (
	ModeCreate Mode = iota
	ModeEdit
)

// RuleForm 规则编辑表单
type RuleForm struct {
	ID          string
	Name        string
	Description string
	Remark      string
	Enabled     int
	ScriptID    *string
	Sources     []model.ForwardingSource
	Targets     []model.ForwardingTarget
}

// TargetDialog 目标配置子对话框
// Index 记录父表单中被编辑目标的位置，Corrupt 标记原配置解析失败
type TargetDialog struct {
	Index   int
	Config  target.Config
	Corrupt bool
}

// RuleEditor 规则编辑会话
// 每次新建/编辑各构造一个全新会话，不复用可变共享状态
type RuleEditor struct {
	api     API
	state   State
	mode    Mode
	form    RuleForm
	options *Options
	dialog  *TargetDialog
}

// NewRuleEditor 创建规则编辑会话
func NewRuleEditor(api API) *RuleEditor {
	return &RuleEditor{api: api, state: StateClosed}
}

// State 当前会话状态
func (e *RuleEditor) State() State { return e.state }

// Mode 当前会话模式
func (e *RuleEditor) Mode() Mode { return e.mode }

// Form 当前表单，打开后可直接修改标量字段
func (e *RuleEditor) Form() *RuleForm { return &e.form }

// Options 参考选项集合，Open 之后可用
func (e *RuleEditor) Options() *Options { return e.options }

// OpenForCreate 以新建模式打开：重置表单并加载参考选项
func (e *RuleEditor) OpenForCreate(ctx context.Context) {
	e.state = StateLoading
	e.mode = ModeCreate
	e.form = RuleForm{Enabled: 1}
	e.dialog = nil

	e.options = LoadOptions(ctx, e.api)
	e.state = StateEditing
}

// OpenForEdit 以编辑模式打开：加载参考选项并拉取规则详情
// 详情拉取失败时会话回到关闭态，由调用方提示重试
func (e *RuleEditor) OpenForEdit(ctx context.Context, id string) error {
	e.state = StateLoading
	e.mode = ModeEdit
	e.dialog = nil

	e.options = LoadOptions(ctx, e.api)

	rule, err := e.api.GetRule(ctx, id)
	if err != nil {
		e.state = StateClosed
		return fmt.Errorf("failed to load rule %s: %w", id, err)
	}

	// 来源与目标原样进入表单
	e.form = RuleForm{
		ID:          rule.ID,
		Name:        rule.Name,
		Description: rule.Description,
		Remark:      rule.Remark,
		Enabled:     rule.Enabled,
		ScriptID:    rule.ScriptID,
		Sources:     append([]model.ForwardingSource(nil), rule.Sources...),
		Targets:     append([]model.ForwardingTarget(nil), rule.Targets...),
	}
	e.state = StateEditing
	return nil
}

// AddSource 追加一条默认来源（设备类型、空ID），数量不设上限
func (e *RuleEditor) AddSource() {
	e.form.Sources = append(e.form.Sources, model.ForwardingSource{SourceType: model.SourceTypeDevice})
}

// RemoveSource 按下标移除来源
func (e *RuleEditor) RemoveSource(index int) {
	if index < 0 || index >= len(e.form.Sources) {
		return
	}
	e.form.Sources = append(e.form.Sources[:index], e.form.Sources[index+1:]...)
}

// AddTarget 追加一条默认目标（HTTP类型、默认配置已序列化）
func (e *RuleEditor) AddTarget() {
	t, err := target.NewTarget(target.Default(model.TargetTypeHTTP))
	if err != nil {
		// 默认配置序列化不应失败
		logger.Error("Failed to build default target", "error", err)
		return
	}
	e.form.Targets = append(e.form.Targets, t)
}

// RemoveTarget 按下标移除目标，若其子对话框打开则一并关闭
// 打开在更高下标上的对话框随移除前移，保持指向同一个目标
func (e *RuleEditor) RemoveTarget(index int) {
	if index < 0 || index >= len(e.form.Targets) {
		return
	}
	e.form.Targets = append(e.form.Targets[:index], e.form.Targets[index+1:]...)
	if e.dialog == nil {
		return
	}
	switch {
	case e.dialog.Index == index:
		e.dialog = nil
	case e.dialog.Index > index:
		e.dialog.Index--
	}
}

// OpenTargetDialog 打开目标配置子对话框
// 解码当前配置预填，解析失败时以默认配置打开并携带 Corrupt 标记
func (e *RuleEditor) OpenTargetDialog(index int) (*TargetDialog, error) {
	if index < 0 || index >= len(e.form.Targets) {
		return nil, fmt.Errorf("target index %d out of range", index)
	}
	cfg, corrupt := target.Decode(e.form.Targets[index])
	if corrupt {
		logger.Warn("Target config is corrupt, editing from defaults", "index", index)
	}
	e.dialog = &TargetDialog{Index: index, Config: cfg, Corrupt: corrupt}
	return e.dialog, nil
}

// SaveTargetDialog 校验并回写子对话框中的配置
// 未打开任何目标或目标已不存在时保存为空操作
func (e *RuleEditor) SaveTargetDialog() error {
	if e.dialog == nil {
		return nil
	}
	if e.dialog.Index < 0 || e.dialog.Index >= len(e.form.Targets) {
		e.dialog = nil
		return nil
	}
	if err := e.dialog.Config.Validate(); err != nil {
		return err
	}
	t, err := target.NewTarget(e.dialog.Config)
	if err != nil {
		return err
	}
	e.form.Targets[e.dialog.Index] = t
	e.dialog = nil
	return nil
}

// Submit 提交表单
// 规则名为空时直接返回校验错误，不发起网络调用；
// 提交失败时会话保持打开以便重试，成功后会话关闭并返回服务端结果
func (e *RuleEditor) Submit(ctx context.Context) (*model.ForwardingRule, error) {
	if e.state != StateEditing {
		return nil, ErrSessionClosed
	}
	if strings.TrimSpace(e.form.Name) == "" {
		return nil, ErrNameRequired
	}

	e.state = StateSubmitting
	rule := e.buildSubmission()

	var (
		saved *model.ForwardingRule
		err   error
	)
	if e.mode == ModeEdit {
		saved, err = e.api.UpdateRule(ctx, rule)
	} else {
		saved, err = e.api.CreateRule(ctx, rule)
	}
	if err != nil {
		// 保持打开状态，允许用户修改后重试
		e.state = StateEditing
		return nil, err
	}

	e.state = StateClosed
	return saved, nil
}

// Close 放弃编辑并关闭会话
func (e *RuleEditor) Close() {
	e.state = StateClosed
	e.dialog = nil
}

// buildSubmission 由表单构造提交对象，可选字段为空时不携带
func (e *RuleEditor) buildSubmission() *model.ForwardingRule {
	rule := &model.ForwardingRule{
		Name:        strings.TrimSpace(e.form.Name),
		Description: e.form.Description,
		Remark:      e.form.Remark,
		Enabled:     e.form.Enabled,
		Sources:     model.SourceList(e.form.Sources),
		Targets:     model.TargetList(e.form.Targets),
	}
	if e.mode == ModeEdit {
		rule.ID = e.form.ID
	}
	if e.form.ScriptID != nil && *e.form.ScriptID != "" {
		rule.ScriptID = e.form.ScriptID
	}
	return rule
}
