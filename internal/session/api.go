package session

import (
	"context"

	"github.com/dataforwardpro/dataforwardpro/internal/client"
	"github.com/dataforwardpro/dataforwardpro/internal/model"
)

// API 编辑器会话依赖的平台接口子集，由 client.Client 实现
type API interface {
	GetRule(ctx context.Context, id string) (*model.ForwardingRule, error)
	CreateRule(ctx context.Context, rule *model.ForwardingRule) (*model.ForwardingRule, error)
	UpdateRule(ctx context.Context, rule *model.ForwardingRule) (*model.ForwardingRule, error)

	GetScript(ctx context.Context, id string) (*model.ForwardingScript, error)
	CreateScript(ctx context.Context, script *model.ForwardingScript) (*model.ForwardingScript, error)
	UpdateScript(ctx context.Context, script *model.ForwardingScript) (*model.ForwardingScript, error)
	ListAllScripts(ctx context.Context) ([]model.ForwardingScript, error)
	TestScript(ctx context.Context, req model.ScriptTestRequest) (*model.ScriptTestResult, error)

	ListDevices(ctx context.Context, page, pageSize int, name string) (*client.DevicePage, error)
	ListProducts(ctx context.Context, page, pageSize int) (*client.ProductPage, error)
	GetGroupTree(ctx context.Context) ([]model.GroupNode, error)
}

var _ API = (*client.Client)(nil)
