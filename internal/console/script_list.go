package console

import (
	"context"
	"fmt"

	"github.com/dataforwardpro/dataforwardpro/internal/client"
	"github.com/dataforwardpro/dataforwardpro/internal/model"
	"github.com/dataforwardpro/dataforwardpro/pkg/logger"
)

// ScriptAPI 脚本列表页依赖的接口子集，由 client.Client 实现
type ScriptAPI interface {
	ListScripts(ctx context.Context, page, pageSize int, name string) (*client.ScriptPage, error)
	DeleteScript(ctx context.Context, id string) error
}

var _ ScriptAPI = (*client.Client)(nil)

// ScriptList 脚本列表页控制器
type ScriptList struct {
	api ScriptAPI

	Page       int
	PageSize   int
	NameFilter string

	Rows  []model.ForwardingScript
	Total int64
}

// NewScriptList 创建脚本列表页
func NewScriptList(api ScriptAPI, pageSize int) *ScriptList {
	if pageSize < 1 {
		pageSize = 10
	}
	return &ScriptList{api: api, Page: 1, PageSize: pageSize}
}

// Refresh 按当前页码与筛选条件重新拉取列表
func (l *ScriptList) Refresh(ctx context.Context) error {
	page, err := l.api.ListScripts(ctx, l.Page, l.PageSize, l.NameFilter)
	if err != nil {
		return err
	}
	l.Rows = page.List
	l.Total = page.Total
	return nil
}

// SetPage 切换页码并重新拉取
func (l *ScriptList) SetPage(ctx context.Context, page int) error {
	if page < 1 {
		page = 1
	}
	l.Page = page
	return l.Refresh(ctx)
}

// Delete 删除指定行，成功后恰好刷新一次列表
func (l *ScriptList) Delete(ctx context.Context, index int) error {
	if index < 0 || index >= len(l.Rows) {
		return fmt.Errorf("row index %d out of range", index)
	}
	id := l.Rows[index].ID

	if err := l.api.DeleteScript(ctx, id); err != nil {
		return err
	}
	logger.Info("Script deleted", "script_id", id)
	return l.Refresh(ctx)
}
