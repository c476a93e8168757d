package client

import (
	"context"
	"fmt"
	"strconv"

	"github.com/dataforwardpro/dataforwardpro/internal/model"
)

// ScriptPage 脚本分页结果
type ScriptPage struct {
	List  []model.ForwardingScript `json:"list"`
	Total int64                    `json:"total"`
}

// ListScripts 分页查询转发脚本
func (c *Client) ListScripts(ctx context.Context, page, pageSize int, name string) (*ScriptPage, error) {
	query := map[string]string{
		"page":      strconv.Itoa(page),
		"page_size": strconv.Itoa(pageSize),
	}
	if name != "" {
		query["name"] = name
	}

	var result ScriptPage
	if err := c.get(ctx, "/data_forwarding/scripts", query, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListAllScripts 查询全部脚本（规则编辑器的脚本下拉选项用）
func (c *Client) ListAllScripts(ctx context.Context) ([]model.ForwardingScript, error) {
	var scripts []model.ForwardingScript
	if err := c.get(ctx, "/data_forwarding/scripts/all", nil, &scripts); err != nil {
		return nil, err
	}
	return scripts, nil
}

// GetScript 查询脚本详情
func (c *Client) GetScript(ctx context.Context, id string) (*model.ForwardingScript, error) {
	var script model.ForwardingScript
	if err := c.get(ctx, "/data_forwarding/scripts/"+id, nil, &script); err != nil {
		return nil, err
	}
	return &script, nil
}

// CreateScript 创建脚本，入参不携带ID
func (c *Client) CreateScript(ctx context.Context, script *model.ForwardingScript) (*model.ForwardingScript, error) {
	if script.ID != "" {
		return nil, fmt.Errorf("create script must not carry an id")
	}
	var created model.ForwardingScript
	if err := c.post(ctx, "/data_forwarding/scripts", script, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateScript 更新脚本，入参必须携带ID
func (c *Client) UpdateScript(ctx context.Context, script *model.ForwardingScript) (*model.ForwardingScript, error) {
	if script.ID == "" {
		return nil, fmt.Errorf("update script requires an id")
	}
	var updated model.ForwardingScript
	if err := c.put(ctx, "/data_forwarding/scripts", script, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteScript 删除脚本
func (c *Client) DeleteScript(ctx context.Context, id string) error {
	return c.delete(ctx, "/data_forwarding/scripts/"+id)
}

// TestScript 发送脚本与样例数据到服务端试运行
// Success=false 属于正常返回（脚本执行失败），不作为error上抛
func (c *Client) TestScript(ctx context.Context, req model.ScriptTestRequest) (*model.ScriptTestResult, error) {
	var result model.ScriptTestResult
	if err := c.post(ctx, "/data_forwarding/scripts/test", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
