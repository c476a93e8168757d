package session

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dataforwardpro/dataforwardpro/internal/model"
)

// TestLoadOptionsAllSuccess 四路选项全部加载成功
func TestLoadOptionsAllSuccess(t *testing.T) {
	api := newFakeAPI()
	api.scripts = []model.ForwardingScript{{ID: "script-1", Name: "透传"}}
	api.groups = []model.GroupNode{{ID: "grp-1", Name: "一号工厂"}}

	opts := LoadOptions(context.Background(), api)
	assert.False(t, opts.Failed())
	assert.Len(t, opts.Scripts, 1)
	assert.Equal(t, []model.SelectOption{{Value: "dev-1", Label: "网关01"}}, opts.Devices)
	assert.Equal(t, []model.SelectOption{{Value: "prod-1", Label: "边缘网关"}}, opts.Products)
	assert.Equal(t, []model.SelectOption{{Value: "grp-1", Label: "一号工厂"}}, opts.Groups)
}

// TestLoadOptionsPartialFailure 单路失败只影响自己的列表
func TestLoadOptionsPartialFailure(t *testing.T) {
	api := newFakeAPI()
	api.scripts = []model.ForwardingScript{{ID: "script-1", Name: "透传"}}
	api.devicesErr = errors.New("device service down")

	opts := LoadOptions(context.Background(), api)
	assert.True(t, opts.Failed())
	assert.Contains(t, opts.Errors, "devices")
	assert.Len(t, opts.Errors, 1, "其余三路不应受影响")
	assert.Empty(t, opts.Devices)
	assert.Len(t, opts.Scripts, 1)
	assert.NotEmpty(t, opts.Products)
}

// TestFlattenGroups 分组树按先序深度优先展平
func TestFlattenGroups(t *testing.T) {
	tree := []model.GroupNode{
		{
			ID: "grp-factory", Name: "一号工厂",
			Children: []model.GroupNode{
				{
					ID: "grp-a", Name: "A车间",
					Children: []model.GroupNode{{ID: "grp-line", Name: "一号产线"}},
				},
				{ID: "grp-b", Name: "B车间"},
			},
		},
		{ID: "grp-warehouse", Name: "成品仓库"},
	}

	options := FlattenGroups(tree)
	values := make([]string, 0, len(options))
	for _, o := range options {
		values = append(values, o.Value)
	}
	assert.Equal(t, []string{"grp-factory", "grp-a", "grp-line", "grp-b", "grp-warehouse"}, values)
}

// TestFlattenGroupsSkipsIncompleteNodes 缺ID或名称的节点跳过自身但保留子节点
func TestFlattenGroupsSkipsIncompleteNodes(t *testing.T) {
	tree := []model.GroupNode{
		{
			ID: "", Name: "无效根节点",
			Children: []model.GroupNode{{ID: "grp-child", Name: "有效子节点"}},
		},
	}

	options := FlattenGroups(tree)
	assert.Equal(t, []model.SelectOption{{Value: "grp-child", Label: "有效子节点"}}, options)
}
