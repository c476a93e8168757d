package client

import (
	"context"
	"strconv"

	"github.com/dataforwardpro/dataforwardpro/internal/model"
)

// DevicePage 设备分页结果
type DevicePage struct {
	List  []model.DeviceOption `json:"list"`
	Total int64                `json:"total"`
}

// ProductPage 产品分页结果
type ProductPage struct {
	List  []model.ProductOption `json:"list"`
	Total int64                 `json:"total"`
}

// ListDevices 查询设备选项列表
func (c *Client) ListDevices(ctx context.Context, page, pageSize int, name string) (*DevicePage, error) {
	query := map[string]string{
		"page":      strconv.Itoa(page),
		"page_size": strconv.Itoa(pageSize),
	}
	if name != "" {
		query["name"] = name
	}

	var result DevicePage
	if err := c.get(ctx, "/devices", query, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListProducts 查询产品（设备配置）选项列表
func (c *Client) ListProducts(ctx context.Context, page, pageSize int) (*ProductPage, error) {
	query := map[string]string{
		"page":      strconv.Itoa(page),
		"page_size": strconv.Itoa(pageSize),
	}

	var result ProductPage
	if err := c.get(ctx, "/device_configs", query, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetGroupTree 查询设备分组树，整棵返回
func (c *Client) GetGroupTree(ctx context.Context) ([]model.GroupNode, error) {
	var tree []model.GroupNode
	if err := c.get(ctx, "/device_groups/tree", nil, &tree); err != nil {
		return nil, err
	}
	return tree, nil
}
