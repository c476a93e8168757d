package model

import "time"

// DeviceOption 设备选项（来源选择用，由平台设备服务提供）
type DeviceOption struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(64)"`
	Name      string    `json:"name" gorm:"type:varchar(128);not null"`
	ProductID string    `json:"product_id,omitempty" gorm:"type:varchar(64);index"`
	Online    bool      `json:"online" gorm:"default:false"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName 表名
func (DeviceOption) TableName() string {
	return "device_options"
}

// ProductOption 产品（设备配置）选项
type ProductOption struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(64)"`
	Name      string    `json:"name" gorm:"type:varchar(128);not null"`
	Protocol  string    `json:"protocol,omitempty" gorm:"type:varchar(32)"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName 表名
func (ProductOption) TableName() string {
	return "product_options"
}

// GroupNode 设备分组树节点
// Children 为嵌套子分组，树由平台分组服务整棵返回
type GroupNode struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	ParentID string      `json:"parent_id,omitempty"`
	Children []GroupNode `json:"children,omitempty"`
}

// SelectOption 展平后的下拉选项
type SelectOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}
