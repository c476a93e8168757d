package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// SourceType 数据来源类型枚举
type SourceType int

const (
	SourceTypeDevice  SourceType = 1 // 设备
	SourceTypeProduct SourceType = 2 // 产品（设备配置）
	SourceTypeGroup   SourceType = 3 // 设备分组
)

// Valid 判断来源类型是否合法
func (t SourceType) Valid() bool {
	return t == SourceTypeDevice || t == SourceTypeProduct || t == SourceTypeGroup
}

// TargetType 转发目标类型枚举
type TargetType string

const (
	TargetTypeHTTP TargetType = "http"
	TargetTypeMQTT TargetType = "mqtt"
)

// Valid 判断目标类型是否合法
func (t TargetType) Valid() bool {
	return t == TargetTypeHTTP || t == TargetTypeMQTT
}

// ForwardingSource 规则的数据来源引用
// SourceID 的命名空间由 SourceType 决定（设备ID/产品ID/分组ID）
type ForwardingSource struct {
	SourceType SourceType `json:"source_type"`
	SourceID   string     `json:"source_id"`
}

// ForwardingTarget 规则的转发目标
// Config 为序列化后的目标配置字符串，结构由 TargetType 决定，
// 编解码统一走 internal/target 包
type ForwardingTarget struct {
	TargetType TargetType `json:"target_type"`
	Config     string     `json:"config"`
}

// SourceList 来源列表，作为JSON文本列持久化
type SourceList []ForwardingSource

// Value 实现 driver.Valuer
func (l SourceList) Value() (driver.Value, error) {
	if l == nil {
		l = SourceList{}
	}
	return json.Marshal(l)
}

// Scan 实现 sql.Scanner
func (l *SourceList) Scan(value interface{}) error {
	if value == nil {
		*l = SourceList{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("unsupported source list column type %T", value)
	}
}

// TargetList 目标列表，作为JSON文本列持久化
type TargetList []ForwardingTarget

// Value 实现 driver.Valuer
func (l TargetList) Value() (driver.Value, error) {
	if l == nil {
		l = TargetList{}
	}
	return json.Marshal(l)
}

// Scan 实现 sql.Scanner
func (l *TargetList) Scan(value interface{}) error {
	if value == nil {
		*l = TargetList{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("unsupported target list column type %T", value)
	}
}

// ForwardingRule 数据转发规则
// 服务端分配 ID、TenantID 与时间戳；客户端新建的规则 ID 为空
type ForwardingRule struct {
	ID          string     `json:"id" gorm:"primaryKey;type:varchar(64)"`
	Name        string     `json:"name" gorm:"type:varchar(128);not null;index"`
	Description string     `json:"description,omitempty" gorm:"type:text"`
	Remark      string     `json:"remark,omitempty" gorm:"type:text"`
	Enabled     int        `json:"enabled" gorm:"not null;default:1"`
	ScriptID    *string    `json:"script_id,omitempty" gorm:"type:varchar(64)"`
	ScriptName  string     `json:"script_name,omitempty" gorm:"type:varchar(128)"`
	TenantID    string     `json:"tenant_id,omitempty" gorm:"type:varchar(64);index"`
	Sources     SourceList `json:"sources" gorm:"type:text"`
	Targets     TargetList `json:"targets" gorm:"type:text"`
	CreatedAt   time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName 表名
func (ForwardingRule) TableName() string {
	return "forwarding_rules"
}

// IsEnabled 规则是否启用
func (r *ForwardingRule) IsEnabled() bool {
	return r.Enabled == 1
}

// ForwardingScript 转发数据变换脚本
// 脚本由服务端的脚本引擎执行，此处仅作为文本管理
type ForwardingScript struct {
	ID            string    `json:"id" gorm:"primaryKey;type:varchar(64)"`
	Name          string    `json:"name" gorm:"type:varchar(128);not null;index"`
	ScriptContent string    `json:"script_content" gorm:"type:text;not null"`
	Description   string    `json:"description,omitempty" gorm:"type:text"`
	Enabled       int       `json:"enabled" gorm:"not null;default:1"`
	Remark        string    `json:"remark,omitempty" gorm:"type:text"`
	TenantID      string    `json:"tenant_id,omitempty" gorm:"type:varchar(64);index"`
	CreatedAt     time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt     time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName 表名
func (ForwardingScript) TableName() string {
	return "forwarding_scripts"
}

// ScriptTestRequest 脚本调试请求
type ScriptTestRequest struct {
	ScriptContent string `json:"script_content"`
	TestData      string `json:"test_data"`
}

// ScriptTestResult 脚本调试结果
// Success=false 表示脚本执行失败，属于正常业务结果而非传输错误
type ScriptTestResult struct {
	Success bool   `json:"success"`
	Output  string `json:"output"`
	Error   string `json:"error"`
}
