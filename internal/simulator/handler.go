package simulator

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dataforwardpro/dataforwardpro/internal/database"
	"github.com/dataforwardpro/dataforwardpro/internal/model"
	"github.com/dataforwardpro/dataforwardpro/internal/target"
	"github.com/dataforwardpro/dataforwardpro/pkg/logger"
)

// simulatorTenantID 模拟服务固定租户
const simulatorTenantID = "tenant-simulator"

// Handler 模拟平台接口处理器
// 只维护CRUD状态，不做任何真实转发
type Handler struct {
	mu     sync.RWMutex
	groups []model.GroupNode
}

// NewHandler 创建处理器，分组树来自种子数据
func NewHandler(seed *Seed) *Handler {
	h := &Handler{}
	if seed != nil {
		h.groups = seed.GroupTree()
	}
	return h
}

// SetGroups 替换内存中的分组树（种子热加载用）
func (h *Handler) SetGroups(groups []model.GroupNode) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.groups = groups
}

func respondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{
		"code": 0,
		"msg":  "success",
		"data": data,
	})
}

func respondError(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{
		"code": status,
		"msg":  msg,
	})
}

// parsePagination 解析分页参数，页码从1开始
func parsePagination(c *gin.Context) (page, pageSize int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "10"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 1000 {
		pageSize = 10
	}
	return page, pageSize
}

// validateRule 校验规则字段，来源与目标必须合法
func validateRule(rule *model.ForwardingRule) error {
	if rule.Name == "" {
		return fmt.Errorf("规则名称不能为空")
	}
	for _, s := range rule.Sources {
		if !s.SourceType.Valid() {
			return fmt.Errorf("不支持的来源类型: %d", s.SourceType)
		}
		if s.SourceID == "" {
			return fmt.Errorf("来源ID不能为空")
		}
	}
	for i, t := range rule.Targets {
		if !t.TargetType.Valid() {
			return fmt.Errorf("不支持的目标类型: %s", t.TargetType)
		}
		cfg, corrupt := target.Decode(t)
		if corrupt {
			return fmt.Errorf("第%d个目标配置不是合法的JSON", i+1)
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("第%d个目标配置无效: %v", i+1, err)
		}
	}
	return nil
}

// fillScriptName 按脚本ID回填脚本名称，脚本不存在时报错
func fillScriptName(db *gorm.DB, rule *model.ForwardingRule) error {
	if rule.ScriptID == nil || *rule.ScriptID == "" {
		rule.ScriptID = nil
		rule.ScriptName = ""
		return nil
	}
	var script model.ForwardingScript
	if err := db.First(&script, "id = ?", *rule.ScriptID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("脚本不存在: %s", *rule.ScriptID)
		}
		return err
	}
	rule.ScriptName = script.Name
	return nil
}

// ListRules 分页查询规则
func (h *Handler) ListRules(c *gin.Context) {
	page, pageSize := parsePagination(c)

	db := database.GetDB().Model(&model.ForwardingRule{})
	if name := c.Query("name"); name != "" {
		db = db.Where("name LIKE ?", "%"+name+"%")
	}
	if enabled := c.Query("enabled"); enabled != "" {
		db = db.Where("enabled = ?", enabled)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "查询规则总数失败")
		return
	}

	rules := make([]model.ForwardingRule, 0)
	if err := db.Order("created_at DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&rules).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "查询规则列表失败")
		return
	}

	respondOK(c, gin.H{"list": rules, "total": total})
}

// GetRule 查询规则详情
func (h *Handler) GetRule(c *gin.Context) {
	var rule model.ForwardingRule
	if err := database.GetDB().First(&rule, "id = ?", c.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(c, http.StatusNotFound, "规则不存在")
			return
		}
		respondError(c, http.StatusInternalServerError, "查询规则失败")
		return
	}
	respondOK(c, rule)
}

// createRuleRequest 创建规则请求体
// Enabled 用指针区分"未传"与"传0"，未传时默认启用
type createRuleRequest struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Remark      string           `json:"remark"`
	Enabled     *int             `json:"enabled"`
	ScriptID    *string          `json:"script_id"`
	Sources     model.SourceList `json:"sources"`
	Targets     model.TargetList `json:"targets"`
}

// CreateRule 创建规则，服务端分配ID与租户
func (h *Handler) CreateRule(c *gin.Context) {
	var req createRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "请求参数格式错误")
		return
	}

	enabled := 1
	if req.Enabled != nil {
		enabled = *req.Enabled
	}
	if enabled != 0 && enabled != 1 {
		respondError(c, http.StatusBadRequest, "启用状态只能为0或1")
		return
	}

	rule := model.ForwardingRule{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Description: req.Description,
		Remark:      req.Remark,
		Enabled:     enabled,
		ScriptID:    req.ScriptID,
		TenantID:    simulatorTenantID,
		Sources:     req.Sources,
		Targets:     req.Targets,
	}
	if err := validateRule(&rule); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	db := database.GetDB()
	if err := fillScriptName(db, &rule); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := db.Create(&rule).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "创建规则失败")
		return
	}

	logger.Info("Forwarding rule created", "rule_id", rule.ID, "name", rule.Name)
	respondOK(c, rule)
}

// UpdateRule 更新规则，整体覆盖可编辑字段
func (h *Handler) UpdateRule(c *gin.Context) {
	var req model.ForwardingRule
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "请求参数格式错误")
		return
	}
	if req.ID == "" {
		respondError(c, http.StatusBadRequest, "规则ID不能为空")
		return
	}
	if req.Enabled != 0 && req.Enabled != 1 {
		respondError(c, http.StatusBadRequest, "启用状态只能为0或1")
		return
	}
	if err := validateRule(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	db := database.GetDB()
	var rule model.ForwardingRule
	if err := db.First(&rule, "id = ?", req.ID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(c, http.StatusNotFound, "规则不存在")
			return
		}
		respondError(c, http.StatusInternalServerError, "查询规则失败")
		return
	}

	if err := fillScriptName(db, &req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	rule.Name = req.Name
	rule.Description = req.Description
	rule.Remark = req.Remark
	rule.Enabled = req.Enabled
	rule.ScriptID = req.ScriptID
	rule.ScriptName = req.ScriptName
	rule.Sources = req.Sources
	rule.Targets = req.Targets
	if err := db.Save(&rule).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "更新规则失败")
		return
	}

	logger.Info("Forwarding rule updated", "rule_id", rule.ID, "name", rule.Name)
	respondOK(c, rule)
}

// ruleStatusRequest 规则状态切换请求体
type ruleStatusRequest struct {
	ID      string `json:"id" binding:"required"`
	Enabled *int   `json:"enabled" binding:"required"`
}

// SetRuleStatus 设置规则启用状态
func (h *Handler) SetRuleStatus(c *gin.Context) {
	var req ruleStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "请求参数格式错误")
		return
	}
	if *req.Enabled != 0 && *req.Enabled != 1 {
		respondError(c, http.StatusBadRequest, "启用状态只能为0或1")
		return
	}

	result := database.GetDB().Model(&model.ForwardingRule{}).
		Where("id = ?", req.ID).
		Update("enabled", *req.Enabled)
	if result.Error != nil {
		respondError(c, http.StatusInternalServerError, "更新规则状态失败")
		return
	}
	if result.RowsAffected == 0 {
		respondError(c, http.StatusNotFound, "规则不存在")
		return
	}

	logger.Info("Forwarding rule status updated", "rule_id", req.ID, "enabled", *req.Enabled)
	respondOK(c, nil)
}

// DeleteRule 删除规则
func (h *Handler) DeleteRule(c *gin.Context) {
	id := c.Param("id")
	result := database.GetDB().Delete(&model.ForwardingRule{}, "id = ?", id)
	if result.Error != nil {
		respondError(c, http.StatusInternalServerError, "删除规则失败")
		return
	}
	if result.RowsAffected == 0 {
		respondError(c, http.StatusNotFound, "规则不存在")
		return
	}

	logger.Info("Forwarding rule deleted", "rule_id", id)
	respondOK(c, nil)
}

// ListScripts 分页查询脚本
func (h *Handler) ListScripts(c *gin.Context) {
	page, pageSize := parsePagination(c)

	db := database.GetDB().Model(&model.ForwardingScript{})
	if name := c.Query("name"); name != "" {
		db = db.Where("name LIKE ?", "%"+name+"%")
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "查询脚本总数失败")
		return
	}

	scripts := make([]model.ForwardingScript, 0)
	if err := db.Order("created_at DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&scripts).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "查询脚本列表失败")
		return
	}

	respondOK(c, gin.H{"list": scripts, "total": total})
}

// ListAllScripts 查询全部脚本（下拉选项用）
func (h *Handler) ListAllScripts(c *gin.Context) {
	scripts := make([]model.ForwardingScript, 0)
	if err := database.GetDB().Order("name ASC").Find(&scripts).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "查询脚本列表失败")
		return
	}
	respondOK(c, scripts)
}

// GetScript 查询脚本详情
func (h *Handler) GetScript(c *gin.Context) {
	var script model.ForwardingScript
	if err := database.GetDB().First(&script, "id = ?", c.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(c, http.StatusNotFound, "脚本不存在")
			return
		}
		respondError(c, http.StatusInternalServerError, "查询脚本失败")
		return
	}
	respondOK(c, script)
}

// CreateScript 创建脚本
func (h *Handler) CreateScript(c *gin.Context) {
	var script model.ForwardingScript
	if err := c.ShouldBindJSON(&script); err != nil {
		respondError(c, http.StatusBadRequest, "请求参数格式错误")
		return
	}
	if script.Name == "" {
		respondError(c, http.StatusBadRequest, "脚本名称不能为空")
		return
	}
	if script.ScriptContent == "" {
		respondError(c, http.StatusBadRequest, "脚本内容不能为空")
		return
	}

	script.ID = uuid.NewString()
	script.TenantID = simulatorTenantID
	if script.Enabled != 0 && script.Enabled != 1 {
		script.Enabled = 1
	}
	if err := database.GetDB().Create(&script).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "创建脚本失败")
		return
	}

	logger.Info("Forwarding script created", "script_id", script.ID, "name", script.Name)
	respondOK(c, script)
}

// UpdateScript 更新脚本
func (h *Handler) UpdateScript(c *gin.Context) {
	var req model.ForwardingScript
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "请求参数格式错误")
		return
	}
	if req.ID == "" {
		respondError(c, http.StatusBadRequest, "脚本ID不能为空")
		return
	}
	if req.Name == "" {
		respondError(c, http.StatusBadRequest, "脚本名称不能为空")
		return
	}
	if req.ScriptContent == "" {
		respondError(c, http.StatusBadRequest, "脚本内容不能为空")
		return
	}

	db := database.GetDB()
	var script model.ForwardingScript
	if err := db.First(&script, "id = ?", req.ID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(c, http.StatusNotFound, "脚本不存在")
			return
		}
		respondError(c, http.StatusInternalServerError, "查询脚本失败")
		return
	}

	script.Name = req.Name
	script.ScriptContent = req.ScriptContent
	script.Description = req.Description
	script.Remark = req.Remark
	if req.Enabled == 0 || req.Enabled == 1 {
		script.Enabled = req.Enabled
	}
	if err := db.Save(&script).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "更新脚本失败")
		return
	}

	// 规则列表中的脚本名称是冗余字段，改名后同步
	if err := db.Model(&model.ForwardingRule{}).
		Where("script_id = ?", script.ID).
		Update("script_name", script.Name).Error; err != nil {
		logger.Warn("Failed to sync script name to rules", "script_id", script.ID, "error", err)
	}

	logger.Info("Forwarding script updated", "script_id", script.ID, "name", script.Name)
	respondOK(c, script)
}

// DeleteScript 删除脚本，被规则引用时拒绝删除
func (h *Handler) DeleteScript(c *gin.Context) {
	id := c.Param("id")
	db := database.GetDB()

	var refs int64
	if err := db.Model(&model.ForwardingRule{}).
		Where("script_id = ?", id).Count(&refs).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "查询脚本引用失败")
		return
	}
	if refs > 0 {
		respondError(c, http.StatusBadRequest, fmt.Sprintf("脚本正在被%d条规则使用，无法删除", refs))
		return
	}

	result := db.Delete(&model.ForwardingScript{}, "id = ?", id)
	if result.Error != nil {
		respondError(c, http.StatusInternalServerError, "删除脚本失败")
		return
	}
	if result.RowsAffected == 0 {
		respondError(c, http.StatusNotFound, "脚本不存在")
		return
	}

	logger.Info("Forwarding script deleted", "script_id", id)
	respondOK(c, nil)
}

// TestScript 脚本试运行桩实现
// 只做入参校验与回显，不执行脚本
func (h *Handler) TestScript(c *gin.Context) {
	var req model.ScriptTestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "请求参数格式错误")
		return
	}
	if req.ScriptContent == "" {
		respondError(c, http.StatusBadRequest, "脚本内容不能为空")
		return
	}

	if !json.Valid([]byte(req.TestData)) {
		respondOK(c, model.ScriptTestResult{
			Success: false,
			Error:   "测试数据不是合法的JSON",
		})
		return
	}

	respondOK(c, model.ScriptTestResult{
		Success: true,
		Output:  req.TestData,
	})
}

// ListDevices 查询设备选项列表
func (h *Handler) ListDevices(c *gin.Context) {
	page, pageSize := parsePagination(c)

	db := database.GetDB().Model(&model.DeviceOption{})
	if name := c.Query("name"); name != "" {
		db = db.Where("name LIKE ?", "%"+name+"%")
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "查询设备总数失败")
		return
	}

	devices := make([]model.DeviceOption, 0)
	if err := db.Order("name ASC").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&devices).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "查询设备列表失败")
		return
	}

	respondOK(c, gin.H{"list": devices, "total": total})
}

// ListProducts 查询产品选项列表
func (h *Handler) ListProducts(c *gin.Context) {
	page, pageSize := parsePagination(c)

	db := database.GetDB().Model(&model.ProductOption{})

	var total int64
	if err := db.Count(&total).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "查询产品总数失败")
		return
	}

	products := make([]model.ProductOption, 0)
	if err := db.Order("name ASC").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&products).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "查询产品列表失败")
		return
	}

	respondOK(c, gin.H{"list": products, "total": total})
}

// GetGroupTree 返回整棵设备分组树
func (h *Handler) GetGroupTree(c *gin.Context) {
	h.mu.RLock()
	groups := h.groups
	h.mu.RUnlock()
	if groups == nil {
		groups = []model.GroupNode{}
	}
	respondOK(c, groups)
}
