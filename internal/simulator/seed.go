package simulator

import (
	"fmt"

	"github.com/spf13/viper"
	"gorm.io/gorm/clause"

	"github.com/dataforwardpro/dataforwardpro/internal/database"
	"github.com/dataforwardpro/dataforwardpro/internal/model"
	"github.com/dataforwardpro/dataforwardpro/pkg/logger"
)

// Seed 参考数据种子文件结构
// 设备与产品入库，分组树保持在内存中整棵提供
type Seed struct {
	Devices  []SeedDevice  `mapstructure:"devices"`
	Products []SeedProduct `mapstructure:"products"`
	Groups   []SeedGroup   `mapstructure:"groups"`
}

// SeedDevice 设备种子项
type SeedDevice struct {
	ID        string `mapstructure:"id"`
	Name      string `mapstructure:"name"`
	ProductID string `mapstructure:"product_id"`
	Online    bool   `mapstructure:"online"`
}

// SeedProduct 产品种子项
type SeedProduct struct {
	ID       string `mapstructure:"id"`
	Name     string `mapstructure:"name"`
	Protocol string `mapstructure:"protocol"`
}

// SeedGroup 分组树种子节点
type SeedGroup struct {
	ID       string      `mapstructure:"id"`
	Name     string      `mapstructure:"name"`
	Children []SeedGroup `mapstructure:"children"`
}

// LoadSeed 读取种子文件
func LoadSeed(path string) (*Seed, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	var seed Seed
	if err := v.Unmarshal(&seed); err != nil {
		return nil, fmt.Errorf("failed to unmarshal seed file: %w", err)
	}
	return &seed, nil
}

// GroupTree 种子分组转为接口返回的树结构
func (s *Seed) GroupTree() []model.GroupNode {
	return buildGroupNodes(s.Groups, "")
}

func buildGroupNodes(groups []SeedGroup, parentID string) []model.GroupNode {
	nodes := make([]model.GroupNode, 0, len(groups))
	for _, g := range groups {
		nodes = append(nodes, model.GroupNode{
			ID:       g.ID,
			Name:     g.Name,
			ParentID: parentID,
			Children: buildGroupNodes(g.Children, g.ID),
		})
	}
	return nodes
}

// Apply 将设备与产品种子写入数据库，主键冲突时覆盖更新
func (s *Seed) Apply() error {
	db := database.GetDB()

	for _, d := range s.Devices {
		device := model.DeviceOption{ID: d.ID, Name: d.Name, ProductID: d.ProductID, Online: d.Online}
		if err := db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&device).Error; err != nil {
			return fmt.Errorf("failed to seed device %s: %w", d.ID, err)
		}
	}
	for _, p := range s.Products {
		product := model.ProductOption{ID: p.ID, Name: p.Name, Protocol: p.Protocol}
		if err := db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&product).Error; err != nil {
			return fmt.Errorf("failed to seed product %s: %w", p.ID, err)
		}
	}

	logger.Info("Seed data applied", "devices", len(s.Devices), "products", len(s.Products), "groups", len(s.Groups))
	return nil
}
