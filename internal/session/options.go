package session

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/dataforwardpro/dataforwardpro/internal/model"
	"github.com/dataforwardpro/dataforwardpro/pkg/cache"
	"github.com/dataforwardpro/dataforwardpro/pkg/logger"
)

// 选项列表一次性拉取的页大小，编辑器下拉不做二级分页
const optionPageSize = 1000

// 选项缓存键
const (
	cacheKeyScripts  = "forward:options:scripts"
	cacheKeyDevices  = "forward:options:devices"
	cacheKeyProducts = "forward:options:products"
	cacheKeyGroups   = "forward:options:groups"
)

// Options 规则编辑器打开时加载的参考选项集合
// 四路并行加载，单路失败只影响自己的列表，错误按来源分别记录
type Options struct {
	Scripts  []model.ForwardingScript
	Devices  []model.SelectOption
	Products []model.SelectOption
	Groups   []model.SelectOption

	// Errors 按来源记录的加载失败，键为 scripts/devices/products/groups
	Errors map[string]error
}

// Failed 是否存在加载失败的列表
func (o *Options) Failed() bool {
	return len(o.Errors) > 0
}

// LoadOptions 并行加载全部参考选项列表
// 启用Redis缓存时按列表读穿，未命中回源后写回
func LoadOptions(ctx context.Context, api API) *Options {
	opts := &Options{Errors: make(map[string]error)}

	// Errors 由四个分支并发写入
	var mu sync.Mutex
	fail := func(name string, err error) {
		mu.Lock()
		opts.Errors[name] = err
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)

	// 四个分支互相独立，错误各自落位，errgroup 仅做汇合
	g.Go(func() error {
		if cache.GetJSON(gctx, cacheKeyScripts, &opts.Scripts) {
			return nil
		}
		scripts, err := api.ListAllScripts(gctx)
		if err != nil {
			fail("scripts", err)
			return nil
		}
		opts.Scripts = scripts
		cache.SetJSON(gctx, cacheKeyScripts, scripts)
		return nil
	})

	g.Go(func() error {
		if cache.GetJSON(gctx, cacheKeyDevices, &opts.Devices) {
			return nil
		}
		page, err := api.ListDevices(gctx, 1, optionPageSize, "")
		if err != nil {
			fail("devices", err)
			return nil
		}
		devices := make([]model.SelectOption, 0, len(page.List))
		for _, d := range page.List {
			devices = append(devices, model.SelectOption{Value: d.ID, Label: d.Name})
		}
		opts.Devices = devices
		cache.SetJSON(gctx, cacheKeyDevices, devices)
		return nil
	})

	g.Go(func() error {
		if cache.GetJSON(gctx, cacheKeyProducts, &opts.Products) {
			return nil
		}
		page, err := api.ListProducts(gctx, 1, optionPageSize)
		if err != nil {
			fail("products", err)
			return nil
		}
		products := make([]model.SelectOption, 0, len(page.List))
		for _, p := range page.List {
			products = append(products, model.SelectOption{Value: p.ID, Label: p.Name})
		}
		opts.Products = products
		cache.SetJSON(gctx, cacheKeyProducts, products)
		return nil
	})

	g.Go(func() error {
		if cache.GetJSON(gctx, cacheKeyGroups, &opts.Groups) {
			return nil
		}
		tree, err := api.GetGroupTree(gctx)
		if err != nil {
			fail("groups", err)
			return nil
		}
		groups := FlattenGroups(tree)
		opts.Groups = groups
		cache.SetJSON(gctx, cacheKeyGroups, groups)
		return nil
	})

	_ = g.Wait()

	for name, err := range opts.Errors {
		logger.Warn("Option list load failed", "list", name, "error", err)
	}
	return opts
}

// FlattenGroups 将分组树按先序深度优先展平为下拉选项
// 缺少ID或名称的节点跳过自身但仍下探其子节点
func FlattenGroups(nodes []model.GroupNode) []model.SelectOption {
	options := make([]model.SelectOption, 0, len(nodes))
	var walk func(nodes []model.GroupNode)
	walk = func(nodes []model.GroupNode) {
		for _, node := range nodes {
			if node.ID != "" && node.Name != "" {
				options = append(options, model.SelectOption{Value: node.ID, Label: node.Name})
			}
			if len(node.Children) > 0 {
				walk(node.Children)
			}
		}
	}
	walk(nodes)
	return options
}
