package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/dataforwardpro/dataforwardpro/internal/client"
	"github.com/dataforwardpro/dataforwardpro/internal/config"
	"github.com/dataforwardpro/dataforwardpro/internal/console"
	"github.com/dataforwardpro/dataforwardpro/internal/model"
	"github.com/dataforwardpro/dataforwardpro/internal/session"
	"github.com/dataforwardpro/dataforwardpro/internal/target"
	"github.com/dataforwardpro/dataforwardpro/pkg/cache"
	"github.com/dataforwardpro/dataforwardpro/pkg/logger"
)

func usage() {
	fmt.Fprintln(os.Stderr, `用法: console <资源> <操作> [参数]

规则:
  console rules list     [-page N] [-name 关键字] [-enabled 0|1]
  console rules get      -id 规则ID
  console rules create   -name 名称 [-desc 描述] [-remark 备注] [-script 脚本ID]
                         [-sources device:ID,product:ID,group:ID] [-http URL] [-mqtt broker:port/topic]
  console rules update   -id 规则ID [-name 名称] [-desc 描述] [-remark 备注] [-script 脚本ID]
                         [-sources ...] [-http URL] [-mqtt broker:port/topic]
  console rules enable   -id 规则ID
  console rules disable  -id 规则ID
  console rules delete   -id 规则ID
  console rules export   [-name 关键字]

脚本:
  console scripts list   [-page N] [-name 关键字]
  console scripts get    -id 脚本ID
  console scripts create -name 名称 [-file 脚本文件] [-desc 描述]
  console scripts update -id 脚本ID [-name 名称] [-file 脚本文件] [-desc 描述]
  console scripts delete -id 脚本ID
  console scripts test   -file 脚本文件 [-data JSON样例]
  console scripts export [-name 关键字]

通用参数:
  -config 配置文件路径（默认 configs/config.yaml）`)
}

func main() {
	if len(os.Args) < 3 {
		usage()
		os.Exit(2)
	}
	resource, action := os.Args[1], os.Args[2]
	args := os.Args[3:]

	var err error
	switch resource {
	case "rules":
		err = runRules(action, args)
	case "scripts":
		err = runScripts(action, args)
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}

// setup 加载配置并初始化日志、缓存与平台客户端
func setup(configPath string) (*config.Config, *client.Client, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := logger.Init(logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		FilePath:   cfg.Log.FilePath,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
		Compress:   cfg.Log.Compress,
	}); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	// 缓存是可选加速层，连接失败时退化为实时拉取
	if err := cache.InitRedis(cfg.Cache); err != nil {
		logger.Warn("Redis cache unavailable, falling back to direct loads", "error", err)
	}
	return cfg, client.New(cfg.API), nil
}

func runRules(action string, args []string) error {
	fs := flag.NewFlagSet("rules "+action, flag.ExitOnError)
	configPath := fs.String("config", "configs/config.yaml", "配置文件路径")
	id := fs.String("id", "", "规则ID")
	name := fs.String("name", "", "规则名称/筛选关键字")
	desc := fs.String("desc", "", "规则描述")
	remark := fs.String("remark", "", "备注")
	scriptID := fs.String("script", "", "关联脚本ID")
	sources := fs.String("sources", "", "来源列表，格式 device:ID,product:ID,group:ID")
	httpURL := fs.String("http", "", "追加HTTP目标的推送地址")
	mqttAddr := fs.String("mqtt", "", "追加MQTT目标，格式 broker:port/topic")
	page := fs.Int("page", 1, "页码")
	enabled := fs.Int("enabled", -1, "按启用状态筛选，-1不过滤")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, c, err := setup(*configPath)
	if err != nil {
		return err
	}
	defer cache.Close()
	ctx := context.Background()

	switch action {
	case "list":
		list := console.NewRuleList(c, cfg.Console.PageSize)
		list.Page = *page
		list.NameFilter = *name
		if *enabled == 0 || *enabled == 1 {
			v := *enabled
			list.EnabledFilter = &v
		}
		if err := list.Refresh(ctx); err != nil {
			return err
		}
		printRuleRows(list)
		return nil

	case "get":
		if *id == "" {
			return fmt.Errorf("缺少 -id 参数")
		}
		rule, err := c.GetRule(ctx, *id)
		if err != nil {
			return err
		}
		return printJSON(rule)

	case "create", "update":
		editor := session.NewRuleEditor(c)
		if action == "update" {
			if *id == "" {
				return fmt.Errorf("缺少 -id 参数")
			}
			if err := editor.OpenForEdit(ctx, *id); err != nil {
				return err
			}
		} else {
			editor.OpenForCreate(ctx)
		}
		if opts := editor.Options(); opts.Failed() {
			for list, err := range opts.Errors {
				fmt.Fprintf(os.Stderr, "警告: %s 选项加载失败: %v\n", list, err)
			}
		}

		form := editor.Form()
		if *name != "" {
			form.Name = *name
		}
		if *desc != "" {
			form.Description = *desc
		}
		if *remark != "" {
			form.Remark = *remark
		}
		if *scriptID != "" {
			form.ScriptID = scriptID
		}
		if *sources != "" {
			parsed, err := parseSources(*sources)
			if err != nil {
				return err
			}
			form.Sources = parsed
		}
		if *httpURL != "" {
			if err := appendHTTPTarget(editor, *httpURL); err != nil {
				return err
			}
		}
		if *mqttAddr != "" {
			if err := appendMQTTTarget(editor, *mqttAddr); err != nil {
				return err
			}
		}

		saved, err := editor.Submit(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("规则已保存: %s (%s)\n", saved.Name, saved.ID)
		return nil

	case "enable", "disable":
		if *id == "" {
			return fmt.Errorf("缺少 -id 参数")
		}
		next := 1
		if action == "disable" {
			next = 0
		}
		if err := c.SetRuleStatus(ctx, *id, next); err != nil {
			return err
		}
		fmt.Printf("规则 %s 已%s\n", *id, map[int]string{0: "停用", 1: "启用"}[next])
		return nil

	case "delete":
		if *id == "" {
			return fmt.Errorf("缺少 -id 参数")
		}
		if err := c.DeleteRule(ctx, *id); err != nil {
			return err
		}
		fmt.Printf("规则 %s 已删除\n", *id)
		return nil

	case "export":
		pageData, err := c.ListRules(ctx, client.RuleQuery{Page: 1, PageSize: 1000, Name: *name})
		if err != nil {
			return err
		}
		path, err := console.ExportRules(cfg.Console.ExportDir, pageData.List)
		if err != nil {
			return err
		}
		fmt.Printf("已导出 %d 条规则: %s\n", len(pageData.List), path)
		return nil

	default:
		usage()
		return fmt.Errorf("未知操作: rules %s", action)
	}
}

func runScripts(action string, args []string) error {
	fs := flag.NewFlagSet("scripts "+action, flag.ExitOnError)
	configPath := fs.String("config", "configs/config.yaml", "配置文件路径")
	id := fs.String("id", "", "脚本ID")
	name := fs.String("name", "", "脚本名称/筛选关键字")
	desc := fs.String("desc", "", "脚本描述")
	file := fs.String("file", "", "脚本内容文件")
	data := fs.String("data", "{}", "调试用JSON样例数据")
	page := fs.Int("page", 1, "页码")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, c, err := setup(*configPath)
	if err != nil {
		return err
	}
	defer cache.Close()
	ctx := context.Background()

	switch action {
	case "list":
		list := console.NewScriptList(c, cfg.Console.PageSize)
		list.Page = *page
		list.NameFilter = *name
		if err := list.Refresh(ctx); err != nil {
			return err
		}
		fmt.Printf("共 %d 条脚本，第 %d 页:\n", list.Total, list.Page)
		for _, s := range list.Rows {
			status := "停用"
			if s.Enabled == 1 {
				status = "启用"
			}
			fmt.Printf("  %-36s  %-24s  %s\n", s.ID, s.Name, status)
		}
		return nil

	case "get":
		if *id == "" {
			return fmt.Errorf("缺少 -id 参数")
		}
		script, err := c.GetScript(ctx, *id)
		if err != nil {
			return err
		}
		return printJSON(script)

	case "create", "update":
		editor := session.NewScriptEditor(c)
		if action == "update" {
			if *id == "" {
				return fmt.Errorf("缺少 -id 参数")
			}
			if err := editor.OpenForEdit(ctx, *id); err != nil {
				return err
			}
		} else {
			editor.OpenForCreate()
		}

		form := editor.Form()
		if *name != "" {
			form.Name = *name
		}
		if *desc != "" {
			form.Description = *desc
		}
		if *file != "" {
			content, err := os.ReadFile(*file)
			if err != nil {
				return fmt.Errorf("failed to read script file: %w", err)
			}
			form.ScriptContent = string(content)
		}

		saved, err := editor.Submit(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("脚本已保存: %s (%s)\n", saved.Name, saved.ID)
		return nil

	case "delete":
		if *id == "" {
			return fmt.Errorf("缺少 -id 参数")
		}
		if err := c.DeleteScript(ctx, *id); err != nil {
			return err
		}
		fmt.Printf("脚本 %s 已删除\n", *id)
		return nil

	case "test":
		if *file == "" {
			return fmt.Errorf("缺少 -file 参数")
		}
		content, err := os.ReadFile(*file)
		if err != nil {
			return fmt.Errorf("failed to read script file: %w", err)
		}
		tester := session.NewScriptTester(c)
		result, err := tester.Run(ctx, string(content), *data)
		if err != nil {
			return err
		}
		if result.Success {
			fmt.Println("执行成功，输出:")
			fmt.Println(session.PrettyJSON(result.Output))
		} else {
			fmt.Println("执行失败:", result.Error)
		}
		return nil

	case "export":
		pageData, err := c.ListScripts(ctx, 1, 1000, *name)
		if err != nil {
			return err
		}
		path, err := console.ExportScripts(cfg.Console.ExportDir, pageData.List)
		if err != nil {
			return err
		}
		fmt.Printf("已导出 %d 条脚本: %s\n", len(pageData.List), path)
		return nil

	default:
		usage()
		return fmt.Errorf("未知操作: scripts %s", action)
	}
}

// parseSources 解析 device:ID,product:ID,group:ID 形式的来源列表
func parseSources(spec string) ([]model.ForwardingSource, error) {
	parts := strings.Split(spec, ",")
	sources := make([]model.ForwardingSource, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		kind, sourceID, ok := strings.Cut(part, ":")
		if !ok || sourceID == "" {
			return nil, fmt.Errorf("来源格式无效: %s", part)
		}
		var sourceType model.SourceType
		switch kind {
		case "device":
			sourceType = model.SourceTypeDevice
		case "product", "config":
			sourceType = model.SourceTypeProduct
		case "group":
			sourceType = model.SourceTypeGroup
		default:
			return nil, fmt.Errorf("未知的来源类型: %s", kind)
		}
		sources = append(sources, model.ForwardingSource{SourceType: sourceType, SourceID: sourceID})
	}
	return sources, nil
}

// appendHTTPTarget 通过目标子对话框追加一个HTTP目标
func appendHTTPTarget(editor *session.RuleEditor, url string) error {
	editor.AddTarget()
	dialog, err := editor.OpenTargetDialog(len(editor.Form().Targets) - 1)
	if err != nil {
		return err
	}
	dialog.Config.HTTP.URL = url
	return editor.SaveTargetDialog()
}

// appendMQTTTarget 通过目标子对话框追加一个MQTT目标
// 地址格式 broker:port/topic，端口缺省1883
func appendMQTTTarget(editor *session.RuleEditor, addr string) error {
	broker, topic, ok := strings.Cut(addr, "/")
	if !ok || topic == "" {
		return fmt.Errorf("MQTT目标格式无效: %s", addr)
	}
	cfg := target.Default(model.TargetTypeMQTT)
	if host, portStr, found := strings.Cut(broker, ":"); found {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return fmt.Errorf("MQTT端口无效: %s", portStr)
		}
		cfg.MQTT.Broker = host
		cfg.MQTT.Port = port
	} else {
		cfg.MQTT.Broker = broker
	}
	cfg.MQTT.Topic = topic

	editor.AddTarget()
	dialog, err := editor.OpenTargetDialog(len(editor.Form().Targets) - 1)
	if err != nil {
		return err
	}
	dialog.Config = cfg
	return editor.SaveTargetDialog()
}

func printRuleRows(list *console.RuleList) {
	fmt.Printf("共 %d 条规则，第 %d 页:\n", list.Total, list.Page)
	for i, r := range list.Rows {
		status := "停用"
		if r.IsEnabled() {
			status = "启用"
		}
		fmt.Printf("  %-36s  %-24s  %s  来源x%d  目标: %s\n",
			r.ID, r.Name, status, len(r.Sources),
			strings.Join(list.TargetSummaries(i), "; "))
	}
}

func printJSON(v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
