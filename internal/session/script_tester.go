package session

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"

	"github.com/dataforwardpro/dataforwardpro/internal/model"
)

// ScriptTester 脚本调试器
// 每次 Run 相互独立，可反复修改入参重试，不做任何重试与取消
type ScriptTester struct {
	api    API
	result *model.ScriptTestResult
}

// NewScriptTester 创建脚本调试器
func NewScriptTester(api API) *ScriptTester {
	return &ScriptTester{api: api}
}

// Result 最近一次调试结果，尚未运行过时为nil
func (t *ScriptTester) Result() *model.ScriptTestResult {
	return t.result
}

// Run 发送脚本与样例数据到服务端试运行
// 脚本内容为空时返回校验错误且不发起网络调用；
// Success=false 是正常的调试结果（脚本执行失败），不作为error返回
func (t *ScriptTester) Run(ctx context.Context, scriptContent, testData string) (*model.ScriptTestResult, error) {
	if strings.TrimSpace(scriptContent) == "" {
		return nil, ErrScriptRequired
	}

	result, err := t.api.TestScript(ctx, model.ScriptTestRequest{
		ScriptContent: scriptContent,
		TestData:      testData,
	})
	if err != nil {
		return nil, err
	}

	t.result = result
	return result, nil
}

// PrettyJSON 将返回的字符串尝试格式化为缩进JSON展示
// 不是合法JSON时原样返回
func PrettyJSON(s string) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, []byte(s), "", "  "); err != nil {
		return s
	}
	return buf.String()
}
