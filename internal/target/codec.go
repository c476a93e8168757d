package target

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/dataforwardpro/dataforwardpro/internal/model"
)

// HTTPConfig HTTP转发目标配置
type HTTPConfig struct {
	URL     string            `json:"url"`
	Method  string            `json:"method"`
	Headers map[string]string `json:"headers,omitempty"`
	Secret  string            `json:"secret,omitempty"`
	Timeout int               `json:"timeout"` // 秒，1-120
}

// MQTTConfig MQTT转发目标配置
type MQTTConfig struct {
	Broker   string `json:"broker"`
	Port     int    `json:"port"`
	Topic    string `json:"topic"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
	ClientID string `json:"client_id,omitempty"`
	QoS      int    `json:"qos"`
	Version  string `json:"version,omitempty"`
}

// Config 按目标类型标记的配置变体
// HTTP 与 MQTT 有且只有一个与 Type 对应的字段非空，
// 线上的不透明字符串只在本包的 Encode/Decode 边界出现
type Config struct {
	Type model.TargetType
	HTTP *HTTPConfig
	MQTT *MQTTConfig
}

const (
	defaultHTTPMethod  = "POST"
	defaultHTTPTimeout = 30
	defaultMQTTPort    = 1883
	defaultMQTTQoS     = 1
)

// DefaultHTTP 带默认值的HTTP配置
func DefaultHTTP() *HTTPConfig {
	return &HTTPConfig{Method: defaultHTTPMethod, Timeout: defaultHTTPTimeout}
}

// DefaultMQTT 带默认值的MQTT配置
func DefaultMQTT() *MQTTConfig {
	return &MQTTConfig{Port: defaultMQTTPort, QoS: defaultMQTTQoS}
}

// Default 指定类型的默认配置
func Default(t model.TargetType) Config {
	if t == model.TargetTypeMQTT {
		return Config{Type: model.TargetTypeMQTT, MQTT: DefaultMQTT()}
	}
	return Config{Type: model.TargetTypeHTTP, HTTP: DefaultHTTP()}
}

// Validate 校验HTTP配置
func (c *HTTPConfig) Validate() error {
	if strings.TrimSpace(c.URL) == "" {
		return fmt.Errorf("url is required")
	}
	if u, err := url.Parse(c.URL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("url must be an absolute URL")
	}
	switch c.Method {
	case "POST", "PUT", "GET":
	case "":
		c.Method = defaultHTTPMethod
	default:
		return fmt.Errorf("method must be one of POST/PUT/GET")
	}
	if c.Timeout == 0 {
		c.Timeout = defaultHTTPTimeout
	}
	if c.Timeout < 1 || c.Timeout > 120 {
		return fmt.Errorf("timeout must be within 1-120 seconds")
	}
	return nil
}

// Validate 校验MQTT配置
func (c *MQTTConfig) Validate() error {
	if strings.TrimSpace(c.Broker) == "" {
		return fmt.Errorf("broker is required")
	}
	if strings.TrimSpace(c.Topic) == "" {
		return fmt.Errorf("topic is required")
	}
	if c.Port == 0 {
		c.Port = defaultMQTTPort
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be within 1-65535")
	}
	if c.QoS < 0 || c.QoS > 2 {
		return fmt.Errorf("qos must be 0, 1 or 2")
	}
	return nil
}

// Validate 校验配置变体与类型是否一致
func (c Config) Validate() error {
	switch c.Type {
	case model.TargetTypeHTTP:
		if c.HTTP == nil {
			return fmt.Errorf("http config is missing")
		}
		return c.HTTP.Validate()
	case model.TargetTypeMQTT:
		if c.MQTT == nil {
			return fmt.Errorf("mqtt config is missing")
		}
		return c.MQTT.Validate()
	default:
		return fmt.Errorf("unknown target type: %s", c.Type)
	}
}

// Encode 将配置变体序列化为目标上的线格式字符串
func Encode(c Config) (string, error) {
	var (
		raw []byte
		err error
	)
	switch c.Type {
	case model.TargetTypeHTTP:
		if c.HTTP == nil {
			return "", fmt.Errorf("http config is missing")
		}
		raw, err = json.Marshal(c.HTTP)
	case model.TargetTypeMQTT:
		if c.MQTT == nil {
			return "", fmt.Errorf("mqtt config is missing")
		}
		raw, err = json.Marshal(c.MQTT)
	default:
		return "", fmt.Errorf("unknown target type: %s", c.Type)
	}
	if err != nil {
		return "", fmt.Errorf("failed to encode target config: %w", err)
	}
	return string(raw), nil
}

// Decode 解析目标上的配置字符串
// 解析失败时返回该类型的默认配置并置 corrupt=true，
// 编辑器据此区分"空白新配置"与"已损坏配置"；
// 目标类型不在已知集合内时同样视为损坏
func Decode(t model.ForwardingTarget) (cfg Config, corrupt bool) {
	switch t.TargetType {
	case model.TargetTypeMQTT:
		mc := DefaultMQTT()
		if err := json.Unmarshal([]byte(t.Config), mc); err != nil {
			return Default(model.TargetTypeMQTT), t.Config != ""
		}
		return Config{Type: model.TargetTypeMQTT, MQTT: mc}, false
	case model.TargetTypeHTTP:
		hc := DefaultHTTP()
		if err := json.Unmarshal([]byte(t.Config), hc); err != nil {
			return Default(model.TargetTypeHTTP), t.Config != ""
		}
		return Config{Type: model.TargetTypeHTTP, HTTP: hc}, false
	default:
		return Default(model.TargetTypeHTTP), true
	}
}

// Summarize 生成目标的列表展示摘要
// HTTP 返回 URL，MQTT 返回 "broker (topic)"，解析失败返回占位符 "-"
func Summarize(t model.ForwardingTarget) string {
	switch t.TargetType {
	case model.TargetTypeHTTP:
		var hc HTTPConfig
		if err := json.Unmarshal([]byte(t.Config), &hc); err != nil || hc.URL == "" {
			return "-"
		}
		return hc.URL
	case model.TargetTypeMQTT:
		var mc MQTTConfig
		if err := json.Unmarshal([]byte(t.Config), &mc); err != nil || mc.Broker == "" {
			return "-"
		}
		return fmt.Sprintf("%s (%s)", mc.Broker, mc.Topic)
	default:
		return "-"
	}
}

// NewTarget 由配置变体构造目标条目
func NewTarget(c Config) (model.ForwardingTarget, error) {
	raw, err := Encode(c)
	if err != nil {
		return model.ForwardingTarget{}, err
	}
	return model.ForwardingTarget{TargetType: c.Type, Config: raw}, nil
}
