package target

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dataforwardpro/dataforwardpro/internal/model"
)

// TestHTTPConfigRoundTrip HTTP配置编解码往返
func TestHTTPConfigRoundTrip(t *testing.T) {
	cfg := Config{
		Type: model.TargetTypeHTTP,
		HTTP: &HTTPConfig{
			URL:     "https://api.example.com/ingest",
			Method:  "PUT",
			Headers: map[string]string{"X-Token": "abc", "Content-Type": "application/json"},
			Secret:  "s3cret",
			Timeout: 45,
		},
	}

	raw, err := Encode(cfg)
	require.NoError(t, err)

	decoded, corrupt := Decode(model.ForwardingTarget{TargetType: model.TargetTypeHTTP, Config: raw})
	assert.False(t, corrupt)
	require.NotNil(t, decoded.HTTP)
	assert.Equal(t, cfg.HTTP, decoded.HTTP)
	assert.Equal(t, model.TargetTypeHTTP, decoded.Type)
}

// TestMQTTConfigRoundTrip MQTT配置编解码往返
func TestMQTTConfigRoundTrip(t *testing.T) {
	cfg := Config{
		Type: model.TargetTypeMQTT,
		MQTT: &MQTTConfig{
			Broker:   "broker.example.com",
			Port:     8883,
			Topic:    "telemetry/up",
			Username: "user",
			Password: "pass",
			ClientID: "console-1",
			QoS:      2,
			Version:  "3.1.1",
		},
	}

	raw, err := Encode(cfg)
	require.NoError(t, err)

	decoded, corrupt := Decode(model.ForwardingTarget{TargetType: model.TargetTypeMQTT, Config: raw})
	assert.False(t, corrupt)
	require.NotNil(t, decoded.MQTT)
	assert.Equal(t, cfg.MQTT, decoded.MQTT)
}

// TestDecodeCorruptConfig 损坏的配置字符串应返回默认配置并标记corrupt
func TestDecodeCorruptConfig(t *testing.T) {
	broken := model.ForwardingTarget{TargetType: model.TargetTypeHTTP, Config: "{not json"}

	cfg, corrupt := Decode(broken)
	assert.True(t, corrupt)
	require.NotNil(t, cfg.HTTP)
	assert.Equal(t, DefaultHTTP(), cfg.HTTP)

	brokenMQTT := model.ForwardingTarget{TargetType: model.TargetTypeMQTT, Config: "xxxx"}
	mcfg, corrupt := Decode(brokenMQTT)
	assert.True(t, corrupt)
	require.NotNil(t, mcfg.MQTT)
	assert.Equal(t, DefaultMQTT(), mcfg.MQTT)
}

// TestDecodeEmptyConfig 空配置视为全新默认配置，不标记corrupt
func TestDecodeEmptyConfig(t *testing.T) {
	cfg, corrupt := Decode(model.ForwardingTarget{TargetType: model.TargetTypeHTTP})
	assert.False(t, corrupt)
	assert.Equal(t, DefaultHTTP(), cfg.HTTP)
}

// TestDecodeUnknownType 未知目标类型视为损坏，以HTTP默认配置打开
func TestDecodeUnknownType(t *testing.T) {
	cfg, corrupt := Decode(model.ForwardingTarget{TargetType: "kafka", Config: "{}"})
	assert.True(t, corrupt)
	assert.Equal(t, model.TargetTypeHTTP, cfg.Type)
	assert.Equal(t, DefaultHTTP(), cfg.HTTP)

	// 配置为空也不能掩盖类型本身非法
	cfg, corrupt = Decode(model.ForwardingTarget{TargetType: "kafka"})
	assert.True(t, corrupt)
	assert.Equal(t, DefaultHTTP(), cfg.HTTP)
}

// TestSummarize 目标摘要展示
func TestSummarize(t *testing.T) {
	httpTarget, err := NewTarget(Config{Type: model.TargetTypeHTTP, HTTP: &HTTPConfig{URL: "https://x/y", Method: "POST", Timeout: 30}})
	require.NoError(t, err)
	assert.Equal(t, "https://x/y", Summarize(httpTarget))

	mqttTarget, err := NewTarget(Config{Type: model.TargetTypeMQTT, MQTT: &MQTTConfig{Broker: "10.0.0.1", Port: 1883, Topic: "up", QoS: 1}})
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.1 (up)", Summarize(mqttTarget))

	assert.Equal(t, "-", Summarize(model.ForwardingTarget{TargetType: model.TargetTypeHTTP, Config: "{broken"}))
	assert.Equal(t, "-", Summarize(model.ForwardingTarget{TargetType: model.TargetTypeMQTT, Config: "{broken"}))
	assert.Equal(t, "-", Summarize(model.ForwardingTarget{TargetType: "kafka", Config: "{}"}))
}

// TestHTTPConfigValidate HTTP配置校验与默认值
func TestHTTPConfigValidate(t *testing.T) {
	c := &HTTPConfig{URL: "https://example.com/hook"}
	require.NoError(t, c.Validate())
	assert.Equal(t, "POST", c.Method)
	assert.Equal(t, 30, c.Timeout)

	assert.Error(t, (&HTTPConfig{}).Validate())
	assert.Error(t, (&HTTPConfig{URL: "not-a-url"}).Validate())
	assert.Error(t, (&HTTPConfig{URL: "https://x/y", Method: "DELETE"}).Validate())
	assert.Error(t, (&HTTPConfig{URL: "https://x/y", Timeout: 200}).Validate())
}

// TestMQTTConfigValidate MQTT配置校验与默认值
func TestMQTTConfigValidate(t *testing.T) {
	c := &MQTTConfig{Broker: "broker.local", Topic: "t"}
	require.NoError(t, c.Validate())
	assert.Equal(t, 1883, c.Port)

	assert.Error(t, (&MQTTConfig{Topic: "t"}).Validate())
	assert.Error(t, (&MQTTConfig{Broker: "b"}).Validate())
	assert.Error(t, (&MQTTConfig{Broker: "b", Topic: "t", Port: 70000}).Validate())
	assert.Error(t, (&MQTTConfig{Broker: "b", Topic: "t", QoS: 3}).Validate())
}
