package logschema

import (
	"fmt"
	"sort"
	"strings"
)

// Schema 定义每个日志事件所需的关键字段，便于集中校验。
type Schema struct {
	Event    string
	Required []string
}

var schemas = map[string]Schema{
	"raw_rate": {
		Event:    "raw_rate",
		Required: []string{"type", "provider", "bid", "ask"},
	},
	"rate_dropped": {
		Event:    "rate_dropped",
		Required: []string{"type", "provider", "bid", "ask", "meanBid", "meanAsk"},
	},
	"usdmid": {
		Event:    "usdmid",
		Required: []string{"value", "initial"},
	},
	"calc_rate": {
		Event:    "calc_rate",
		Required: []string{"type", "bid", "ask", "strategy"},
	},
	"calc_skipped": {
		Event:    "calc_skipped",
		Required: []string{"type", "reason"},
	},
	"calculator_error": {
		Event:    "calculator_error",
		Required: []string{"strategy", "operation", "error"},
	},
	"cache_error": {
		Event:    "cache_error",
		Required: []string{"cache", "operation", "error"},
	},
	"alert_failed": {
		Event:    "alert_failed",
		Required: []string{"message", "error"},
	},
	"config_reload": {
		Event:    "config_reload",
		Required: []string{"strategy"},
	},
}

// Known 返回所有事件名，便于外部生成文档。
func Known() []string {
	names := make([]string, 0, len(schemas))
	for k := range schemas {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Validate 检查日志字段是否包含 schema 中要求的 key。
func Validate(event string, fields map[string]interface{}) error {
	s, ok := schemas[event]
	if !ok {
		return nil
	}
	var missing []string
	for _, key := range s.Required {
		if _, exists := fields[key]; !exists {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing fields: %s", strings.Join(missing, ","))
	}
	return nil
}
