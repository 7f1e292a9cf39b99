package activity

import (
	"errors"
	"fmt"
)

// ConfigurationError 配置错误
// 功能：表示转移链或链集合的配置不合法（概率越界、行和不为1、缺少(日类型,小时)条目等）
// 说明：在构建阶段即被检出，属于不可恢复错误，出现时必须中止整个模拟
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "activity: configuration error: " + e.Reason
}

// RandomSourceError 随机数源错误
// 功能：表示注入的随机数源返回了[0,1)之外的值
// 说明：属于调用方的编程错误，立即上抛，不重试
type RandomSourceError struct {
	Value float64
}

func (e *RandomSourceError) Error() string {
	return fmt.Sprintf("activity: random source returned %v, want a value in [0, 1)", e.Value)
}

func configErrorf(format string, args ...any) error {
	return &ConfigurationError{Reason: fmt.Sprintf(format, args...)}
}

// IsConfigurationError 判断错误链中是否包含ConfigurationError
func IsConfigurationError(err error) bool {
	var target *ConfigurationError
	return errors.As(err, &target)
}

// IsRandomSourceError 判断错误链中是否包含RandomSourceError
func IsRandomSourceError(err error) bool {
	var target *RandomSourceError
	return errors.As(err, &target)
}
