package logger

import (
	"crypto/sha256"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"sync"
)

var (
	urlPattern    = regexp.MustCompile(`https?://[^\s]+`)
	secretPattern = regexp.MustCompile(`(?i)(key|token|secret|password|authorization)([=:]\s*)(basic\s+|bearer\s+)?[a-zA-Z0-9+/=_\-.]+`)
)

// SecurityLogger masks provider credentials and endpoints before logging
type SecurityLogger struct {
	*Logger
}

// MaskSecret keeps the first four characters of a secret
func MaskSecret(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 4 {
		return "****"
	}
	return secret[:4] + "****"
}

// MaskEndpoint keeps the host of an endpoint and replaces the rest with a short hash
func MaskEndpoint(rawURL string) string {
	if rawURL == "" {
		return ""
	}

	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return "endpoint#" + shortHash(rawURL)
	}
	return fmt.Sprintf("%s#%s", parsed.Host, shortHash(rawURL))
}

// MaskSensitiveData masks credential-like and endpoint-like values in a field map
func MaskSensitiveData(data map[string]interface{}) map[string]interface{} {
	masked := make(map[string]interface{}, len(data))

	for key, value := range data {
		lowerKey := strings.ToLower(key)
		str, isString := value.(string)

		switch {
		case !isString:
			masked[key] = value
		case strings.Contains(lowerKey, "password"),
			strings.Contains(lowerKey, "secret"),
			strings.Contains(lowerKey, "token"),
			strings.HasSuffix(lowerKey, "key"),
			strings.Contains(lowerKey, "login"):
			masked[key] = MaskSecret(str)
		case strings.Contains(lowerKey, "url"), strings.Contains(lowerKey, "endpoint"):
			masked[key] = MaskEndpoint(str)
		default:
			masked[key] = value
		}
	}

	return masked
}

// MaskLogMessage strips URLs and inline credentials from a free-form message
func MaskLogMessage(message string) string {
	masked := urlPattern.ReplaceAllStringFunc(message, MaskEndpoint)
	return secretPattern.ReplaceAllString(masked, "${1}${2}***")
}

// SafeInfo logs info with automatic sensitive data masking
func (sl *SecurityLogger) SafeInfo(msg string, fields map[string]interface{}) {
	sl.Logger.WithFields(MaskSensitiveData(fields)).Info(MaskLogMessage(msg))
}

// SafeWarn logs a warning with automatic sensitive data masking
func (sl *SecurityLogger) SafeWarn(msg string, fields map[string]interface{}) {
	sl.Logger.WithFields(MaskSensitiveData(fields)).Warn(MaskLogMessage(msg))
}

// SafeError logs an error with automatic sensitive data masking
func (sl *SecurityLogger) SafeError(msg string, err error, fields map[string]interface{}) {
	masked := MaskSensitiveData(fields)
	if err != nil {
		masked["error"] = MaskLogMessage(err.Error())
	}
	sl.Logger.WithFields(masked).Error(MaskLogMessage(msg))
}

func shortHash(data string) string {
	sum := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", sum[:4])
}

var (
	securityLoggerInstance *SecurityLogger
	securityMu             sync.Mutex
)

// GetSecurityLogger returns a security logger bound to the current global logger
func GetSecurityLogger() *SecurityLogger {
	current := GetLogger()

	securityMu.Lock()
	defer securityMu.Unlock()
	if securityLoggerInstance == nil || securityLoggerInstance.Logger != current {
		securityLoggerInstance = &SecurityLogger{Logger: current}
	}
	return securityLoggerInstance
}
