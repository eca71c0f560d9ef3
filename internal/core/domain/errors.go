package domain

import "fmt"

// TransportError - сетевой сбой, таймаут или не-2xx статус.
// Ретраится локально, после исчерпания попыток помечает год проваленным.
type TransportError struct {
	StatusCode int // 0, если до статуса не дошло
	Attempts   int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("transport failed after %d attempt(s): status %d: %v", e.Attempts, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("transport failed after %d attempt(s): %v", e.Attempts, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// NormalizationError - структурное расхождение внутри распознанного формата
// либо нераспознанный формат целиком. Восстанавливается на уровне страницы.
type NormalizationError struct {
	Shape ResponseShape
	// Path - первая точка расхождения, например "listings.17186820219.LIST_ID".
	Path string
	Err  error
}

func (e *NormalizationError) Error() string {
	return fmt.Sprintf("normalization failed for shape %q at %s: %v", e.Shape, e.Path, e.Err)
}

func (e *NormalizationError) Unwrap() error { return e.Err }

// ConfigurationError - невалидный вход Execute. Всплывает до первого запроса.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}
