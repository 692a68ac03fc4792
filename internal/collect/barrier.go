package collect

import (
	"go.uber.org/zap"
)

// probe runs one collaborator call. Any error or panic becomes the zero
// value, so a broken collaborator only means "this source produced nothing".
func probe[T any](logger *zap.Logger, name string, fn func() (T, error)) (value T) {
	defer func() {
		if r := recover(); r != nil {
			logger.Debug("collaborator panicked", zap.String("collaborator", name), zap.Any("panic", r))
			var zero T
			value = zero
		}
	}()

	v, err := fn()
	if err != nil {
		logger.Debug("collaborator failed", zap.String("collaborator", name), zap.Error(err))
		var zero T
		return zero
	}
	return v
}
