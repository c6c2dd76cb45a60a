package goroutine

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/dealnest/dealnest-backend/internal/logger"
)

// SafeGo запускает fn в отдельной горутине и перехватывает panic.
// Паника фоновой задачи (планировщик, рассылка уведомлений) логируется
// со стеком вместо падения всего процесса.
func SafeGo(fn func()) {
	go func() {
		defer logPanic()
		fn()
	}()
}

// SafeGoWithContext то же, что SafeGo, но передаёт в задачу контекст.
func SafeGoWithContext(ctx context.Context, fn func(context.Context)) {
	go func() {
		defer logPanic()
		fn(ctx)
	}()
}

func logPanic() {
	r := recover()
	if r == nil {
		return
	}
	if logger.Log != nil {
		logger.Log.Errorf("паника в фоновой горутине: %v\n%s", r, debug.Stack())
		return
	}
	// Логгер ещё не инициализирован: пишем напрямую в stderr.
	fmt.Fprintf(os.Stderr, "паника в фоновой горутине: %v\n%s", r, debug.Stack())
}
