package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Log общий логгер приложения. Заполняется в Init до старта сервера.
var Log *logrus.Logger

// Init настраивает логгер с заданным уровнем. Неизвестный уровень
// трактуется как info, чтобы опечатка в конфиге не роняла процесс.
func Init(level string) {
	Log = logrus.New()
	Log.SetOutput(os.Stdout)

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	Log.SetLevel(lvl)

	// По умолчанию JSON: так логи читаются агрегатором без преобразований.
	Log.SetFormatter(&logrus.JSONFormatter{})
}

// SetTextFormatter переключает вывод на человекочитаемый формат.
// Вызывается только в development-окружении.
func SetTextFormatter() {
	if Log == nil {
		return
	}
	Log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
}
