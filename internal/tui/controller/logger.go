package controller

import (
	"callflow/pkg/logging"
)

const controllerSubsystem = "Controller"

// LogInfo logs an informational message from the controller.
func LogInfo(format string, a ...interface{}) {
	logging.Info(controllerSubsystem, format, a...)
}

// LogWarn logs a warning from the controller.
func LogWarn(format string, a ...interface{}) {
	logging.Warn(controllerSubsystem, format, a...)
}

// LogError logs an error from the controller.
func LogError(err error, format string, a ...interface{}) {
	logging.Error(controllerSubsystem, err, format, a...)
}
