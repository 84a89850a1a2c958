// Package logger is the library's logging front-end. Logging is off by
// default; set the DECLXML_LOGLEVEL environment variable to "debug" or
// "trace" to enable processing traces.
package logger

import (
	"fmt"
	"os"
	"reflect"

	"github.com/kr/pretty"
	log "github.com/sirupsen/logrus"
)

func Initialize() {

	switch logLevel := os.Getenv("DECLXML_LOGLEVEL"); logLevel {
	case "debug":
		SetConsoleLogger(log.DebugLevel)
	case "trace":
		SetConsoleLogger(log.TraceLevel)
	default:
		SetConsoleLogger(log.ErrorLevel)
	}
}

func SetConsoleLogger(level log.Level) {

	log.SetFormatter(&log.TextFormatter{
		FullTimestamp: true,
	})
	log.SetLevel(level)
}

func TraceMessage(format string, v ...interface{}) {
	if log.IsLevelEnabled(log.TraceLevel) {
		log.Trace(fmt.Sprintf(format, preFormatArgs(v)...))
	}
}

func DebugMessage(format string, v ...interface{}) {
	if log.IsLevelEnabled(log.DebugLevel) {
		log.Debug(fmt.Sprintf(format, preFormatArgs(v)...))
	}
}

func ErrorMessage(format string, v ...interface{}) {
	if log.IsLevelEnabled(log.ErrorLevel) {
		log.Error(fmt.Sprintf(format, preFormatArgs(v)...))
	}
}

func preFormatArgs(v []interface{}) []interface{} {
	vv := []interface{}{}
	for _, o := range v {
		if o == nil {
			vv = append(vv, o)
			continue
		}
		k := reflect.ValueOf(o).Kind()
		if k == reflect.Struct ||
			k == reflect.Interface ||
			k == reflect.Ptr ||
			k == reflect.Slice ||
			k == reflect.Array ||
			k == reflect.Map {
			vv = append(vv, pretty.Formatter(o))
		} else {
			vv = append(vv, o)
		}
	}
	return vv
}
