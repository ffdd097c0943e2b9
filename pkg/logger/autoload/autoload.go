// Package autoload initializes the global zerolog logger from the LOG_*
// environment on import:
//
//	import _ "github.com/retailrockit/leadbot/pkg/logger/autoload"
package autoload

import (
	configx "github.com/retailrockit/leadbot/pkg/config"
	logx "github.com/retailrockit/leadbot/pkg/logger"
)

func init() {
	cfg := configx.MustNew[logx.Config]("LOG")
	logx.Init(*cfg)
}
