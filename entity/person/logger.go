package person

import "github.com/sirupsen/logrus"

// log 人员模块的日志记录器
var log = logrus.WithField("module", "person")
