package activity

import "github.com/sirupsen/logrus"

var log = logrus.WithField("module", "activity")
