package entity

import (
	"github.com/tsinghua-fib-lab/agentsociety-occupancy/clock"
	"github.com/tsinghua-fib-lab/agentsociety-occupancy/utils/config"
)

type ITaskContext interface {
	Clock() *clock.Clock
	PersonManager() IPersonManager
	RuntimeConfig() *config.RuntimeConfig
}
