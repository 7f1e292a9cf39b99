package main

import (
	"context"
	"encoding/base64"
	"flag"
	"fmt"
	"net/http"
	"os"

	"git.fiblab.net/sim/syncer/v3"
	easy "git.fiblab.net/utils/logrus-easy-formatter"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/tsinghua-fib-lab/agentsociety-occupancy/task"
	"github.com/tsinghua-fib-lab/agentsociety-occupancy/utils/config"
	"github.com/tsinghua-fib-lab/agentsociety-occupancy/utils/metrics"
)

var (
	// 分布式模式syncer地址，如果设置为空则激活独立部署模式
	// 独立部署：不需要syncer，不向其他服务提供受保护的RPC访问
	syncerAddr = flag.String("syncer", "", "syncer address (empty means standalone mode), e.g. http://localhost:53001")
	// 模拟任务名
	job = flag.String("job", "job0", "the name of the whole simulation task")
	// 本程序监听的gRPC地址
	grpcAddr = flag.String("listen", ":51102", "gRPC listening address")
	// Prometheus指标监听地址，设置为空则不提供
	metricsAddr = flag.String("metrics.listen", "", "prometheus metrics listening address (empty means disabled), e.g. :9100")
	// 配置文件路径
	configPath = flag.String("config", "", "config file path")
	// 配置文件Base64编码后的数据
	configData = flag.String("config-data", "", "config file base64 encoded data")

	// log
	logLevels = map[string]logrus.Level{
		"trace":    logrus.TraceLevel,
		"debug":    logrus.DebugLevel,
		"info":     logrus.InfoLevel,
		"warn":     logrus.WarnLevel,
		"error":    logrus.ErrorLevel,
		"critical": logrus.FatalLevel,
		"off":      logrus.PanicLevel,
	}
	logLevel = flag.String("log.level", "info", "日志级别（可选项：trace debug info warn error critical off）")

	log = logrus.WithField("module", "occupancy")
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "occupancy",
		Short: "Activity occupancy simulator",
		Long: `occupancy simulates time-of-day activities of a synthetic population.

Every person follows a discrete-time Markov chain selected by weekday/weekend
and hour of day. Per-person activities and per-region aggregates are written to
the configured output.`,
		SilenceUsage:      true,
		PersistentPreRunE: setupLogging,
		RunE:              runSimulation,
	}
	rootCmd.PersistentFlags().AddGoFlagSet(flag.CommandLine)
	rootCmd.AddCommand(newValidateCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setupLogging 配置日志格式与级别，运行时才修改
func setupLogging(cmd *cobra.Command, args []string) error {
	logrus.SetFormatter(&easy.Formatter{
		TimestampFormat: "2006-01-02 15:04:05.0000",
		LogFormat:       "[%module%] [%time%] [%lvl%] %msg%\n",
	})
	level, ok := logLevels[*logLevel]
	if !ok {
		return fmt.Errorf("log.level must be one of %v", logLevels)
	}
	logrus.SetLevel(level)
	return nil
}

// loadConfig 从--config或--config-data获取配置
func loadConfig() (config.Config, error) {
	if *configPath != "" {
		return config.Load(*configPath)
	}
	if *configData != "" {
		file, err := base64.StdEncoding.DecodeString(*configData)
		if err != nil {
			return config.Config{}, fmt.Errorf("config data load err: %w", err)
		}
		return config.Parse(file)
	}
	return config.Config{}, fmt.Errorf("config file or config data must be specified")
}

func runSimulation(cmd *cobra.Command, args []string) error {
	c, err := loadConfig()
	if err != nil {
		return err
	}
	log.Infof("%+v", c)
	ctx := context.Background()

	m := metrics.New()
	if *metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", m.Handler())
		go func() {
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil {
				log.Errorf("metrics server stopped: %v", err)
			}
		}()
	}

	sidecar := syncer.NewSidecar(task.SelfName, *grpcAddr, *syncerAddr)
	t, err := task.NewContext(ctx, *job, c, sidecar, m)
	if err != nil {
		return err
	}
	t.Clock().Register(sidecar)
	t.Serve()
	return t.Run(ctx)
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Load the configuration and all inputs without running the simulation",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadConfig()
			if err != nil {
				return err
			}
			if err := task.Validate(context.Background(), c); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "configuration is valid")
			return nil
		},
	}
}
