package container

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"rate-engine/cache"
	"rate-engine/calculator"
	"rate-engine/config"
	"rate-engine/history"
	"rate-engine/infrastructure/alert"
	"rate-engine/infrastructure/logger"
	"rate-engine/infrastructure/monitor"
	"rate-engine/manager"
)

// Container 依赖注入容器，管理所有组件的生命周期
type Container struct {
	cfg config.AppConfig

	// 基础设施
	logger  *logger.Logger
	monitor *monitor.Monitor
	alerts  *alert.Manager

	// 存储
	cache   cache.RateCache
	history *history.Repo

	// 核心服务
	factory   *calculator.Factory
	publisher *manager.Publisher
	manager   *manager.Manager

	lifecycle *LifecycleManager
}

// New 加载配置并创建 Container
func New(configPath string) (*Container, error) {
	cfg, err := config.LoadWithEnvOverrides(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}
	return NewWithConfig(cfg), nil
}

func NewWithConfig(cfg config.AppConfig) *Container {
	return &Container{
		cfg:       cfg,
		lifecycle: NewLifecycleManager(),
	}
}

// Build 构建所有组件
func (c *Container) Build() error {
	if err := c.buildInfrastructure(); err != nil {
		return fmt.Errorf("build infrastructure failed: %w", err)
	}
	if err := c.buildStorage(); err != nil {
		return fmt.Errorf("build storage failed: %w", err)
	}
	if err := c.buildCoreServices(); err != nil {
		return fmt.Errorf("build core services failed: %w", err)
	}

	c.registerLifecycleComponents()
	c.logger.Info("container built successfully")
	return nil
}

func (c *Container) buildInfrastructure() error {
	var err error
	c.logger, err = logger.New(logger.Config{
		Level:      c.cfg.Log.Level,
		Outputs:    c.cfg.Log.Outputs,
		OutputFile: c.cfg.Log.OutputFile,
		ErrorFile:  c.cfg.Log.ErrorFile,
		Format:     c.cfg.Log.Format,
	})
	if err != nil {
		return fmt.Errorf("create logger failed: %w", err)
	}

	monitorCfg := monitor.DefaultConfig()
	if c.cfg.Metrics.Namespace != "" {
		monitorCfg.Namespace = c.cfg.Metrics.Namespace
	}
	c.monitor = monitor.New(monitorCfg)

	c.alerts = alert.NewManager(
		[]alert.Channel{alert.NewZapChannel("log", c.logger.Logger)},
		time.Duration(c.cfg.Alert.ThrottleSeconds)*time.Second,
	)
	return nil
}

func (c *Container) buildStorage() error {
	switch c.cfg.Cache.Backend {
	case cache.BackendRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     c.cfg.Cache.Redis.Addr,
			Password: c.cfg.Cache.Redis.Password,
			DB:       c.cfg.Cache.Redis.DB,
		})
		c.cache = cache.NewRedis(rdb, c.cfg.Cache.Redis.Prefix, time.Duration(c.cfg.Cache.Redis.TTLSeconds)*time.Second)
	case cache.BackendMemory, "":
		c.cache = cache.NewMemory()
	default:
		return fmt.Errorf("%w: %s", cache.ErrUnknownBackend, c.cfg.Cache.Backend)
	}

	if c.cfg.History.Path != "" {
		repo, err := history.New(c.cfg.History.Path)
		if err != nil {
			return fmt.Errorf("open history failed: %w", err)
		}
		c.history = repo
	}
	c.logger.Info("storage built", zap.String("cache", c.cache.Name()), zap.String("history", c.cfg.History.Path))
	return nil
}

func (c *Container) buildCoreServices() error {
	c.factory = calculator.NewFactory(calculator.FactoryConfig{Precision: c.cfg.Calculator.Precision})
	calc, err := c.factory.Create(c.cfg.Calculator.Strategy)
	if err != nil {
		return fmt.Errorf("create calculator failed: %w", err)
	}
	c.monitor.SetStrategy(calc.Strategy())

	c.publisher = manager.NewPublisher(64)
	mcfg := manager.Config{
		Calculator: calc,
		Cache:      c.cache,
		RateTypes:  c.cfg.Rates.Types,
		Publisher:  c.publisher,
		Recorder:   c.monitor,
		Alerts:     c.alerts,
		Events:     c.logger.LogEvent,
	}
	if c.history != nil {
		mcfg.History = c.history
	}
	c.manager, err = manager.New(mcfg)
	if err != nil {
		return fmt.Errorf("create rate manager failed: %w", err)
	}
	return nil
}

func (c *Container) registerLifecycleComponents() {
	if s, ok := c.cache.(pingCloser); ok {
		c.lifecycle.Register(&storeComponent{name: c.cache.Name() + "_cache", store: s})
	}
	if c.history != nil {
		c.lifecycle.Register(&storeComponent{name: "history", store: c.history})
	}
	if c.cfg.Metrics.Addr != "" {
		c.lifecycle.Register(&httpServerComponent{
			name:    "metrics_server",
			handler: c.monitor.Handler(),
			addr:    c.cfg.Metrics.Addr,
			logger:  c.logger,
		})
	}
}

func (c *Container) Start(ctx context.Context) error {
	c.logger.Info("starting container...")
	if err := c.lifecycle.StartAll(ctx); err != nil {
		return fmt.Errorf("start failed: %w", err)
	}
	c.logger.Info("container started", zap.String("strategy", c.manager.Calculator().Strategy()))
	return nil
}

func (c *Container) Stop() error {
	c.logger.Info("stopping container...")
	err := c.lifecycle.StopAll()
	if err != nil {
		c.logger.LogError(err, map[string]interface{}{"action": "stop"})
	}
	c.publisher.Close()
	_ = c.logger.Close()
	return err
}

func (c *Container) HealthCheck() error {
	return c.lifecycle.CheckHealth()
}

// ApplyConfig 热更新：目前只有计算策略可以在运行中切换，
// 缓存/历史/指标地址的变化需要重启。
func (c *Container) ApplyConfig(cfg config.AppConfig) error {
	factory := calculator.NewFactory(calculator.FactoryConfig{Precision: cfg.Calculator.Precision})
	calc, err := factory.Create(cfg.Calculator.Strategy)
	if err != nil {
		c.logger.LogError(err, map[string]interface{}{"action": "config_reload"})
		return err
	}
	c.factory = factory
	c.manager.SetCalculator(calc)
	c.monitor.SetStrategy(calc.Strategy())
	c.alerts.ResetThrottle()
	c.cfg.Calculator = cfg.Calculator
	c.logger.LogEvent("config_reload", map[string]interface{}{
		"strategy":  calc.Strategy(),
		"precision": cfg.Calculator.Precision,
	})
	return nil
}

func (c *Container) Manager() *manager.Manager { return c.manager }

func (c *Container) Monitor() *monitor.Monitor { return c.monitor }

func (c *Container) Logger() *logger.Logger { return c.logger }

func (c *Container) Config() config.AppConfig { return c.cfg }
