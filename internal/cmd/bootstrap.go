package cmd

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/tejgajjar2001/Agentic-AI-Middleware-Enterprise-Integration-OCI-TIBCO-BW-JMS/internal/approvals"
	"github.com/tejgajjar2001/Agentic-AI-Middleware-Enterprise-Integration-OCI-TIBCO-BW-JMS/internal/broker"
	"github.com/tejgajjar2001/Agentic-AI-Middleware-Enterprise-Integration-OCI-TIBCO-BW-JMS/internal/config"
	"github.com/tejgajjar2001/Agentic-AI-Middleware-Enterprise-Integration-OCI-TIBCO-BW-JMS/internal/executor"
	"github.com/tejgajjar2001/Agentic-AI-Middleware-Enterprise-Integration-OCI-TIBCO-BW-JMS/internal/orchestrator"
	"github.com/tejgajjar2001/Agentic-AI-Middleware-Enterprise-Integration-OCI-TIBCO-BW-JMS/internal/outbox"
	"github.com/tejgajjar2001/Agentic-AI-Middleware-Enterprise-Integration-OCI-TIBCO-BW-JMS/internal/policy"
	"github.com/tejgajjar2001/Agentic-AI-Middleware-Enterprise-Integration-OCI-TIBCO-BW-JMS/internal/secrets"
	"github.com/tejgajjar2001/Agentic-AI-Middleware-Enterprise-Integration-OCI-TIBCO-BW-JMS/internal/serviceconfig"
	"github.com/tejgajjar2001/Agentic-AI-Middleware-Enterprise-Integration-OCI-TIBCO-BW-JMS/internal/toolregistry"
	"github.com/tejgajjar2001/Agentic-AI-Middleware-Enterprise-Integration-OCI-TIBCO-BW-JMS/internal/tools"
)

// deps is the fully wired dependency graph every command that drives the
// pipeline (serve, run) needs. Building it in one place keeps serve and run
// from drifting into two different wiring orders.
type deps struct {
	cfg       *config.Config
	policy    *policy.Policy
	engine    *policy.Engine
	registry  *toolregistry.Registry
	outbox    *outbox.Store
	approvals *approvals.Store
	executor  *executor.Executor
	orch      *orchestrator.Orchestrator
	producer  broker.Producer
}

// buildDeps loads configuration and every supporting document, then wires
// the tool registry and orchestrator. Callers must call close() on the
// returned deps when done.
func buildDeps(ctx context.Context) (*deps, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.EnsureOutboxDir(); err != nil {
		return nil, fmt.Errorf("preparing outbox directory: %w", err)
	}

	pol, err := policy.Load(cfg.PolicyPath, "")
	if err != nil {
		return nil, fmt.Errorf("loading policy: %w", err)
	}

	engine, err := policy.NewEngine(ctx, pol)
	if err != nil {
		return nil, fmt.Errorf("compiling policy: %w", err)
	}

	services, err := serviceconfig.Load(cfg.ServicesPath)
	if err != nil {
		return nil, fmt.Errorf("loading service config: %w", err)
	}

	secretsSource := cfg.SecretsSource
	if secretsSource == "env" {
		secretsSource = ""
	}
	secretsDoc, err := secrets.LoadDocument(secretsSource)
	if err != nil {
		return nil, fmt.Errorf("loading secrets document: %w", err)
	}
	secretsProvider := secrets.NewProviderFromDocument(secretsDoc)

	store, err := outbox.Open(cfg.OutboxPath)
	if err != nil {
		return nil, fmt.Errorf("opening outbox: %w", err)
	}

	appr := approvals.New()
	registry := toolregistry.New(engine)

	var producer broker.Producer
	if cfg.Broker.Configured() {
		producer, err = broker.NewKafkaProducer(broker.KafkaConfig{
			Brokers:          cfg.Broker.Brokers,
			SecurityProtocol: cfg.Broker.SecurityProtocol,
			SASLMechanism:    cfg.Broker.SASLMechanism,
			SASLUsername:     cfg.Broker.SASLUsername,
			SASLPassword:     cfg.Broker.SASLPassword,
			SSLCALocation:    cfg.Broker.SSLCALocation,
		})
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("constructing kafka producer: %w", err)
		}
	} else {
		log.Warn().Msg("no broker configured, publish_kafka will fall back to outbox offsets")
		producer = broker.Unavailable{}
	}

	registry.Register(tools.NewRESTCaller(services, secretsProvider).Tool())
	registry.Register(tools.Transformer{}.Tool())
	registry.Register(tools.NewPublisher(producer, store).Tool())
	registry.Register(tools.NewTicketOpener(store).Tool())
	registry.Register(tools.NewJMSRouter(store).Tool())

	exec := executor.New(registry, store, nil)
	orch := orchestrator.New(pol, engine, registry, exec, store, appr, log.Logger)

	return &deps{
		cfg:       cfg,
		policy:    pol,
		engine:    engine,
		registry:  registry,
		outbox:    store,
		approvals: appr,
		executor:  exec,
		orch:      orch,
		producer:  producer,
	}, nil
}

func (d *deps) close() {
	if d.producer != nil {
		_ = d.producer.Close()
	}
	if d.outbox != nil {
		_ = d.outbox.Close()
	}
}
