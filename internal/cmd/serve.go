package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tejgajjar2001/Agentic-AI-Middleware-Enterprise-Integration-OCI-TIBCO-BW-JMS/internal/broker"
	"github.com/tejgajjar2001/Agentic-AI-Middleware-Enterprise-Integration-OCI-TIBCO-BW-JMS/internal/eventing"
	"github.com/tejgajjar2001/Agentic-AI-Middleware-Enterprise-Integration-OCI-TIBCO-BW-JMS/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP ingest server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	d, err := buildDeps(ctx)
	if err != nil {
		return err
	}
	defer d.close()

	var consumerCfg broker.KafkaConfig
	if d.cfg.Broker.Configured() {
		consumerCfg = broker.KafkaConfig{
			Brokers:          d.cfg.Broker.Brokers,
			SecurityProtocol: d.cfg.Broker.SecurityProtocol,
			SASLMechanism:    d.cfg.Broker.SASLMechanism,
			SASLUsername:     d.cfg.Broker.SASLUsername,
			SASLPassword:     d.cfg.Broker.SASLPassword,
			SSLCALocation:    d.cfg.Broker.SSLCALocation,
		}
	}

	var consumerFactory server.ConsumerFactory
	if d.cfg.Broker.Configured() {
		consumerFactory = func(groupID, topic string) (func(), error) {
			consumer, err := broker.NewConsumer(consumerCfg, groupID, topic)
			if err != nil {
				return nil, err
			}
			consumeCtx, cancel := context.WithCancel(ctx)
			go func() {
				if err := consumer.Start(consumeCtx, func(ctx context.Context, value []byte) error {
					event, err := eventing.DecodeEvent(value)
					if err != nil {
						return fmt.Errorf("decoding broker message: %w", err)
					}
					_, err = d.orch.HandleEvent(ctx, event)
					return err
				}); err != nil {
					log.Error().Err(err).Str("group_id", groupID).Str("topic", topic).Msg("consumer loop exited")
				}
			}()
			return func() {
				cancel()
				_ = consumer.Close()
			}, nil
		}
	}

	srv := server.New(d.orch, d.approvals, consumerFactory, d.cfg.RateLimitRPM)

	addr := fmt.Sprintf(":%d", d.cfg.HTTPPort)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      srv.Routes(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Info().Str("addr", addr).Str("policy_version", d.policy.VersionTag).Bool("broker_configured", d.cfg.Broker.Configured()).Msg("middleware_serve_started")

	errCh := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown_signal_received")
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info().Msg("server_stopped")
	return nil
}
