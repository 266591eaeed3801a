package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	pb "github.com/pixperk/lockcache/api/v1"
	"github.com/pixperk/lockcache/pkg/gateway"
	"github.com/pixperk/lockcache/pkg/logging"
	"github.com/pixperk/lockcache/pkg/registry"
	"github.com/pixperk/lockcache/pkg/server"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
)

func main() {
	var (
		nodeID          = flag.String("node-id", "", "Unique node ID (generates UUID if empty)")
		grpcAddr        = flag.String("grpc-addr", ":9000", "gRPC server address")
		httpAddr        = flag.String("http-addr", ":8080", "Admin HTTP address, empty disables it")
		callbackTimeout = flag.Duration("callback-timeout", registry.DefaultCallbackTimeout, "Bound on each revoke/retry call to a client")
		verifyHolder    = flag.Bool("verify-holder", false, "Reject releases from clients that do not hold the lock")
		logLevel        = flag.String("log-level", "info", "Log level (trace, debug, info, warn, error)")
		logJSON         = flag.Bool("log-json", false, "Log as JSON")
	)
	flag.Parse()

	logger := logging.New(logging.Options{
		Name:  "lockcache",
		Level: *logLevel,
		JSON:  *logJSON,
	})

	if err := run(logger, config{
		nodeID:          *nodeID,
		grpcAddr:        *grpcAddr,
		httpAddr:        *httpAddr,
		callbackTimeout: *callbackTimeout,
		verifyHolder:    *verifyHolder,
	}); err != nil {
		logger.Error("lockcache failed", "error", err)
		os.Exit(1)
	}
}

type config struct {
	nodeID          string
	grpcAddr        string
	httpAddr        string
	callbackTimeout time.Duration
	verifyHolder    bool
}

func run(logger hclog.Logger, cfg config) error {
	var nid uuid.UUID
	var err error
	if cfg.nodeID == "" {
		nid = uuid.New()
		logger.Info("generated node id", "node_id", nid)
	} else {
		nid, err = uuid.Parse(cfg.nodeID)
		if err != nil {
			return fmt.Errorf("invalid node id: %w", err)
		}
	}

	logger.Info("starting lockcache node",
		"node_id", nid,
		"grpc", cfg.grpcAddr,
		"http", cfg.httpAddr,
		"callback_timeout", cfg.callbackTimeout,
		"verify_holder", cfg.verifyHolder,
	)

	callbacks := server.NewCallbackPool(logger)
	defer callbacks.Close()

	reg := registry.New(callbacks, registry.Config{
		CallbackTimeout: cfg.callbackTimeout,
		VerifyHolder:    cfg.verifyHolder,
		Logger:          logger,
	})

	grpcServer := grpc.NewServer()
	pb.RegisterLockServiceServer(grpcServer, server.NewServer(reg, nid))

	listener, err := net.Listen("tcp", cfg.grpcAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.grpcAddr, err)
	}

	var gwServer *gateway.Server
	if cfg.httpAddr != "" {
		gwServer = gateway.NewServer(cfg.httpAddr, reg, nid.String(), logger)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("grpc server listening", "addr", listener.Addr().String())
		if err := grpcServer.Serve(listener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("gRPC server failed: %w", err)
		}
		return nil
	})

	if gwServer != nil {
		g.Go(func() error {
			return gwServer.Start(ctx)
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down gracefully")

		grpcServer.GracefulStop()
		if gwServer != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := gwServer.Stop(shutdownCtx); err != nil {
				logger.Warn("http gateway shutdown", "error", err)
			}
		}
		return nil
	})

	logger.Info("lockcache is ready")

	if err := g.Wait(); err != nil {
		return err
	}

	logger.Info("shutdown complete")
	return nil
}
