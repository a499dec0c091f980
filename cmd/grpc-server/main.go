package main

import (
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"google.golang.org/grpc"

	"mediatracker/internal/grpcserver"
	"mediatracker/internal/search"
	"mediatracker/pkg/utils"
)

func main() {
	srvCfg := utils.LoadServerConfig()
	utils.SetupLogger(srvCfg.LogLevel)

	engine, _, err := search.NewEngine(utils.LoadCatalogConfig())
	if err != nil {
		log.Fatal().Err(err).Msg("engine setup failed")
	}

	listener, err := net.Listen("tcp", srvCfg.GRPCAddr)
	if err != nil {
		log.Fatal().Err(err).Msg("grpc listen failed")
	}

	grpcServer := grpc.NewServer(grpc.UnaryInterceptor(grpcserver.LoggingInterceptor))
	grpcserver.RegisterSearchServer(grpcServer, grpcserver.NewServer(engine))

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info().Msg("shutting down")
		grpcServer.GracefulStop()
	}()

	log.Info().Str("addr", srvCfg.GRPCAddr).Msg("gRPC server listening")
	if err := grpcServer.Serve(listener); err != nil {
		log.Fatal().Err(err).Msg("grpc server stopped")
	}
}
