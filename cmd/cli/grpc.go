package main

import (
	"context"

	"github.com/rs/zerolog/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"mediatracker/internal/grpcserver"
)

func mustGRPC(addr string) (*grpcserver.Client, func()) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		log.Fatal().Err(err).Str("addr", addr).Msg("grpc dial")
	}
	return grpcserver.NewClient(conn), func() { _ = conn.Close() }
}

func grpcSearch(ctx context.Context, c *grpcserver.Client, query, typ string) (*grpcserver.SearchResponse, error) {
	return c.Search(ctx, &grpcserver.SearchRequest{Query: query, Type: typ})
}

func grpcBest(ctx context.Context, c *grpcserver.Client, query, typ string) (*grpcserver.BestResponse, error) {
	return c.Best(ctx, &grpcserver.SearchRequest{Query: query, Type: typ})
}

func grpcDetails(ctx context.Context, c *grpcserver.Client, id, typ, source string) (*grpcserver.DetailsResponse, error) {
	return c.Details(ctx, &grpcserver.DetailsRequest{ID: id, Type: typ, Source: source})
}
