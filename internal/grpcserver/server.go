package grpcserver

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"mediatracker/internal/catalog"
	"mediatracker/internal/search"
	"mediatracker/pkg/models"
)

type Server struct {
	Engine *search.Engine
}

func NewServer(engine *search.Engine) *Server {
	return &Server{Engine: engine}
}

func (s *Server) Search(ctx context.Context, req *SearchRequest) (*SearchResponse, error) {
	results, err := s.Engine.Search(ctx, search.Query{Text: req.Query, Type: req.Type})
	if err != nil {
		return nil, toStatus(err)
	}
	if results == nil {
		results = []models.Candidate{}
	}
	return &SearchResponse{Results: results}, nil
}

func (s *Server) Best(ctx context.Context, req *SearchRequest) (*BestResponse, error) {
	best, err := s.Engine.Best(ctx, search.Query{Text: req.Query, Type: req.Type})
	if err != nil {
		return nil, toStatus(err)
	}
	return &BestResponse{Result: best}, nil
}

func (s *Server) Details(ctx context.Context, req *DetailsRequest) (*DetailsResponse, error) {
	raw, err := s.Engine.Details(ctx, search.DetailsQuery{ID: req.ID, Type: req.Type, Source: req.Source})
	if err != nil {
		return nil, toStatus(err)
	}
	return &DetailsResponse{Record: raw}, nil
}

func toStatus(err error) error {
	var se *catalog.StatusError
	switch {
	case errors.Is(err, search.ErrInvalidRequest), errors.Is(err, catalog.ErrUnsupportedDetails):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, catalog.ErrNotFound):
		return status.Error(codes.NotFound, "not found")
	case errors.As(err, &se) && se.StatusCode == 404:
		return status.Error(codes.NotFound, "not found")
	case errors.Is(err, catalog.ErrMissingCredential):
		return status.Error(codes.FailedPrecondition, "catalog not configured")
	default:
		return status.Error(codes.Unavailable, "catalog unavailable")
	}
}

// LoggingInterceptor logs each call with its duration and status code.
func LoggingInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	log.Info().
		Str("component", "grpc").
		Str("method", info.FullMethod).
		Str("code", status.Code(err).String()).
		Dur("took", time.Since(start)).
		Msg("rpc")
	return resp, err
}
