package grpc

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/theoba/bp-invest/internal/domain"
	"github.com/theoba/bp-invest/internal/usecase/metrics"
	"github.com/theoba/bp-invest/internal/usecase/simulation"
)

// Server implements the ProjectionService gRPC server
type Server struct {
	SimulationService *simulation.SimulationService
}

var _ ProjectionServiceServer = (*Server)(nil)

// NewServer creates a new gRPC server instance
func NewServer(simulationService *simulation.SimulationService) *Server {
	return &Server{
		SimulationService: simulationService,
	}
}

// SaveAssumptions handles the SaveAssumptions RPC
func (s *Server) SaveAssumptions(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	record, err := recordFromStruct(req)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "%v", err)
	}

	saved, err := s.SimulationService.SaveAssumptions(ctx, record)
	if err != nil {
		return nil, mapError(err)
	}

	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"record_id":   structpb.NewStringValue(saved.ID.String()),
		"property_id": structpb.NewStringValue(saved.PropertyID.String()),
		"created_at":  timestamp(saved.CreatedAt),
	}}, nil
}

// Project handles the Project RPC
// The record is projected as sent and nothing is stored.
func (s *Server) Project(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	record, err := recordFromStruct(req)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "%v", err)
	}

	p, err := s.SimulationService.Run(ctx, record)
	if err != nil {
		return nil, mapError(err)
	}

	return projectionToStruct(p), nil
}

// GetLatestProjection handles the GetLatestProjection RPC
// Logic:
//  1. Parse property_id and the optional detention_years / loan_term_years overrides
//  2. Project the latest stored record of the property
//  3. When year is set, attach the KPI snapshot of that year
func (s *Server) GetLatestProjection(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	r := newFieldReader(req)

	propertyID, err := r.uuid("property_id", true)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "%v", err)
	}
	overrides, err := overridesFromReader(r)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "%v", err)
	}
	year, err := r.optionalInteger("year")
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "%v", err)
	}
	if err := r.unknown(); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "%v", err)
	}

	p, err := s.SimulationService.RunLatest(ctx, propertyID, overrides)
	if err != nil {
		return nil, mapError(err)
	}

	resp := projectionToStruct(p)
	resp.Fields["record_id"] = structpb.NewStringValue(p.Record.ID.String())
	resp.Fields["property_id"] = structpb.NewStringValue(p.Record.PropertyID.String())
	resp.Fields["assumptions"] = structpb.NewStructValue(recordToStruct(&p.Record))

	if year != nil {
		snapshot, err := metrics.Snapshot(p.Rows, *year)
		if err != nil {
			return nil, mapError(err)
		}
		resp.Fields["snapshot"] = snapshotToValue(snapshot)
	}

	return resp, nil
}

// CompareScenarios handles the CompareScenarios RPC
func (s *Server) CompareScenarios(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	r := newFieldReader(req)

	propertyID, err := r.uuid("property_id", true)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "%v", err)
	}
	items, err := r.list("scenarios")
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "%v", err)
	}
	if err := r.unknown(); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "%v", err)
	}

	scenarios := make([]domain.ScenarioOverrides, 0, len(items))
	for i, item := range items {
		obj, ok := item.GetKind().(*structpb.Value_StructValue)
		if !ok {
			return nil, status.Errorf(codes.InvalidArgument, "scenarios[%d] must be an object", i)
		}
		sr := newFieldReader(obj.StructValue)
		overrides, err := overridesFromReader(sr)
		if err == nil {
			err = sr.unknown()
		}
		if err != nil {
			return nil, status.Errorf(codes.InvalidArgument, "scenarios[%d]: %v", i, err)
		}
		scenarios = append(scenarios, overrides)
	}

	results, err := s.SimulationService.Compare(ctx, propertyID, scenarios)
	if err != nil {
		return nil, mapError(err)
	}

	values := make([]*structpb.Value, 0, len(results))
	for _, result := range results {
		values = append(values, scenarioToValue(result))
	}

	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"property_id": structpb.NewStringValue(propertyID.String()),
		"results":     list(values),
	}}, nil
}

// ListProperties handles the ListProperties RPC
func (s *Server) ListProperties(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if err := newFieldReader(req).unknown(); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "%v", err)
	}

	properties, err := s.SimulationService.ListProperties(ctx)
	if err != nil {
		return nil, mapError(err)
	}

	values := make([]*structpb.Value, 0, len(properties))
	for _, p := range properties {
		values = append(values, propertyToValue(p))
	}

	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"properties": list(values),
	}}, nil
}

// mapError converts domain errors to gRPC status errors
func mapError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, domain.ErrInvalidAssumption), errors.Is(err, domain.ErrYearOutOfRange):
		return status.Errorf(codes.InvalidArgument, "%s", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return status.Errorf(codes.NotFound, "%s", err.Error())
	case errors.Is(err, context.Canceled):
		return status.Errorf(codes.Canceled, "%s", err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Errorf(codes.DeadlineExceeded, "%s", err.Error())
	}

	// Default to Internal error for unknown errors
	return status.Errorf(codes.Internal, "%s", err.Error())
}
