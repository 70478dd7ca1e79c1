package grpc

import (
	"context"
	"net"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/theoba/bp-invest/internal/adapter/repository/sqlite"
	"github.com/theoba/bp-invest/internal/usecase/seeder"
	"github.com/theoba/bp-invest/internal/usecase/simulation"
)

const testToken = "test-token"

// startServer runs the full stack in process: sqlite repository, seeded reference property,
// simulation service and the gRPC server with its interceptors
func startServer(t *testing.T) *ProjectionServiceClient {
	t.Helper()
	ctx := context.Background()
	logger := zaptest.NewLogger(t)

	db, err := sqlite.NewDB(ctx, filepath.Join(t.TempDir(), "grpc.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := sqlite.NewAssumptionRepository(db)
	require.NoError(t, seeder.NewSystemSeeder(repo, logger).Seed(ctx))

	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(
		LoggingInterceptor(logger),
		AuthInterceptor(testToken),
	))
	RegisterProjectionServiceServer(srv, NewServer(simulation.NewSimulationService(repo, logger)))

	lis := bufconn.Listen(1 << 20)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return NewProjectionServiceClient(conn)
}

func authContext() context.Context {
	return metadata.AppendToOutgoingContext(context.Background(), "authorization", testToken)
}

func referenceRequest() map[string]interface{} {
	return map[string]interface{}{
		"label":                  "Studio",
		"purchase_price":         93000,
		"acquisition_fee_rate":   0.08,
		"down_payment":           9300,
		"annual_interest_rate":   0.0272,
		"loan_term_years":        25,
		"detention_years":        15,
		"sale_fee_rate":          0.035,
		"discount_rate":          0.05,
		"current_market_value":   93000,
		"monthly_rent":           721,
		"property_management":    600,
		"accounting":             300,
		"co_ownership_fees":      900,
		"property_tax":           700,
		"maintenance_rate":       0.01,
		"insurance_rate":         0.03,
		"market_value_growth":    0.01,
		"market_rent_growth":     0.02,
		"property_charge_growth": 0.01,
		"vacancy_rate":           0.02,
		"capex_amount":           2000,
		"capex_frequency_years":  3,
	}
}

func requireCode(t *testing.T, err error, code codes.Code) {
	t.Helper()
	require.Error(t, err)
	st, ok := status.FromError(err)
	require.True(t, ok, "error should be a gRPC status")
	assert.Equal(t, code, st.Code(), st.Message())
}

func isNull(v *structpb.Value) bool {
	_, ok := v.GetKind().(*structpb.Value_NullValue)
	return ok
}

func TestServer_RequiresToken(t *testing.T) {
	client := startServer(t)

	_, err := client.ListProperties(context.Background(), &structpb.Struct{})

	requireCode(t, err, codes.Unauthenticated)
}

func TestServer_Project_ReferenceScenario(t *testing.T) {
	client := startServer(t)

	resp, err := client.Project(authContext(), mustStruct(t, referenceRequest()))

	require.NoError(t, err)
	derived := resp.Fields["derived"].GetStructValue().GetFields()
	assert.Equal(t, "100440.00", derived["total_acquisition_price"].GetStringValue())
	assert.Equal(t, "91140.00", derived["loan_amount"].GetStringValue())
	assert.Equal(t, "419.04", derived["monthly_payment"].GetStringValue())
	assert.Equal(t, "-5028.49", derived["annual_debt_service"].GetStringValue())
	assert.False(t, derived["straight_line"].GetBoolValue())

	rows := resp.Fields["rows"].GetListValue().GetValues()
	require.Len(t, rows, 16)
	first := rows[0].GetStructValue().GetFields()
	assert.Equal(t, "-9300.00", first["net_cash_flow"].GetStringValue())
	last := rows[15].GetStructValue().GetFields()
	assert.Equal(t, 15.0, last["year"].GetNumberValue())
	assert.Equal(t, "107970.11", last["gross_sale_proceeds"].GetStringValue())
	assert.Equal(t, "60208.33", last["net_sale_proceeds"].GetStringValue())

	summary := resp.Fields["summary"].GetStructValue().GetFields()
	assert.NotEmpty(t, summary["irr"].GetStringValue())
	assert.NotEmpty(t, summary["npv"].GetStringValue())
	assert.NotEmpty(t, summary["multiple"].GetStringValue())
	assert.NotEmpty(t, summary["mean_net_cash_flow"].GetStringValue())
}

func TestServer_Project_UndefinedMetricsAreNull(t *testing.T) {
	client := startServer(t)

	req := referenceRequest()
	req["down_payment"] = 0
	req["detention_years"] = 1

	resp, err := client.Project(authContext(), mustStruct(t, req))

	require.NoError(t, err)
	summary := resp.Fields["summary"].GetStructValue().GetFields()
	assert.True(t, isNull(summary["multiple"]))
	assert.True(t, isNull(summary["min_net_cash_flow"]))
	assert.True(t, isNull(summary["mean_net_cash_flow"]))
}

func TestServer_Project_InvalidArgument(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(req map[string]interface{})
		message string
	}{
		{"non-positive price", func(req map[string]interface{}) { req["purchase_price"] = 0 }, "purchase price must be positive"},
		{"down payment too large", func(req map[string]interface{}) { req["down_payment"] = 500000 }, "down payment cannot exceed acquisition cost"},
		{"rate out of range", func(req map[string]interface{}) { req["vacancy_rate"] = 1.2 }, "must be in [0, 1)"},
		{"unknown field", func(req map[string]interface{}) { req["rent"] = 721 }, "unknown field"},
		{"malformed amount", func(req map[string]interface{}) { req["monthly_rent"] = "seven hundred" }, "invalid monthly_rent format"},
	}

	client := startServer(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := referenceRequest()
			tt.mutate(req)

			_, err := client.Project(authContext(), mustStruct(t, req))

			requireCode(t, err, codes.InvalidArgument)
			assert.Contains(t, status.Convert(err).Message(), tt.message)
		})
	}
}

func TestServer_SaveThenGetLatestProjection(t *testing.T) {
	client := startServer(t)
	ctx := authContext()

	saved, err := client.SaveAssumptions(ctx, mustStruct(t, referenceRequest()))
	require.NoError(t, err)
	propertyID := saved.Fields["property_id"].GetStringValue()
	require.NotEmpty(t, propertyID)
	assert.NotEmpty(t, saved.Fields["record_id"].GetStringValue())
	assert.NotEmpty(t, saved.Fields["created_at"].GetStringValue())

	resp, err := client.GetLatestProjection(ctx, mustStruct(t, map[string]interface{}{
		"property_id":     propertyID,
		"detention_years": 10,
		"year":            5,
	}))

	require.NoError(t, err)
	assert.Equal(t, saved.Fields["record_id"].GetStringValue(), resp.Fields["record_id"].GetStringValue())
	assert.Len(t, resp.Fields["rows"].GetListValue().GetValues(), 11)
	assumptions := resp.Fields["assumptions"].GetStructValue().GetFields()
	assert.Equal(t, 10.0, assumptions["detention_years"].GetNumberValue())
	assert.Equal(t, "Studio", assumptions["label"].GetStringValue())
	snapshot := resp.Fields["snapshot"].GetStructValue().GetFields()
	assert.Equal(t, 5.0, snapshot["year"].GetNumberValue())
	assert.NotEmpty(t, snapshot["remaining_debt"].GetStringValue())
}

func TestServer_GetLatestProjection_Errors(t *testing.T) {
	client := startServer(t)
	ctx := authContext()
	reference := seeder.REFERENCE_PROPERTY_ID.String()

	tests := []struct {
		name   string
		fields map[string]interface{}
		code   codes.Code
	}{
		{"missing property id", map[string]interface{}{}, codes.InvalidArgument},
		{"unknown property", map[string]interface{}{"property_id": "7d4f1f2c-3a43-4bb2-9a43-6f1d2e0c9a11"}, codes.NotFound},
		{"year after sale", map[string]interface{}{"property_id": reference, "year": 16}, codes.InvalidArgument},
		{"override out of range", map[string]interface{}{"property_id": reference, "detention_years": 31}, codes.InvalidArgument},
		{"unknown field", map[string]interface{}{"property_id": reference, "years": 3}, codes.InvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.GetLatestProjection(ctx, mustStruct(t, tt.fields))

			requireCode(t, err, tt.code)
		})
	}
}

func TestServer_CompareScenarios(t *testing.T) {
	client := startServer(t)

	resp, err := client.CompareScenarios(authContext(), mustStruct(t, map[string]interface{}{
		"property_id": seeder.REFERENCE_PROPERTY_ID.String(),
		"scenarios": []interface{}{
			map[string]interface{}{"detention_years": 5},
			map[string]interface{}{"detention_years": 20, "loan_term_years": 15},
			map[string]interface{}{},
		},
	}))

	require.NoError(t, err)
	results := resp.Fields["results"].GetListValue().GetValues()
	require.Len(t, results, 3)

	first := results[0].GetStructValue().GetFields()
	assert.Equal(t, 5.0, first["detention_years"].GetNumberValue())
	assert.Equal(t, 25.0, first["loan_term_years"].GetNumberValue())
	second := results[1].GetStructValue().GetFields()
	assert.Equal(t, 20.0, second["detention_years"].GetNumberValue())
	assert.Equal(t, 15.0, second["loan_term_years"].GetNumberValue())
	third := results[2].GetStructValue().GetFields()
	assert.Equal(t, 15.0, third["detention_years"].GetNumberValue())
	assert.NotEmpty(t, third["final_cumulative_net_cash_flow"].GetStringValue())
}

func TestServer_CompareScenarios_Invalid(t *testing.T) {
	client := startServer(t)
	ctx := authContext()
	reference := seeder.REFERENCE_PROPERTY_ID.String()

	tests := []struct {
		name   string
		fields map[string]interface{}
	}{
		{"no scenarios", map[string]interface{}{"property_id": reference}},
		{"scenario not an object", map[string]interface{}{"property_id": reference, "scenarios": []interface{}{5}}},
		{"scenario with unknown field", map[string]interface{}{"property_id": reference, "scenarios": []interface{}{
			map[string]interface{}{"detention": 5},
		}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.CompareScenarios(ctx, mustStruct(t, tt.fields))

			requireCode(t, err, codes.InvalidArgument)
		})
	}
}

func TestServer_ListProperties(t *testing.T) {
	client := startServer(t)
	ctx := authContext()

	_, err := client.SaveAssumptions(ctx, mustStruct(t, referenceRequest()))
	require.NoError(t, err)

	resp, err := client.ListProperties(ctx, &structpb.Struct{})

	require.NoError(t, err)
	properties := resp.Fields["properties"].GetListValue().GetValues()
	require.Len(t, properties, 2)
	var ids []string
	for _, p := range properties {
		ids = append(ids, p.GetStructValue().GetFields()["property_id"].GetStringValue())
	}
	assert.Contains(t, ids, seeder.REFERENCE_PROPERTY_ID.String())
}

func TestMapError(t *testing.T) {
	assert.Nil(t, mapError(nil))
	assert.Equal(t, codes.Canceled, status.Code(mapError(context.Canceled)))
	assert.Equal(t, codes.DeadlineExceeded, status.Code(mapError(context.DeadlineExceeded)))
	assert.Equal(t, codes.Internal, status.Code(mapError(assert.AnError)))
}
