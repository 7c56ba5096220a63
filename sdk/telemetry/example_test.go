package telemetry_test

import (
	"context"
	"fmt"

	"github.com/xKoRx/openapi-proxy/sdk/telemetry"
	"github.com/xKoRx/openapi-proxy/sdk/telemetry/semconv"
)

// ExampleNew demuestra cómo crear y usar el cliente de telemetría
func ExampleNew() {
	ctx := context.Background()

	client, err := telemetry.New(ctx, "openapi-proxy", "development",
		telemetry.WithVersion("0.1.0"),
		telemetry.WithLogLevel("ERROR"),
	)
	if err != nil {
		panic(err)
	}
	defer func() {
		_ = client.Shutdown(ctx)
	}()

	ctx = telemetry.AppendCommonAttrs(ctx,
		semconv.Proxy.Component.String("example"),
	)

	client.Info(ctx, "Command dispatched",
		semconv.Proxy.Command.String("ProtoOAVersionReq"),
	)

	ctx, span := client.StartSpan(ctx, "dispatch")
	defer span.End()

	client.ProxyMetrics().RecordDispatched(ctx, "ProtoOAVersionReq")

	fmt.Println("Telemetry example completed")
	// Output: Telemetry example completed
}
