package observability

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestInitTracing_WritesSpans(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	var buf bytes.Buffer
	shutdown, err := InitTracing(&buf)
	require.NoError(t, err)

	run := func(ctx context.Context) (err error) {
		_, span := StartSpan(ctx, "unit", StudentID("s1"))
		defer FinishSpan(span, &err)
		return errors.New("boom")
	}
	require.Error(t, run(context.Background()))
	require.NoError(t, shutdown(context.Background()))

	require.Contains(t, buf.String(), "unit")
	require.Contains(t, buf.String(), "student.id")
	require.Contains(t, buf.String(), "boom")
}
