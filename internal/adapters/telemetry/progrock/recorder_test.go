package progrock_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	vprogrock "github.com/vito/progrock"
	"go.trai.ch/zel/internal/adapters/telemetry/progrock"
	"go.trai.ch/zel/internal/core/domain"
	"go.trai.ch/zel/internal/core/ports"
	"google.golang.org/protobuf/types/known/timestamppb"
)

func TestNew(t *testing.T) {
	recorder := progrock.New()
	assert.NotNil(t, recorder)
}

func TestRecorder_Integration(t *testing.T) {
	recorder := progrock.NewRecorder(vprogrock.NewTape())

	ctx, vertex := recorder.Record(context.Background(), "fetch owner/repo")

	got, ok := ports.VertexFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, vertex, got)

	vertex.Log(domain.LogLevelDebug, "debug msg")
	vertex.Cached()
	vertex.Complete(nil)

	_, failed := recorder.Record(context.Background(), "fetch owner/repo")
	failed.Complete(errors.New("boom"))

	require.NoError(t, recorder.Close())
}

func TestConsole_PrintsCompletedOnce(t *testing.T) {
	var buf bytes.Buffer
	console := progrock.NewConsole(&buf)

	pending := &vprogrock.Vertex{Id: "a", Name: "fetch owner/a"}
	done := &vprogrock.Vertex{Id: "b", Name: "fetch owner/b", Completed: timestamppb.Now()}
	cached := &vprogrock.Vertex{Id: "c", Name: "fetch owner/c", Completed: timestamppb.Now(), Cached: true}

	require.NoError(t, console.WriteStatus(&vprogrock.StatusUpdate{Vertexes: []*vprogrock.Vertex{pending, done, cached}}))
	require.NoError(t, console.WriteStatus(&vprogrock.StatusUpdate{Vertexes: []*vprogrock.Vertex{done}}))

	assert.Equal(t, "✓ fetch owner/b\n~ fetch owner/c (cached)\n", buf.String())
	require.NoError(t, console.Close())
}

func TestConsole_SetOutput(t *testing.T) {
	var buf bytes.Buffer
	console := progrock.NewConsole(nil)

	v1 := &vprogrock.Vertex{Id: "1", Name: "hidden", Completed: timestamppb.Now()}
	require.NoError(t, console.WriteStatus(&vprogrock.StatusUpdate{Vertexes: []*vprogrock.Vertex{v1}}))

	console.SetOutput(&buf)
	v2 := &vprogrock.Vertex{Id: "2", Name: "shown", Completed: timestamppb.Now()}
	require.NoError(t, console.WriteStatus(&vprogrock.StatusUpdate{Vertexes: []*vprogrock.Vertex{v2}}))

	assert.Equal(t, "✓ shown\n", buf.String())
}

func TestFormatVertex(t *testing.T) {
	assert.Equal(t, "✗ download owner/a/master/x: boom", progrock.FormatVertex("download owner/a/master/x", false, "boom"))
	assert.Equal(t, "~ fetch owner/a (cached)", progrock.FormatVertex("fetch owner/a", true, ""))
	assert.Equal(t, "✓ fetch owner/a", progrock.FormatVertex("fetch owner/a", false, ""))
}
