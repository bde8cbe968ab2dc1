package tracing

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Span names.
const (
	SpanDeploy  = "deploy"
	SpanCompile = "deploy.compile"
	SpanGallery = "deploy.gallery"
	SpanPages   = "deploy.pages"
	SpanServe   = "serve"
)

// Attribute keys.
const (
	AttrRunID       = "run.id"
	AttrRebuild     = "deploy.rebuild"
	AttrToolchain   = "deploy.toolchain"
	AttrBuildConfig = "build.config"
	AttrWebpageDir  = "webpage.dir"
	AttrSamples     = "samples.count"
	AttrThumbnails  = "gallery.thumbnails"
	AttrPages       = "pages.count"
	AttrArtifacts   = "pages.artifacts"
	AttrPlatform    = "host.platform"

	AttrErrorMessage = "error.message"
)

// Start begins a span named name as a child of ctx's span.
func Start(ctx context.Context, tracer trace.Tracer, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// End closes span, marking it failed when err is non-nil.
func End(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.String(AttrErrorMessage, err.Error()))
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
