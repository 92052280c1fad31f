package telemetry

import "go.opentelemetry.io/otel/attribute"

// Span attribute keys used for instrumentation.
const (
	AttrProjection = attribute.Key("coords.projection")
	AttrCacheHit   = attribute.Key("coords.cache_hit")
	AttrSameFix    = attribute.Key("coords.same_location")
	AttrItems      = attribute.Key("coords.items")
)
