// Package schemaguard implements a schema-constrained decoding core for
// autoregressive language models that produce JSON. It rewrites a model's
// per-step logit vector so that only tokens consistent with a caller-supplied
// schema can be sampled, guaranteeing that every object in the decoded
// document uses exactly the schema-declared keys, at every nesting level.
//
// Credit to https://github.com/kaptinlin/jsonschema for the schema
// compilation and caching idioms this package's DraftSchema layer builds on.
package schemaguard
