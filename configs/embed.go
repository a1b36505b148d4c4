// Package configs provides the embedded configuration template so
// `equiprank config init` works in every distribution, source builds
// and binary releases alike.
package configs

import _ "embed"

// ExampleYAML is the annotated default configuration template.
//
//go:embed equiprank.example.yaml
var ExampleYAML []byte
