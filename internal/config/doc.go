// Package config defines the format-agnostic benchmark configuration and the
// Loader interface that produces it.
//
// A `config.Model` is built once at startup and never mutated afterwards. It
// is the single source of truth for the corpus, stage and sweep packages.
// Concrete loaders, such as the HCL one, live in separate packages.
package config
