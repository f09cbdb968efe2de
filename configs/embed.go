// Package configs provides embedded configuration templates for ragcity.
//
// Templates are embedded at build time with go:embed so they ship in every
// distribution. `ragcity init` writes the project template to .ragcity.yaml;
// the user template documents machine-level settings at
// ~/.config/ragcity/config.yaml.
//
// Configuration hierarchy (see internal/config.Load):
//  1. Hardcoded defaults (internal/config.NewConfig)
//  2. User config (~/.config/ragcity/config.yaml)
//  3. Project config (.ragcity.yaml)
//  4. Environment variables (RAGCITY_*)
package configs

import _ "embed"

// ProjectConfigTemplate is the template for project-level configuration,
// written by `ragcity init` as .ragcity.yaml in the project root.
//
//go:embed project-config.example.yaml
var ProjectConfigTemplate string

// UserConfigTemplate is the template for user/machine-level configuration
// at ~/.config/ragcity/config.yaml: settings that apply to every project on
// the machine, like the reranker endpoint and embedding provider.
//
//go:embed user-config.example.yaml
var UserConfigTemplate string
