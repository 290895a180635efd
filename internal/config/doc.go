// Package config provides configuration management for runlevelctl.
//
// This package implements a layered configuration system. Configuration is loaded
// from multiple sources and merged in a specific order, with later sources
// overriding earlier ones.
//
// # Configuration Layers
//
//  1. Default Configuration (embedded in binary)
//  2. User Configuration (~/.config/runlevelctl/config.yaml)
//  3. Project Configuration (./.runlevelctl/config.yaml)
//  4. Project Manifests (./.runlevelctl/*.hcl)
//
// A file passed with --config replaces layers 2 to 4.
//
// # Configuration Structure
//
//	settings:
//	  environment: "dev"
//	  async: true
//	  defaultTarget: 3
//	  waitTimeout: "2m"
//	  logLevel: "info"
//
//	components:
//	  - name: "dev-namespace"
//	    level: 0
//	    kind: "namespace"
//	    namespace: "dev"
//	    kubeContext: "kind-dev"
//	  - name: "database"
//	    level: 1
//	    kind: "command"
//	    command: "docker compose up -d db"
//	    stopCommand: "docker compose stop db"
//	    dependsOn: ["dev-namespace"]
//
//	mcp:
//	  enabled: true
//	  host: "localhost"
//	  port: 8090
//
// Components are merged by name: a later layer replaces the whole definition.
// Components without a level are plain dependencies; they are started when
// something needs them and are not released by run-level descents. Level -1
// components are started as soon as the orchestrator is created and released
// only on shutdown.
//
// # Manifests
//
// Manifests declare the same components in HCL:
//
//	component "api" {
//	  level      = 2
//	  kind       = "command"
//	  command    = "make run-api"
//	  depends_on = ["database"]
//	}
//
// # Validation
//
// Validate reports duplicate names, unknown kinds, dangling dependencies and
// levels below -1 in one error.
package config
