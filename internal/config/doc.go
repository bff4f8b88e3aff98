// Package config provides configuration management for callflow.
//
// Configuration is loaded from multiple YAML sources and merged in order,
// with later sources overriding earlier ones.
//
// # Configuration Layers
//
//  1. Default Configuration (embedded in binary)
//     - Node footprint, placement offsets and server address that match the
//     editor's built-in behaviour
//
//  2. User Configuration (~/.config/callflow/config.yaml)
//     - Personal preferences such as theme and log level
//
//  3. Project Configuration (./.callflow/config.yaml)
//     - Settings shared by a team through version control, typically the
//     flow directory and default document format
//
//  4. Explicit file passed with --config, if any
//
// # Configuration Structure
//
//	canvas:
//	  nodeWidth: 200
//	  nodeHeight: 80
//	  cellWidth: 10
//	  cellHeight: 20
//	  spawnOffsetY: 150
//	  siblingSpacing: 0
//	  duplicateOffset: 20
//	  ids: uuid          # or "sequence"
//
//	storage:
//	  dir: flows
//	  defaultFormat: yaml  # yaml, json or toml
//	  watch: true
//
//	server:
//	  host: localhost
//	  port: 8095
//
//	ui:
//	  theme: auto          # auto, dark or light
//	  logLevel: info
//
// # Usage Example
//
//	cfg, err := config.LoadConfig()
//	if err != nil {
//	    return err
//	}
//	store := graph.New(cfg.GraphOptions()...)
package config
