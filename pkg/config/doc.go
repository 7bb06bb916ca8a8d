// Package config loads uconfig's own settings.
//
// Settings come from four layers, later layers winning: built-in defaults,
// a YAML settings file (uconfig.yaml), UCONFIG_* environment variables and
// command-line flags. Flags are applied by the command layer, which then
// calls Validate and ResolvePaths:
//
//	s, err := config.Load(config.Discover("."))
//	if err != nil {
//	    return err
//	}
//	s.Input = inputFlag
//	if err := s.Validate(); err != nil {
//	    return err
//	}
//	if err := s.ResolvePaths(); err != nil {
//	    return err
//	}
//
// A settings file looks like:
//
//	input: configs.in
//	output: sys.config.h
//	state: .old.config
//	header:
//	  guard: __UCONFIG_H
//	  bool_value: "1"
//	logging:
//	  level: info
//	  format: console
//	metrics:
//	  file: ""
//	  listen: ""
//	tracing:
//	  exporter: none
//	history:
//	  path: .uconfig-history.db
//	  keep: 20
//	policy:
//	  paths: [policies/]
//	  fail_on: error
//
// Relative output, state, metrics and history paths resolve against the
// directory of the input file, so a description tree can be built from any
// working directory.
package config
