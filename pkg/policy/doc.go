// Package policy lints resolved configurations with Open Policy Agent.
//
// Every policy is a Rego module defining a "deny" set. Each element is
// either a message string or an object:
//
//	package uconfig.lint.board
//
//	import rego.v1
//
//	deny contains violation if {
//		some item in input.items
//		item.symbol == "DEBUG_UART"
//		item.enabled
//		violation := {
//			"message": "DEBUG_UART must be off in release builds",
//			"symbol": item.symbol,
//			"severity": "error",
//		}
//	}
//
// The input document has three fields: source (the primary configuration
// description), items (engine.ResolvedItem values in symbol table order)
// and diagnostics (engine.Diagnostic values).
//
// Built-in policies report selected booleans with unmet dependencies, empty
// visible strings, broken select and dependency references, and entries
// missing from the saved state. User policies are loaded from .rego files
// or directories:
//
//	eng, err := policy.NewEngine(logger)
//	if err != nil {
//	    return err
//	}
//	if err := eng.LoadPolicies(ctx, paths); err != nil {
//	    return err
//	}
//	result, err := eng.Evaluate(ctx, policy.NewInput(input, db))
//	if result.Failed("error") {
//	    ...
//	}
package policy
