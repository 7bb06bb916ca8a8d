package policy

// GetBuiltinPolicies returns all built-in policies.
func GetBuiltinPolicies() []Policy {
	return []Policy{
		unmetDependencyPolicy(),
		emptyStringPolicy(),
		engineDiagnosticsPolicy(),
		newEntriesPolicy(),
	}
}

// unmetDependencyPolicy flags booleans forced on by an enabled selector
// although their own dependencies are false.
func unmetDependencyPolicy() Policy {
	return Policy{
		Name:        "unmet-dependency",
		Description: "Reports selected booleans whose dependencies are not met",
		Severity:    SeverityWarning,
		Enabled:     true,
		Rego: `package uconfig.lint.dependency

import rego.v1

enabled_symbols contains item.symbol if {
	some item in input.items
	item.enabled
}

deny contains violation if {
	some item in input.items
	item.kind == "bool"
	item.enabled
	not item.active
	some selector in item.selected_by
	selector in enabled_symbols
	violation := {
		"message": sprintf("%s is selected by %s but its dependencies are not met", [item.symbol, selector]),
		"symbol": item.symbol,
	}
}
`,
	}
}

// emptyStringPolicy flags visible string entries left empty.
func emptyStringPolicy() Policy {
	return Policy{
		Name:        "empty-string",
		Description: "Reports visible string entries with an empty value",
		Severity:    SeverityWarning,
		Enabled:     true,
		Rego: `package uconfig.lint.strings

import rego.v1

deny contains violation if {
	some item in input.items
	item.kind == "string"
	item.active
	item.value == ""
	violation := {
		"message": sprintf("%s is empty", [item.symbol]),
		"symbol": item.symbol,
	}
}
`,
	}
}

// engineDiagnosticsPolicy turns broken references recorded by the engine into
// errors, so validate fails on them.
func engineDiagnosticsPolicy() Policy {
	return Policy{
		Name:        "broken-reference",
		Description: "Reports selects and dependencies naming undefined or incompatible symbols",
		Severity:    SeverityError,
		Enabled:     true,
		Rego: `package uconfig.lint.references

import rego.v1

broken_kinds := {"undefined_select", "incompatible_select", "undefined_symbol", "type_mismatch"}

deny contains violation if {
	some diag in input.diagnostics
	diag.kind in broken_kinds
	violation := {
		"message": diag.message,
		"symbol": object.get(diag, "symbol", ""),
	}
}
`,
	}
}

// newEntriesPolicy lists entries still on their declared defaults, typically
// entries added since the state file was written.
func newEntriesPolicy() Policy {
	return Policy{
		Name:        "new-entry",
		Description: "Reports entries not present in the persisted state",
		Severity:    SeverityInfo,
		Enabled:     true,
		Rego: `package uconfig.lint.state

import rego.v1

deny contains violation if {
	some item in input.items
	item.pending
	violation := {
		"message": sprintf("%s is not in the saved state; using default %s", [item.symbol, item.value]),
		"symbol": item.symbol,
	}
}
`,
	}
}
