package model

// Centralized icons for the UI components
// Using simple single-width characters for consistent terminal rendering
const (
	IconApp       = "◆" // Diamond for first-party code
	IconDep       = "·" // Dot for third-party dependencies
	IconFramework = "▸" // Triangle for framework internals
	IconBuiltin   = " " // Space (runtime built-ins are filtered anyway)
	IconCycle     = "↺" // Cycle marker in the tree view
	IconSlow      = "!" // Above-threshold highlight
)
