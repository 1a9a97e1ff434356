package domain

import "time"

// Param keys with a meaning for state-path intents.
const (
	ParamValue     = "value"
	ParamNormalize = "normalize"

	// NormalizeColor asks for an RGB value to be extended to RGBA.
	NormalizeColor = "color"
)

// Precondition names accepted in Intent.Requires and Intent.Ensure.
const (
	NeedActiveObject = "active_object"
	NeedMaterial     = "material"
	NeedMaterialSlot = "material_slot"
)

// Run modes recorded with every enriched record.
const (
	ModeVoice = "voice"
	ModeText  = "text"
	ModeUI    = "ui"
)

// UnnamedIntent is the placeholder name for intents configured without name or id.
const UnnamedIntent = "unnamed_intent"

// SourceAutoInjector tags intents written to the pending list by the engine.
const SourceAutoInjector = "auto_injector"

// DefaultCategory is assigned to merged intents that carry no category.
const DefaultCategory = "other"

// DefaultMaterialName is the material created when an object needs one.
const DefaultMaterialName = "Blade_AutoMaterial"

// Matching and execution defaults.
const (
	DefaultThreshold  = 0.50
	DefaultColorBoost = 0.15
	DefaultRetries    = 1
	DefaultRetryDelay = 50 * time.Millisecond
)
