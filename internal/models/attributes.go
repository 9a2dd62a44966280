package models

// Data attributes written to host page elements. These are the contract with
// the external page-resident SDK and must keep exactly these names.
const (
	AttrOriginal   = "data-absmartly-original"
	AttrModified   = "data-absmartly-modified"
	AttrExperiment = "data-absmartly-experiment"
)

// ExperimentPreviewSentinel marks preview-only sessions in AttrExperiment,
// where no persisted experiment id exists yet.
const ExperimentPreviewSentinel = "__preview__"

// MarkerClassPrefix prefixes every CSS class the editor injects for its own
// highlight/selection markup. Selector resolution must never emit these and
// cleanup strips them from the whole document.
const MarkerClassPrefix = "absmartly-editor-"
