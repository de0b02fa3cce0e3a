package domain

// ResourceClass is a category of execution slot bounding concurrent stage
// execution. Resource class is a static property of a stage.
type ResourceClass string

const (
	ResourceCPU         ResourceClass = "cpu"
	ResourceAccelerator ResourceClass = "accelerator"
)

// StageKind identifies one transformation in the fixed stage chain.
type StageKind string

const (
	StagePropose  StageKind = "propose"
	StageDetect   StageKind = "detect"
	StageRegroup  StageKind = "regroup"
	StagePoolText StageKind = "pooltext"
	StageClassify StageKind = "classify"
	StageRules    StageKind = "rules"
)

// Element classes produced by detection and postprocessing.
const (
	ClassBodyText      = "Body Text"
	ClassFigure        = "Figure"
	ClassFigureCaption = "Figure Caption"
	ClassTable         = "Table"
	ClassTableCaption  = "Table Caption"
	ClassPageHeader    = "Page Header"
	ClassPageFooter    = "Page Footer"
	ClassSectionHeader = "Section Header"
	ClassEquation      = "Equation"
	ClassEquationLabel = "Equation label"
	ClassOther         = "Other"
)
