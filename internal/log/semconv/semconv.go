package semconv

// Run
const (
	// Unique ID for a single pipeline run.
	RunID = "run_id"

	// Name of the pipeline as declared in the pipeline file.
	PipelineName = "pipeline_name"
)

// Stage
const (
	// Stable ID for the stage. The same pipeline executed twice will have the
	// same IDs, since they are derived from the pipeline file.
	StageID = "stage_id"

	// Display name of the stage.
	StageName = "stage_name"

	// Stage classification, blocking or advisory.
	StageClass = "stage_class"
)

// Tools
const (
	// Binary name of the external tool a stage shells out to.
	ToolName = "tool_name"
)
