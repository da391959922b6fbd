package provisioner

// Category classifies an artifact and selects which overwrite policy applies to it.
type Category string

// Known artifact categories.
const (
	CategoryInstructions   Category = "instructions"
	CategoryStandards      Category = "standards"
	CategoryConfig         Category = "config"
	CategoryAgentTemplate  Category = "agent_template"
	CategoryPromptTemplate Category = "prompt_template"
	CategoryProjectScript  Category = "project_script"
)

// Artifact is one remote-to-local file mapping managed by the provisioner.
// Artifacts are immutable once constructed; the manifest is built in full
// before any I/O starts.
type Artifact struct {
	// RemoteURL is the full URL the artifact is fetched from.
	RemoteURL string
	// LocalPath is the destination path under the install root.
	LocalPath string
	// Category selects the overwrite policy entry that applies.
	Category Category
	// Executable marks destinations that must carry the executable bit.
	Executable bool
	// Critical marks artifacts whose failure aborts the entire run.
	Critical bool
	// ForceOverwrite refreshes the destination regardless of the
	// user-level policy (e.g. the project bootstrap script, which must
	// stay in sync with the installed version).
	ForceOverwrite bool
	// Checksum is an optional base64-encoded SHA-512 of the expected
	// content, verified before the destination is replaced.
	Checksum string
}

// OverwritePolicy maps categories to whether existing destinations may be
// replaced. Supplied once at the start of a run and never mutated.
type OverwritePolicy map[Category]bool

// Status is the outcome kind of one provisioning attempt.
type Status string

// Possible provisioning outcomes.
const (
	// StatusWritten means new or overwritten content was placed in full.
	StatusWritten Status = "written"
	// StatusSkipped means the destination existed and policy forbade overwrite.
	StatusSkipped Status = "skipped"
	// StatusFailed means the fetch or apply failed; any pre-existing
	// destination content is untouched.
	StatusFailed Status = "failed"
)

// Result is the outcome of provisioning one artifact.
type Result struct {
	// Artifact is the artifact this result belongs to.
	Artifact Artifact
	// Status is the outcome kind.
	Status Status
	// Err carries the failure cause when Status is StatusFailed.
	Err error
}
