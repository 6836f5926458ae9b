package tool

// Type represents JSON Schema types.
type Type string

const (
	TypeString  Type = "string"
	TypeNumber  Type = "number"
	TypeInteger Type = "integer"
	TypeBoolean Type = "boolean"
	TypeArray   Type = "array"
	TypeObject  Type = "object"
)

// Schema represents a JSON Schema for tool parameters.
type Schema struct {
	Type        Type               `json:"type"`
	Description string             `json:"description,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Required    []string           `json:"required,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
	Enum        []string           `json:"enum,omitempty"`
}

// Declaration declares a tool's function signature for the LLM.
type Declaration struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Parameters  *Schema `json:"parameters,omitempty"`
}

// Display is implemented by all display types returned from tools.
// The UI uses type switches to render each type appropriately.
type Display interface {
	isDisplay()
}

// StringDisplay is for simple text output (most tools).
type StringDisplay string

func (StringDisplay) isDisplay() {}

// DiffDisplay is for file edit operations with unified diff content.
type DiffDisplay struct {
	Diff         string // Unified diff content
	AddedLines   int
	RemovedLines int
}

func (DiffDisplay) isDisplay() {}

// ShellDisplay is for a finished shell command.
type ShellDisplay struct {
	Command    string
	WorkingDir string
	ExitCode   int
	TimedOut   bool
}

func (ShellDisplay) isDisplay() {}

// Result is what an invocable tool hands back to the loop.
type Result struct {
	// Content is the text sent to the model.
	Content string
	// Display is optional UI rendering of the same result.
	Display Display
	// Failed marks a result that reports an unsuccessful outcome without an
	// error, such as a command that exited non-zero or timed out.
	Failed bool
}

// Text returns a Result whose content and display are both s.
func Text(s string) Result {
	return Result{Content: s, Display: StringDisplay(s)}
}
