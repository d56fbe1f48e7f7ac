package types

// NotFoundCode is the in-band error code the backend uses for a missing file
const NotFoundCode = 404

// ExplorerConfig holds file explorer settings
type ExplorerConfig struct {
	Root              string `json:"root" yaml:"root"`
	Password          string `json:"password" yaml:"password"`
	DisplayHiddenFile bool   `json:"displayHiddenFile" yaml:"displayHiddenFile"`
}

// EditorConfig holds text editor settings
type EditorConfig struct {
	LineNumber          bool `json:"lineNumber" yaml:"lineNumber"`
	AutoWrap            bool `json:"autoWrap" yaml:"autoWrap"`
	HighlightActiveLine bool `json:"highlightActiveLine" yaml:"highlightActiveLine"`
	FontSize            int  `json:"fontSize" yaml:"fontSize"`
}

// TerminalConfig holds remote terminal connection settings
type TerminalConfig struct {
	IP       string `json:"ip" yaml:"ip"`
	Port     int    `json:"port" yaml:"port"`
	Username string `json:"username" yaml:"username"`
	Password string `json:"password" yaml:"password"`
}

// Config is a complete snapshot of the user-configurable settings
type Config struct {
	Explorer ExplorerConfig `json:"explorer" yaml:"explorer"`
	Editor   EditorConfig   `json:"editor" yaml:"editor"`
	Terminal TerminalConfig `json:"terminal" yaml:"terminal"`
}

// Equal reports whether two snapshots are deep-equal.
// All fields are comparable scalars, so struct equality is deep equality.
func (c Config) Equal(other Config) bool {
	return c == other
}

// DefaultConfig returns the configuration a fresh backend starts with
func DefaultConfig() Config {
	return Config{
		Explorer: ExplorerConfig{
			Root:              "C:",
			DisplayHiddenFile: false,
		},
		Editor: EditorConfig{
			LineNumber:          true,
			AutoWrap:            false,
			HighlightActiveLine: true,
			FontSize:            14,
		},
		Terminal: TerminalConfig{
			IP:   "127.0.0.1",
			Port: 22,
		},
	}
}

// UserInfo describes the account the backend runs under
type UserInfo struct {
	Username string `json:"username"`
	Homedir  string `json:"homedir"`
}

// MemoryInfo holds memory totals in bytes
type MemoryInfo struct {
	Total uint64 `json:"total"`
	Free  uint64 `json:"free"`
}

// SysInfo is a single telemetry sample produced by the background sampler
type SysInfo struct {
	System   string     `json:"system"`
	Version  string     `json:"version"`
	Platform string     `json:"platform"`
	Arch     string     `json:"arch"`
	UserInfo UserInfo   `json:"userInfo"`
	Memory   MemoryInfo `json:"memory"`
	CPUUsage float64    `json:"cpuUsage"`
	UpTime   uint64     `json:"upTime"` // seconds
}

// FileContent is the getFileContent response body
type FileContent struct {
	Content string `json:"content"`
	Format  string `json:"format"`
	Err     int    `json:"err,omitempty"`
}

// Missing reports whether the backend flagged the file as absent
func (f *FileContent) Missing() bool {
	return f.Err == NotFoundCode
}

// SaveFileRequest is the saveFileContent request body
type SaveFileRequest struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// ConfigEnvelope wraps a Config for the setConfig/getConfig endpoints
type ConfigEnvelope struct {
	Config Config `json:"config"`
}

// SysInfoRequest is the message sent to a telemetry sampler to start it
type SysInfoRequest struct {
	Type   string `json:"type"`
	APIURL string `json:"apiUrl"`
}

// RequestTypeGetSysInfo is the only sampler request type
const RequestTypeGetSysInfo = "getSysInfo"
