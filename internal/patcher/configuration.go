package patcher

import (
	"strings"
	"time"

	pathutils "github.com/temirov/fieldpatch/internal/utils/path"
)

const (
	configurationKeySeparatorConstant = "."
	repositoryURLConfigurationKey     = "repo_url"
	branchConfigurationKey            = "branch"
	fileConfigurationKey              = "file"
	queryPathConfigurationKey         = "query_path"
	valueConfigurationKey             = "value"
	gitNameConfigurationKey           = "git_name"
	gitEmailConfigurationKey          = "git_email"
	commitMessageConfigurationKey     = "commit_message"
	resultFileConfigurationKey        = "result_file"
	formatConfigurationKey            = "format"
	depthConfigurationKey             = "depth"
	backendConfigurationKey           = "backend"
	workspaceRootConfigurationKey     = "workspace_root"
	keepWorkspaceConfigurationKey     = "keep_workspace"
	timeoutConfigurationKey           = "timeout"
)

const (
	// DefaultCommitMessage is used when no commit message is configured.
	DefaultCommitMessage = "Updating values for deployment"
	// DefaultCloneDepth keeps clones shallow unless configured otherwise.
	DefaultCloneDepth = 1
)

var patchConfigurationHomeExpander = pathutils.NewHomeExpander()

// CommandConfiguration captures the persisted settings of the patch command.
type CommandConfiguration struct {
	RepositoryURL string        `mapstructure:"repo_url"`
	Branch        string        `mapstructure:"branch"`
	FilePath      string        `mapstructure:"file"`
	QueryPath     string        `mapstructure:"query_path"`
	Value         string        `mapstructure:"value"`
	AuthorName    string        `mapstructure:"git_name"`
	AuthorEmail   string        `mapstructure:"git_email"`
	CommitMessage string        `mapstructure:"commit_message"`
	ResultFile    string        `mapstructure:"result_file"`
	Format        string        `mapstructure:"format"`
	Depth         int           `mapstructure:"depth"`
	Backend       string        `mapstructure:"backend"`
	WorkspaceRoot string        `mapstructure:"workspace_root"`
	KeepWorkspace bool          `mapstructure:"keep_workspace"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

// DefaultCommandConfiguration returns baseline values for the patch command.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		CommitMessage: DefaultCommitMessage,
		Depth:         DefaultCloneDepth,
		Backend:       string(BackendCLI),
	}
}

// DefaultConfigurationValues produces Viper defaults for the patch command under rootKey.
// Every key is registered so environment overrides resolve even without a configuration file.
func DefaultConfigurationValues(rootKey string) map[string]any {
	defaults := DefaultCommandConfiguration()
	prefix := rootKey + configurationKeySeparatorConstant
	return map[string]any{
		prefix + repositoryURLConfigurationKey: defaults.RepositoryURL,
		prefix + branchConfigurationKey:        defaults.Branch,
		prefix + fileConfigurationKey:          defaults.FilePath,
		prefix + queryPathConfigurationKey:     defaults.QueryPath,
		prefix + valueConfigurationKey:         defaults.Value,
		prefix + gitNameConfigurationKey:       defaults.AuthorName,
		prefix + gitEmailConfigurationKey:      defaults.AuthorEmail,
		prefix + commitMessageConfigurationKey: defaults.CommitMessage,
		prefix + resultFileConfigurationKey:    defaults.ResultFile,
		prefix + formatConfigurationKey:        defaults.Format,
		prefix + depthConfigurationKey:         defaults.Depth,
		prefix + backendConfigurationKey:       defaults.Backend,
		prefix + workspaceRootConfigurationKey: defaults.WorkspaceRoot,
		prefix + keepWorkspaceConfigurationKey: defaults.KeepWorkspace,
		prefix + timeoutConfigurationKey:       defaults.Timeout,
	}
}

// Sanitize trims configured values, expands home-relative local paths, and restores defaults for blanks.
// The replacement value is kept verbatim.
func (configuration CommandConfiguration) Sanitize() CommandConfiguration {
	sanitized := configuration
	sanitized.RepositoryURL = strings.TrimSpace(configuration.RepositoryURL)
	sanitized.Branch = strings.TrimSpace(configuration.Branch)
	sanitized.FilePath = strings.TrimSpace(configuration.FilePath)
	sanitized.QueryPath = strings.TrimSpace(configuration.QueryPath)
	sanitized.AuthorName = strings.TrimSpace(configuration.AuthorName)
	sanitized.AuthorEmail = strings.TrimSpace(configuration.AuthorEmail)
	sanitized.CommitMessage = strings.TrimSpace(configuration.CommitMessage)
	if len(sanitized.CommitMessage) == 0 {
		sanitized.CommitMessage = DefaultCommitMessage
	}
	sanitized.ResultFile = patchConfigurationHomeExpander.Expand(strings.TrimSpace(configuration.ResultFile))
	sanitized.WorkspaceRoot = patchConfigurationHomeExpander.Expand(strings.TrimSpace(configuration.WorkspaceRoot))
	sanitized.Format = strings.ToLower(strings.TrimSpace(configuration.Format))
	sanitized.Backend = strings.ToLower(strings.TrimSpace(configuration.Backend))
	if len(sanitized.Backend) == 0 {
		sanitized.Backend = string(BackendCLI)
	}
	if sanitized.Depth < 0 {
		sanitized.Depth = 0
	}
	if sanitized.Timeout < 0 {
		sanitized.Timeout = 0
	}
	return sanitized
}
