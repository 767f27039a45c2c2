package patcher

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/fieldpatch/internal/execshell"
	"github.com/temirov/fieldpatch/internal/gitrepo"
	"github.com/temirov/fieldpatch/internal/gitrepo/embedded"
)

const (
	unsupportedBackendTemplateConstant = "unsupported git backend %q"
)

// BackendKind selects how git operations are performed.
type BackendKind string

// Supported backends.
const (
	BackendCLI      BackendKind = BackendKind("cli")
	BackendEmbedded BackendKind = BackendKind("embedded")
)

// SupportedBackendKinds lists the accepted backend names, default first.
var SupportedBackendKinds = []string{string(BackendCLI), string(BackendEmbedded)}

// ParseBackendKind converts a configured backend name; empty selects the cli backend.
func ParseBackendKind(value string) (BackendKind, error) {
	switch BackendKind(strings.ToLower(strings.TrimSpace(value))) {
	case "", BackendCLI:
		return BackendCLI, nil
	case BackendEmbedded:
		return BackendEmbedded, nil
	default:
		return "", InvalidRequestError{FieldName: backendFieldNameConstant, Message: fmt.Sprintf(unsupportedBackendTemplateConstant, value)}
	}
}

// BackendResolver constructs the git backend used by a command invocation.
type BackendResolver interface {
	Resolve(logger *zap.Logger, kind BackendKind) (GitBackend, error)
}

// DefaultBackendResolver builds the cli backend on top of a shell executor and the embedded backend on go-git.
type DefaultBackendResolver struct {
	CommandRunner        execshell.CommandRunner
	CommandEventObserver execshell.CommandEventObserver
}

// Resolve returns the backend for kind.
func (resolver DefaultBackendResolver) Resolve(logger *zap.Logger, kind BackendKind) (GitBackend, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	switch kind {
	case BackendEmbedded:
		return embedded.NewRepositoryManager(logger), nil
	case BackendCLI, "":
		commandRunner := resolver.CommandRunner
		if commandRunner == nil {
			commandRunner = execshell.NewOSCommandRunner()
		}
		shellExecutor, executorError := execshell.NewShellExecutor(logger, commandRunner, execshell.WithCommandEventObserver(resolver.CommandEventObserver))
		if executorError != nil {
			return nil, executorError
		}
		repositoryManager, managerError := gitrepo.NewRepositoryManager(shellExecutor)
		if managerError != nil {
			return nil, managerError
		}
		return repositoryManager, nil
	default:
		return nil, InvalidRequestError{FieldName: backendFieldNameConstant, Message: fmt.Sprintf(unsupportedBackendTemplateConstant, kind)}
	}
}
