package patcher

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/fieldpatch/internal/credentials"
	"github.com/temirov/fieldpatch/internal/document"
	"github.com/temirov/fieldpatch/internal/execshell"
	"github.com/temirov/fieldpatch/internal/gitrepo"
	flagutils "github.com/temirov/fieldpatch/internal/utils/flags"
)

const (
	commandUseConstant                    = "patch"
	commandShortDescriptionConstant       = "Set one field in a repository file, commit, and push"
	commandLongDescriptionConstant        = "patch clones a branch, sets the value addressed by a query path in a YAML or JSON file, commits the change with the supplied identity, and pushes it back to the same branch. A value that is already in place is reported as unchanged and still succeeds."
	commandExecutionErrorTemplateConstant = "patch failed: %w"
	unexpectedArgumentsMessageConstant    = "patch does not accept positional arguments"
	resultFileWriteErrorTemplateConstant  = "unable to write result file %s: %w"
	credentialsErrorTemplateConstant      = "unable to resolve credentials: %w"
	resultLineTemplateConstant            = "%s: %s@%s %s\n"
	patchedStatusConstant                 = "PATCHED"
	unchangedStatusConstant               = "UNCHANGED"
	resultFilePermissionsConstant         = 0o644
	repoURLFlagNameConstant               = "repo-url"
	repoURLFlagUsageConstant              = "Repository to clone and push to"
	branchFlagNameConstant                = "branch"
	branchFlagUsageConstant               = "Existing branch to check out and push to"
	fileFlagNameConstant                  = "file"
	fileFlagUsageConstant                 = "Target file relative to the repository root"
	queryPathFlagNameConstant             = "query-path"
	queryPathFlagUsageConstant            = "Path of the field to set, for example .image.tag"
	valueFlagNameConstant                 = "value"
	valueFlagUsageConstant                = "Replacement value, written as a string"
	gitNameFlagNameConstant               = "git-name"
	gitNameFlagUsageConstant              = "Commit author and committer name"
	gitEmailFlagNameConstant              = "git-email"
	gitEmailFlagUsageConstant             = "Commit author and committer email"
	commitMessageFlagNameConstant         = "commit-message"
	commitMessageFlagUsageConstant        = "Commit message"
	resultFileFlagNameConstant            = "result-file"
	resultFileFlagUsageConstant           = "File receiving the resulting commit hash"
	formatFlagNameConstant                = "format"
	formatFlagUsageConstant               = "Document format; detected from the file extension when empty"
	depthFlagNameConstant                 = "depth"
	depthFlagUsageConstant                = "Clone depth; 0 clones the full history"
	backendFlagNameConstant               = "backend"
	backendFlagUsageConstant              = "Git implementation"
	keepWorkspaceFlagNameConstant         = "keep-workspace"
	keepWorkspaceFlagUsageConstant        = "Leave the clone on disk after the run"
)

var (
	errUnexpectedArguments = errors.New(unexpectedArgumentsMessageConstant)
	supportedFormatNames   = []string{string(document.FormatYAML), string(document.FormatJSON)}
)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// CredentialsProvider resolves the git credentials of an invocation.
type CredentialsProvider func(executionContext context.Context) (credentials.Credentials, error)

// ServiceProvider constructs the patch service from its dependencies.
type ServiceProvider func(dependencies ServiceDependencies) (PatchExecutor, error)

// PatchExecutor applies patch requests.
type PatchExecutor interface {
	Apply(executionContext context.Context, request PatchRequest) (PatchResult, error)
}

// CommandBuilder assembles the patch command.
type CommandBuilder struct {
	LoggerProvider               LoggerProvider
	ConfigurationProvider        func() CommandConfiguration
	CredentialsProvider          CredentialsProvider
	BackendResolver              BackendResolver
	ServiceProvider              ServiceProvider
	CommandEventObserverProvider func() execshell.CommandEventObserver
}

// Build constructs the patch command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   commandUseConstant,
		Short: commandShortDescriptionConstant,
		Long:  commandLongDescriptionConstant,
		RunE:  builder.run,
	}

	defaults := DefaultCommandConfiguration()
	command.Flags().String(repoURLFlagNameConstant, "", repoURLFlagUsageConstant)
	command.Flags().String(branchFlagNameConstant, "", branchFlagUsageConstant)
	command.Flags().String(fileFlagNameConstant, "", fileFlagUsageConstant)
	command.Flags().String(queryPathFlagNameConstant, "", queryPathFlagUsageConstant)
	command.Flags().String(valueFlagNameConstant, "", valueFlagUsageConstant)
	command.Flags().String(gitNameFlagNameConstant, "", gitNameFlagUsageConstant)
	command.Flags().String(gitEmailFlagNameConstant, "", gitEmailFlagUsageConstant)
	command.Flags().String(commitMessageFlagNameConstant, "", commitMessageFlagUsageConstant)
	command.Flags().String(resultFileFlagNameConstant, "", resultFileFlagUsageConstant)
	command.Flags().String(formatFlagNameConstant, "", flagutils.FormatChoiceUsage("", supportedFormatNames, formatFlagUsageConstant))
	command.Flags().Int(depthFlagNameConstant, defaults.Depth, depthFlagUsageConstant)
	command.Flags().String(backendFlagNameConstant, "", flagutils.FormatChoiceUsage(defaults.Backend, SupportedBackendKinds, backendFlagUsageConstant))
	flagutils.AddToggleFlag(command.Flags(), nil, keepWorkspaceFlagNameConstant, defaults.KeepWorkspace, keepWorkspaceFlagUsageConstant)

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	if len(arguments) > 0 {
		return errUnexpectedArguments
	}

	configuration, configurationError := builder.resolveOptions(command)
	if configurationError != nil {
		return configurationError
	}

	backendKind, backendError := ParseBackendKind(configuration.Backend)
	if backendError != nil {
		return backendError
	}

	executionContext := command.Context()
	if executionContext == nil {
		executionContext = context.Background()
	}
	if configuration.Timeout > 0 {
		var cancel context.CancelFunc
		executionContext, cancel = context.WithTimeout(executionContext, configuration.Timeout)
		defer cancel()
	}

	basicCredentials, credentialsError := builder.resolveCredentials(executionContext)
	if credentialsError != nil {
		return credentialsError
	}

	logger := builder.resolveLogger()
	backend, resolveError := builder.resolveBackendResolver().Resolve(logger, backendKind)
	if resolveError != nil {
		return resolveError
	}

	service, serviceError := builder.resolveService(ServiceDependencies{
		Logger:        logger,
		GitBackend:    backend,
		Credentials:   basicCredentials,
		WorkspaceRoot: configuration.WorkspaceRoot,
		KeepWorkspace: configuration.KeepWorkspace,
	})
	if serviceError != nil {
		return serviceError
	}

	result, applyError := service.Apply(executionContext, PatchRequest{
		RepositoryURL: configuration.RepositoryURL,
		Branch:        configuration.Branch,
		FilePath:      configuration.FilePath,
		QueryPath:     configuration.QueryPath,
		NewValue:      configuration.Value,
		AuthorName:    configuration.AuthorName,
		AuthorEmail:   configuration.AuthorEmail,
		CommitMessage: configuration.CommitMessage,
		Format:        configuration.Format,
		Depth:         configuration.Depth,
	})
	if applyError != nil {
		return fmt.Errorf(commandExecutionErrorTemplateConstant, applyError)
	}

	if len(configuration.ResultFile) > 0 {
		if writeError := os.WriteFile(configuration.ResultFile, []byte(result.CommitHash), resultFilePermissionsConstant); writeError != nil {
			return fmt.Errorf(resultFileWriteErrorTemplateConstant, configuration.ResultFile, writeError)
		}
	}

	status := unchangedStatusConstant
	if result.Committed {
		status = patchedStatusConstant
	}
	fmt.Fprintf(command.OutOrStdout(), resultLineTemplateConstant, status, gitrepo.DescribeRepository(configuration.RepositoryURL), configuration.Branch, result.CommitHash)
	return nil
}

// resolveOptions overlays explicitly provided flags on the configured values.
func (builder *CommandBuilder) resolveOptions(command *cobra.Command) (CommandConfiguration, error) {
	configuration := DefaultCommandConfiguration()
	if builder.ConfigurationProvider != nil {
		configuration = builder.ConfigurationProvider()
	}

	stringTargets := []struct {
		flagName string
		target   *string
	}{
		{flagName: repoURLFlagNameConstant, target: &configuration.RepositoryURL},
		{flagName: branchFlagNameConstant, target: &configuration.Branch},
		{flagName: fileFlagNameConstant, target: &configuration.FilePath},
		{flagName: queryPathFlagNameConstant, target: &configuration.QueryPath},
		{flagName: valueFlagNameConstant, target: &configuration.Value},
		{flagName: gitNameFlagNameConstant, target: &configuration.AuthorName},
		{flagName: gitEmailFlagNameConstant, target: &configuration.AuthorEmail},
		{flagName: commitMessageFlagNameConstant, target: &configuration.CommitMessage},
		{flagName: resultFileFlagNameConstant, target: &configuration.ResultFile},
		{flagName: formatFlagNameConstant, target: &configuration.Format},
		{flagName: backendFlagNameConstant, target: &configuration.Backend},
	}
	for _, stringTarget := range stringTargets {
		if !command.Flags().Changed(stringTarget.flagName) {
			continue
		}
		flagValue, flagError := command.Flags().GetString(stringTarget.flagName)
		if flagError != nil {
			return CommandConfiguration{}, flagError
		}
		*stringTarget.target = flagValue
	}

	if command.Flags().Changed(depthFlagNameConstant) {
		depthValue, depthError := command.Flags().GetInt(depthFlagNameConstant)
		if depthError != nil {
			return CommandConfiguration{}, depthError
		}
		if depthValue < 0 {
			return CommandConfiguration{}, InvalidRequestError{FieldName: depthFieldNameConstant, Message: negativeDepthMessageConstant}
		}
		configuration.Depth = depthValue
	}

	if command.Flags().Changed(keepWorkspaceFlagNameConstant) {
		keepWorkspaceValue, keepWorkspaceError := command.Flags().GetBool(keepWorkspaceFlagNameConstant)
		if keepWorkspaceError != nil {
			return CommandConfiguration{}, keepWorkspaceError
		}
		configuration.KeepWorkspace = keepWorkspaceValue
	}

	return configuration.Sanitize(), nil
}

func (builder *CommandBuilder) resolveCredentials(executionContext context.Context) (gitrepo.BasicCredentials, error) {
	provider := builder.CredentialsProvider
	if provider == nil {
		provider = credentials.FromEnvironment
	}
	resolvedCredentials, credentialsError := provider(executionContext)
	if credentialsError != nil {
		return gitrepo.BasicCredentials{}, fmt.Errorf(credentialsErrorTemplateConstant, credentialsError)
	}
	return resolvedCredentials.BasicAuth(), nil
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}

	logger := builder.LoggerProvider()
	if logger == nil {
		return zap.NewNop()
	}

	return logger
}

func (builder *CommandBuilder) resolveBackendResolver() BackendResolver {
	if builder.BackendResolver != nil {
		return builder.BackendResolver
	}
	resolver := DefaultBackendResolver{}
	if builder.CommandEventObserverProvider != nil {
		resolver.CommandEventObserver = builder.CommandEventObserverProvider()
	}
	return resolver
}

func (builder *CommandBuilder) resolveService(dependencies ServiceDependencies) (PatchExecutor, error) {
	if builder.ServiceProvider != nil {
		return builder.ServiceProvider(dependencies)
	}
	service, serviceError := NewService(dependencies)
	if serviceError != nil {
		return nil, serviceError
	}
	return service, nil
}
