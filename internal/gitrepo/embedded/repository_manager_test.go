package embedded_test

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/temirov/fieldpatch/internal/gitrepo"
	"github.com/temirov/fieldpatch/internal/gitrepo/embedded"
)

const (
	testBranchNameConstant     = "main"
	testFileNameConstant       = "values.yaml"
	testInitialContentConstant = "app:\n  version: \"1.0.0\"\n"
	testUpdatedContentConstant = "app:\n  version: \"1.1.0\"\n"
	testAuthorNameConstant     = "Deploy Bot"
	testAuthorEmailConstant    = "deploy@example.com"
	testCommitMessageConstant  = "Updating values for deployment"
	testGitExecutableConstant  = "git"
)

func TestRepositoryManagerClonesCommitsAndPushes(testInstance *testing.T) {
	remotePath := seedRemoteRepository(testInstance)
	manager := embedded.NewRepositoryManager(zaptest.NewLogger(testInstance))
	executionContext := context.Background()

	clonePath := cloneBranch(testInstance, manager, remotePath)

	currentBranch, branchError := manager.CurrentBranch(executionContext, clonePath)
	require.NoError(testInstance, branchError)
	require.Equal(testInstance, testBranchNameConstant, currentBranch)

	initialRevision, initialRevisionError := manager.HeadRevision(executionContext, clonePath)
	require.NoError(testInstance, initialRevisionError)
	require.Len(testInstance, initialRevision, 40)

	require.NoError(testInstance, os.WriteFile(filepath.Join(clonePath, testFileNameConstant), []byte(testUpdatedContentConstant), 0o644))
	require.NoError(testInstance, manager.StagePath(executionContext, clonePath, testFileNameConstant))

	hasChanges, stagedError := manager.HasStagedChanges(executionContext, clonePath, testFileNameConstant)
	require.NoError(testInstance, stagedError)
	require.True(testInstance, hasChanges)

	require.NoError(testInstance, manager.Commit(executionContext, gitrepo.CommitOptions{
		RepositoryPath: clonePath,
		Message:        testCommitMessageConstant,
		AuthorName:     testAuthorNameConstant,
		AuthorEmail:    testAuthorEmailConstant,
	}))
	require.NoError(testInstance, manager.PushBranch(executionContext, gitrepo.PushOptions{RepositoryPath: clonePath, Branch: testBranchNameConstant}))

	headRevision, headError := manager.HeadRevision(executionContext, clonePath)
	require.NoError(testInstance, headError)
	require.NotEqual(testInstance, initialRevision, headRevision)
	require.Equal(testInstance, headRevision, remoteBranchRevision(testInstance, remotePath))

	remoteRepository, openError := git.PlainOpen(remotePath)
	require.NoError(testInstance, openError)
	commit, commitError := remoteRepository.CommitObject(plumbing.NewHash(headRevision))
	require.NoError(testInstance, commitError)
	require.Equal(testInstance, testAuthorNameConstant, commit.Author.Name)
	require.Equal(testInstance, testAuthorEmailConstant, commit.Author.Email)
	require.Equal(testInstance, testAuthorNameConstant, commit.Committer.Name)
	require.Equal(testInstance, testAuthorEmailConstant, commit.Committer.Email)
	require.Equal(testInstance, testCommitMessageConstant, commit.Message)
}

func TestRepositoryManagerReportsNoStagedChangesForIdenticalContent(testInstance *testing.T) {
	remotePath := seedRemoteRepository(testInstance)
	manager := embedded.NewRepositoryManager(nil)
	executionContext := context.Background()

	clonePath := cloneBranch(testInstance, manager, remotePath)
	require.NoError(testInstance, os.WriteFile(filepath.Join(clonePath, testFileNameConstant), []byte(testInitialContentConstant), 0o644))
	require.NoError(testInstance, manager.StagePath(executionContext, clonePath, testFileNameConstant))

	hasChanges, stagedError := manager.HasStagedChanges(executionContext, clonePath, testFileNameConstant)
	require.NoError(testInstance, stagedError)
	require.False(testInstance, hasChanges)

	require.NoError(testInstance, manager.PushBranch(executionContext, gitrepo.PushOptions{RepositoryPath: clonePath, Branch: testBranchNameConstant}))
}

func TestRepositoryManagerRejectsNonFastForwardPush(testInstance *testing.T) {
	remotePath := seedRemoteRepository(testInstance)
	manager := embedded.NewRepositoryManager(nil)
	executionContext := context.Background()

	firstClonePath := cloneBranch(testInstance, manager, remotePath)
	secondClonePath := cloneBranch(testInstance, manager, remotePath)

	commitFileChange(testInstance, manager, firstClonePath, testUpdatedContentConstant)
	require.NoError(testInstance, manager.PushBranch(executionContext, gitrepo.PushOptions{RepositoryPath: firstClonePath, Branch: testBranchNameConstant}))
	publishedRevision := remoteBranchRevision(testInstance, remotePath)

	commitFileChange(testInstance, manager, secondClonePath, "app:\n  version: \"2.0.0\"\n")
	pushError := manager.PushBranch(executionContext, gitrepo.PushOptions{RepositoryPath: secondClonePath, Branch: testBranchNameConstant})
	require.Error(testInstance, pushError)
	require.Equal(testInstance, publishedRevision, remoteBranchRevision(testInstance, remotePath))
}

func TestRepositoryManagerFailsForMissingBranch(testInstance *testing.T) {
	remotePath := seedRemoteRepository(testInstance)
	manager := embedded.NewRepositoryManager(nil)

	cloneError := manager.CloneBranch(context.Background(), gitrepo.CloneOptions{
		RepositoryURL:   remotePath,
		Branch:          "release",
		DestinationPath: filepath.Join(testInstance.TempDir(), "clone"),
	})
	require.Error(testInstance, cloneError)
}

func TestRepositoryManagerValidatesArguments(testInstance *testing.T) {
	manager := embedded.NewRepositoryManager(nil)
	executionContext := context.Background()

	testCases := []struct {
		name              string
		operation         func() error
		expectedFieldName string
	}{
		{
			name: "clone_without_url",
			operation: func() error {
				return manager.CloneBranch(executionContext, gitrepo.CloneOptions{Branch: "main", DestinationPath: "/tmp/clone"})
			},
			expectedFieldName: "repository_url",
		},
		{
			name: "clone_with_negative_depth",
			operation: func() error {
				return manager.CloneBranch(executionContext, gitrepo.CloneOptions{RepositoryURL: "/srv/git/config.git", Branch: "main", DestinationPath: "/tmp/clone", Depth: -1})
			},
			expectedFieldName: "depth",
		},
		{
			name: "stage_without_path",
			operation: func() error {
				return manager.StagePath(executionContext, "/tmp/clone", " ")
			},
			expectedFieldName: "relative_path",
		},
		{
			name: "commit_without_author",
			operation: func() error {
				return manager.Commit(executionContext, gitrepo.CommitOptions{RepositoryPath: "/tmp/clone", Message: "message"})
			},
			expectedFieldName: "author_name",
		},
		{
			name: "push_without_branch",
			operation: func() error {
				return manager.PushBranch(executionContext, gitrepo.PushOptions{RepositoryPath: "/tmp/clone"})
			},
			expectedFieldName: "branch",
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			var inputError gitrepo.InvalidInputError
			require.True(testInstance, errors.As(testCase.operation(), &inputError))
			require.Equal(testInstance, testCase.expectedFieldName, inputError.FieldName)
		})
	}
}

func requireGitBinary(testInstance *testing.T) {
	testInstance.Helper()
	if _, lookupError := exec.LookPath(testGitExecutableConstant); lookupError != nil {
		testInstance.Skip("git binary is required for the local file transport")
	}
}

// seedRemoteRepository creates a bare repository whose main branch holds the initial values file.
func seedRemoteRepository(testInstance *testing.T) string {
	testInstance.Helper()
	requireGitBinary(testInstance)

	remotePath := filepath.Join(testInstance.TempDir(), "remote.git")
	_, initError := git.PlainInit(remotePath, true)
	require.NoError(testInstance, initError)

	seedPath := filepath.Join(testInstance.TempDir(), "seed")
	seedRepository, seedError := git.PlainInit(seedPath, false)
	require.NoError(testInstance, seedError)
	require.NoError(testInstance, os.WriteFile(filepath.Join(seedPath, testFileNameConstant), []byte(testInitialContentConstant), 0o644))

	worktree, worktreeError := seedRepository.Worktree()
	require.NoError(testInstance, worktreeError)
	_, addError := worktree.Add(testFileNameConstant)
	require.NoError(testInstance, addError)

	signature := &object.Signature{Name: "Seed", Email: "seed@example.com", When: time.Now()}
	_, commitError := worktree.Commit("initial", &git.CommitOptions{Author: signature, Committer: signature})
	require.NoError(testInstance, commitError)

	headReference, headError := seedRepository.Head()
	require.NoError(testInstance, headError)

	_, remoteError := seedRepository.CreateRemote(&config.RemoteConfig{Name: gitrepo.DefaultRemoteName, URLs: []string{remotePath}})
	require.NoError(testInstance, remoteError)
	require.NoError(testInstance, seedRepository.Push(&git.PushOptions{
		RemoteName: gitrepo.DefaultRemoteName,
		RefSpecs:   []config.RefSpec{config.RefSpec(headReference.Name().String() + ":" + plumbing.NewBranchReferenceName(testBranchNameConstant).String())},
	}))
	return remotePath
}

func cloneBranch(testInstance *testing.T, manager *embedded.RepositoryManager, remotePath string) string {
	testInstance.Helper()
	clonePath := filepath.Join(testInstance.TempDir(), "clone")
	require.NoError(testInstance, manager.CloneBranch(context.Background(), gitrepo.CloneOptions{
		RepositoryURL:   remotePath,
		Branch:          testBranchNameConstant,
		DestinationPath: clonePath,
	}))
	return clonePath
}

func commitFileChange(testInstance *testing.T, manager *embedded.RepositoryManager, clonePath string, content string) {
	testInstance.Helper()
	executionContext := context.Background()
	require.NoError(testInstance, os.WriteFile(filepath.Join(clonePath, testFileNameConstant), []byte(content), 0o644))
	require.NoError(testInstance, manager.StagePath(executionContext, clonePath, testFileNameConstant))
	require.NoError(testInstance, manager.Commit(executionContext, gitrepo.CommitOptions{
		RepositoryPath: clonePath,
		Message:        testCommitMessageConstant,
		AuthorName:     testAuthorNameConstant,
		AuthorEmail:    testAuthorEmailConstant,
	}))
}

func remoteBranchRevision(testInstance *testing.T, remotePath string) string {
	testInstance.Helper()
	remoteRepository, openError := git.PlainOpen(remotePath)
	require.NoError(testInstance, openError)
	reference, referenceError := remoteRepository.Reference(plumbing.NewBranchReferenceName(testBranchNameConstant), true)
	require.NoError(testInstance, referenceError)
	return reference.Hash().String()
}
