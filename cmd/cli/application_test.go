package cli_test

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	mapstructure "github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/temirov/fieldpatch/cmd/cli"
	"github.com/temirov/fieldpatch/internal/patcher"
)

const (
	testBranchNameConstant      = "main"
	testValuesFileNameConstant  = "values.yaml"
	testValuesContentConstant   = "image:\n  tag: \"1.0.0\"\n"
	testWorkspaceRootEnvName    = "FIELDPATCH_TOOLS_PATCH_WORKSPACE_ROOT"
	testGitExecutableConstant   = "git"
	testRemoteDirectoryConstant = "remote.git"
)

func TestApplicationEmbeddedDefaultsMatchCommandDefaults(testInstance *testing.T) {
	configuration := decodeEmbeddedApplicationConfiguration(testInstance)
	require.Equal(testInstance, "info", configuration.Common.LogLevel)
	require.Equal(testInstance, "structured", configuration.Common.LogFormat)
	require.Equal(testInstance, patcher.DefaultCommandConfiguration(), configuration.Tools.Patch)
}

func TestApplicationEmbeddedDefaultsDeclareEveryPatchKey(testInstance *testing.T) {
	configurationData, _ := cli.EmbeddedDefaultConfiguration()

	var rawConfiguration struct {
		Tools struct {
			Patch map[string]any `yaml:"patch"`
		} `yaml:"tools"`
	}
	require.NoError(testInstance, yaml.Unmarshal(configurationData, &rawConfiguration))

	for configurationKey := range patcher.DefaultConfigurationValues("") {
		require.Contains(testInstance, rawConfiguration.Tools.Patch, configurationKey[1:])
	}

	var patchConfiguration patcher.CommandConfiguration
	decoder, decoderError := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:    "mapstructure",
		DecodeHook: mapstructure.StringToTimeDurationHookFunc(),
		Result:     &patchConfiguration,
	})
	require.NoError(testInstance, decoderError)
	require.NoError(testInstance, decoder.Decode(rawConfiguration.Tools.Patch))
	require.Equal(testInstance, time.Duration(0), patchConfiguration.Timeout)
	require.Equal(testInstance, patcher.DefaultCommitMessage, patchConfiguration.CommitMessage)
}

func TestApplicationPatchCommandUpdatesRemote(testInstance *testing.T) {
	if _, lookupError := exec.LookPath(testGitExecutableConstant); lookupError != nil {
		testInstance.Skip("git binary is required for local remotes")
	}
	remotePath := seedRemoteRepository(testInstance)
	resultFile := filepath.Join(testInstance.TempDir(), "commit.txt")
	testInstance.Setenv(testWorkspaceRootEnvName, testInstance.TempDir())

	originalArguments := os.Args
	defer func() {
		os.Args = originalArguments
	}()
	os.Args = []string{
		"fieldpatch", "patch",
		"--repo-url", remotePath,
		"--branch", testBranchNameConstant,
		"--file", testValuesFileNameConstant,
		"--query-path", ".image.tag",
		"--value", "1.1.0",
		"--git-name", "Deploy Bot",
		"--git-email", "deploy@example.com",
		"--result-file", resultFile,
		"--backend", "embedded",
		"--depth", "0",
	}

	require.NoError(testInstance, cli.NewApplication().Execute())

	recordedHash, readError := os.ReadFile(resultFile)
	require.NoError(testInstance, readError)

	remoteRepository, openError := git.PlainOpen(remotePath)
	require.NoError(testInstance, openError)
	reference, referenceError := remoteRepository.Reference(plumbing.NewBranchReferenceName(testBranchNameConstant), true)
	require.NoError(testInstance, referenceError)
	require.Equal(testInstance, reference.Hash().String(), string(recordedHash))

	commit, commitError := remoteRepository.CommitObject(reference.Hash())
	require.NoError(testInstance, commitError)
	require.Equal(testInstance, patcher.DefaultCommitMessage, commit.Message)
	file, fileError := commit.File(testValuesFileNameConstant)
	require.NoError(testInstance, fileError)
	content, contentError := file.Contents()
	require.NoError(testInstance, contentError)
	require.Equal(testInstance, "image:\n  tag: \"1.1.0\"\n", content)
}

func decodeEmbeddedApplicationConfiguration(testingInstance testing.TB) cli.ApplicationConfiguration {
	testingInstance.Helper()

	configurationData, configurationType := cli.EmbeddedDefaultConfiguration()
	viperInstance := viper.New()
	viperInstance.SetConfigType(configurationType)

	readError := viperInstance.ReadConfig(bytes.NewReader(configurationData))
	require.NoError(testingInstance, readError)

	var configuration cli.ApplicationConfiguration
	unmarshalError := viperInstance.Unmarshal(&configuration)
	require.NoError(testingInstance, unmarshalError)

	return configuration
}

func seedRemoteRepository(testInstance *testing.T) string {
	testInstance.Helper()

	remotePath := filepath.Join(testInstance.TempDir(), testRemoteDirectoryConstant)
	_, initError := git.PlainInit(remotePath, true)
	require.NoError(testInstance, initError)

	seedPath := filepath.Join(testInstance.TempDir(), "seed")
	seedRepository, seedError := git.PlainInit(seedPath, false)
	require.NoError(testInstance, seedError)
	require.NoError(testInstance, os.WriteFile(filepath.Join(seedPath, testValuesFileNameConstant), []byte(testValuesContentConstant), 0o644))

	worktree, worktreeError := seedRepository.Worktree()
	require.NoError(testInstance, worktreeError)
	_, addError := worktree.Add(testValuesFileNameConstant)
	require.NoError(testInstance, addError)

	signature := &object.Signature{Name: "Seed", Email: "seed@example.com", When: time.Now()}
	_, commitError := worktree.Commit("initial", &git.CommitOptions{Author: signature, Committer: signature})
	require.NoError(testInstance, commitError)

	headReference, headError := seedRepository.Head()
	require.NoError(testInstance, headError)
	_, remoteError := seedRepository.CreateRemote(&config.RemoteConfig{Name: "origin", URLs: []string{remotePath}})
	require.NoError(testInstance, remoteError)
	require.NoError(testInstance, seedRepository.Push(&git.PushOptions{
		RemoteName: "origin",
		RefSpecs:   []config.RefSpec{config.RefSpec(headReference.Name().String() + ":" + plumbing.NewBranchReferenceName(testBranchNameConstant).String())},
	}))
	return remotePath
}
