package git

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Integration tests for both Operations backends against a real repository.
// These tests use actual git commands and run sequentially (NO t.Parallel()).

const vaultV1 = `contract Vault {
    function deposit() external {
        total += 1;
    }
}
`

const vaultV2 = `contract Vault {
    function deposit() external {
        total += 2;
    }
}
`

func TestOperationsIntegration(t *testing.T) {
	// NO t.Parallel() - these tests run sequentially to avoid resource exhaustion
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}

	dir := createChangeRepo(t)
	ctx := context.Background()

	exe := NewOperations(dir)
	inproc, err := OpenRepository(dir)
	require.NoError(t, err)

	backends := map[string]Operations{"exec": exe, "gogit": inproc}
	for name, ops := range backends {
		t.Run(name+" ChangedFiles keeps added and modified", func(t *testing.T) {
			files, err := ops.ChangedFiles(ctx, "base", "head")
			require.NoError(t, err)
			assert.ElementsMatch(t, []ChangedFile{
				{Status: StatusModified, Path: "contracts/Vault.sol"},
				{Status: StatusAdded, Path: "contracts/Oracle.sol"},
			}, files)
		})

		t.Run(name+" Content at revision", func(t *testing.T) {
			content, err := ops.Content(ctx, "base", "contracts/Vault.sol")
			require.NoError(t, err)
			assert.Equal(t, vaultV1, string(content))

			content, err = ops.Content(ctx, "head", "contracts/Vault.sol")
			require.NoError(t, err)
			assert.Equal(t, vaultV2, string(content))
		})

		t.Run(name+" Content missing path", func(t *testing.T) {
			_, err := ops.Content(ctx, "base", "contracts/Oracle.sol")
			assert.ErrorIs(t, err, ErrNotFound)
		})

		t.Run(name+" ChangedLines", func(t *testing.T) {
			ranges, err := ops.ChangedLines(ctx, "base", "head", "contracts/Vault.sol")
			require.NoError(t, err)
			assert.Equal(t, []LineRange{{Start: 3, End: 3}}, ranges)
		})
	}

	t.Run("exec working tree", func(t *testing.T) {
		path := filepath.Join(dir, "contracts", "Vault.sol")
		require.NoError(t, os.WriteFile(path, []byte(vaultV1), 0644))
		t.Cleanup(func() { runGitCmd(t, dir, "checkout", "--", "contracts/Vault.sol") })

		files, err := exe.ChangedFiles(ctx, "head", WorkingTree)
		require.NoError(t, err)
		assert.Equal(t, []ChangedFile{{Status: StatusModified, Path: "contracts/Vault.sol"}}, files)

		content, err := exe.Content(ctx, WorkingTree, "contracts/Vault.sol")
		require.NoError(t, err)
		assert.Equal(t, vaultV1, string(content))

		_, err = exe.Content(ctx, WorkingTree, "contracts/Missing.sol")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("gogit rejects working tree", func(t *testing.T) {
		_, err := inproc.ChangedFiles(ctx, "head", WorkingTree)
		assert.ErrorIs(t, err, ErrWorkingTreeUnsupported)

		_, err = inproc.Content(ctx, WorkingTree, "contracts/Vault.sol")
		assert.ErrorIs(t, err, ErrWorkingTreeUnsupported)
	})

	t.Run("exec unknown revision fails listing", func(t *testing.T) {
		_, err := exe.ChangedFiles(ctx, "no-such-ref", "head")
		assert.Error(t, err)
	})

	t.Run("OpenRepository outside a repository", func(t *testing.T) {
		_, err := OpenRepository(t.TempDir())
		assert.Error(t, err)
	})
}

// Test helpers

// createChangeRepo builds a repository with tags base and head. Between them
// Vault.sol is modified, Oracle.sol is added and README.md is deleted.
func createChangeRepo(t *testing.T) string {
	t.Helper()
	dir := createTestGitRepo(t)

	writeFile(t, dir, "contracts/Vault.sol", vaultV1)
	runGitCmd(t, dir, "add", ".")
	runGitCmd(t, dir, "commit", "-m", "Add vault")
	runGitCmd(t, dir, "tag", "base")

	writeFile(t, dir, "contracts/Vault.sol", vaultV2)
	writeFile(t, dir, "contracts/Oracle.sol", "interface Oracle {\n    function price() external view returns (uint256);\n}\n")
	runGitCmd(t, dir, "rm", "-q", "README.md")
	runGitCmd(t, dir, "add", ".")
	runGitCmd(t, dir, "commit", "-m", "Change vault")
	runGitCmd(t, dir, "tag", "head")

	return dir
}

func createTestGitRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	// Initialize repo
	cmd := exec.Command("git", "init", "-b", "main")
	cmd.Dir = dir
	require.NoError(t, cmd.Run(), "git init failed")

	// Configure git identity
	runGitCmd(t, dir, "config", "user.email", "test@example.com")
	runGitCmd(t, dir, "config", "user.name", "Test User")

	// Create initial commit
	testFile := filepath.Join(dir, "README.md")
	require.NoError(t, os.WriteFile(testFile, []byte("# Test\n"), 0644))
	runGitCmd(t, dir, "add", "README.md")
	runGitCmd(t, dir, "commit", "-m", "Initial commit")

	return dir
}

func writeFile(t *testing.T, dir, rel, content string) {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func runGitCmd(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "git %v failed: %s", args, string(output))
}
