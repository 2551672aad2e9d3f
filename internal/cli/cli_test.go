package cli

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/samartsevigor/change-analyzer/internal/config"
	"github.com/samartsevigor/change-analyzer/internal/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for CLI commands:
// - analyze <base> <head> writes the report file and prints it with --stdout
// - Both git backends produce the same report
// - Ignored files and formatting-only edits are not reported
// - --strategy lines reports members whose lines changed, even cosmetically
// - analyze <base> compares the working tree
// - --output is resolved against the project root
// - Invalid flag values fail before any analysis
// - upload sends the project, minus ignored paths and the report file, and requires an endpoint
// - version prints build information
//
// The commands share cobra's global state, so these tests do not run in parallel.

const vaultV1 = `contract Vault {
    uint256 public total;

    function withdraw(uint256 x) public returns (uint256) {
        return x;
    }

    function pause() external {
        total = 0;
    }
}
`

const vaultV2 = `contract Vault {
    uint256 public total;

    function withdraw(uint256 x) public returns (uint256) {
        return x + 1;
    }

    function pause() external {
        total = 0;
    }
}
`

const tokenV1 = `contract Token {
    uint256 supply;

    function mint() public {
        supply = 1;
    }
}
`

const tokenCommented = `contract Token {
    uint256 supply;

    function mint() public {
        supply = 1; // first mint only
    }
}
`

const oracleV1 = `interface IPriceFeed {
    function latest() external view returns (uint256);
}

contract Oracle {
    function price() external view returns (uint256) {
        return 42;
    }
}
`

// createProject builds a repository tagged base and head:
// Vault.withdraw changes, Token gains a comment, Oracle.sol is new and a
// test file changes under an ignored directory.
func createProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	initGitRepo(t, dir)

	commitFiles(t, dir, "base", map[string]string{
		"contracts/Vault.sol": vaultV1,
		"contracts/Token.sol": tokenV1,
		"test/Vault.t.sol":    "contract VaultTest {\n    function testWithdraw() public {}\n}\n",
		"README.md":           "# Vault\n",
	})
	commitFiles(t, dir, "head", map[string]string{
		"contracts/Vault.sol":  vaultV2,
		"contracts/Token.sol":  tokenCommented,
		"contracts/Oracle.sol": oracleV1,
		"test/Vault.t.sol":     "contract VaultTest {\n    function testWithdraw() public { assert(true); }\n}\n",
	})
	return dir
}

func readReport(t *testing.T, path string) []report.FileReport {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var reports []report.FileReport
	require.NoError(t, json.Unmarshal(data, &reports))
	return reports
}

// summarize flattens reports to "file status name:methods" lines.
func summarize(reports []report.FileReport) []string {
	var out []string
	for _, r := range reports {
		for _, c := range r.Contracts {
			out = append(out, r.File+" "+string(r.Status)+" "+c.Name+":"+strings.Join(c.Methods, ","))
		}
	}
	return out
}

func TestAnalyzeCommand(t *testing.T) {
	dir := createProject(t)

	for _, backend := range []string{config.BackendExec, config.BackendGoGit} {
		t.Run(backend, func(t *testing.T) {
			stdout, err := executeCommand(t, "analyze", "base", "head",
				"--project", dir, "--backend", backend, "--quiet", "--stdout")
			require.NoError(t, err)

			want := []string{
				"contracts/Oracle.sol A IPriceFeed:latest",
				"contracts/Oracle.sol A Oracle:price",
				"contracts/Vault.sol M Vault:withdraw",
			}
			assert.ElementsMatch(t, want, summarize(readReport(t, filepath.Join(dir, config.Default().Output.Path))))

			var printed []report.FileReport
			require.NoError(t, json.Unmarshal([]byte(stdout), &printed))
			assert.ElementsMatch(t, want, summarize(printed))
		})
	}
}

func TestAnalyzeCommand_LineStrategy(t *testing.T) {
	dir := createProject(t)

	_, err := executeCommand(t, "analyze", "base", "head", "--project", dir, "--strategy", "lines", "--quiet")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"contracts/Oracle.sol A IPriceFeed:latest",
		"contracts/Oracle.sol A Oracle:price",
		"contracts/Token.sol M Token:mint",
		"contracts/Vault.sol M Vault:withdraw",
	}, summarize(readReport(t, filepath.Join(dir, config.Default().Output.Path))))
}

func TestAnalyzeCommand_WorkingTree(t *testing.T) {
	dir := t.TempDir()
	initGitRepo(t, dir)
	commitFiles(t, dir, "base", map[string]string{"contracts/Vault.sol": vaultV1})
	writeProjectFile(t, dir, "contracts/Vault.sol", vaultV2)

	_, err := executeCommand(t, "analyze", "base", "--project", dir, "--output", "reports/out.json", "--quiet")
	require.NoError(t, err)

	assert.Equal(t, []string{"contracts/Vault.sol M Vault:withdraw"},
		summarize(readReport(t, filepath.Join(dir, "reports", "out.json"))))
}

func TestAnalyzeCommand_NothingChanged(t *testing.T) {
	dir := t.TempDir()
	initGitRepo(t, dir)
	commitFiles(t, dir, "base", map[string]string{"contracts/Vault.sol": vaultV1})

	_, err := executeCommand(t, "analyze", "base", "base", "--project", dir, "--quiet")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, config.Default().Output.Path))
	require.NoError(t, err)
	assert.JSONEq(t, "[]", string(data))
}

func TestAnalyzeCommand_InvalidInput(t *testing.T) {
	dir := createProject(t)

	_, err := executeCommand(t, "analyze", "base", "head", "--project", dir, "--strategy", "semantic")
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrInvalidStrategy)

	_, err = executeCommand(t, "analyze", "no-such-tag", "head", "--project", dir, "--quiet")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "analysis failed")

	_, err = executeCommand(t, "analyze", "base", "--project", filepath.Join(dir, "missing"))
	assert.Error(t, err)

	_, err = executeCommand(t, "analyze")
	assert.Error(t, err)
}

func TestUploadCommand(t *testing.T) {
	dir := createProject(t)

	var requests atomic.Int32
	var authorization atomic.Value
	var archived atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		authorization.Store(r.Header.Get("Authorization"))
		archived.Store(archiveEntries(r))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	stdout, err := executeCommand(t, "upload", "base", "head",
		"--project", dir, "--endpoint", srv.URL, "--token", "s3cret")
	require.NoError(t, err)

	assert.Contains(t, stdout, "Uploaded run")
	assert.Equal(t, int32(1), requests.Load())
	assert.Equal(t, "Bearer s3cret", authorization.Load())
	assert.FileExists(t, filepath.Join(dir, config.Default().Output.Path))

	names := archived.Load().([]string)
	assert.Contains(t, names, "contracts/Vault.sol")
	assert.NotContains(t, names, config.Default().Output.Path)
	assert.NotContains(t, names, "test/Vault.t.sol")
}

// archiveEntries lists the entry names of the uploaded archive part.
func archiveEntries(r *http.Request) []string {
	names := []string{}
	file, _, err := r.FormFile("archive")
	if err != nil {
		return names
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return names
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return names
	}
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	return names
}

func TestUploadCommand_RequiresEndpoint(t *testing.T) {
	dir := createProject(t)

	_, err := executeCommand(t, "upload", "base", "head", "--project", dir)
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrEmptyEndpoint)
}

func TestVersionCommand(t *testing.T) {
	stdout, err := executeCommand(t, "version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "change-analyzer "+Version)
}
