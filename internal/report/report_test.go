package report

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/samartsevigor/change-analyzer/internal/declaration"
	"github.com/samartsevigor/change-analyzer/internal/diff"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForAddedFile(t *testing.T) {
	t.Parallel()

	head := declaration.Catalog{
		{Name: "Oracle", Kind: declaration.KindContract, Members: []declaration.Member{{Name: "price"}}},
		{Name: "IFeed", Kind: declaration.KindInterface, Members: []declaration.Member{}},
	}

	r := ForAddedFile("contracts/Oracle.sol", head)
	require.NotNil(t, r)
	assert.Equal(t, StatusAdded, r.Status)
	assert.Equal(t, []ContractSummary{
		{Name: "Oracle", Kind: declaration.KindContract, Methods: []string{"price"}},
		{Name: "IFeed", Kind: declaration.KindInterface, Methods: []string{}},
	}, r.Contracts)
}

func TestForAddedFile_EmptyCatalog(t *testing.T) {
	t.Parallel()

	r := ForAddedFile("Empty.sol", nil)
	require.NotNil(t, r)
	assert.Empty(t, r.Contracts)
}

func TestForModifiedFile(t *testing.T) {
	t.Parallel()

	changes := []diff.MemberChange{
		{Contract: "Vault", ContractKind: declaration.KindContract, Member: "withdraw", Status: diff.StatusModified},
		{Contract: "Vault", ContractKind: declaration.KindContract, Member: "sweep", Status: diff.StatusAdded},
		{Contract: "Vault", ContractKind: declaration.KindContract, Member: "deposit", Status: diff.StatusModified},
		{Contract: "Pausable", ContractKind: declaration.KindContract, Member: "pause", Status: diff.StatusDeleted},
		{Contract: "MathLib", ContractKind: declaration.KindLibrary, Member: "add", Status: diff.StatusModified},
	}

	r := ForModifiedFile("Vault.sol", changes)
	require.NotNil(t, r)
	assert.Equal(t, StatusModified, r.Status)
	assert.Equal(t, []ContractSummary{
		{Name: "Vault", Kind: declaration.KindContract, Methods: []string{"withdraw", "deposit"}},
		{Name: "MathLib", Kind: declaration.KindLibrary, Methods: []string{"add"}},
	}, r.Contracts)
}

func TestForModifiedFile_OnlyAddedOrDeleted(t *testing.T) {
	t.Parallel()

	changes := []diff.MemberChange{
		{Contract: "Vault", ContractKind: declaration.KindContract, Member: "pause", Status: diff.StatusDeleted},
		{Contract: "Vault", ContractKind: declaration.KindContract, Member: "resume", Status: diff.StatusAdded},
	}

	assert.Nil(t, ForModifiedFile("Vault.sol", changes))
	assert.Nil(t, ForModifiedFile("Vault.sol", nil))
}

func TestEncode_WireShape(t *testing.T) {
	t.Parallel()

	reports := []FileReport{{
		File:   "contracts/Vault.sol",
		Status: StatusModified,
		Contracts: []ContractSummary{
			{Name: "Vault", Kind: declaration.KindContract, Methods: []string{"withdraw"}},
		},
	}}

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, reports))

	expected := `[
  {
    "file": "contracts/Vault.sol",
    "status": "M",
    "contracts": [
      {
        "name": "Vault",
        "type": "contract",
        "methods": [
          "withdraw"
        ]
      }
    ]
  }
]
`
	assert.Equal(t, expected, buf.String())
}

func TestEncode_Empty(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, nil))
	assert.Equal(t, "[]\n", buf.String())
}

func TestWrite(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out", "changed_declarations.json")
	reports := []FileReport{*ForAddedFile("A.sol", declaration.Catalog{
		{Name: "A", Kind: declaration.KindContract, Members: []declaration.Member{{Name: "f"}}},
	})}

	require.NoError(t, Write(path, reports))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded []FileReport
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, reports, decoded)
}
