package git

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHunks(t *testing.T) {
	t.Parallel()

	output := `diff --git a/Vault.sol b/Vault.sol
index 1111111..2222222 100644
--- a/Vault.sol
+++ b/Vault.sol
@@ -5 +5 @@ contract Vault {
-        return x;
+        return x + 1;
@@ -10,0 +11,2 @@ contract Vault {
+    function sweep() external {}
+
@@ -20,3 +22,0 @@ contract Vault {
-    function pause() external {}
-
-
@@ -1,2 +0,0 @@
-// header
-
`
	ranges, err := ParseHunks(output)
	require.NoError(t, err)
	assert.Equal(t, []LineRange{
		{Start: 5, End: 5},
		{Start: 11, End: 12},
		{Start: 22, End: 22},
		{Start: 1, End: 1},
	}, ranges)
}

func TestParseHunks_NoChanges(t *testing.T) {
	t.Parallel()

	ranges, err := ParseHunks("")
	require.NoError(t, err)
	assert.Empty(t, ranges)
}

func TestBufferLines(t *testing.T) {
	t.Parallel()

	base := []byte("a\nb\nc\nd\ne\n")

	t.Run("identical", func(t *testing.T) {
		assert.Empty(t, BufferLines(base, base))
	})

	t.Run("modified line", func(t *testing.T) {
		head := []byte("a\nb\nC\nd\ne\n")
		assert.Equal(t, []LineRange{{Start: 3, End: 3}}, BufferLines(base, head))
	})

	t.Run("inserted lines", func(t *testing.T) {
		head := []byte("a\nb\nx\ny\nc\nd\ne\n")
		assert.Equal(t, []LineRange{{Start: 3, End: 4}}, BufferLines(base, head))
	})

	t.Run("deleted line", func(t *testing.T) {
		head := []byte("a\nb\nd\ne\n")
		assert.Equal(t, []LineRange{{Start: 2, End: 2}}, BufferLines(base, head))
	})

	t.Run("deleted first line", func(t *testing.T) {
		head := []byte("b\nc\nd\ne\n")
		assert.Equal(t, []LineRange{{Start: 1, End: 1}}, BufferLines(base, head))
	})
}

func TestLineRange_Overlaps(t *testing.T) {
	t.Parallel()

	r := LineRange{Start: 10, End: 12}
	assert.True(t, r.Overlaps(12, 20))
	assert.True(t, r.Overlaps(1, 10))
	assert.True(t, r.Overlaps(11, 11))
	assert.False(t, r.Overlaps(1, 9))
	assert.False(t, r.Overlaps(13, 30))
}

func TestParseNameStatus(t *testing.T) {
	t.Parallel()

	output := "M\tcontracts/Vault.sol\nA\tcontracts/Oracle.sol\nD\tcontracts/Old.sol\nR100\ta.sol\tb.sol\nM\tdocs/My File.md\n\n"
	assert.Equal(t, []ChangedFile{
		{Status: StatusModified, Path: "contracts/Vault.sol"},
		{Status: StatusAdded, Path: "contracts/Oracle.sol"},
		{Status: StatusModified, Path: "docs/My File.md"},
	}, parseNameStatus(output))
}
