package prune

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pbxprune/internal/pbxproj"
)

func TestVerify_Pass(t *testing.T) {
	lines := []string{"{", "\tname = App;", "}"}

	report := Verify(lines, VerifyOptions{Keywords: watchKeywords, Identifiers: watchIDs})
	assert.True(t, report.Pass)
	assert.Zero(t, report.Count)
	assert.Empty(t, report.Samples)
}

func TestVerify_ExactAndFolded(t *testing.T) {
	lines := []string{
		"\t\t\tremoteInfo = DracarysWatch;",
		"\t\t\t\tWATCHOS_DEPLOYMENT_TARGET = 9.0;",
	}

	report := Verify(lines, VerifyOptions{Keywords: []string{"Watch", "watchOS"}})
	assert.False(t, report.Pass)
	assert.Equal(t, 1, report.ExactCount)
	// "watch" in DracarysWatch, then "watchos" in WATCHOS_DEPLOYMENT_TARGET.
	assert.Equal(t, 2, report.FoldedCount)
	assert.Equal(t, 2, report.Count)

	require.Len(t, report.Samples, 2)
	assert.Equal(t, Finding{
		Kind:   FindingKeyword,
		Term:   "Watch",
		Line:   1,
		Column: 25,
		Text:   "remoteInfo = DracarysWatch;",
	}, report.Samples[0])
	assert.Equal(t, FindingKeywordFolded, report.Samples[1].Kind)
	assert.Equal(t, "watchos", report.Samples[1].Term)
	assert.Equal(t, 2, report.Samples[1].Line)
	assert.Equal(t, 5, report.Samples[1].Column)
}

func TestVerify_UnicodeFolding(t *testing.T) {
	// Fullwidth capitals fold to fullwidth lowercase; a decomposed accent is
	// composed before comparison.
	lines := []string{
		"name = \uff37\uff21\uff34\uff23\uff28;",
		"name = Cafe\u0301;",
	}

	report := Verify(lines, VerifyOptions{Keywords: []string{"\uff57\uff41\uff54\uff43\uff48", "Caf\u00e9"}})
	assert.Equal(t, 0, report.ExactCount)
	assert.Equal(t, 2, report.FoldedCount)
	assert.False(t, report.Pass)
}

func TestVerify_Identifiers(t *testing.T) {
	lines := []string{
		"\t\t\tremoteGlobalIDString = 5CB1B891FC0DC3FDBBE0E21F;",
		"\t\t\ttarget = 5CB1B891FC0DC3FDBBE0E21F;",
	}

	report := Verify(lines, VerifyOptions{Identifiers: []string{"5CB1B891FC0DC3FDBBE0E21F"}})
	assert.False(t, report.Pass)
	assert.Equal(t, 2, report.IdentifierCount)
	assert.Equal(t, 2, report.Count)
	require.Len(t, report.Samples, 2)
	assert.Equal(t, FindingIdentifier, report.Samples[0].Kind)
}

func TestVerify_MaxSamples(t *testing.T) {
	lines := make([]string, 25)
	for i := range lines {
		lines[i] = "name = Watch;"
	}

	report := Verify(lines, VerifyOptions{Keywords: []string{"Watch"}})
	assert.Equal(t, 25, report.Count)
	assert.Len(t, report.Samples, DefaultMaxSamples)

	report = Verify(lines, VerifyOptions{Keywords: []string{"Watch"}, MaxSamples: 3})
	assert.Len(t, report.Samples, 3)
}

func TestVerify_OverlappingKeywordsCountedOnce(t *testing.T) {
	tests := []struct {
		line        string
		exactCount  int
		foldedCount int
	}{
		{line: "SDKROOT = watchos;", exactCount: 1, foldedCount: 1},
		{line: "WATCHOS_DEPLOYMENT_TARGET = 9.0;", exactCount: 0, foldedCount: 1},
		{line: "path = WatchWatch;", exactCount: 2, foldedCount: 2},
		{line: "name = \"watchOS Watch\";", exactCount: 2, foldedCount: 2},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			report := Verify([]string{tt.line}, VerifyOptions{Keywords: watchKeywords})
			assert.Equal(t, tt.exactCount, report.ExactCount)
			assert.Equal(t, tt.foldedCount, report.FoldedCount)
			assert.Equal(t, tt.foldedCount, report.Count)
		})
	}

	t.Run("longest keyword wins", func(t *testing.T) {
		report := Verify([]string{"WatchKit = 1;"}, VerifyOptions{Keywords: []string{"Watch", "WatchKit"}})
		assert.Equal(t, 1, report.ExactCount)
		require.Len(t, report.Samples, 1)
		assert.Equal(t, "WatchKit", report.Samples[0].Term)
		assert.Equal(t, 1, report.Samples[0].Column)
	})
}

func TestVerify_AfterPrune(t *testing.T) {
	in := loadFixture(t)

	t.Run("both mode passes", func(t *testing.T) {
		m, err := NewMatcher(ModeBoth, watchIDs, watchKeywords)
		require.NoError(t, err)
		res, err := Prune(in, m)
		require.NoError(t, err)

		proj, err := pbxproj.Parse("out", []byte(strings.Join(res.Lines, "\n")))
		require.NoError(t, err)

		report := Verify(res.Lines, VerifyOptions{Keywords: watchKeywords, Identifiers: watchIDs, Project: proj})
		assert.True(t, report.Pass)
		assert.Empty(t, report.Dangling)
	})

	t.Run("keyword mode leaves folded residue", func(t *testing.T) {
		res, err := Prune(in, NewKeywordMatcher(watchKeywords...))
		require.NoError(t, err)

		proj, err := pbxproj.Parse("out", []byte(strings.Join(res.Lines, "\n")))
		require.NoError(t, err)

		report := Verify(res.Lines, VerifyOptions{Keywords: watchKeywords, Project: proj})
		assert.False(t, report.Pass)
		assert.Equal(t, 0, report.ExactCount)
		assert.Equal(t, 4, report.FoldedCount)
		require.NotEmpty(t, report.Samples)

		first := report.Samples[0]
		assert.Equal(t, 221, first.Line)
		assert.Equal(t, "PRODUCT_BUNDLE_IDENTIFIER = com.dracarys.store.watchkitapp;", first.Text)
		assert.Equal(t, "5A6B7C8D9E0F1A2B3C4D5E6F", first.Object)
		assert.Equal(t, "XCBuildConfiguration", first.ISA)
	})

	t.Run("identifier mode removes the proxy with its target", func(t *testing.T) {
		res, err := Prune(in, NewIdentifierMatcher(watchIDs...))
		require.NoError(t, err)
		require.Len(t, res.Lines, 228)

		proj, err := pbxproj.Parse("out", []byte(strings.Join(res.Lines, "\n")))
		require.NoError(t, err)

		report := Verify(res.Lines, VerifyOptions{Keywords: watchKeywords, Identifiers: watchIDs, Project: proj})
		assert.True(t, report.Pass)
		assert.Zero(t, report.Count)
		assert.Empty(t, report.Dangling)
		_, ok := proj.Object(proxyID)
		assert.False(t, ok)
	})
}

func TestVerify_Dangling(t *testing.T) {
	src := "{\n\tobjects = {\n\t\tAAAAAAAAAAAAAAAAAAAAAAAA = {isa = PBXGroup; children = (BBBBBBBBBBBBBBBBBBBBBBBB, ); };\n\t};\n\trootObject = AAAAAAAAAAAAAAAAAAAAAAAA;\n}\n"
	proj, err := pbxproj.Parse("dangling", []byte(src))
	require.NoError(t, err)

	report := Verify(strings.Split(src, "\n"), VerifyOptions{Keywords: []string{"Watch"}, Project: proj})
	assert.False(t, report.Pass)
	assert.Zero(t, report.Count)
	require.Len(t, report.Dangling, 1)
	assert.Equal(t, "BBBBBBBBBBBBBBBBBBBBBBBB", report.Dangling[0].ID)
}
