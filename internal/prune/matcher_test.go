package prune

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentifierMatcher(t *testing.T) {
	m := NewIdentifierMatcher("5CB1B891FC0DC3FDBBE0E21F", "44722793FF51AD1F23D051CB", "5CB1B891FC0DC3FDBBE0E21F")

	assert.Equal(t, []string{"44722793FF51AD1F23D051CB", "5CB1B891FC0DC3FDBBE0E21F"}, m.Identifiers())
	assert.True(t, m.Match("\t\t5CB1B891FC0DC3FDBBE0E21F /* DracarysWatch */ = {"))
	assert.True(t, m.Match("\t\t\tremoteGlobalIDString = 5CB1B891FC0DC3FDBBE0E21F;"))
	assert.False(t, m.Match("\t\t504EC3011FED79650016851F /* App */ = {"))
	assert.False(t, m.Match("\t\t\tname = DracarysWatch;"))
}

func TestIdentifierMatcher_Empty(t *testing.T) {
	m := NewIdentifierMatcher()
	assert.False(t, m.Match("anything"))
	assert.Empty(t, m.Identifiers())
}

func TestKeywordMatcher(t *testing.T) {
	m := NewKeywordMatcher("Watch", "", "watchos")

	assert.Equal(t, []string{"Watch", "watchos"}, m.Keywords())
	assert.True(t, m.Match("\t\t\tname = DracarysWatch;"))
	assert.True(t, m.Match("\t\t\t\tSDKROOT = watchos;"))
	// Case-sensitive.
	assert.False(t, m.Match("\t\t\t\tWATCHOS_DEPLOYMENT_TARGET = 9.0;"))
	assert.False(t, m.Match("\t\t\tname = App;"))
}

func TestAnyMatcher(t *testing.T) {
	m := AnyMatcher{NewIdentifierMatcher("5CB1B891FC0DC3FDBBE0E21F"), NewKeywordMatcher("watchOS")}

	assert.True(t, m.Match("5CB1B891FC0DC3FDBBE0E21F"))
	assert.True(t, m.Match("DA3335954F168F02DC3CD7A3 /* watchOS */,"))
	assert.False(t, m.Match("504EC3011FED79650016851F /* App */,"))
	assert.False(t, AnyMatcher{}.Match("anything"))
}

func TestNewMatcher(t *testing.T) {
	ids := []string{"5CB1B891FC0DC3FDBBE0E21F"}
	keywords := []string{"Watch"}

	tests := []struct {
		name     string
		mode     Mode
		ids      []string
		keywords []string
		wantErr  string
	}{
		{"identifier", ModeIdentifier, ids, nil, ""},
		{"identifier without ids", ModeIdentifier, nil, keywords, "requires at least one identifier"},
		{"keyword", ModeKeyword, nil, keywords, ""},
		{"keyword without keywords", ModeKeyword, ids, nil, "requires at least one keyword"},
		{"keyword with only empty keywords", ModeKeyword, nil, []string{""}, "requires at least one keyword"},
		{"both", ModeBoth, ids, keywords, ""},
		{"both with ids only", ModeBoth, ids, nil, ""},
		{"both with nothing", ModeBoth, nil, nil, "requires identifiers or keywords"},
		{"unknown", Mode("fuzzy"), ids, keywords, "unknown mode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewMatcher(tt.mode, tt.ids, tt.keywords)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, m)
		})
	}
}

func TestClassify(t *testing.T) {
	m := NewKeywordMatcher("Watch")

	tests := []struct {
		name     string
		line     string
		verdict  Verdict
		delta    int
		recordID string
	}{
		{"unrelated", "\t\t\tname = App;", Unrelated, 0, ""},
		{"block opener", "\t\t9C99FA2AB497AFF83C8A6A13 /* DracarysWatch */ = {", StartsBlock, 1, "9C99FA2AB497AFF83C8A6A13"},
		{"array opener", "\t\t\tWatchFiles = (", StartsBlock, 1, ""},
		{"list entry", "\t\t\t\t9C99FA2AB497AFF83C8A6A13 /* DracarysWatch */,", StandaloneReference, 0, ""},
		{"one-line record", "\t\t2D96BF4A12C4BF3448E9003F /* WatchDashboardView.swift */ = {isa = PBXFileReference; path = WatchDashboardView.swift; };", StandaloneReference, 0, "2D96BF4A12C4BF3448E9003F"},
		{"opener only in a string", "\t\t\tname = \"Watch {\";", StandaloneReference, 0, ""},
		{"closer", "\t\t}; /* Watch */", StandaloneReference, -1, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Classify(tt.line, m)
			require.NoError(t, err)
			assert.Equal(t, tt.verdict, c.Verdict)
			assert.Equal(t, tt.delta, c.Delta)
			assert.Equal(t, tt.recordID, c.RecordID)
		})
	}
}

func TestClassify_UnmatchedLineIsNotTokenized(t *testing.T) {
	// An unterminated string on a line the matcher ignores is not an error.
	c, err := Classify("\t\t\tname = \"App;", NewKeywordMatcher("Watch"))
	require.NoError(t, err)
	assert.Equal(t, Unrelated, c.Verdict)
}

func TestVerdictString(t *testing.T) {
	assert.Equal(t, "unrelated", Unrelated.String())
	assert.Equal(t, "starts-block", StartsBlock.String())
	assert.Equal(t, "standalone-reference", StandaloneReference.String())
}
