package pbxproj

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	projectID     = "504EC2FC1FED79650016851F"
	watchTargetID = "5CB1B891FC0DC3FDBBE0E21F"
	proxyID       = "1F2E3D4C5B6A798897A6B5C4"
	dependencyID  = "6C2DB9A87B4183C00EAE4091"
)

func parseFixture(t *testing.T) *Project {
	t.Helper()
	p, err := Parse("App.pbxproj", []byte(strings.Join(fixtureLines(t), "\n")))
	require.NoError(t, err)
	return p
}

func TestParse_Fixture(t *testing.T) {
	p := parseFixture(t)

	assert.Equal(t, projectID, p.RootObject)
	assert.Len(t, p.Objects, 39)
	assert.Empty(t, p.Dangling())
}

func TestParse_ObjectSpans(t *testing.T) {
	p := parseFixture(t)

	target, ok := p.Object(watchTargetID)
	require.True(t, ok)
	assert.Equal(t, "PBXNativeTarget", target.ISA)
	assert.Equal(t, 146, target.StartLine)
	assert.Equal(t, 161, target.EndLine)
	assert.Contains(t, target.Refs, "CE4275E20528B5EF281ED224")

	buildFile, ok := p.Object("03253CF0307E603FCB914DB4")
	require.True(t, ok)
	assert.Equal(t, "PBXBuildFile", buildFile.ISA)
	assert.Equal(t, 10, buildFile.StartLine)
	assert.Equal(t, 10, buildFile.EndLine)
	assert.Equal(t, []string{"2D96BF4A12C4BF3448E9003F"}, buildFile.Refs)

	proxy, ok := p.Object(proxyID)
	require.True(t, ok)
	assert.Equal(t, watchTargetID, proxy.Remote)
	assert.Equal(t, projectID, proxy.Portal)

	_, ok = p.Object("000000000000000000000000")
	assert.False(t, ok)
}

func TestParse_ObjectAt(t *testing.T) {
	p := parseFixture(t)

	obj, ok := p.ObjectAt(150)
	require.True(t, ok)
	assert.Equal(t, watchTargetID, obj.ID)

	// Nested dictionary keys belong to their enclosing object.
	obj, ok = p.ObjectAt(174)
	require.True(t, ok)
	assert.Equal(t, projectID, obj.ID)

	_, ok = p.ObjectAt(8)
	assert.False(t, ok)
}

func TestParse_Links(t *testing.T) {
	p := parseFixture(t)

	dep, ok := p.Object(dependencyID)
	require.True(t, ok)
	assert.Equal(t, []Link{
		{Key: "target", ID: watchTargetID, Line: 232},
		{Key: "targetProxy", ID: proxyID, Line: 233},
	}, dep.Links)

	proxy, ok := p.Object(proxyID)
	require.True(t, ok)
	assert.Equal(t, []Link{
		{Key: "containerPortal", ID: projectID, Line: 21},
		{Key: "remoteGlobalIDString", ID: watchTargetID, Line: 23},
	}, proxy.Links)

	// Array entries and nested dictionaries are not links.
	project, ok := p.Object(projectID)
	require.True(t, ok)
	for _, link := range project.Links {
		assert.NotEqual(t, watchTargetID, link.ID)
	}
}

func TestParse_LinkAt(t *testing.T) {
	p := parseFixture(t)

	obj, link, ok := p.LinkAt(232)
	require.True(t, ok)
	assert.Equal(t, dependencyID, obj.ID)
	assert.Equal(t, "target", link.Key)

	// remoteInfo holds a name, not an identifier.
	_, _, ok = p.LinkAt(24)
	assert.False(t, ok)

	// Array entry.
	_, _, ok = p.LinkAt(139)
	assert.False(t, ok)

	// A one-line object's fields are part of its definition line.
	_, _, ok = p.LinkAt(10)
	assert.False(t, ok)
}

func TestParse_ReferencesTo(t *testing.T) {
	p := parseFixture(t)

	assert.Equal(t, []string{proxyID, projectID, dependencyID}, p.ReferencesTo(watchTargetID))
	assert.Empty(t, p.ReferencesTo(proxyID+"X"))
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"unclosed root", "{\n\tobjects = {\n\t};\n"},
		{"missing semicolon", "{\n\tarchiveVersion = 1\n}\n"},
		{"objects not a dictionary", "{\n\tobjects = (\n\t);\n}\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("broken.pbxproj", []byte(tt.src))
			assert.Error(t, err)
		})
	}
}

func TestDangling(t *testing.T) {
	src := `// !$*UTF8*$!
{
	objects = {
		AAAAAAAAAAAAAAAAAAAAAAAA = {isa = PBXProject; targets = (BBBBBBBBBBBBBBBBBBBBBBBB, ); };
		CCCCCCCCCCCCCCCCCCCCCCCC = {isa = PBXContainerItemProxy; containerPortal = DDDDDDDDDDDDDDDDDDDDDDDD; remoteGlobalIDString = EEEEEEEEEEEEEEEEEEEEEEEE; };
		FFFFFFFFFFFFFFFFFFFFFFFF = {isa = PBXContainerItemProxy; containerPortal = AAAAAAAAAAAAAAAAAAAAAAAA; remoteGlobalIDString = 111111111111111111111111; };
	};
	rootObject = AAAAAAAAAAAAAAAAAAAAAAAA;
}
`
	p, err := Parse("dangling.pbxproj", []byte(src))
	require.NoError(t, err)

	assert.Equal(t, []DanglingRef{
		{From: "AAAAAAAAAAAAAAAAAAAAAAAA", ISA: "PBXProject", Line: 4, ID: "BBBBBBBBBBBBBBBBBBBBBBBB"},
		// The remote identifier of a proxy into another project is not checked.
		{From: "CCCCCCCCCCCCCCCCCCCCCCCC", ISA: "PBXContainerItemProxy", Line: 5, ID: "DDDDDDDDDDDDDDDDDDDDDDDD"},
		{From: "FFFFFFFFFFFFFFFFFFFFFFFF", ISA: "PBXContainerItemProxy", Line: 6, ID: "111111111111111111111111"},
	}, p.Dangling())
}

func TestDangling_MissingRootObject(t *testing.T) {
	p, err := Parse("root.pbxproj", []byte("{\n\tobjects = {\n\t};\n\trootObject = AAAAAAAAAAAAAAAAAAAAAAAA;\n}\n"))
	require.NoError(t, err)
	assert.Equal(t, []DanglingRef{{ID: "AAAAAAAAAAAAAAAAAAAAAAAA"}}, p.Dangling())
}
