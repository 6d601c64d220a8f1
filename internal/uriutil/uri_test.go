package uriutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPathToURI_WindowsDriveLetter(t *testing.T) {
	got := PathToURI(`D:\projects\test\main.cj`)
	assert.Equal(t, "file:///D%3A/projects/test/main.cj", got)
}

func TestURIToPath_RoundTripsWindowsDriveLetter(t *testing.T) {
	uri := PathToURI(`D:\projects\test\main.cj`)
	assert.Equal(t, `D:\projects\test\main.cj`, URIToPath(uri))
}

func TestPathToURI_RoundTripsPosixPath(t *testing.T) {
	path := "/home/dev/workspace/src/main.cj"
	uri := PathToURI(path)
	assert.Equal(t, path, URIToPath(uri))
}

func TestPathToURI_PercentEncodesSpaces(t *testing.T) {
	got := PathToURI("/home/dev/My Project/main.cj")
	assert.Contains(t, got, "%20")
}

func TestMergeUniqueStrings_PreservesOrderAndDedups(t *testing.T) {
	got := MergeUniqueStrings([]string{"a", "b"}, []string{"b", "c", "a"})
	assert.Equal(t, []string{"a", "b", "c"}, got)
}

func TestGetRealPath_LeavesUnsetVarsLiteral(t *testing.T) {
	got := GetRealPath("${CANGJIE_UNSET_VAR_XYZ}/lib")
	assert.Equal(t, "${CANGJIE_UNSET_VAR_XYZ}/lib", got)
}

func TestStripTrailingSeparator(t *testing.T) {
	assert.Equal(t, "/a/b", StripTrailingSeparator("/a/b/"))
	assert.Equal(t, "/a/b", StripTrailingSeparator("/a/b"))
}
