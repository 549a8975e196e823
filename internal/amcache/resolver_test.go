package amcache

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ilexum-group/amcache/internal/hive"
)

func record() *hive.MemoryRecord {
	return hive.NewMemory("t").AddRoot("r").AddRecord("x")
}

func TestResolverPrefersLegacyNumericNames(t *testing.T) {
	rec := record().
		SetString("101", "legacy").
		SetString("SHA1", "modern").
		SetUint64("c", 10).
		SetUint64("Size", 20)

	r := NewResolver(DefaultSchema)
	assert.Equal(t, "legacy", r.ResolveString(rec, FieldSHA1))
	assert.Equal(t, uint64(10), r.ResolveUint64(rec, FieldSize))
}

func TestResolverFallsThroughEmptyAndZero(t *testing.T) {
	rec := record().
		SetString("15", "").
		SetString("FullPath", `C:\tools\a.exe`).
		SetUint64("c", 0).
		SetUint64("Size", 512).
		SetUint64("11", 0).
		SetUint64("LinkDate", 132000000000000000)

	e := NewResolver(DefaultSchema).Resolve(rec)
	assert.Equal(t, `C:\tools\a.exe`, e.Path)
	assert.Equal(t, uint64(512), e.Size)
	assert.Equal(t, "2019-04-17 18:40:00", e.FirstSeen.String())
}

func TestResolverDefaults(t *testing.T) {
	e := NewResolver(DefaultSchema).Resolve(record())
	assert.Empty(t, e.SHA1)
	assert.Empty(t, e.Path)
	assert.Zero(t, e.Size)
	assert.Empty(t, e.Company)
	assert.Empty(t, e.Product)
	assert.False(t, e.FirstSeen.Available())
	assert.Nil(t, e.Notes)
}

func TestResolverFileIDPrefix(t *testing.T) {
	sha := "da39a3ee5e6b4b0d3255bfef95601890afd80709"
	rec := record().SetString("FileId", "0000"+sha)
	assert.Equal(t, sha, NewResolver(DefaultSchema).ResolveString(rec, FieldSHA1))

	short := record().SetString("FileId", "0000abc")
	assert.Equal(t, "0000abc", NewResolver(DefaultSchema).ResolveString(short, FieldSHA1))
}

func TestResolverVendorAndProduct(t *testing.T) {
	rec := record().
		SetString("Publisher", "Contoso").
		SetString("Product", "Widget").
		SetString("ProductName", "ignored")
	e := NewResolver(DefaultSchema).Resolve(rec)
	assert.Equal(t, "Contoso", e.Company)
	assert.Equal(t, "Widget", e.Product)
}

func TestResolverIsDeterministic(t *testing.T) {
	rec := record().
		SetString("SHA1", "b").
		SetString("FileId", "c").
		SetString("101", "a")
	r := NewResolver(DefaultSchema)
	for i := 0; i < 50; i++ {
		assert.Equal(t, "a", r.ResolveString(rec, FieldSHA1))
	}
}

func TestResolverCustomSchema(t *testing.T) {
	rec := record().SetString("Hash", "h1").SetString("101", "ignored")
	r := NewResolver(Schema{SHA1: []string{"Hash"}})
	assert.Equal(t, "h1", r.ResolveString(rec, FieldSHA1))
	assert.Empty(t, r.ResolveString(rec, FieldPath))
	assert.Equal(t, []string{"Hash"}, r.Schema().Candidates(FieldSHA1))
}

func TestFieldString(t *testing.T) {
	assert.Equal(t, "sha1", FieldSHA1.String())
	assert.Equal(t, "first_seen", FieldFirstSeen.String())
	assert.Equal(t, "unknown", Field(99).String())
	assert.Nil(t, DefaultSchema.Candidates(Field(99)))
}
