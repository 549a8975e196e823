package amcache

import (
	"strings"

	"github.com/ilexum-group/amcache/internal/filetime"
	"github.com/ilexum-group/amcache/internal/hive"
	"github.com/ilexum-group/amcache/pkg/models"
)

// Field is a logical entry field backed by one or more raw value names.
type Field int

// Logical fields in resolution order.
const (
	FieldSHA1 Field = iota
	FieldPath
	FieldSize
	FieldCompany
	FieldProduct
	FieldFirstSeen
)

func (f Field) String() string {
	switch f {
	case FieldSHA1:
		return "sha1"
	case FieldPath:
		return "path"
	case FieldSize:
		return "size"
	case FieldCompany:
		return "company"
	case FieldProduct:
		return "product"
	case FieldFirstSeen:
		return "first_seen"
	default:
		return "unknown"
	}
}

// Schema lists, per field, the raw value names to try in order. The first
// present, non-empty (or non-zero) value wins.
type Schema struct {
	SHA1      []string
	Path      []string
	Size      []string
	Company   []string
	Product   []string
	FirstSeen []string
}

// DefaultSchema tries the Windows 7/8 numeric value names first, then the
// named values of later releases.
//
//	sha1       101, SHA1, FileId
//	path       15, FullPath, LowerCaseLongPath
//	size       c, Size
//	company    1, Company, Publisher
//	product    0, Product, ProductName
//	first seen 11, LinkDate
var DefaultSchema = Schema{
	SHA1:      []string{"101", "SHA1", "FileId"},
	Path:      []string{"15", "FullPath", "LowerCaseLongPath"},
	Size:      []string{"c", "Size"},
	Company:   []string{"1", "Company", "Publisher"},
	Product:   []string{"0", "Product", "ProductName"},
	FirstSeen: []string{"11", "LinkDate"},
}

// Candidates returns the value names tried for f.
func (s Schema) Candidates(f Field) []string {
	switch f {
	case FieldSHA1:
		return s.SHA1
	case FieldPath:
		return s.Path
	case FieldSize:
		return s.Size
	case FieldCompany:
		return s.Company
	case FieldProduct:
		return s.Product
	case FieldFirstSeen:
		return s.FirstSeen
	default:
		return nil
	}
}

// Some values need reshaping before use. FileId stores the SHA-1 behind a
// four-zero prefix.
var valueNormalizers = map[string]func(string) string{
	"fileid": func(v string) string {
		if len(v) == 44 && strings.HasPrefix(v, "0000") {
			return v[4:]
		}
		return v
	},
}

// Resolver builds entries from raw value sets. It holds no per-record state
// and is safe for concurrent use.
type Resolver struct {
	schema Schema
}

// NewResolver returns a resolver over schema.
func NewResolver(schema Schema) *Resolver {
	return &Resolver{schema: schema}
}

// Schema returns the candidate table in use.
func (r *Resolver) Schema() Schema {
	return r.schema
}

// ResolveString returns the first non-empty string among the field's candidates.
func (r *Resolver) ResolveString(values hive.ValueSet, f Field) string {
	for _, name := range r.schema.Candidates(f) {
		v, ok := values.ReadString(name)
		if !ok {
			continue
		}
		if normalize, ok := valueNormalizers[strings.ToLower(name)]; ok {
			v = normalize(v)
		}
		if v != "" {
			return v
		}
	}
	return ""
}

// ResolveUint64 returns the first non-zero number among the field's candidates.
func (r *Resolver) ResolveUint64(values hive.ValueSet, f Field) uint64 {
	for _, name := range r.schema.Candidates(f) {
		if v, ok := values.ReadUint64(name); ok && v != 0 {
			return v
		}
	}
	return 0
}

// Resolve builds an entry without notes.
func (r *Resolver) Resolve(values hive.ValueSet) models.Entry {
	return models.Entry{
		SHA1:      r.ResolveString(values, FieldSHA1),
		Path:      r.ResolveString(values, FieldPath),
		Size:      r.ResolveUint64(values, FieldSize),
		Company:   r.ResolveString(values, FieldCompany),
		Product:   r.ResolveString(values, FieldProduct),
		FirstSeen: filetime.Decode(r.ResolveUint64(values, FieldFirstSeen)),
	}
}
