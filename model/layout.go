package model

// LayoutKind distinguishes structs from unions
type LayoutKind int

const (
	Product LayoutKind = iota
	Union
)

// Field is a struct field. Embedded fields are named after their type.
type Field struct {
	Name     string
	Type     string
	Embedded bool
	// TypeParam is set when Type is a bare type parameter of the declaring type
	TypeParam bool
}

// Variant is one pointer field of a union struct. Opaque variants point to
// a type whose fields are not visible; the payload itself is the only field.
type Variant struct {
	Name   string
	Type   string // pointee type
	Fields []Field
	Opaque bool
}

// Layout is the field layout of a type targeted by field delegation
type Layout struct {
	Kind       LayoutKind
	TypeName   string
	TypeParams []TypeParam
	Fields     []Field
	Variants   []Variant
	// Attrs are the file-level directive lines of the declaring file
	Attrs []string
}
