package ast

import (
	"lantern/internal/source"
)

type DeclKind uint8

const (
	DeclVar DeclKind = iota
	DeclFunction
	DeclFunctionTemplate
	DeclRecord
	DeclField
	DeclTypedef
	DeclParam
	DeclObjCContainer
	DeclObjCMethod
	DeclLinkageSpec
)

var declKindNames = [...]string{
	DeclVar:              "VarDecl",
	DeclFunction:         "FunctionDecl",
	DeclFunctionTemplate: "FunctionTemplateDecl",
	DeclRecord:           "RecordDecl",
	DeclField:            "FieldDecl",
	DeclTypedef:          "TypedefDecl",
	DeclParam:            "ParmVarDecl",
	DeclObjCContainer:    "ObjCContainerDecl",
	DeclObjCMethod:       "ObjCMethodDecl",
	DeclLinkageSpec:      "LinkageSpecDecl",
}

func (k DeclKind) String() string {
	if int(k) < len(declKindNames) {
		return declKindNames[k]
	}
	return "Decl(?)"
}

// TemplateSpecializationKind says whether a declaration was written or
// produced by instantiating a template.
type TemplateSpecializationKind uint8

const (
	TSKUndeclared TemplateSpecializationKind = iota
	TSKImplicitInstantiation
	TSKExplicitSpecialization
)

type StorageClass uint8

const (
	StorageNone StorageClass = iota
	StorageStatic
	StorageExtern
)

// Decl is one declaration. Children holds fields of records, parameters of
// functions and methods of Objective-C containers.
type Decl struct {
	Kind     DeclKind
	Name     string
	Span     source.Span
	NameSpan source.Span
	// Type is the type as spelled ("int", "const char *", "struct point").
	Type     string
	Storage  StorageClass
	Implicit bool
	TSK      TemplateSpecializationKind
	// Template links an instantiation to its FunctionTemplate and a
	// FunctionTemplate to the function it templates.
	Template       DeclID
	TemplateParams []string
	TemplateArgs   []string
	Parent         DeclID
	Children       []DeclID
	Body           StmtID
	Init           ExprID
	IsDefinition   bool
	// Record kind keyword for DeclRecord ("struct", "union", "class"),
	// "@interface"/"@implementation" for containers, language for linkage specs.
	Tag string
	// ObjCInstance is true for "-" methods.
	ObjCInstance bool
	FromMacro    bool
	MacroName    string
}

// Location is the position the declaration is reported at: its name when
// it has one.
func (d *Decl) Location() source.Span {
	if d.NameSpan.File != source.NoFile {
		return d.NameSpan
	}
	return d.Span
}

// IsTemplateInstantiation reports whether the decl is an implicit instantiation.
func (d *Decl) IsTemplateInstantiation() bool {
	return d.TSK == TSKImplicitInstantiation
}

type Decls struct {
	Arena *Arena[Decl]
}

func NewDecls(capHint uint) *Decls {
	return &Decls{
		Arena: NewArena[Decl](capHint),
	}
}

func (d *Decls) New(decl Decl) DeclID {
	return DeclID(d.Arena.Allocate(decl))
}

func (d *Decls) Get(id DeclID) *Decl {
	return d.Arena.Get(uint32(id))
}

func (d *Decls) stringBytes() uint64 {
	var n uint64
	for i := range d.Arena.data {
		x := &d.Arena.data[i]
		n += uint64(len(x.Name) + len(x.Type) + len(x.Tag))
		n += uint64(cap(x.Children)) * 4
		for _, p := range x.TemplateParams {
			n += uint64(len(p))
		}
	}
	return n
}
