package tsdecl

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/notion-schema/errors"
)

// endpointsExcerpt is shaped like the Notion client's api-endpoints.d.ts.
const endpointsExcerpt = `import type { IdRequest } from "./helpers";
type EmptyObject = Record<string, never>;
export type PartialUserObjectResponse = {
    id: IdRequest;
    object: "user";
};
type SelectPropertyItemRequest = {
    id: StringRequest;
    name?: StringRequest;
    color?: SelectColor;
} | null;
type CreatePageBodyParameters = {
    parent: {
        page_id: IdRequest;
        type?: "page_id";
    } | {
        database_id: IdRequest;
        type?: "database_id";
    };
    properties: Record<string, {
        title: Array<RichTextItemRequest>;
        type?: "title";
    } | {
        select: SelectPropertyItemRequest;
        type?: "select";
    }>;
    icon?: {
        emoji: EmojiRequest;
        type?: "emoji";
    } | null;
    children?: Array<BlockObjectRequest>;
};
export type CreatePageParameters = CreatePageBodyParameters;
export type CreatePageResponse = PageObjectResponse | PartialPageObjectResponse;
export declare const createPage: {
    readonly method: "post";
    readonly pathParams: readonly [];
    readonly path: () => string;
};
export type QueryDatabaseResponse = {
    type: "page_or_database";
    page_or_database: EmptyObject;
    object: "list";
    next_cursor: string | null;
    has_more: boolean;
    results: Array<PageObjectResponse | PartialPageObjectResponse>;
} & ListMeta;
export interface PageObjectResponse {
    object: "page";
    properties: Record<string, PropertyValue>;
    readonly "created time": string;
}
declare namespace Internal {
    type Hidden = { properties: string };
}
export {};
`

func mustLoad(t *testing.T, src string) *Library {
	t.Helper()
	lib, err := Load(src)
	require.NoError(t, err)
	return lib
}

func mustDecl(t *testing.T, lib *Library, name string) *Declaration {
	t.Helper()
	decls := lib.Lookup(name)
	require.Len(t, decls, 1, name)
	return decls[0]
}

func TestLoad_Classification(t *testing.T) {
	lib := mustLoad(t, endpointsExcerpt)

	assert.Equal(t, []string{
		"EmptyObject",
		"PartialUserObjectResponse",
		"SelectPropertyItemRequest",
		"CreatePageBodyParameters",
		"CreatePageParameters",
		"CreatePageResponse",
		"QueryDatabaseResponse",
		"PageObjectResponse",
	}, lib.Names())

	kinds := map[string]Kind{
		"EmptyObject":               KindReference,
		"PartialUserObjectResponse": KindTypeLiteral,
		"SelectPropertyItemRequest": KindUnion,
		"CreatePageBodyParameters":  KindTypeLiteral,
		"CreatePageParameters":      KindReference,
		"CreatePageResponse":        KindUnion,
		"QueryDatabaseResponse":     KindIntersection,
		"PageObjectResponse":        KindTypeLiteral,
	}
	for name, kind := range kinds {
		assert.Equal(t, kind, mustDecl(t, lib, name).Kind, name)
	}

	// namespace members are not top-level declarations
	assert.Empty(t, lib.Lookup("Hidden"))
}

func TestLoad_StatementsCoverSource(t *testing.T) {
	lib := mustLoad(t, endpointsExcerpt)

	// 8 declarations plus import, declare const, namespace and export {}
	require.Len(t, lib.Statements, 12)
	assert.Nil(t, lib.Statements[0].Decl)
	assert.Equal(t, `import type { IdRequest } from "./helpers";`, lib.Statements[0].Span.Text(lib.Source))

	constStmt := lib.Statements[7]
	assert.Nil(t, constStmt.Decl)
	assert.True(t, strings.HasPrefix(constStmt.Span.Text(lib.Source), "export declare const createPage"))
	assert.True(t, strings.HasSuffix(constStmt.Span.Text(lib.Source), "};"))

	assert.Equal(t, "export {};", lib.Statements[11].Span.Text(lib.Source))

	// statements are in order and do not overlap
	for i := 1; i < len(lib.Statements); i++ {
		assert.LessOrEqual(t, lib.Statements[i-1].Span.End, lib.Statements[i].Span.Start)
	}
}

func TestLoad_TypeLiteralMembers(t *testing.T) {
	lib := mustLoad(t, endpointsExcerpt)

	body := mustDecl(t, lib, "CreatePageBodyParameters")
	names := make([]string, 0, len(body.Members))
	for _, m := range body.Members {
		names = append(names, m.Name)
	}
	assert.Equal(t, []string{"parent", "properties", "icon", "children"}, names)

	props := body.MembersNamed("properties")
	require.Len(t, props, 1)
	assert.True(t, strings.HasPrefix(props[0].TypeSpan.Text(lib.Source), "Record<string, {"))
	assert.True(t, strings.HasSuffix(props[0].TypeSpan.Text(lib.Source), "}>"))
	assert.True(t, strings.HasPrefix(props[0].Span.Text(lib.Source), "properties: Record"))

	icon := body.MembersNamed("icon")
	require.Len(t, icon, 1)
	assert.True(t, icon[0].Optional)

	page := mustDecl(t, lib, "PageObjectResponse")
	assert.Equal(t, "interface", page.Keyword)
	require.Len(t, page.Members, 3)
	assert.Equal(t, "created time", page.Members[2].Name)
}

func TestLoad_PartsAndReferences(t *testing.T) {
	lib := mustLoad(t, endpointsExcerpt)

	params := mustDecl(t, lib, "CreatePageParameters")
	require.NotNil(t, params.Ref)
	assert.Equal(t, "CreatePageBodyParameters", params.Ref.Name)
	assert.False(t, params.Ref.HasArgs)
	assert.Equal(t, "CreatePageBodyParameters", params.Ref.Span.Text(lib.Source))
	assert.True(t, params.Exported)

	resp := mustDecl(t, lib, "CreatePageResponse")
	require.Len(t, resp.Parts, 2)
	assert.Equal(t, "PageObjectResponse", resp.Parts[0].Ref.Name)
	assert.Equal(t, "PartialPageObjectResponse", resp.Parts[1].Ref.Name)

	sel := mustDecl(t, lib, "SelectPropertyItemRequest")
	require.Len(t, sel.Parts, 2)
	assert.Nil(t, sel.Parts[0].Ref)
	assert.False(t, sel.Parts[0].Nested)
	assert.ElementsMatch(t, []string{"StringRequest", "SelectColor"}, sel.Parts[0].Mentions)

	query := mustDecl(t, lib, "QueryDatabaseResponse")
	require.Len(t, query.Parts, 2)
	assert.Equal(t, "ListMeta", query.Parts[1].Ref.Name)
	assert.True(t, query.Parts[0].MentionsName("PageObjectResponse"))

	empty := mustDecl(t, lib, "EmptyObject")
	assert.True(t, empty.Ref.HasArgs)
	assert.Equal(t, "Record", empty.Ref.Name)
	assert.Equal(t, "Record", lib.Source[empty.Ref.Span.Start:empty.Ref.NameEnd])
}

func TestLoad_NestedComposition(t *testing.T) {
	lib := mustLoad(t, `
type A = B | (C & D) | E & F | (G);
type P = (X | Y);
`)

	a := mustDecl(t, lib, "A")
	require.Equal(t, KindUnion, a.Kind)
	require.Len(t, a.Parts, 4)

	assert.Equal(t, "B", a.Parts[0].Ref.Name)
	assert.True(t, a.Parts[1].Nested)
	assert.ElementsMatch(t, []string{"C", "D"}, a.Parts[1].Mentions)
	assert.True(t, a.Parts[2].Nested)
	assert.Equal(t, "E & F", a.Parts[2].Span.Text(lib.Source))
	assert.Equal(t, "G", a.Parts[3].Ref.Name, "parentheses around a bare reference are looked through")
	assert.Equal(t, "(G)", a.Parts[3].Span.Text(lib.Source))

	p := mustDecl(t, lib, "P")
	assert.Equal(t, KindUnion, p.Kind, "top-level parentheses are looked through")
}

func TestLoad_TypeParameters(t *testing.T) {
	lib := mustLoad(t, `type Paged<T extends object = {}, in out K = keyof T> = { results: T[]; key: K };`)

	d := mustDecl(t, lib, "Paged")
	require.Len(t, d.Params, 2)
	assert.Equal(t, "T", d.Params[0].Name)
	assert.Equal(t, "K", d.Params[1].Name)
	assert.True(t, d.HasParam("T"))
	assert.False(t, d.HasParam("P"))
	assert.Equal(t, "<T extends object = {}, in out K = keyof T>", d.ParamSpan.Text(lib.Source))
	assert.Equal(t, KindTypeLiteral, d.Kind)
}

func TestLoad_TypeParameterConstraints(t *testing.T) {
	tests := []struct {
		src        string
		constraint string
		literal    bool
	}{
		{`type A<T extends "Name"|"Status"> = {};`, `"Name"|"Status"`, true},
		{`type A<T extends | "Name" | 'Due'> = {};`, `"Name" | 'Due'`, true},
		{`type A<T extends string> = {};`, "string", true},
		{`type A<T extends keyof B> = {};`, "keyof B", false},
		{`type A<T extends "Name" | B> = {};`, `"Name" | B`, false},
		{`type A<T extends "Name" = "Name"> = {};`, `"Name"`, true},
		{`type A<T> = {};`, "", false},
	}
	for _, tt := range tests {
		lib := mustLoad(t, tt.src)
		p, ok := mustDecl(t, lib, "A").Param("T")
		require.True(t, ok, tt.src)
		assert.Equal(t, tt.constraint, p.Constraint.Text(lib.Source), tt.src)
		assert.Equal(t, tt.literal, p.LiteralConstraint, tt.src)
	}
}

func TestLoad_TypeGrammar(t *testing.T) {
	// Each alias must parse; the kind shows how far the classifier looked.
	tests := []struct {
		src  string
		kind Kind
	}{
		{`type A = (x: string, y?: number) => void;`, KindOther},
		{`type A = new (...args: any[]) => object;`, KindOther},
		{`type A = <T>(x: T) => x is T;`, KindOther},
		{`type A<T> = T extends Array<infer E> ? E : never;`, KindOther},
		{`type A<T> = T extends [infer H extends string, ...infer R] ? H : never;`, KindOther},
		{`type A<T> = { readonly [K in keyof T as Uppercase<K & string>]-?: T[K] };`, KindOther},
		{"type A = `prefix-${string}`;", KindOther},
		{`type A = typeof import("./x").default;`, KindOther},
		{`type A = readonly [first: string, second?: number, ...rest: boolean[]];`, KindOther},
		{`type A = { [key: string]: unknown; (x: number): string; new (): A; method?<T>(a: T): void; get size(): number };`, KindTypeLiteral},
		{`type A = -1 | 0 | 1;`, KindUnion},
		{`type A = unique symbol;`, KindOther},
		{`type A = NS.Inner<string>[];`, KindOther},
		{`type A = NS.Inner;`, KindReference},
		{"type A = B\ntype C = D", KindReference},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			lib, err := Load(tt.src)
			require.NoError(t, err)
			require.NotEmpty(t, lib.Declarations)
			assert.Equal(t, tt.kind, lib.Declarations[0].Kind)
		})
	}
}

func TestLoad_ASIWithoutSemicolons(t *testing.T) {
	lib := mustLoad(t, "type A = B\n\ntype C = {\n  properties: X\n  other: Y\n}\nexport declare function f(): void\nexport type D = A | C\n")

	assert.Equal(t, []string{"A", "C", "D"}, lib.Names())
	c := mustDecl(t, lib, "C")
	require.Len(t, c.Members, 2)
	assert.Equal(t, "X", c.Members[0].TypeSpan.Text(lib.Source))
	require.Len(t, lib.Statements, 4)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		message string
		line    int
		col     int
	}{
		{"missing equals", "type A {}", `expected '=' after type alias name, found "{"`, 1, 8},
		{"missing type", "type A = ;", `expected a type, found ";"`, 1, 10},
		{"unclosed object", "type A = {\n  x: string;\n", "unclosed '{'", 1, 10},
		{"unclosed type args", "type A = Array<string;", `expected '>' to close type arguments, found ";"`, 1, 22},
		{"stray closer", "declare const x: string);", "unexpected ')'", 1, 24},
		{"unclosed namespace", "declare namespace N {\n  const x: 1;\n", "unclosed '{'", 1, 21},
		{"junk after alias", "type A = B C;", `expected ';' after type alias A, found "C"`, 1, 12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lib, err := Load(tt.src)
			require.Error(t, err)
			assert.Nil(t, lib)
			assert.True(t, errors.IsLoadError(err))

			var loadErr *LoadError
			require.True(t, errors.As(err, &loadErr))
			assert.Equal(t, tt.message, loadErr.Message)
			assert.Equal(t, tt.line, loadErr.Line)
			assert.Equal(t, tt.col, loadErr.Col)
		})
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "api-endpoints.d.ts")
	require.NoError(t, os.WriteFile(good, []byte(endpointsExcerpt), 0644))
	lib, err := LoadFile(good)
	require.NoError(t, err)
	assert.Len(t, lib.Declarations, 8)

	bad := filepath.Join(dir, "broken.d.ts")
	require.NoError(t, os.WriteFile(bad, []byte("type A = {"), 0644))
	_, err = LoadFile(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken.d.ts:1:10: unclosed '{'")

	_, err = LoadFile(filepath.Join(dir, "missing.d.ts"))
	require.Error(t, err)
	assert.False(t, errors.IsLoadError(err))
}

func TestLoadError_Format(t *testing.T) {
	_, err := Load("type A = {\n  x: string\n  y: ]\n}")
	require.Error(t, err)

	var loadErr *LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, 3, loadErr.Line)
	assert.Equal(t, 6, loadErr.Col)
	assert.Equal(t, "  y: ]", loadErr.Snippet)
	assert.Equal(t, `line 3 col 6: expected a type, found "]"`, loadErr.Error())

	formatted := loadErr.FormatTerminal()
	assert.Contains(t, formatted, "expected a type")
	assert.Contains(t, formatted, "  y: ]")
	assert.Contains(t, formatted, "^")
}

func TestApply(t *testing.T) {
	lib := mustLoad(t, "type A = B | C;\n")
	a := mustDecl(t, lib, "A")

	out, err := lib.Apply([]Edit{
		{Span: Span{a.Parts[0].Ref.NameEnd, a.Parts[0].Ref.NameEnd}, Text: "<T>"},
		{Span: Span{a.NameSpan.End, a.NameSpan.End}, Text: "<T>"},
	})
	require.NoError(t, err)
	assert.Equal(t, "type A<T> = B<T> | C;\n", out)

	_, err = lib.Apply([]Edit{
		{Span: Span{0, 6}, Text: "x"},
		{Span: Span{3, 4}, Text: "y"},
	})
	require.Error(t, err)

	same, err := lib.Apply(nil)
	require.NoError(t, err)
	assert.Equal(t, lib.Source, same)
}
